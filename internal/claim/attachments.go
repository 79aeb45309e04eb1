package claim

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/core/common/validation"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxAttachmentDescriptionLength = 500

// AllowedAttachmentTypes is the MIME allow-list for uploaded files.
var AllowedAttachmentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectAttachmentType sniffs content and returns the matching allow-listed
// MIME type, or false when the content is of any other type.
func DetectAttachmentType(content []byte) (*mimetype.MIME, bool) {
	detected := mimetype.Detect(content)
	for _, allowed := range AllowedAttachmentTypes {
		if detected.Is(allowed) {
			return detected, true
		}
	}
	return detected, false
}

// AddAttachment stores the binary, then records it against an Initiated claim.
// The binary is removed again if the record cannot be written.
func (s *Service) AddAttachment(ctx context.Context, claimID int64, upload AttachmentUpload, actor Actor) (*Attachment, error) {
	mime, err := s.validateUpload(upload)
	if err != nil {
		return nil, err
	}

	storedFilename := uuid.NewString() + mime.Extension()
	attachment := &Attachment{
		ClaimID:          claimID,
		OriginalFilename: filepath.Base(strings.TrimSpace(upload.OriginalFilename)),
		StoredFilename:   storedFilename,
		FileSize:         int64(len(upload.Content)),
		FileType:         mime.String(),
		Description:      upload.Description,
		UploadedBy:       actor.UserID,
		CreatedAt:        s.now(),
	}

	err = s.repo.WithinTransaction(ctx, func(tx Repository) error {
		if _, err := s.loadMutable(ctx, tx, claimID, actor); err != nil {
			return err
		}

		path, err := s.files.Save(ctx, storedFilename, upload.Content)
		if err != nil {
			return internal.NewInternalError("failed to store attachment", err)
		}
		attachment.FilePath = path

		err = tx.Attachments().Create(ctx, attachment)
		if errors.Is(err, ErrDuplicateStoredFilename) {
			return internal.NewConflictError("stored filename already exists", internal.ErrCodeDuplicateFilename)
		}
		if err != nil {
			return internal.NewInternalError("failed to create attachment", err)
		}
		return nil
	})
	if err != nil {
		if attachment.FilePath != "" {
			if rmErr := s.files.Remove(ctx, attachment.FilePath); rmErr != nil {
				s.logger.Error("failed to remove orphaned attachment file", "error", rmErr, "path", attachment.FilePath)
			}
		}
		s.logger.Warn("add attachment failed", "claim_id", claimID, "actor_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("attachment added",
		"claim_id", claimID,
		"attachment_id", attachment.ID,
		"stored_filename", attachment.StoredFilename,
		"file_type", attachment.FileType,
		"file_size", attachment.FileSize)
	return attachment, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, claimID, attachmentID int64, actor Actor) error {
	var removed *Attachment

	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		if _, err := s.loadMutable(ctx, tx, claimID, actor); err != nil {
			return err
		}

		attachment, err := tx.Attachments().GetByID(ctx, claimID, attachmentID)
		if errors.Is(err, ErrAttachmentNotFound) {
			return internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
		}
		if err != nil {
			return internal.NewInternalError("failed to load attachment", err)
		}

		if err := tx.Attachments().Delete(ctx, claimID, attachmentID); err != nil {
			if errors.Is(err, ErrAttachmentNotFound) {
				return internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
			}
			return internal.NewInternalError("failed to delete attachment", err)
		}
		removed = attachment
		return nil
	})
	if err != nil {
		s.logger.Warn("delete attachment failed", "claim_id", claimID, "attachment_id", attachmentID, "error", err)
		return err
	}

	// The row is gone; a leftover file is only logged.
	if removed.FilePath != "" {
		if err := s.files.Remove(ctx, removed.FilePath); err != nil {
			s.logger.Error("failed to remove attachment file", "error", err, "path", removed.FilePath)
		}
	}

	s.logger.Info("attachment deleted", "claim_id", claimID, "attachment_id", attachmentID)
	return nil
}

func (s *Service) ListAttachments(ctx context.Context, claimID int64, actor Actor) ([]*Attachment, error) {
	if _, err := s.loadAccessible(ctx, s.repo, claimID, actor); err != nil {
		return nil, err
	}

	attachments, err := s.repo.Attachments().ListByClaimID(ctx, claimID)
	if err != nil {
		s.logger.Error("failed to list attachments", "error", err, "claim_id", claimID)
		return nil, internal.NewInternalError("failed to list attachments", err)
	}
	return attachments, nil
}

func (s *Service) validateUpload(upload AttachmentUpload) (*mimetype.MIME, error) {
	validator := validation.NewValidator()
	validator.Field("originalFilename", upload.OriginalFilename).Required().MaxLength(255, internal.ErrCodeValidationFailed)
	if upload.Description != nil {
		validator.Field("description", *upload.Description).MaxLength(MaxAttachmentDescriptionLength, internal.ErrCodeValidationFailed)
	}
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	size := int64(len(upload.Content))
	if size == 0 {
		return nil, internal.NewValidationFieldError("file", "file is empty", internal.ErrCodeValidationFailed)
	}
	if size > s.attachmentMaxBytes {
		return nil, internal.NewValidationFieldError("file",
			fmt.Sprintf("file size %d exceeds the limit of %d bytes", size, s.attachmentMaxBytes),
			internal.ErrCodeFileTooLarge)
	}

	mime, ok := DetectAttachmentType(upload.Content)
	if !ok {
		return nil, internal.NewValidationFieldError("file",
			fmt.Sprintf("file type %s is not allowed", mime.String()),
			internal.ErrCodeFileTypeForbidden)
	}
	return mime, nil
}
