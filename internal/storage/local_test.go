package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal/storage"
)

var _ = Describe("LocalStorage", func() {
	var (
		ctx   context.Context
		dir   string
		local *storage.LocalStorage
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir = filepath.Join(GinkgoT().TempDir(), "attachments")
		local, err = storage.NewLocalStorage(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the directory", func() {
		info, err := os.Stat(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("should save and remove a file", func() {
		path, err := local.Save(ctx, "abc.pdf", []byte("%PDF-1.4"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(local.Dir(), "abc.pdf")))

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("%PDF-1.4"))

		Expect(local.Remove(ctx, path)).To(Succeed())
		_, err = os.Stat(path)
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})

	It("should not overwrite an existing file", func() {
		_, err := local.Save(ctx, "abc.pdf", []byte("first"))
		Expect(err).NotTo(HaveOccurred())

		_, err = local.Save(ctx, "abc.pdf", []byte("second"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject names that leave the directory", func() {
		for _, name := range []string{"", "..", "../escape.pdf", "nested/file.pdf"} {
			_, err := local.Save(ctx, name, []byte("x"))
			Expect(errors.Is(err, storage.ErrInvalidName)).To(BeTrue(), name)
		}
	})

	It("should refuse to remove files outside the directory", func() {
		outside := filepath.Join(GinkgoT().TempDir(), "other.pdf")
		Expect(os.WriteFile(outside, []byte("x"), 0o644)).To(Succeed())

		err := local.Remove(ctx, outside)

		Expect(errors.Is(err, storage.ErrInvalidName)).To(BeTrue())
		_, statErr := os.Stat(outside)
		Expect(statErr).NotTo(HaveOccurred())
	})

	It("should treat removing a missing file as done", func() {
		Expect(local.Remove(ctx, filepath.Join(local.Dir(), "gone.pdf"))).To(Succeed())
	})
})
