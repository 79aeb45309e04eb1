package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/api"
)

var _ = Describe("OpenAPI document", func() {
	It("should load and validate", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("Claim Management API"))
	})

	It("should describe the claim lifecycle operations", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{"/claims/{id}/submit", "/claims/{id}/approve", "/claims/{id}/reject"} {
			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.Post).NotTo(BeNil(), path)
		}

		status := doc.Components.Schemas["ClaimStatus"].Value
		Expect(status.Enum).To(ConsistOf("Initiated", "Submitted", "Approved", "Rejected"))
	})

	It("should serve the raw document", func() {
		rec := httptest.NewRecorder()
		api.Handler(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.Bytes()).To(Equal(api.Document()))
	})
})
