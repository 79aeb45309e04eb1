package internal_test

import (
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal"
)

func validConfig() *internal.Config {
	cfg := &internal.Config{
		Server: internal.ServerConfig{
			Port:              8080,
			AllowedOrigins:    "http://localhost:3000, https://hr.example.com",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost/claims",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Security: internal.SecurityConfig{
			AccessTokenSecret:  strings.Repeat("a", 32),
			RefreshTokenSecret: strings.Repeat("b", 32),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	It("should accept a complete config", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("should fill claim defaults", func() {
		cfg := validConfig()
		Expect(cfg.Claims.ReferenceMaxAttempts).To(Equal(internal.DefaultReferenceMaxAttempts))
		Expect(cfg.Claims.AttachmentMaxBytes).To(Equal(int64(internal.DefaultAttachmentMaxBytes)))
		Expect(cfg.Claims.StorageDir).To(Equal(internal.DefaultStorageDir))
		Expect(cfg.Observability.Logging.Format).To(Equal("text"))
	})

	It("should split allowed origins", func() {
		Expect(validConfig().Server.Origins()).To(Equal([]string{"http://localhost:3000", "https://hr.example.com"}))
	})

	It("should collect every section error", func() {
		cfg := validConfig()
		cfg.Server.Port = 0
		cfg.Database.Source = ""
		cfg.Security.RefreshTokenSecret = cfg.Security.AccessTokenSecret
		cfg.Claims.ReferenceMaxAttempts = 0
		cfg.Observability.Logging.Level = "verbose"

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("server config"))
		Expect(err.Error()).To(ContainSubstring("database config"))
		Expect(err.Error()).To(ContainSubstring("secrets must differ"))
		Expect(err.Error()).To(ContainSubstring("reference_max_attempts"))
		Expect(err.Error()).To(ContainSubstring("unknown level"))
	})

	Describe("LoadConfigFromEnv", func() {
		var saved map[string]string

		BeforeEach(func() {
			saved = map[string]string{}
			for _, key := range []string{"CLAIM_REFERENCE_MAX_ATTEMPTS", "CLAIM_ATTACHMENT_MAX_BYTES", "HTTP_PORT"} {
				saved[key] = os.Getenv(key)
			}
		})

		AfterEach(func() {
			for key, value := range saved {
				Expect(os.Setenv(key, value)).To(Succeed())
			}
		})

		It("should read claim settings from the environment", func() {
			Expect(os.Setenv("CLAIM_REFERENCE_MAX_ATTEMPTS", "3")).To(Succeed())
			Expect(os.Setenv("CLAIM_ATTACHMENT_MAX_BYTES", "2048")).To(Succeed())
			Expect(os.Setenv("HTTP_PORT", "9090")).To(Succeed())

			cfg := internal.LoadConfigFromEnv()
			Expect(cfg.Claims.ReferenceMaxAttempts).To(Equal(3))
			Expect(cfg.Claims.AttachmentMaxBytes).To(Equal(int64(2048)))
			Expect(cfg.Server.Port).To(Equal(9090))
		})
	})
})
