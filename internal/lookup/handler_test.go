package lookup_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal/lookup"
	lookupPostgres "github.com/frahmantamala/claim-management/internal/lookup/postgres"
	"github.com/frahmantamala/claim-management/internal/transport"
)

const schema = `
CREATE TABLE employees (
	id INTEGER PRIMARY KEY,
	employee_no TEXT NOT NULL,
	full_name TEXT NOT NULL,
	department TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE event_types (id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', is_active BOOLEAN NOT NULL DEFAULT TRUE);
CREATE TABLE currencies (id INTEGER PRIMARY KEY, code TEXT NOT NULL, name TEXT NOT NULL, symbol TEXT NOT NULL DEFAULT '', is_active BOOLEAN NOT NULL DEFAULT TRUE);
CREATE TABLE expense_types (id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', is_active BOOLEAN NOT NULL DEFAULT TRUE);

INSERT INTO employees (id, employee_no, full_name, department) VALUES (7, 'EMP-007', 'Sari Wulandari', 'Finance');
INSERT INTO event_types (id, name, description) VALUES (1, 'Training', 'Courses and certifications'), (2, 'Conference', 'External events');
INSERT INTO event_types (id, name, is_active) VALUES (3, 'Offsite', FALSE);
INSERT INTO currencies (id, code, name, symbol) VALUES (1, 'IDR', 'Indonesian Rupiah', 'Rp'), (2, 'USD', 'US Dollar', '$');
INSERT INTO expense_types (id, name) VALUES (1, 'Meals'), (2, 'Transport');
INSERT INTO expense_types (id, name, is_active) VALUES (3, 'Gifts', FALSE);
`

func openLookupDB() *sqlx.DB {
	GinkgoHelper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	Expect(err).NotTo(HaveOccurred())
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	Expect(err).NotTo(HaveOccurred())
	return db
}

var _ = Describe("Lookup", func() {
	var (
		ctx     context.Context
		db      *sqlx.DB
		service *lookup.Service
		handler *lookup.Handler
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db = openLookupDB()
		service = lookup.NewService(lookupPostgres.NewLookupRepository(db), slogger)
		handler = lookup.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("existence checks", func() {
		It("should find seeded rows", func() {
			Expect(service.EmployeeExists(ctx, 7)).To(BeTrue())
			Expect(service.EventTypeExists(ctx, 2)).To(BeTrue())
			Expect(service.CurrencyExists(ctx, 1)).To(BeTrue())
			Expect(service.ExpenseTypeExists(ctx, 1)).To(BeTrue())
		})

		It("should not find missing or inactive rows", func() {
			Expect(service.EmployeeExists(ctx, 99)).To(BeFalse())
			Expect(service.EventTypeExists(ctx, 3)).To(BeFalse())
			Expect(service.ExpenseTypeExists(ctx, 3)).To(BeFalse())
			Expect(service.CurrencyExists(ctx, 0)).To(BeFalse())
		})

		It("should surface store failures", func() {
			_, err := db.Exec(`DROP TABLE currencies`)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CurrencyExists(ctx, 1)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetEmployee", func() {
		It("should load an employee", func() {
			employee, err := service.GetEmployee(ctx, 7)

			Expect(err).NotTo(HaveOccurred())
			Expect(employee.FullName).To(Equal("Sari Wulandari"))
			Expect(employee.EmployeeNo).To(Equal("EMP-007"))
		})

		It("should report a missing employee as NOT_FOUND", func() {
			_, err := service.GetEmployee(ctx, 99)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Employee not found"))
		})
	})

	Describe("handlers", func() {
		It("should handle GET /event-types with active rows only", func() {
			req := httptest.NewRequest(http.MethodGet, "/event-types", nil)
			w := httptest.NewRecorder()

			handler.GetEventTypes(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
			var response lookup.EventTypesResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.EventTypes).To(HaveLen(2))
			Expect(response.EventTypes[0].Name).To(Equal("Conference"))
		})

		It("should handle GET /currencies", func() {
			req := httptest.NewRequest(http.MethodGet, "/currencies", nil)
			w := httptest.NewRecorder()

			handler.GetCurrencies(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response lookup.CurrenciesResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Currencies).To(HaveLen(2))
			Expect(response.Currencies[0].Code).To(Equal("IDR"))
		})

		It("should handle GET /expense-types", func() {
			req := httptest.NewRequest(http.MethodGet, "/expense-types", nil)
			w := httptest.NewRecorder()

			handler.GetExpenseTypes(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response lookup.ExpenseTypesResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.ExpenseTypes).To(HaveLen(2))
		})

		It("should answer 500 in the error envelope when the store fails", func() {
			_, err := db.Exec(`DROP TABLE expense_types`)
			Expect(err).NotTo(HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/expense-types", nil)
			w := httptest.NewRecorder()

			handler.GetExpenseTypes(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(ContainSubstring(`"type":"INTERNAL_ERROR"`))
		})
	})
})
