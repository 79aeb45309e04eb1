package lookup

import (
	"context"
	"net/http"

	"github.com/frahmantamala/claim-management/internal/transport"
)

type ServiceAPI interface {
	ListEventTypes(ctx context.Context) ([]EventType, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	ListExpenseTypes(ctx context.Context) ([]ExpenseType, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetEventTypes handles GET /event-types
func (h *Handler) GetEventTypes(w http.ResponseWriter, r *http.Request) {
	eventTypes, err := h.Service.ListEventTypes(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EventTypesResponse{EventTypes: eventTypes})
}

// GetCurrencies handles GET /currencies
func (h *Handler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.Service.ListCurrencies(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CurrenciesResponse{Currencies: currencies})
}

// GetExpenseTypes handles GET /expense-types
func (h *Handler) GetExpenseTypes(w http.ResponseWriter, r *http.Request) {
	expenseTypes, err := h.Service.ListExpenseTypes(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ExpenseTypesResponse{ExpenseTypes: expenseTypes})
}
