package handlers

import (
	"context"
	"net/http"

	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
)

// TransactionService is the ledger behaviour the handler needs.
type TransactionService interface {
	Create(ctx context.Context, user models.User, req dto.TransactionCreate) (models.Transaction, error)
	Get(ctx context.Context, user models.User, id int64) (models.Transaction, error)
	Update(ctx context.Context, user models.User, id int64, upd dto.TransactionUpdate) (models.Transaction, error)
	Delete(ctx context.Context, user models.User, id int64) error
	List(ctx context.Context, user models.User, q dto.TransactionQuery) ([]models.Transaction, error)
	Summary(ctx context.Context, user models.User) (models.Summary, error)
}

// TransactionHandler serves /transactions.
type TransactionHandler struct {
	transactions TransactionService
}

// NewTransactionHandler constructs the handler.
func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Register attaches the transaction routes. authn wraps each of them.
func (h *TransactionHandler) Register(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.Handle("GET /transactions", authn(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /transactions", authn(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /transactions/summary", authn(http.HandlerFunc(h.handleSummary)))
	mux.Handle("GET /transactions/{id}", authn(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /transactions/{id}", authn(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /transactions/{id}", authn(http.HandlerFunc(h.handleDelete)))
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	page := q.page()
	query := dto.TransactionQuery{
		Type:       q.transactionType("type"),
		CategoryID: q.int64Ptr("category_id"),
		Range:      q.dateRange(),
		Skip:       page.Skip,
		Limit:      page.Limit,
	}
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return
	}
	txs, err := h.transactions.List(r.Context(), user, query)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewTransactionResponses(txs))
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.TransactionCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.FromError(w, r, err)
		return
	}
	created, err := h.transactions.Create(r.Context(), user, req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "transaction created", dto.NewTransactionResponse(created))
}

func (h *TransactionHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summary, err := h.transactions.Summary(r.Context(), user)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewSummaryResponse(summary))
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	tx, err := h.transactions.Get(r.Context(), user, id)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewTransactionResponse(tx))
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	var upd dto.TransactionUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respond.FromError(w, r, err)
		return
	}
	tx, err := h.transactions.Update(r.Context(), user, id, upd)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction updated", dto.NewTransactionResponse(tx))
}

func (h *TransactionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	if err := h.transactions.Delete(r.Context(), user, id); err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.NoContent(w)
}
