package handlers

import (
	"context"
	"net/http"

	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
	"github.com/hongminglow/rideledger/internal/storage"
)

// CategoryService is the category behaviour the handler needs.
type CategoryService interface {
	List(ctx context.Context, user models.User, categoryType *models.CategoryType, page storage.Page) ([]models.Category, error)
	Create(ctx context.Context, user models.User, req dto.CategoryCreate) (models.Category, error)
	Get(ctx context.Context, user models.User, id int64) (models.Category, error)
	Update(ctx context.Context, user models.User, id int64, upd dto.CategoryUpdate) (models.Category, error)
	Delete(ctx context.Context, user models.User, id int64) error
}

// CategoryHandler serves /categories.
type CategoryHandler struct {
	categories CategoryService
}

// NewCategoryHandler constructs the handler.
func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// Register attaches the category routes. authn wraps each of them.
func (h *CategoryHandler) Register(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.Handle("GET /categories", authn(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /categories", authn(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /categories/{id}", authn(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /categories/{id}", authn(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /categories/{id}", authn(http.HandlerFunc(h.handleDelete)))
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	categoryType := q.categoryType("type")
	page := q.page()
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return
	}
	categories, err := h.categories.List(r.Context(), user, categoryType, page)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", categories)
}

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CategoryCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.FromError(w, r, err)
		return
	}
	created, err := h.categories.Create(r.Context(), user, req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "category created", created)
}

func (h *CategoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	category, err := h.categories.Get(r.Context(), user, id)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", category)
}

func (h *CategoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	var upd dto.CategoryUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respond.FromError(w, r, err)
		return
	}
	updated, err := h.categories.Update(r.Context(), user, id, upd)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "category updated", updated)
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	if err := h.categories.Delete(r.Context(), user, id); err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.NoContent(w)
}
