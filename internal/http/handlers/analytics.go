package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hongminglow/rideledger/internal/analytics"
	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
)

// AnalyticsEngine is the reporting behaviour the handler needs.
type AnalyticsEngine interface {
	Location() *time.Location
	Today() time.Time
	Overview(ctx context.Context, userID int64) (models.Summary, error)
	Monthly(ctx context.Context, userID int64, year, month int) (models.MonthlySummary, error)
	Daily(ctx context.Context, userID int64, date time.Time) (models.DailySummary, error)
	CategoryBreakdown(ctx context.Context, userID int64, txType *models.TransactionType, from, to *time.Time) ([]models.CategoryTotal, error)
	Fuel(ctx context.Context, userID int64, from, to *time.Time) (models.FuelSummary, error)
}

// AnalyticsHandler serves /analytics.
type AnalyticsHandler struct {
	engine AnalyticsEngine
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(engine AnalyticsEngine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine}
}

// Register attaches the analytics routes. authn wraps each of them.
func (h *AnalyticsHandler) Register(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.Handle("GET /analytics/summary", authn(http.HandlerFunc(h.handleSummary)))
	mux.Handle("GET /analytics/monthly", authn(http.HandlerFunc(h.handleMonthly)))
	mux.Handle("GET /analytics/daily", authn(http.HandlerFunc(h.handleDaily)))
	mux.Handle("GET /analytics/category-breakdown", authn(http.HandlerFunc(h.handleBreakdown)))
	mux.Handle("GET /analytics/category-breakdown/chart", authn(http.HandlerFunc(h.handleBreakdownChart)))
	mux.Handle("GET /analytics/fuel", authn(http.HandlerFunc(h.handleFuel)))
}

func (h *AnalyticsHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summary, err := h.engine.Overview(r.Context(), user.ID)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewSummaryResponse(summary))
}

func (h *AnalyticsHandler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	year := q.requiredInt("year", 1, 9999)
	month := q.requiredInt("month", 1, 12)
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return
	}
	summary, err := h.engine.Monthly(r.Context(), user.ID, year, month)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewMonthlySummaryResponse(summary))
}

func (h *AnalyticsHandler) handleDaily(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	date := h.engine.Today()
	if ts := q.date("date"); ts != nil {
		date = ts.In(h.engine.Location())
	}
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return
	}
	summary, err := h.engine.Daily(r.Context(), user.ID, date)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewDailySummaryResponse(summary))
}

func (h *AnalyticsHandler) breakdown(w http.ResponseWriter, r *http.Request) ([]models.CategoryTotal, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	q := newQueryReader(r)
	txType := q.transactionType("type")
	from, to := q.dateRange().Resolve(h.engine.Location())
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return nil, false
	}
	rows, err := h.engine.CategoryBreakdown(r.Context(), user.ID, txType, from, to)
	if err != nil {
		respond.FromError(w, r, err)
		return nil, false
	}
	return rows, true
}

func (h *AnalyticsHandler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.breakdown(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewCategoryBreakdown(rows))
}

// handleBreakdownChart renders the breakdown as a PNG pie chart, or answers
// 204 when there is nothing to draw.
func (h *AnalyticsHandler) handleBreakdownChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.breakdown(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	drawn, err := analytics.RenderBreakdown(&buf, rows)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	if !drawn {
		respond.NoContent(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *AnalyticsHandler) handleFuel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	from, to := q.dateRange().Resolve(h.engine.Location())
	if err := q.err(); err != nil {
		respond.FromError(w, r, err)
		return
	}
	summary, err := h.engine.Fuel(r.Context(), user.ID, from, to)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewFuelSummaryResponse(summary))
}
