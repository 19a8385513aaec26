package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/auth"
	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
	"github.com/hongminglow/rideledger/internal/storage"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document into dst. Malformed bodies become a
// validation error on the "body" field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation(apperr.FieldError{Field: "body", Message: "field required"})
		}
		return apperr.Validation(apperr.FieldError{Field: "body", Message: fmt.Sprintf("invalid JSON payload: %v", err)})
	}
	return nil
}

// currentUser returns the identity placed in the context by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusForbidden, "not authenticated")
	}
	return user, ok
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation(apperr.FieldError{Field: name, Message: "input should be a valid integer"})
	}
	return id, nil
}

// queryReader collects every malformed query parameter before failing.
type queryReader struct {
	values url.Values
	fields apperr.Fields
}

func newQueryReader(r *http.Request) *queryReader {
	return &queryReader{values: r.URL.Query()}
}

func (q *queryReader) raw(name string) (string, bool) {
	v := strings.TrimSpace(q.values.Get(name))
	return v, v != ""
}

func (q *queryReader) int(name string, lo, hi int) (int, bool) {
	raw, ok := q.raw(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		q.fields.Add(name, "input should be a valid integer")
		return 0, false
	case n < lo:
		q.fields.Add(name, fmt.Sprintf("input should be greater than or equal to %d", lo))
		return 0, false
	case hi > 0 && n > hi:
		q.fields.Add(name, fmt.Sprintf("input should be less than or equal to %d", hi))
		return 0, false
	}
	return n, true
}

func (q *queryReader) requiredInt(name string, lo, hi int) int {
	if _, ok := q.raw(name); !ok {
		q.fields.Add(name, "field required")
		return 0
	}
	n, _ := q.int(name, lo, hi)
	return n
}

func (q *queryReader) int64Ptr(name string) *int64 {
	raw, ok := q.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.fields.Add(name, "input should be a valid integer")
		return nil
	}
	return &n
}

func (q *queryReader) page() storage.Page {
	var p storage.Page
	p.Skip, _ = q.int("skip", 0, 0)
	p.Limit, _ = q.int("limit", 1, storage.MaxLimit)
	return p
}

func (q *queryReader) transactionType(name string) *models.TransactionType {
	raw, ok := q.raw(name)
	if !ok {
		return nil
	}
	t, err := models.ParseTransactionType(raw)
	if err != nil {
		q.fields.Add(name, "input should be 'income' or 'expense'")
		return nil
	}
	return &t
}

func (q *queryReader) categoryType(name string) *models.CategoryType {
	raw, ok := q.raw(name)
	if !ok {
		return nil
	}
	t, err := models.ParseCategoryType(raw)
	if err != nil {
		q.fields.Add(name, "input should be 'income' or 'expense'")
		return nil
	}
	return &t
}

func (q *queryReader) timestamp(name string) *dto.Timestamp {
	raw, ok := q.raw(name)
	if !ok {
		return nil
	}
	t, err := dto.ParseTimestamp(raw)
	if err != nil {
		q.fields.Add(name, "input should be a valid datetime")
		return nil
	}
	return &t
}

// date reads a plain YYYY-MM-DD value. Datetimes are rejected so a zoned
// instant never shifts into a neighbouring day.
func (q *queryReader) date(name string) *dto.Timestamp {
	raw, ok := q.raw(name)
	if !ok {
		return nil
	}
	t, err := dto.ParseTimestamp(raw)
	if err != nil || !t.DateOnly {
		q.fields.Add(name, "input should be a valid date")
		return nil
	}
	return &t
}

func (q *queryReader) dateRange() dto.DateRange {
	return dto.DateRange{Start: q.timestamp("start_date"), End: q.timestamp("end_date")}
}

func (q *queryReader) err() error {
	return q.fields.Err()
}
