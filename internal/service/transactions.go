package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
	"github.com/hongminglow/rideledger/internal/storage"
)

const defaultTransactionLimit = 50

// Access is the outcome of resolving a transaction for a user.
type Access int

const (
	AccessOwned Access = iota
	AccessMissing
	AccessForbidden
)

// TransactionService enforces ownership and category visibility on transactions.
type TransactionService struct {
	transactions storage.TransactionStore
	categories   storage.CategoryStore
	loc          *time.Location
	log          *logging.Logger
}

// NewTransactionService builds the service. loc resolves timestamps sent without a zone.
func NewTransactionService(transactions storage.TransactionStore, categories storage.CategoryStore, loc *time.Location, log *logging.Logger) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionService{transactions: transactions, categories: categories, loc: loc, log: log.WithComponent(logging.ComponentLedger)}
}

// Create records a transaction for user.
func (s *TransactionService) Create(ctx context.Context, user models.User, req dto.TransactionCreate) (models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return models.Transaction{}, err
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID, user.ID); err != nil {
			return models.Transaction{}, err
		}
	}
	created, err := s.transactions.CreateTransaction(ctx, models.Transaction{
		UserID:          user.ID,
		CategoryID:      req.CategoryID,
		Type:            req.Type,
		Amount:          req.Amount,
		Description:     req.Description,
		TransactionDate: req.TransactionDate.In(s.loc),
	})
	if err != nil {
		return models.Transaction{}, categoryWriteError("create transaction", err)
	}
	s.log.InfoContext(ctx, "transaction created", logging.NewFields().WithOperation(logging.OpCreate).WithUser(user.ID).WithEntity(created.ID).ToSlice()...)
	return created, nil
}

// Get returns one of the user's transactions.
func (s *TransactionService) Get(ctx context.Context, user models.User, id int64) (models.Transaction, error) {
	return s.resolve(ctx, id, user.ID)
}

// Update applies a partial update after the ownership check.
func (s *TransactionService) Update(ctx context.Context, user models.User, id int64, upd dto.TransactionUpdate) (models.Transaction, error) {
	if _, err := s.resolve(ctx, id, user.ID); err != nil {
		return models.Transaction{}, err
	}
	if err := upd.Validate(); err != nil {
		return models.Transaction{}, err
	}
	if upd.CategoryID.HasValue() {
		if err := s.checkCategory(ctx, upd.CategoryID.Value, user.ID); err != nil {
			return models.Transaction{}, err
		}
	}

	changes := storage.TransactionChanges{
		Type:        upd.Type.Ptr(),
		Amount:      upd.Amount.Ptr(),
		Description: upd.Description,
		CategoryID:  upd.CategoryID,
	}
	if upd.TransactionDate.HasValue() {
		at := upd.TransactionDate.Value.In(s.loc)
		changes.TransactionDate = &at
	}

	updated, err := s.transactions.UpdateTransaction(ctx, id, changes)
	if err != nil {
		return models.Transaction{}, categoryWriteError("update transaction", err)
	}
	s.log.InfoContext(ctx, "transaction updated", logging.NewFields().WithOperation(logging.OpUpdate).WithUser(user.ID).WithEntity(id).ToSlice()...)
	return updated, nil
}

// Delete removes one of the user's transactions.
func (s *TransactionService) Delete(ctx context.Context, user models.User, id int64) error {
	if _, err := s.resolve(ctx, id, user.ID); err != nil {
		return err
	}
	err := s.transactions.DeleteTransaction(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("transaction not found")
	case err != nil:
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.log.InfoContext(ctx, "transaction deleted", logging.NewFields().WithOperation(logging.OpDelete).WithUser(user.ID).WithEntity(id).ToSlice()...)
	return nil
}

// List returns one page of the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, user models.User, q dto.TransactionQuery) ([]models.Transaction, error) {
	from, to := q.Range.Resolve(s.loc)
	txs, err := s.transactions.ListTransactions(ctx, storage.TransactionFilter{
		UserID:     user.ID,
		Type:       q.Type,
		CategoryID: q.CategoryID,
		From:       from,
		To:         to,
		Page:       storage.Page{Skip: q.Skip, Limit: q.Limit}.Normalize(defaultTransactionLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Summary returns the user's lifetime income, expenses and balance.
func (s *TransactionService) Summary(ctx context.Context, user models.User) (models.Summary, error) {
	income, err := s.transactions.TotalByType(ctx, user.ID, models.TransactionIncome)
	if err != nil {
		return models.Summary{}, fmt.Errorf("total income: %w", err)
	}
	expenses, err := s.transactions.TotalByType(ctx, user.ID, models.TransactionExpense)
	if err != nil {
		return models.Summary{}, fmt.Errorf("total expenses: %w", err)
	}
	balance, err := s.transactions.Balance(ctx, user.ID)
	if err != nil {
		return models.Summary{}, fmt.Errorf("balance: %w", err)
	}
	return models.Summary{TotalIncome: income, TotalExpenses: expenses, Balance: balance}, nil
}

// authorize resolves a transaction and classifies the user's access to it.
func (s *TransactionService) authorize(ctx context.Context, id, userID int64) (models.Transaction, Access, error) {
	t, err := s.transactions.TransactionByID(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Transaction{}, AccessMissing, nil
	case err != nil:
		return models.Transaction{}, AccessMissing, fmt.Errorf("load transaction: %w", err)
	case t.UserID != userID:
		return models.Transaction{}, AccessForbidden, nil
	}
	return t, AccessOwned, nil
}

func (s *TransactionService) resolve(ctx context.Context, id, userID int64) (models.Transaction, error) {
	t, access, err := s.authorize(ctx, id, userID)
	if err != nil {
		return models.Transaction{}, err
	}
	switch access {
	case AccessMissing:
		return models.Transaction{}, apperr.NotFound("transaction not found")
	case AccessForbidden:
		return models.Transaction{}, apperr.Forbidden("not enough permissions")
	}
	return t, nil
}

func (s *TransactionService) checkCategory(ctx context.Context, categoryID, userID int64) error {
	c, err := s.categories.CategoryByID(ctx, categoryID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("category not found")
	case err != nil:
		return fmt.Errorf("load category: %w", err)
	case !c.VisibleTo(userID):
		return apperr.Forbidden("category does not belong to this user")
	}
	return nil
}

// categoryWriteError maps the store's locked category re-check onto the same
// outcomes as the pre-check.
func categoryWriteError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrCategoryNotFound):
		return apperr.NotFound("category not found")
	case errors.Is(err, storage.ErrCategoryForbidden):
		return apperr.Forbidden("category does not belong to this user")
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("transaction not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
