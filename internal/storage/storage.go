package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/rideledger/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrCategoryNotFound is returned by transaction writes whose category vanished
// before the write committed.
var ErrCategoryNotFound = errors.New("category not found")

// ErrCategoryForbidden is returned by transaction writes whose category is not
// visible to the transaction owner.
var ErrCategoryForbidden = errors.New("category does not belong to this user")

const (
	// DefaultLimit is applied when a caller does not ask for a page size.
	DefaultLimit = 100
	// MaxLimit bounds every page regardless of the requested size.
	MaxLimit = 100
)

// Page selects a window of an ordered result set.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps the page to [0, MaxLimit], using def when no limit was requested.
func (p Page) Normalize(def int) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// UserChanges lists the user columns to overwrite. Unset fields are untouched.
type UserChanges struct {
	Email        *string
	PasswordHash *string
	FullName     models.Optional[string]
	IsActive     *bool
	IsSuperuser  *bool
}

// IsEmpty reports whether no column would change.
func (c UserChanges) IsEmpty() bool {
	return c.Email == nil && c.PasswordHash == nil && !c.FullName.Set && c.IsActive == nil && c.IsSuperuser == nil
}

// CategoryChanges lists the category columns to overwrite.
type CategoryChanges struct {
	Name  *string
	Type  *models.CategoryType
	Color *string
	Icon  models.Optional[string]
}

func (c CategoryChanges) IsEmpty() bool {
	return c.Name == nil && c.Type == nil && c.Color == nil && !c.Icon.Set
}

// TransactionChanges lists the transaction columns to overwrite.
type TransactionChanges struct {
	Type            *models.TransactionType
	Amount          *decimal.Decimal
	Description     models.Optional[string]
	TransactionDate *time.Time
	CategoryID      models.Optional[int64]
}

func (c TransactionChanges) IsEmpty() bool {
	return c.Type == nil && c.Amount == nil && !c.Description.Set && c.TransactionDate == nil && !c.CategoryID.Set
}

// TransactionFilter narrows a transaction listing. The user scope is mandatory.
type TransactionFilter struct {
	UserID     int64
	Type       *models.TransactionType
	CategoryID *int64
	From       *time.Time
	To         *time.Time
	Page       Page
}

// AggregateFilter narrows an aggregate query. From and To are inclusive bounds;
// Before is an exclusive upper bound used for calendar buckets. A non-nil empty
// CategoryIDs matches nothing.
type AggregateFilter struct {
	UserID      int64
	Type        *models.TransactionType
	CategoryIDs []int64
	From        *time.Time
	To          *time.Time
	Before      *time.Time
}

// CategoryMatch selects categories by case-insensitive name fragment and type,
// across every owner.
type CategoryMatch struct {
	NameContains string
	Type         models.CategoryType
}

// UserStore captures persistence operations on users.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, changes UserChanges) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CategoryStore captures persistence operations on categories. Every user-facing
// lookup applies the visibility predicate: owned by the user, or a system category.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category models.Category) (models.Category, error)
	CategoryByID(ctx context.Context, id int64) (models.Category, error)
	VisibleCategories(ctx context.Context, userID int64, categoryType *models.CategoryType, page Page) ([]models.Category, error)
	CategoryByName(ctx context.Context, userID int64, name string, categoryType models.CategoryType) (models.Category, error)
	UpdateCategory(ctx context.Context, id int64, changes CategoryChanges) (models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryIDsMatching(ctx context.Context, match CategoryMatch) ([]int64, error)
}

// TransactionStore captures persistence operations on transactions. Writes that
// reference a category re-check its visibility for the owner atomically with the
// write and fail with ErrCategoryNotFound or ErrCategoryForbidden.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	TransactionByID(ctx context.Context, id int64) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, changes TransactionChanges) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	TotalByType(ctx context.Context, userID int64, txType models.TransactionType) (decimal.Decimal, error)
	Totals(ctx context.Context, filter AggregateFilter) (models.Totals, error)
	CategoryTotals(ctx context.Context, filter AggregateFilter) ([]models.CategoryTotal, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore
	Ping(ctx context.Context) error
	Close()
}
