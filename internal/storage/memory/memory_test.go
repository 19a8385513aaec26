package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{Email: email, PasswordHash: "x", IsActive: true})
	require.NoError(t, err)
	return u
}

func mustTx(t *testing.T, s *Store, userID int64, kind models.TransactionType, amount string, at time.Time, categoryID *int64) models.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), models.Transaction{
		UserID: userID, Type: kind, Amount: decimal.RequireFromString(amount), TransactionDate: at, CategoryID: categoryID,
	})
	require.NoError(t, err)
	return tx
}

func TestNewSeedsSystemCategories(t *testing.T) {
	s := New()
	fuel, err := s.CategoryByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Combustível", fuel.Name)
	assert.True(t, fuel.IsSystem)
	assert.Nil(t, fuel.UserID)

	cats, err := s.VisibleCategories(context.Background(), 99, nil, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, cats, 13)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := New()
	mustUser(t, s, "a@x.com")
	_, err := s.CreateUser(context.Background(), models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestCategoryVisibilityAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	b := mustUser(t, s, "b@x.com")

	own, err := s.CreateCategory(ctx, models.Category{UserID: &a.ID, Name: "Uber", Type: models.CategoryIncome, Color: models.DefaultCategoryColor})
	require.NoError(t, err)

	_, err = s.CreateCategory(ctx, models.Category{UserID: &a.ID, Name: "Uber", Type: models.CategoryIncome})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = s.CreateCategory(ctx, models.Category{UserID: &b.ID, Name: "Uber", Type: models.CategoryIncome})
	assert.NoError(t, err, "another owner may reuse the name")

	income := models.CategoryIncome
	visible, err := s.VisibleCategories(ctx, a.ID, &income, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, visible, 6)

	found, err := s.CategoryByName(ctx, a.ID, "Outros", models.CategoryIncome)
	require.NoError(t, err)
	assert.True(t, found.IsSystem)

	_, err = s.CategoryByName(ctx, b.ID, "Uber", models.CategoryExpense)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.True(t, own.OwnedBy(a.ID))
}

func TestTransactionCategoryChecks(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	b := mustUser(t, s, "b@x.com")
	bCat, err := s.CreateCategory(ctx, models.Category{UserID: &b.ID, Name: "Private", Type: models.CategoryExpense})
	require.NoError(t, err)

	_, err = s.CreateTransaction(ctx, models.Transaction{UserID: a.ID, Type: models.TransactionExpense, Amount: decimal.NewFromInt(5), CategoryID: &bCat.ID})
	assert.ErrorIs(t, err, storage.ErrCategoryForbidden)

	_, err = s.CreateTransaction(ctx, models.Transaction{UserID: a.ID, Type: models.TransactionExpense, Amount: decimal.NewFromInt(5), CategoryID: ptr(int64(999))})
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)

	tx := mustTx(t, s, a.ID, models.TransactionExpense, "5", time.Now(), ptr(int64(1)))
	_, err = s.UpdateTransaction(ctx, tx.ID, storage.TransactionChanges{CategoryID: models.Some(bCat.ID)})
	assert.ErrorIs(t, err, storage.ErrCategoryForbidden)

	cleared, err := s.UpdateTransaction(ctx, tx.ID, storage.TransactionChanges{CategoryID: models.Null[int64]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.CategoryID)
}

func TestDeleteCategoryNullsTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	cat, err := s.CreateCategory(ctx, models.Category{UserID: &a.ID, Name: "Gym", Type: models.CategoryExpense})
	require.NoError(t, err)
	tx := mustTx(t, s, a.ID, models.TransactionExpense, "30", time.Now(), &cat.ID)

	require.NoError(t, s.DeleteCategory(ctx, cat.ID))
	got, err := s.TransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.ErrorIs(t, s.DeleteCategory(ctx, cat.ID), storage.ErrNotFound)
}

func TestListTransactionsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	b := mustUser(t, s, "b@x.com")
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	mustTx(t, s, a.ID, models.TransactionIncome, "100", base, ptr(int64(9)))
	mustTx(t, s, a.ID, models.TransactionExpense, "20", base.Add(time.Hour), ptr(int64(1)))
	mustTx(t, s, a.ID, models.TransactionExpense, "10", base.Add(-48*time.Hour), nil)
	mustTx(t, s, b.ID, models.TransactionExpense, "999", base, nil)

	all, err := s.ListTransactions(ctx, storage.TransactionFilter{UserID: a.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].TransactionDate.After(all[1].TransactionDate))

	expense := models.TransactionExpense
	from := base.Add(-time.Hour)
	filtered, err := s.ListTransactions(ctx, storage.TransactionFilter{UserID: a.ID, Type: &expense, From: &from})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "20", filtered[0].Amount.String())

	paged, err := s.ListTransactions(ctx, storage.TransactionFilter{UserID: a.ID, Page: storage.Page{Skip: 2, Limit: 5}})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	mustTx(t, s, a.ID, models.TransactionIncome, "200.50", at, ptr(int64(9)))
	mustTx(t, s, a.ID, models.TransactionExpense, "40.25", at, ptr(int64(1)))
	mustTx(t, s, a.ID, models.TransactionExpense, "9.75", at, ptr(int64(1)))
	mustTx(t, s, a.ID, models.TransactionExpense, "100", at, ptr(int64(2)))
	mustTx(t, s, a.ID, models.TransactionExpense, "5", at, nil)

	balance, err := s.Balance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "45.5", balance.String())

	fuel, err := s.Totals(ctx, storage.AggregateFilter{UserID: a.ID, CategoryIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fuel.Count)
	assert.Equal(t, "50", fuel.Sum.String())

	none, err := s.Totals(ctx, storage.AggregateFilter{UserID: a.ID, CategoryIDs: []int64{}})
	require.NoError(t, err)
	assert.Zero(t, none.Count)

	before := at
	excluded, err := s.Totals(ctx, storage.AggregateFilter{UserID: a.ID, Before: &before})
	require.NoError(t, err)
	assert.Zero(t, excluded.Count)

	expense := models.TransactionExpense
	rows, err := s.CategoryTotals(ctx, storage.AggregateFilter{UserID: a.ID, Type: &expense})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].CategoryID)
	assert.Equal(t, int64(1), rows[1].CategoryID)
	assert.Equal(t, int64(2), rows[1].Count)
}

func TestCategoryIDsMatchingIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	_, err := s.CreateCategory(ctx, models.Category{UserID: &a.ID, Name: "COMBUSTÍVEL extra", Type: models.CategoryExpense})
	require.NoError(t, err)

	ids, err := s.CategoryIDsMatching(ctx, storage.CategoryMatch{NameContains: "combustível", Type: models.CategoryExpense})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 14}, ids)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := mustUser(t, s, "a@x.com")
	cat, err := s.CreateCategory(ctx, models.Category{UserID: &a.ID, Name: "Mine", Type: models.CategoryExpense})
	require.NoError(t, err)
	tx := mustTx(t, s, a.ID, models.TransactionExpense, "1", time.Now(), &cat.ID)

	require.NoError(t, s.DeleteUser(ctx, a.ID))
	_, err = s.CategoryByID(ctx, cat.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.TransactionByID(ctx, tx.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
