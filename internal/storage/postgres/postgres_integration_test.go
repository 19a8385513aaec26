package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

// openIntegrationStore connects to DATABASE_URL and applies migrations. The
// test is skipped unless RUN_PG_INTEGRATION=true.
func openIntegrationStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true to run postgres integration tests")
	}
	_ = godotenv.Load("../../../.env")
	url := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, url, "DATABASE_URL is required")

	require.NoError(t, RunMigrations(url))
	store, err := Open(context.Background(), url, Options{ConnectAttempts: 3, ConnectBackoff: time.Second})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	store := openIntegrationStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, models.User{Email: uniqueEmail("rider"), PasswordHash: "hash", IsActive: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteUser(context.Background(), user.ID) })

	_, err = store.CreateUser(ctx, models.User{Email: user.Email, PasswordHash: "hash"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	fuel, err := store.CategoryByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, fuel.IsSystem)

	own, err := store.CreateCategory(ctx, models.Category{UserID: &user.ID, Name: "Pedágio", Type: models.CategoryExpense, Color: models.DefaultCategoryColor})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, models.Category{UserID: &user.ID, Name: "Pedágio", Type: models.CategoryExpense, Color: models.DefaultCategoryColor})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	tx, err := store.CreateTransaction(ctx, models.Transaction{
		UserID: user.ID, CategoryID: &fuel.ID, Type: models.TransactionExpense,
		Amount: decimal.RequireFromString("50.00"), TransactionDate: day,
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", tx.Amount.StringFixed(2))

	_, err = store.CreateTransaction(ctx, models.Transaction{
		UserID: user.ID, CategoryID: &own.ID, Type: models.TransactionIncome,
		Amount: decimal.RequireFromString("120.35"), TransactionDate: day.Add(time.Hour),
	})
	require.NoError(t, err)

	missing := int64(1 << 40)
	_, err = store.CreateTransaction(ctx, models.Transaction{
		UserID: user.ID, CategoryID: &missing, Type: models.TransactionExpense,
		Amount: decimal.RequireFromString("1.00"), TransactionDate: day,
	})
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)

	balance, err := store.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("70.35").Equal(balance), balance.String())

	start := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	expense := models.TransactionExpense
	totals, err := store.Totals(ctx, storage.AggregateFilter{UserID: user.ID, Type: &expense, CategoryIDs: []int64{fuel.ID}, From: &start, Before: &end})
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.Count)
	assert.True(t, decimal.RequireFromString("50").Equal(totals.Sum))

	ids, err := store.CategoryIDsMatching(ctx, storage.CategoryMatch{NameContains: "COMBUSTÍVEL", Type: models.CategoryExpense})
	require.NoError(t, err)
	assert.Contains(t, ids, fuel.ID)

	require.NoError(t, store.DeleteCategory(ctx, own.ID))
	listed, err := store.ListTransactions(ctx, storage.TransactionFilter{UserID: user.ID, Page: storage.Page{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Nil(t, listed[0].CategoryID, "deleting a category detaches its transactions")
}
