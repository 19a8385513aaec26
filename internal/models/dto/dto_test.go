package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/models"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestTransactionCreateRejectsNonPositiveAmount(t *testing.T) {
	for _, raw := range []string{`0`, `-10.50`, `"0.00"`} {
		var req TransactionCreate
		body := `{"type":"expense","amount":` + raw + `,"transaction_date":"2025-06-15"}`
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		assert.Equal(t, []string{"amount"}, fieldNames(t, req.Validate()), raw)
	}
}

func TestTransactionCreateAmountPrecision(t *testing.T) {
	var req TransactionCreate
	require.NoError(t, json.Unmarshal([]byte(`{"type":"income","amount":"12.345","transaction_date":"2025-06-15"}`), &req))
	assert.Equal(t, []string{"amount"}, fieldNames(t, req.Validate()))

	req.Amount = decimal.RequireFromString("12.30")
	assert.NoError(t, req.Validate())
}

func TestTransactionCreateRequiresTypeAndDate(t *testing.T) {
	var req TransactionCreate
	require.NoError(t, json.Unmarshal([]byte(`{"type":"transfer","amount":10}`), &req))
	assert.ElementsMatch(t, []string{"type", "transaction_date"}, fieldNames(t, req.Validate()))
}

func TestTransactionUpdateEmptyIsValid(t *testing.T) {
	var req TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.NoError(t, req.Validate())
	assert.False(t, req.CategoryID.Set)
}

func TestTransactionUpdateNullCategoryClears(t *testing.T) {
	var req TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"category_id":null}`), &req))
	assert.NoError(t, req.Validate())
	assert.True(t, req.CategoryID.Set)
	assert.True(t, req.CategoryID.Null)
}

func TestTransactionUpdateNullAmountRejected(t *testing.T) {
	var req TransactionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"amount":null}`), &req))
	assert.Equal(t, []string{"amount"}, fieldNames(t, req.Validate()))
}

func TestCategoryCreateDefaultsAndValidation(t *testing.T) {
	req := CategoryCreate{Name: "  Lavagem  ", Type: models.CategoryExpense}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Lavagem", req.Name)
	assert.Equal(t, models.DefaultCategoryColor, *req.Color)

	bad := "red"
	req = CategoryCreate{Name: "", Type: "other", Color: &bad}
	assert.ElementsMatch(t, []string{"name", "type", "color"}, fieldNames(t, req.Validate()))
}

func TestSignupValidation(t *testing.T) {
	req := SignupRequest{Email: "a@x.com", Password: "Password123"}
	assert.NoError(t, req.Validate())

	req = SignupRequest{Email: "not-an-email", Password: "short"}
	assert.ElementsMatch(t, []string{"email", "password"}, fieldNames(t, req.Validate()))
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	ts, err := ParseTimestamp("2025-06-15")
	require.NoError(t, err)
	assert.True(t, ts.DateOnly)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), ts.In(loc))

	ts, err = ParseTimestamp("2025-06-15T10:30:00Z")
	require.NoError(t, err)
	assert.False(t, ts.Naive)
	assert.True(t, ts.In(loc).Equal(time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)))

	ts, err = ParseTimestamp("2025-06-15T10:30:00")
	require.NoError(t, err)
	assert.True(t, ts.Naive)
	assert.Equal(t, 10, ts.In(loc).Hour())

	_, err = ParseTimestamp("15/06/2025")
	assert.Error(t, err)
}

func TestDailySummaryResponseShape(t *testing.T) {
	summary := models.DailySummary{
		Date: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		PeriodSummary: models.PeriodSummary{
			Expenses: models.Totals{Sum: decimal.RequireFromString("50.00"), Count: 1},
		},
		Fuel: models.Totals{Sum: decimal.RequireFromString("50.00"), Count: 1},
	}
	raw, err := json.Marshal(NewDailySummaryResponse(summary))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2025-06-15", got["date"])
	assert.Equal(t, 50.0, got["total_expenses"])
	assert.Equal(t, -50.0, got["balance"])
	assert.Equal(t, 1.0, got["expense_count"])
	assert.Equal(t, 50.0, got["average_fuel_expense"])
	assert.Equal(t, 0.0, got["total_income"])
}

func TestTransactionResponseKeepsCents(t *testing.T) {
	raw, err := json.Marshal(NewTransactionResponse(models.Transaction{Amount: decimal.RequireFromString("50")}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":"50.00"`)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.IsType(t, "", got["amount"])
}

func TestDateRangeResolve(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	start, err := ParseTimestamp("2025-06-01")
	require.NoError(t, err)
	end, err := ParseTimestamp("2025-06-15")
	require.NoError(t, err)

	from, to := DateRange{Start: &start, End: &end}.Resolve(loc)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, loc), *from)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), *to, "date-only end is midnight, not end of day")

	from, to = DateRange{}.Resolve(loc)
	assert.Nil(t, from)
	assert.Nil(t, to)
}
