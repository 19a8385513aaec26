package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Name Optional[string] `json:"name"`
	Icon Optional[string] `json:"icon"`
	Rank Optional[int64]  `json:"rank"`
}

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Uber","icon":null}`), &p))

	assert.True(t, p.Name.HasValue())
	assert.Equal(t, "Uber", p.Name.Value)

	assert.True(t, p.Icon.Set)
	assert.True(t, p.Icon.Null)
	assert.Nil(t, p.Icon.Ptr())

	assert.False(t, p.Rank.Set)
	assert.Nil(t, p.Rank.Ptr())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var p patch
	err := json.Unmarshal([]byte(`{"rank":"first"}`), &p)
	assert.Error(t, err)
}

func TestTotalsAverageGuardsEmptySet(t *testing.T) {
	assert.True(t, Totals{}.Average().IsZero())
}
