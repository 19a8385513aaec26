package models

import (
	"fmt"
	"time"
)

// CategoryType classifies a category as a source of income or an expense.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#6B7280"

// ParseCategoryType validates a raw category type value.
func ParseCategoryType(raw string) (CategoryType, error) {
	switch CategoryType(raw) {
	case CategoryIncome, CategoryExpense:
		return CategoryType(raw), nil
	}
	return "", fmt.Errorf("invalid category type %q: must be income or expense", raw)
}

// Category groups transactions. A nil UserID marks a system category shared by every user.
type Category struct {
	ID        int64        `json:"id"`
	UserID    *int64       `json:"user_id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Color     string       `json:"color"`
	Icon      *string      `json:"icon"`
	IsSystem  bool         `json:"is_system"`
	CreatedAt time.Time    `json:"created_at"`
}

// VisibleTo reports whether userID may read the category.
func (c Category) VisibleTo(userID int64) bool {
	return c.IsSystem || (c.UserID != nil && *c.UserID == userID)
}

// OwnedBy reports whether the category is a custom category of userID.
func (c Category) OwnedBy(userID int64) bool {
	return c.UserID != nil && *c.UserID == userID
}
