package dto

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/models"
)

const (
	maxCategoryName = 100
	maxCategoryIcon = 50
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type CategoryCreate struct {
	Name  string              `json:"name"`
	Type  models.CategoryType `json:"type"`
	Color *string             `json:"color"`
	Icon  *string             `json:"icon"`
}

// Validate checks the payload and applies the default color.
func (c *CategoryCreate) Validate() error {
	var fields apperr.Fields
	c.Name = strings.TrimSpace(c.Name)
	validateCategoryName(&fields, c.Name)
	if _, err := models.ParseCategoryType(string(c.Type)); err != nil {
		fields.Add("type", "input should be 'income' or 'expense'")
	}
	if c.Color == nil {
		color := models.DefaultCategoryColor
		c.Color = &color
	} else if !hexColor.MatchString(*c.Color) {
		fields.Add("color", "string should match pattern '^#[0-9A-Fa-f]{6}$'")
	}
	if c.Icon != nil && utf8.RuneCountInString(*c.Icon) > maxCategoryIcon {
		fields.Add("icon", "string should have at most 50 characters")
	}
	return fields.Err()
}

type CategoryUpdate struct {
	Name  models.Optional[string]              `json:"name"`
	Type  models.Optional[models.CategoryType] `json:"type"`
	Color models.Optional[string]              `json:"color"`
	Icon  models.Optional[string]              `json:"icon"`
}

// Validate checks only the fields present in the payload.
func (c *CategoryUpdate) Validate() error {
	var fields apperr.Fields
	if c.Name.Set {
		if c.Name.Null {
			fields.Add("name", "may not be null")
		} else {
			c.Name.Value = strings.TrimSpace(c.Name.Value)
			validateCategoryName(&fields, c.Name.Value)
		}
	}
	if c.Type.Set {
		if _, err := models.ParseCategoryType(string(c.Type.Value)); c.Type.Null || err != nil {
			fields.Add("type", "input should be 'income' or 'expense'")
		}
	}
	if c.Color.Set && (c.Color.Null || !hexColor.MatchString(c.Color.Value)) {
		fields.Add("color", "string should match pattern '^#[0-9A-Fa-f]{6}$'")
	}
	if c.Icon.HasValue() && utf8.RuneCountInString(c.Icon.Value) > maxCategoryIcon {
		fields.Add("icon", "string should have at most 50 characters")
	}
	return fields.Err()
}

func validateCategoryName(fields *apperr.Fields, name string) {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields.Add("name", "string should have at least 1 character")
	case n > maxCategoryName:
		fields.Add("name", "string should have at most 100 characters")
	}
}
