package dto

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/models"
)

// MinPasswordLength is the shortest password accepted at signup or on profile update.
const MinPasswordLength = 8

type SignupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// Normalize trims the identity fields in place.
func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	if r.FullName != nil {
		trimmed := strings.TrimSpace(*r.FullName)
		r.FullName = &trimmed
	}
}

// Validate checks the payload after Normalize.
func (r SignupRequest) Validate() error {
	var fields apperr.Fields
	validateEmail(&fields, r.Email)
	validatePassword(&fields, r.Password)
	return fields.Err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both credentials.
func (r LoginRequest) Validate() error {
	var fields apperr.Fields
	if strings.TrimSpace(r.Email) == "" {
		fields.Add("username", "field required")
	}
	if r.Password == "" {
		fields.Add("password", "field required")
	}
	return fields.Err()
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserUpdate is the PUT /me payload. Every field is optional.
type UserUpdate struct {
	Email       models.Optional[string] `json:"email"`
	Password    models.Optional[string] `json:"password"`
	FullName    models.Optional[string] `json:"full_name"`
	IsActive    models.Optional[bool]   `json:"is_active"`
	IsSuperuser models.Optional[bool]   `json:"is_superuser"`
}

// Validate checks the supplied fields only.
func (u *UserUpdate) Validate() error {
	var fields apperr.Fields
	if u.Email.Set {
		if u.Email.Null {
			fields.Add("email", "may not be null")
		} else {
			u.Email.Value = strings.TrimSpace(u.Email.Value)
			validateEmail(&fields, u.Email.Value)
		}
	}
	if u.Password.Set {
		if u.Password.Null {
			fields.Add("password", "may not be null")
		} else {
			validatePassword(&fields, u.Password.Value)
		}
	}
	if u.IsActive.Set && u.IsActive.Null {
		fields.Add("is_active", "may not be null")
	}
	if u.IsSuperuser.Set && u.IsSuperuser.Null {
		fields.Add("is_superuser", "may not be null")
	}
	return fields.Err()
}

func validateEmail(fields *apperr.Fields, email string) {
	if email == "" {
		fields.Add("email", "field required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		fields.Add("email", "value is not a valid email address")
	}
}

func validatePassword(fields *apperr.Fields, password string) {
	if !utf8.ValidString(password) || utf8.RuneCountInString(password) < MinPasswordLength {
		fields.Add("password", "password must be at least 8 characters")
	}
}
