package validation

import (
	"testing"

	"parkeasy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupReq struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=customer owner"`
}

func TestValidate(t *testing.T) {
	v := New()
	ok := signupReq{Username: "asha", Email: "a@example.com", Password: "secret123", PasswordConfirm: "secret123"}
	require.NoError(t, v.Validate(ok))

	tests := []struct {
		name  string
		edit  func(*signupReq)
		field string
		msg   string
	}{
		{"missing username", func(r *signupReq) { r.Username = "" }, "username", "This field is required."},
		{"bad email", func(r *signupReq) { r.Email = "nope" }, "email", "Enter a valid email address."},
		{"short password", func(r *signupReq) { r.Password, r.PasswordConfirm = "short", "short" }, "password", "Must be at least 8 characters long."},
		{"mismatch", func(r *signupReq) { r.PasswordConfirm = "other1234" }, "password_confirm", "Passwords do not match."},
		{"bad role", func(r *signupReq) { r.Role = "admin" }, "role", "Must be one of: customer, owner."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ok
			tt.edit(&req)
			var ve *models.ValidationError
			require.ErrorAs(t, v.Validate(req), &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.msg, ve.Message)
		})
	}
}
