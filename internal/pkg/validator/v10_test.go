package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestV10Validator(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	type input struct {
		UserID     int64  `validate:"required,gt=0"`
		Email      string `validate:"required,email"`
		RedirectTo string `validate:"omitempty,localpath"`
	}

	assert.NoError(t, v.Validate(input{UserID: 1, Email: "a@x.com", RedirectTo: "/booking?x=1"}))

	err = v.Validate(input{Email: "nope", RedirectTo: "//evil.example"})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Values(), 3)
	assert.Contains(t, verr.Values(), "user_id")
	assert.Contains(t, verr.Values(), "email")
	assert.Equal(t, "RedirectTo must be a path starting with a single '/'", verr.Values()["redirect_to"])
}

func TestV10ValidatorNonStruct(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)
	assert.Error(t, v.Validate("not a struct"))
}
