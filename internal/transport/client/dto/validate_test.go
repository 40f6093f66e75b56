package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_LoginRequest(t *testing.T) {
	assert.NoError(t, Validate(LoginRequest{Email: "user@example.com", Password: "secret"}))

	err := Validate(LoginRequest{Email: "nope", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, "invalid email", err.Error())

	err = Validate(LoginRequest{Email: "user@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestValidate_RegisterRequest(t *testing.T) {
	assert.NoError(t, Validate(RegisterRequest{
		Email:    "user@example.com",
		PlanCode: "free",
		Password: "longenough",
	}))

	err := Validate(RegisterRequest{Email: "user@example.com", PlanCode: "gold", Password: "longenough"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of")

	err = Validate(RegisterRequest{Email: "user@example.com", PlanCode: "free", Password: "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6")
}

func TestValidate_AddProductRequest(t *testing.T) {
	assert.NoError(t, Validate(AddProductRequest{Name: "deck", AvailableStock: 1, Price: 10}))

	err := Validate(AddProductRequest{AvailableStock: 1, Price: 10})
	require.Error(t, err)

	err = Validate(AddProductRequest{Name: "deck", AvailableStock: -1, Price: 10})
	require.Error(t, err)

	err = Validate(AddProductRequest{Name: "deck", ImgURL: "not a url"})
	require.Error(t, err)
}

func TestValidate_UpdateProductRequest(t *testing.T) {
	name := "new name"
	stock := -5

	assert.NoError(t, Validate(UpdateProductRequest{Name: &name}))
	assert.Error(t, Validate(UpdateProductRequest{AvailableStock: &stock}))

	assert.True(t, UpdateProductRequest{}.IsZero())
	assert.False(t, UpdateProductRequest{Name: &name}.IsZero())
}

func TestValidate_ProfileUpdateRequest(t *testing.T) {
	assert.NoError(t, Validate(ProfileUpdateRequest{Username: "navid", Country: "pt"}))
	assert.Error(t, Validate(ProfileUpdateRequest{AvatarURL: "nope"}))
	assert.True(t, ProfileUpdateRequest{}.IsZero())
}
