package tests

import (
	"testing"

	"stockpile/internal/transport/client"
	"stockpile/internal/transport/client/dto"
	"stockpile/tests/suite"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile_RefetchesSessionUser(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	fetchesBefore := st.Backend.UserFetches()

	err := st.Manager.UpdateProfile(ctx, dto.ProfileUpdateRequest{
		Username: "navid",
		Country:  "pt",
	})
	require.NoError(t, err)

	user, ok := st.Manager.User()
	require.True(t, ok)
	assert.Equal(t, "navid", user.Username)
	assert.Equal(t, fetchesBefore+1, st.Backend.UserFetches())
}

func TestUpdateProfile_NoChanges(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	err := st.Manager.UpdateProfile(ctx, dto.ProfileUpdateRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no changes")
}

func TestChangeEmail_Flow(t *testing.T) {
	ctx, st := suite.New(t)

	email := gofakeit.Email()
	pass := randomFakePassword()
	st.Backend.SeedUser(email, pass)

	_, err := st.Manager.Login(ctx, email, pass)
	require.NoError(t, err)

	newEmail := gofakeit.Email()

	account, err := st.Manager.ChangeEmail(ctx, newEmail)
	require.NoError(t, err)
	assert.Equal(t, newEmail, account.Email)

	// the session user follows the change
	user, ok := st.Manager.User()
	require.True(t, ok)
	assert.Equal(t, newEmail, user.Email)

	// changing to the current address is rejected with the backend message
	_, err = st.Manager.ChangeEmail(ctx, newEmail)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Cant update your email to the same email!", apiErr.Message)
}

func TestChangePassword_Flow(t *testing.T) {
	ctx, st := suite.New(t)

	email := gofakeit.Email()
	oldPass := randomFakePassword()
	newPass := randomFakePassword()
	st.Backend.SeedUser(email, oldPass)

	_, err := st.Manager.Login(ctx, email, oldPass)
	require.NoError(t, err)

	_, err = st.Manager.ChangePassword(ctx, dto.ChangePasswordRequest{
		Password:    oldPass,
		NewPassword: newPass,
	})
	require.NoError(t, err)

	st.Manager.Logout()

	// old password no longer works, new one does
	_, err = st.Manager.Login(ctx, email, oldPass)
	require.Error(t, err)

	_, err = st.Manager.Login(ctx, email, newPass)
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	_, err := st.Manager.ChangePassword(ctx, dto.ChangePasswordRequest{
		Password:    "not-the-password",
		NewPassword: randomFakePassword(),
	})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "The password doesnt correspond to the old one!", apiErr.Message)
}
