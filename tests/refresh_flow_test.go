package tests

import (
	"sync"
	"testing"
	"time"

	"stockpile/internal/domain/models"
	"stockpile/internal/transport/client"
	"stockpile/tests/suite"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiredAccess_TriggersSingleRefresh(t *testing.T) {
	ctx, st := suite.New(t)

	uid := st.Backend.SeedUser(gofakeit.Email(), randomFakePassword())
	access, refresh := st.Backend.IssueTokens(uid, -time.Minute)
	st.Store.SetTokens(access, refresh, "Bearer")

	products, err := st.Client.MyProducts(ctx, models.OrderDesc)

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.EqualValues(t, 1, st.Backend.RefreshCalls())

	// the rotated pair is in place, the next call needs no refresh
	_, err = st.Client.MyProducts(ctx, models.OrderDesc)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Backend.RefreshCalls())

	pair := st.Store.Tokens()
	assert.NotEqual(t, access, pair.AccessToken)
	assert.NotEqual(t, refresh, pair.RefreshToken)
}

func TestExpiredAccess_InvalidRefreshForcesLogout(t *testing.T) {
	ctx, st := suite.New(t)

	uid := st.Backend.SeedUser(gofakeit.Email(), randomFakePassword())
	access, _ := st.Backend.IssueTokens(uid, -time.Minute)
	st.Store.SetTokens(access, "never-issued-refresh", "Bearer")

	_, err := st.Client.MyProducts(ctx, models.OrderDesc)

	assert.ErrorIs(t, err, client.ErrAuthExpired)
	assert.False(t, st.Store.IsAuthenticated())
	assert.EqualValues(t, 1, st.Backend.RefreshCalls())
}

func TestExpiredAccess_MissingRefreshForcesLogout(t *testing.T) {
	ctx, st := suite.New(t)

	uid := st.Backend.SeedUser(gofakeit.Email(), randomFakePassword())
	access, _ := st.Backend.IssueTokens(uid, -time.Minute)
	st.Store.SetTokens(access, "", "Bearer")

	_, err := st.Client.MyProducts(ctx, models.OrderDesc)

	assert.ErrorIs(t, err, client.ErrAuthExpired)
	assert.False(t, st.Store.IsAuthenticated())
	assert.Zero(t, st.Backend.RefreshCalls(), "no refresh token means no network call")
}

func TestConcurrentCalls_ShareOneRefresh(t *testing.T) {
	ctx, st := suite.New(t)

	uid := st.Backend.SeedUser(gofakeit.Email(), randomFakePassword())
	access, refresh := st.Backend.IssueTokens(uid, -time.Minute)
	st.Store.SetTokens(access, refresh, "Bearer")

	const callers = 10

	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.Client.CurrentUser(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}

	assert.EqualValues(t, 1, st.Backend.RefreshCalls())
}
