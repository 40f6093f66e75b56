package tests

import (
	"context"
	"testing"

	"stockpile/internal/domain/models"
	"stockpile/internal/transport/client"
	"stockpile/internal/transport/client/dto"
	"stockpile/tests/suite"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginFreshUser(ctx context.Context, st *suite.Suite) {
	st.Helper()

	email := gofakeit.Email()
	pass := randomFakePassword()
	st.Backend.SeedUser(email, pass)

	_, err := st.Manager.Login(ctx, email, pass)
	require.NoError(st.T, err)
}

func TestProductLifecycle(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	created, err := st.Client.AddProduct(ctx, dto.AddProductRequest{
		Name:           "steam deck",
		Description:    "handheld",
		AvailableStock: 10,
		Price:          449.99,
		Cost:           300,
		Platform:       "steam",
	})
	require.NoError(t, err)
	assert.Equal(t, "steam deck", created.Name)
	assert.Equal(t, 449.99, created.Price, "decimal-string price must normalize to a number")
	assert.False(t, created.Inactive)

	newPrice := 399.99
	newStock := 4
	updated, err := st.Client.UpdateProduct(ctx, created.ID, dto.UpdateProductRequest{
		Price:          &newPrice,
		AvailableStock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, newPrice, updated.Price)
	assert.Equal(t, newStock, updated.AvailableStock)

	listed, err := st.Client.MyProducts(ctx, models.OrderAsc)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, updated, listed[0])

	deactivated, err := st.Client.DeactivateProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deactivated.Inactive)

	detail, err := st.Client.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, detail)

	listed, err = st.Client.MyProducts(ctx, models.OrderDesc)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestProductListOrdering(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	for _, name := range []string{"first", "second", "third"} {
		_, err := st.Client.AddProduct(ctx, dto.AddProductRequest{
			Name:           name,
			AvailableStock: 1,
			Price:          10,
		})
		require.NoError(t, err)
	}

	asc, err := st.Client.MyProducts(ctx, models.OrderAsc)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "first", asc[0].Name)

	desc, err := st.Client.MyProducts(ctx, models.OrderDesc)
	require.NoError(t, err)
	assert.Equal(t, "third", desc[0].Name)
}

func TestAddProduct_DuplicateName(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	req := dto.AddProductRequest{Name: "ps5", AvailableStock: 2, Price: 500}

	_, err := st.Client.AddProduct(ctx, req)
	require.NoError(t, err)

	_, err = st.Client.AddProduct(ctx, req)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "You already have this product!", apiErr.Message)
}

func TestDashboard_Aggregation(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	// profitable and well stocked
	_, err := st.Client.AddProduct(ctx, dto.AddProductRequest{
		Name: "winner", AvailableStock: 20, Price: 100, Cost: 60,
	})
	require.NoError(t, err)

	// sold below cost and nearly out of stock
	_, err = st.Client.AddProduct(ctx, dto.AddProductRequest{
		Name: "loser", AvailableStock: 2, Price: 40, Cost: 50,
	})
	require.NoError(t, err)

	dashboard, err := st.Client.Dashboard(ctx, 5)
	require.NoError(t, err)

	require.False(t, dashboard.IsEmpty)
	assert.Equal(t, 22, dashboard.AvailableStock)
	assert.InDelta(t, 20*100+2*40, dashboard.TotalPrice, 0.01)
	assert.InDelta(t, 20*60+2*50, dashboard.StockCost, 0.01)
	assert.InDelta(t, 20*40-2*10, dashboard.TotalProfit, 0.01)

	require.Len(t, dashboard.LosingProducts, 1)
	assert.Equal(t, "loser", dashboard.LosingProducts[0].Name)
	assert.InDelta(t, 10, dashboard.LosingProducts[0].LossPerItem, 0.01)

	require.Len(t, dashboard.LowStock, 1)
	assert.Equal(t, models.LowStockItem{Name: "loser", Stock: 2}, dashboard.LowStock[0])

	require.NotEmpty(t, dashboard.TopProducts)
	assert.Equal(t, "winner", dashboard.TopProducts[0].Name)
	require.NotEmpty(t, dashboard.WorstProducts)
	assert.Equal(t, "loser", dashboard.WorstProducts[0].Name)
}

func TestDashboard_AllStockGood(t *testing.T) {
	ctx, st := suite.New(t)
	loginFreshUser(ctx, st)

	_, err := st.Client.AddProduct(ctx, dto.AddProductRequest{
		Name: "plenty", AvailableStock: 100, Price: 10, Cost: 5,
	})
	require.NoError(t, err)

	dashboard, err := st.Client.Dashboard(ctx, 5)
	require.NoError(t, err)

	assert.Empty(t, dashboard.LowStock)
	assert.Equal(t, "Your stock is all good", dashboard.LowStockMessage)
}
