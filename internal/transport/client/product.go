package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"stockpile/internal/domain/models"
	"stockpile/internal/transport/client/dto"
)

// MyProducts lists the caller's products ordered by creation time.
func (c *Client) MyProducts(ctx context.Context, order models.Order) ([]models.Product, error) {
	const op = "client.MyProducts"

	if order == "" {
		order = models.OrderDesc
	}

	query := url.Values{"order": []string{string(order)}}

	var raw []dto.RawProduct
	if err := c.do(ctx, http.MethodGet, "/product/my-products", query, nil, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, p.Normalize())
	}

	return products, nil
}

// AddProduct creates a product.
func (c *Client) AddProduct(ctx context.Context, req dto.AddProductRequest) (models.Product, error) {
	const op = "client.AddProduct"

	if err := dto.Validate(req); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var raw dto.RawProduct
	if err := c.do(ctx, http.MethodPost, "/product/add-product", nil, req, &raw); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw.Normalize(), nil
}

// UpdateProduct applies a partial update.
func (c *Client) UpdateProduct(ctx context.Context, id int64, req dto.UpdateProductRequest) (models.Product, error) {
	const op = "client.UpdateProduct"

	if req.IsZero() {
		return models.Product{}, fmt.Errorf("%s: %w", op, errors.New("at least one field is required"))
	}

	if err := dto.Validate(req); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var raw dto.RawProduct
	path := "/product/update-product/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPatch, path, nil, req, &raw); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw.Normalize(), nil
}

// DeactivateProduct marks a product inactive without deleting it.
func (c *Client) DeactivateProduct(ctx context.Context, id int64) (models.Product, error) {
	const op = "client.DeactivateProduct"

	var raw dto.RawProduct
	path := "/product/inactive-product/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, nil, nil, &raw); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw.Normalize(), nil
}

// DeleteProduct removes a product permanently and returns the backend
// confirmation message.
func (c *Client) DeleteProduct(ctx context.Context, id int64) (string, error) {
	const op = "client.DeleteProduct"

	var resp dto.DeleteProductResponse
	path := "/product/delete-product/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return resp.Detail, nil
}

// Dashboard fetches and normalizes the aggregated metrics.
func (c *Client) Dashboard(ctx context.Context, lowStockThreshold int) (models.Dashboard, error) {
	const op = "client.Dashboard"

	query := url.Values{"low_stock_threshold": []string{strconv.Itoa(lowStockThreshold)}}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/product/dashboard", query, nil, &raw); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	dashboard, err := dto.NormalizeDashboard(raw)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	return dashboard, nil
}
