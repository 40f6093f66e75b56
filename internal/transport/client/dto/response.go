package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	"stockpile/internal/domain/models"
)

// Decimal tolerates both JSON numbers and decimal strings; the backend
// serializes product prices as strings on the listing endpoint and as
// numbers elsewhere.
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*d = 0
			return nil
		}

		*d = Decimal(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*d = Decimal(f)
	return nil
}

// RawProduct is the wire shape of a product: price may arrive as a decimal
// string and several fields are nullable.
type RawProduct struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    *string  `json:"description"`
	AvailableStock int      `json:"available_stock"`
	Price          Decimal  `json:"price"`
	Cost           *Decimal `json:"cost"`
	Platform       *string  `json:"platform"`
	ImgURL         *string  `json:"img_url"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	Inactive       bool     `json:"inactive"`
}

// Normalize maps the wire shape to the client model: null cost to 0, null
// optionals to empty strings.
func (p RawProduct) Normalize() models.Product {
	out := models.Product{
		ID:             p.ID,
		Name:           p.Name,
		AvailableStock: p.AvailableStock,
		Price:          float64(p.Price),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Inactive:       p.Inactive,
	}

	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Cost != nil {
		out.Cost = float64(*p.Cost)
	}
	if p.Platform != nil {
		out.Platform = *p.Platform
	}
	if p.ImgURL != nil {
		out.ImgURL = *p.ImgURL
	}

	return out
}

type DeleteProductResponse struct {
	Detail string `json:"detail"`
}
