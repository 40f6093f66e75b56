package models

// Product is the normalized product shape used across the client.
// The wire format carries price as a decimal string and several nullable
// fields; normalization happens in the transport layer.
type Product struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	AvailableStock int     `json:"available_stock"`
	Price          float64 `json:"price"`
	Cost           float64 `json:"cost"`
	Platform       string  `json:"platform,omitempty"`
	ImgURL         string  `json:"img_url,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	Inactive       bool    `json:"inactive"`
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)
