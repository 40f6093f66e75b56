package models

// Dashboard is the normalized aggregated-metrics payload of
// GET /product/dashboard. When the account has no products the backend
// returns a bare message instead of the metric blocks; that case is
// represented by IsEmpty.
type Dashboard struct {
	IsEmpty      bool   `json:"is_empty"`
	EmptyMessage string `json:"empty_message,omitempty"`

	AvailableStock int     `json:"available_stock"`
	TotalPrice     float64 `json:"total_price"`
	StockCost      float64 `json:"stock_cost"`
	TotalProfit    float64 `json:"total_profit"`

	LosingProducts []LosingProduct `json:"losing_products"`

	// LowStock and LowStockMessage are mutually exclusive: the backend
	// answers either with a list of items below the threshold or with a
	// "stock is all good" message.
	LowStock        []LowStockItem `json:"low_stock"`
	LowStockMessage string         `json:"low_stock_message,omitempty"`

	TopProducts   []ProductProfit `json:"top_products"`
	WorstProducts []ProductProfit `json:"worst_products"`
}

type LosingProduct struct {
	Name        string  `json:"name"`
	LossPerItem float64 `json:"loss_per_item"`
}

type LowStockItem struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type ProductProfit struct {
	Name   string  `json:"name"`
	Profit float64 `json:"profit"`
}
