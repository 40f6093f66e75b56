package dto

import (
	"encoding/json"
	"sort"

	"stockpile/internal/domain/models"
)

// The dashboard payload is the least regular part of the API: metric
// blocks use keys with embedded spaces ("stock cost", "stock available",
// "You need more stock of " with a trailing space), low_stock switches
// between a message object and an item list, and an account without
// products gets a bare {"No products": ...} object. Decoding goes through
// json.RawMessage maps instead of struct tags because encoding/json cannot
// match keys containing spaces.

const (
	keyNoProducts   = "No products"
	keyStockCost    = "stock cost"
	keyLossPerItem  = "loss on each product"
	keyStockLeft    = "stock available"
	keyNeedMore     = "You need more stock of "
	defaultEmptyMsg = "No Products yet"
)

type rawProfitEntry struct {
	Profit float64 `json:"profit"`
}

// NormalizeDashboard maps the raw aggregated payload onto the client
// model. Missing blocks normalize to zero values, never to errors: a
// partially filled dashboard is still renderable.
func NormalizeDashboard(data []byte) (models.Dashboard, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Dashboard{}, err
	}

	if msg, ok := raw[keyNoProducts]; ok {
		out := models.Dashboard{IsEmpty: true, EmptyMessage: defaultEmptyMsg}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil && s != "" {
			out.EmptyMessage = s
		}

		return out, nil
	}

	var out models.Dashboard

	if available, ok := objectAt(raw, "products_available"); ok {
		out.AvailableStock = int(numberAt(available, "available_stock"))
		out.TotalPrice = numberAt(available, "total_price")
	}

	if profit, ok := objectAt(raw, "products_profit"); ok {
		out.StockCost = numberAt(profit, keyStockCost)
		out.TotalProfit = numberAt(profit, "profit")
		out.LosingProducts = losingProducts(profit["losing_products"])
	}

	if low, ok := objectAt(raw, "low_stock"); ok {
		if detail, ok := low["detail"]; ok {
			var s string
			if err := json.Unmarshal(detail, &s); err == nil {
				out.LowStockMessage = s
			}
		} else if items, ok := low[keyNeedMore]; ok {
			out.LowStock = lowStockItems(items)
		}
	}

	out.TopProducts = profitEntries(raw["products_top"], func(a, b models.ProductProfit) bool {
		return a.Profit > b.Profit
	})
	out.WorstProducts = profitEntries(raw["products_worst"], func(a, b models.ProductProfit) bool {
		return a.Profit < b.Profit
	})

	return out, nil
}

func objectAt(raw map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	msg, ok := raw[key]
	if !ok {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil, false
	}

	return obj, true
}

func numberAt(obj map[string]json.RawMessage, key string) float64 {
	msg, ok := obj[key]
	if !ok {
		return 0
	}

	var n float64
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0
	}

	return n
}

func losingProducts(msg json.RawMessage) []models.LosingProduct {
	if msg == nil {
		return nil
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}

	out := make([]models.LosingProduct, 0, len(items))
	for _, item := range items {
		out = append(out, models.LosingProduct{
			Name:        stringAt(item, "name"),
			LossPerItem: numberAt(item, keyLossPerItem),
		})
	}

	return out
}

func lowStockItems(msg json.RawMessage) []models.LowStockItem {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}

	out := make([]models.LowStockItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.LowStockItem{
			Name:  stringAt(item, "name"),
			Stock: int(numberAt(item, keyStockLeft)),
		})
	}

	return out
}

func profitEntries(msg json.RawMessage, less func(a, b models.ProductProfit) bool) []models.ProductProfit {
	if msg == nil {
		return nil
	}

	var entries map[string]rawProfitEntry
	if err := json.Unmarshal(msg, &entries); err != nil {
		return nil
	}

	out := make([]models.ProductProfit, 0, len(entries))
	for name, entry := range entries {
		out = append(out, models.ProductProfit{Name: name, Profit: entry.Profit})
	}

	// map iteration order is random; keep the result stable
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit == out[j].Profit {
			return out[i].Name < out[j].Name
		}

		return less(out[i], out[j])
	})

	return out
}

func stringAt(obj map[string]json.RawMessage, key string) string {
	msg, ok := obj[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}

	return s
}
