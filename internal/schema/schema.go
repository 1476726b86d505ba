package schema

import (
	"fmt"
	"strings"

	"github.com/vinodismyname/storepulse/pkg/validation"
)

// Schema names the input columns the pipeline reads. It is a value type: pass it
// explicitly and substitute alternate names in tests instead of mutating globals.
type Schema struct {
	OrderID     string `json:"order_id" validate:"required,colname"`
	CustomerID  string `json:"customer_id" validate:"required,colname"`
	OrderDate   string `json:"order_date" validate:"required,colname"`
	ProductName string `json:"product_name" validate:"required,colname"`
	Category    string `json:"category" validate:"required,colname"`
	SubCategory string `json:"sub_category" validate:"required,colname"`
	Region      string `json:"region" validate:"required,colname"`
	Segment     string `json:"segment" validate:"required,colname"`
	State       string `json:"state" validate:"required,colname"`
	City        string `json:"city" validate:"required,colname"`
	Sales       string `json:"sales" validate:"required,colname"`
	Profit      string `json:"profit" validate:"required,colname"`
	Quantity    string `json:"quantity" validate:"required,colname"`
	Discount    string `json:"discount" validate:"required,colname"`
}

// Default returns the Superstore column names.
func Default() Schema {
	return Schema{
		OrderID:     "Order ID",
		CustomerID:  "Customer ID",
		OrderDate:   "Order Date",
		ProductName: "Product Name",
		Category:    "Category",
		SubCategory: "Sub-Category",
		Region:      "Region",
		Segment:     "Segment",
		State:       "State",
		City:        "City",
		Sales:       "Sales",
		Profit:      "Profit",
		Quantity:    "Quantity",
		Discount:    "Discount",
	}
}

// Columns returns every column name in canonical order.
func (s Schema) Columns() []string {
	return []string{
		s.OrderID, s.CustomerID, s.OrderDate, s.ProductName, s.Category, s.SubCategory,
		s.Region, s.Segment, s.State, s.City, s.Sales, s.Profit, s.Quantity, s.Discount,
	}
}

// TextColumns returns the free-text columns that are whitespace-trimmed on load.
func (s Schema) TextColumns() []string {
	return []string{s.Category, s.SubCategory, s.Region, s.Segment, s.State, s.City, s.ProductName}
}

// Validate checks that every name is set and that no two columns share a name.
func (s Schema) Validate() error {
	if msg := validation.ValidateStruct(s); msg != "" {
		return fmt.Errorf("schema: %s", strings.TrimPrefix(msg, "VALIDATION: "))
	}
	seen := make(map[string]string, 14)
	for _, c := range s.Columns() {
		key := strings.ToLower(c)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("schema: duplicate column name %q (also %q)", c, prev)
		}
		seen[key] = c
	}
	return nil
}
