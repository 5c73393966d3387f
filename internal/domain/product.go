package domain

import "strings"

// VariantOption is one named option on a variant, e.g. Size=M.
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable SKU of a product.
type Variant struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Price            int64           `json:"price"`
	Currency         string          `json:"currency"`
	AvailableForSale bool            `json:"available_for_sale"`
	Options          []VariantOption `json:"options"`
	SKU              string          `json:"sku,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
}

// OptionValue returns the value of the first option whose name matches any of
// names, compared case-insensitively.
func (v Variant) OptionValue(names ...string) (string, bool) {
	for _, opt := range v.Options {
		for _, name := range names {
			if strings.EqualFold(opt.Name, name) {
				return opt.Value, true
			}
		}
	}
	return "", false
}

// HasOption reports whether the variant carries value under any of names.
// Values compare case-insensitively.
func (v Variant) HasOption(value string, names ...string) bool {
	got, ok := v.OptionValue(names...)
	return ok && strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(value))
}

// ProductVariants is the variant list of one product.
type ProductVariants struct {
	ProductID    string    `json:"productId"`
	ProductTitle string    `json:"productTitle"`
	Variants     []Variant `json:"variants"`
}

// Color is a colour facet with its display swatch. Hex is empty when unknown.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// DisplayProduct is the storefront's presentation model of a catalog entry.
type DisplayProduct struct {
	ID               string    `json:"id"`
	Handle           string    `json:"handle"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Price            int64     `json:"price"`
	CompareAtPrice   int64     `json:"compare_at_price,omitempty"`
	Currency         string    `json:"currency"`
	OnSale           bool      `json:"on_sale"`
	DiscountPercent  int       `json:"discount_percent,omitempty"`
	Sizes            []string  `json:"sizes"`
	Colors           []Color   `json:"colors"`
	Category         string    `json:"category"`
	Images           []string  `json:"images"`
	Variants         []Variant `json:"variants"`
	AvailableForSale bool      `json:"available_for_sale"`
	Tags             []string  `json:"tags,omitempty"`
	Vendor           string    `json:"vendor,omitempty"`
}
