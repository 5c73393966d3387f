// Package transform maps Storefront API products onto the display model. It
// has no side effects and no network access.
package transform

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
	"github.com/utafrali/giftbox-storefront/pkg/slug"
)

// Transformer applies Rules to raw catalog entries.
type Transformer struct {
	Rules Rules
}

// New creates a Transformer. An empty DefaultCategory becomes "general".
func New(rules Rules) *Transformer {
	if rules.DefaultCategory == "" {
		rules.DefaultCategory = "general"
	}
	return &Transformer{Rules: rules}
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// MinorUnits parses a decimal amount string into minor units (cents). Anything
// unparseable, negative or too large for int64 is 0.
func MinorUnits(amount string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || d.IsNegative() {
		return 0
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxMinorUnits) {
		return 0
	}
	return cents.IntPart()
}

// Transform maps p to a DisplayProduct. The same input always yields the same output.
func (t *Transformer) Transform(p storefront.Product) domain.DisplayProduct {
	variants := Variants(p)

	price := MinorUnits(p.PriceRange.MinVariantPrice.Amount)
	currency := p.PriceRange.MinVariantPrice.CurrencyCode
	if price == 0 && len(variants) > 0 {
		price = variants[0].Price
		currency = variants[0].Currency
	}

	compareAt := t.compareAtPrice(p)
	onSale := compareAt > price && price > 0

	out := domain.DisplayProduct{
		ID:               p.ID,
		Handle:           p.Handle,
		Title:            p.Title,
		Description:      p.Description,
		Price:            price,
		Currency:         currency,
		OnSale:           onSale,
		Sizes:            t.facet(p.Variants.Nodes, t.Rules.SizeOptionNames),
		Colors:           t.colors(p.Variants.Nodes),
		Category:         t.category(p),
		Images:           images(p),
		Variants:         variants,
		AvailableForSale: p.AvailableForSale,
		Tags:             append([]string(nil), p.Tags...),
		Vendor:           p.Vendor,
	}
	if onSale {
		out.CompareAtPrice = compareAt
		out.DiscountPercent = int((compareAt - price) * 100 / compareAt)
	}
	return out
}

// TransformAll maps every product in ps.
func (t *Transformer) TransformAll(ps []storefront.Product) []domain.DisplayProduct {
	out := make([]domain.DisplayProduct, len(ps))
	for i, p := range ps {
		out[i] = t.Transform(p)
	}
	return out
}

// Variants converts the product's variant nodes.
func Variants(p storefront.Product) []domain.Variant {
	out := make([]domain.Variant, len(p.Variants.Nodes))
	for i, v := range p.Variants.Nodes {
		out[i] = Variant(v)
	}
	return out
}

// Variant converts one variant node.
func Variant(v storefront.Variant) domain.Variant {
	dv := domain.Variant{
		ID:               v.ID,
		Title:            v.Title,
		Price:            MinorUnits(v.Price.Amount),
		Currency:         v.Price.CurrencyCode,
		AvailableForSale: v.AvailableForSale,
		Options:          make([]domain.VariantOption, len(v.SelectedOptions)),
		SKU:              v.SKU,
	}
	for i, o := range v.SelectedOptions {
		dv.Options[i] = domain.VariantOption{Name: o.Name, Value: o.Value}
	}
	if v.Image != nil {
		dv.ImageURL = v.Image.URL
	}
	return dv
}

func (t *Transformer) compareAtPrice(p storefront.Product) int64 {
	if p.CompareAtPriceRange != nil {
		if c := MinorUnits(p.CompareAtPriceRange.MinVariantPrice.Amount); c > 0 {
			return c
		}
	}
	if len(p.Variants.Nodes) > 0 && p.Variants.Nodes[0].CompareAtPrice != nil {
		return MinorUnits(p.Variants.Nodes[0].CompareAtPrice.Amount)
	}
	return 0
}

// facet collects distinct option values under names in first-seen order.
func (t *Transformer) facet(variants []storefront.Variant, names []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range variants {
		for _, o := range v.SelectedOptions {
			if !matchesName(o.Name, names) {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(o.Value))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(o.Value))
		}
	}
	return out
}

func (t *Transformer) colors(variants []storefront.Variant) []domain.Color {
	names := t.facet(variants, t.Rules.ColorOptionNames)
	out := make([]domain.Color, len(names))
	for i, name := range names {
		out[i] = domain.Color{Name: name, Hex: t.Rules.ColorHex[strings.ToLower(name)]}
	}
	return out
}

// category matches keywords at word starts, so "mug" hits "Mugs" but "hat"
// does not hit "that".
func (t *Transformer) category(p storefront.Product) string {
	haystack := " " + normalize(strings.Join(append([]string{p.Title, p.ProductType}, p.Tags...), " "))
	for _, rule := range t.Rules.Categories {
		for _, kw := range rule.Keywords {
			kw = normalize(kw)
			if kw != "" && strings.Contains(haystack, " "+kw) {
				return rule.Category
			}
		}
	}
	return t.Rules.DefaultCategory
}

// normalize folds s to lowercase ASCII words separated by single spaces.
func normalize(s string) string {
	return slug.Words(s)
}

func images(p storefront.Product) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		out = append(out, url)
	}
	for _, img := range p.Images.Nodes {
		add(img.URL)
	}
	if len(out) == 0 {
		for _, v := range p.Variants.Nodes {
			if v.Image != nil {
				add(v.Image.URL)
			}
		}
	}
	return out
}

func matchesName(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return true
		}
	}
	return false
}
