package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
)

func usd(amount string) storefront.Money {
	return storefront.Money{Amount: amount, CurrencyCode: "USD"}
}

func option(name, value string) storefront.SelectedOption {
	return storefront.SelectedOption{Name: name, Value: value}
}

func sampleProduct() storefront.Product {
	return storefront.Product{
		ID:                  "gid://shopify/Product/1",
		Handle:              "cozy-hoodie",
		Title:               "Cozy Hoodie",
		ProductType:         "Outerwear",
		Tags:                []string{"winter"},
		AvailableForSale:    true,
		PriceRange:          storefront.PriceRange{MinVariantPrice: usd("45.00")},
		CompareAtPriceRange: &storefront.PriceRange{MinVariantPrice: usd("60.00")},
		Images:              storefront.ImageConnection{Nodes: []storefront.Image{{URL: "https://cdn.example/h1.png"}, {URL: "https://cdn.example/h1.png"}}},
		Variants: storefront.VariantConnection{Nodes: []storefront.Variant{
			{ID: "gid://shopify/ProductVariant/1", Price: usd("45.00"), SelectedOptions: []storefront.SelectedOption{option("Size", "S"), option("Color", "Red")}},
			{ID: "gid://shopify/ProductVariant/2", Price: usd("45.00"), SelectedOptions: []storefront.SelectedOption{option("size", "M"), option("Colour", "red")}},
			{ID: "gid://shopify/ProductVariant/3", Price: usd("47.99"), SelectedOptions: []storefront.SelectedOption{option("SIZE", "M"), option("Color", "Teal")}},
		}},
	}
}

// ============================================================================
// MinorUnits Tests
// ============================================================================

func TestMinorUnits(t *testing.T) {
	tests := map[string]int64{
		"12.50":  1250,
		"12.5":   1250,
		"0.999":  100,
		" 7 ":    700,
		"":       0,
		"abc":    0,
		"-3.00":  0,
		"1e2":    10000,
		"19.995": 2000,
	}
	for in, want := range tests {
		assert.Equal(t, want, MinorUnits(in), "input %q", in)
	}
}

func TestMinorUnits_BeyondInt64IsZero(t *testing.T) {
	assert.Equal(t, int64(0), MinorUnits("1e30"))
	assert.Equal(t, int64(0), MinorUnits("92233720368547758.08"))
	assert.Equal(t, int64(math.MaxInt64), MinorUnits("92233720368547758.07"))
}

// ============================================================================
// Transform Tests
// ============================================================================

func TestTransform_PriceAndSale(t *testing.T) {
	out := New(DefaultRules()).Transform(sampleProduct())

	assert.Equal(t, int64(4500), out.Price)
	assert.Equal(t, int64(6000), out.CompareAtPrice)
	assert.Equal(t, "USD", out.Currency)
	assert.True(t, out.OnSale)
	assert.Equal(t, 25, out.DiscountPercent)
}

func TestTransform_DiscountRoundsDown(t *testing.T) {
	p := sampleProduct()
	p.PriceRange.MinVariantPrice = usd("20.00")
	p.CompareAtPriceRange.MinVariantPrice = usd("30.00")

	assert.Equal(t, 33, New(DefaultRules()).Transform(p).DiscountPercent)
}

func TestTransform_NoSaleWhenCompareAtNotHigher(t *testing.T) {
	p := sampleProduct()
	p.CompareAtPriceRange.MinVariantPrice = usd("45.00")

	out := New(DefaultRules()).Transform(p)
	assert.False(t, out.OnSale)
	assert.Zero(t, out.CompareAtPrice)
	assert.Zero(t, out.DiscountPercent)
}

func TestTransform_UnparseablePriceIsZero(t *testing.T) {
	p := sampleProduct()
	p.PriceRange.MinVariantPrice = usd("n/a")
	for i := range p.Variants.Nodes {
		p.Variants.Nodes[i].Price = usd("n/a")
	}

	var out domain.DisplayProduct
	require.NotPanics(t, func() { out = New(DefaultRules()).Transform(p) })
	assert.Zero(t, out.Price)
	assert.False(t, out.OnSale)
}

func TestTransform_FacetsDedupedInFirstSeenOrder(t *testing.T) {
	out := New(DefaultRules()).Transform(sampleProduct())

	assert.Equal(t, []string{"S", "M"}, out.Sizes)
	assert.Equal(t, []domain.Color{
		{Name: "Red", Hex: "#DC2626"},
		{Name: "Teal"},
	}, out.Colors)
	assert.Equal(t, []string{"https://cdn.example/h1.png"}, out.Images)
	require.Len(t, out.Variants, 3)
	assert.Equal(t, int64(4799), out.Variants[2].Price)
}

func TestTransform_Category(t *testing.T) {
	tr := New(DefaultRules())
	tests := []struct {
		name  string
		title string
		tags  []string
		want  string
	}{
		{"title keyword", "Cozy Hoodie", nil, "apparel"},
		{"plural", "Set of Mugs", nil, "home"},
		{"tag keyword", "The Classic", []string{"Gift Card"}, "gift-cards"},
		{"first rule wins", "Gift card with necklace", nil, "gift-cards"},
		{"no partial word", "Think about that", nil, "general"},
		{"default", "Mystery Box", nil, "general"},
		{"accents folded", "Crème Brûlée Mugs", nil, "home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := storefront.Product{Title: tt.title, Tags: tt.tags}
			assert.Equal(t, tt.want, tr.Transform(p).Category)
		})
	}
}

func TestTransform_InjectedRules(t *testing.T) {
	tr := New(Rules{
		ColorOptionNames: []string{"shade"},
		ColorHex:         map[string]string{"teal": "#008080"},
		Categories:       []CategoryRule{{Category: "outerwear", Keywords: []string{"outerwear"}}},
		DefaultCategory:  "accessories",
	})
	p := sampleProduct()
	p.Variants.Nodes[0].SelectedOptions = append(p.Variants.Nodes[0].SelectedOptions, option("Shade", "Teal"))

	out := tr.Transform(p)
	assert.Equal(t, "outerwear", out.Category)
	assert.Empty(t, out.Sizes)
	assert.Equal(t, []domain.Color{{Name: "Teal", Hex: "#008080"}}, out.Colors)

	assert.Equal(t, "accessories", tr.Transform(storefront.Product{Title: "Scarf"}).Category)
}

func TestTransform_Idempotent(t *testing.T) {
	tr := New(DefaultRules())
	p := sampleProduct()

	first := tr.Transform(p)
	second := tr.Transform(p)
	assert.Equal(t, first, second)
	assert.Equal(t, sampleProduct(), p)
}

func TestTransformAll(t *testing.T) {
	out := New(DefaultRules()).TransformAll([]storefront.Product{sampleProduct(), {Title: "Card"}})
	require.Len(t, out, 2)
	assert.Equal(t, "stationery", out[1].Category)
	assert.Empty(t, New(DefaultRules()).TransformAll(nil))
}
