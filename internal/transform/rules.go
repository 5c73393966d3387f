package transform

// CategoryRule maps any of Keywords to Category.
type CategoryRule struct {
	Category string
	Keywords []string
}

// Rules are the lookup tables behind a Transformer. Tests supply their own.
type Rules struct {
	// SizeOptionNames and ColorOptionNames match variant option names, case-insensitively.
	SizeOptionNames  []string
	ColorOptionNames []string
	// ColorHex maps a lowercase colour name to its swatch.
	ColorHex map[string]string
	// Categories are tried in order against title, product type and tags; the
	// first rule with a matching keyword wins.
	Categories      []CategoryRule
	DefaultCategory string
}

// DefaultRules returns the storefront's built-in tables.
func DefaultRules() Rules {
	return Rules{
		SizeOptionNames:  []string{"size"},
		ColorOptionNames: []string{"color", "colour"},
		ColorHex: map[string]string{
			"black":  "#000000",
			"white":  "#FFFFFF",
			"red":    "#DC2626",
			"blue":   "#2563EB",
			"navy":   "#1E3A8A",
			"green":  "#16A34A",
			"yellow": "#FACC15",
			"orange": "#F97316",
			"pink":   "#EC4899",
			"purple": "#9333EA",
			"brown":  "#92400E",
			"beige":  "#F5F5DC",
			"grey":   "#6B7280",
			"gray":   "#6B7280",
			"gold":   "#D4AF37",
			"silver": "#C0C0C0",
		},
		Categories: []CategoryRule{
			{Category: "gift-cards", Keywords: []string{"gift card", "giftcard", "e-gift"}},
			{Category: "apparel", Keywords: []string{"shirt", "tee", "hoodie", "sweater", "sock", "hat", "apparel"}},
			{Category: "jewelry", Keywords: []string{"necklace", "pendant", "bracelet", "earring", "ring", "jewelry"}},
			{Category: "home", Keywords: []string{"mug", "candle", "blanket", "pillow", "vase", "home"}},
			{Category: "beauty", Keywords: []string{"soap", "lotion", "bath", "beauty", "perfume"}},
			{Category: "stationery", Keywords: []string{"notebook", "journal", "pen", "card", "stationery"}},
			{Category: "toys", Keywords: []string{"toy", "plush", "puzzle", "game"}},
		},
		DefaultCategory: "general",
	}
}
