package domain

import (
	"fmt"
	"time"

	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

// Cart operation upper bounds.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single line item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct products in a cart.
	MaxItemsPerCart = 50
)

// Cart is the per-session collection of line items. Each product id appears at
// most once.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// LineItem is one product in the cart. Name, price and images are a display
// snapshot taken when the item was first added.
type LineItem struct {
	ProductID     string   `json:"product_id"`
	Name          string   `json:"name"`
	UnitPrice     int64    `json:"unit_price"`
	Currency      string   `json:"currency,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Images        []string `json:"images,omitempty"`
	Quantity      int      `json:"quantity"`
	SelectedSize  string   `json:"selected_size,omitempty"`
	SelectedColor string   `json:"selected_color,omitempty"`
	// VariantID may be empty, a product-level id, or a hard variant id.
	VariantID string `json:"variant_id,omitempty"`
}

// Subtotal returns unit price times quantity.
func (i LineItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Add merges item into the cart. An existing entry for the same product gains
// the item's quantity (default 1) and takes the item's selections. A variant id
// on the call replaces the stored one; without one, a changed selection clears
// the stored reference since it described the old selection.
func (c *Cart) Add(item LineItem) error {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	if qty > MaxQuantityPerItem {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	if idx := c.FindItemIndex(item.ProductID); idx >= 0 {
		existing := &c.Items[idx]
		newQty := existing.Quantity + qty
		if newQty > MaxQuantityPerItem {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		existing.Quantity = newQty
		existing.applySelection(item.SelectedSize, item.SelectedColor, item.VariantID)
		return nil
	}

	if len(c.Items) >= MaxItemsPerCart {
		return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}

	item.Quantity = qty
	if item.Images != nil {
		item.Images = append([]string(nil), item.Images...)
	}
	c.Items = append(c.Items, item)
	return nil
}

// Remove deletes the entry for productID. It reports whether anything was removed.
func (c *Cart) Remove(productID string) bool {
	idx := c.FindItemIndex(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// UpdateQuantity sets quantity and selections on the entry for productID.
// A quantity of zero or less removes the entry. It reports whether an entry
// was found.
func (c *Cart) UpdateQuantity(productID string, quantity int, size, color string) (bool, error) {
	if quantity > MaxQuantityPerItem {
		return false, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	idx := c.FindItemIndex(productID)
	if idx < 0 {
		return false, nil
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return true, nil
	}

	item := &c.Items[idx]
	item.Quantity = quantity
	item.applySelection(size, color, "")
	return true, nil
}

func (i *LineItem) applySelection(size, color, variantID string) {
	changed := i.SelectedSize != size || i.SelectedColor != color
	i.SelectedSize = size
	i.SelectedColor = color
	switch {
	case variantID != "":
		i.VariantID = variantID
	case changed:
		i.VariantID = ""
	}
}

// TotalAmount sums unit price times quantity over every line, in minor units.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the line for productID, or -1.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		if item.Images != nil {
			item.Images = append([]string(nil), item.Images...)
		}
		out.Items[i] = item
	}
	return &out
}
