package storefront

// Money is a Storefront API MoneyV2.
type Money struct {
	Amount       string `json:"amount" validate:"required"`
	CurrencyCode string `json:"currencyCode" validate:"required"`
}

// Image is a Storefront API image reference.
type Image struct {
	URL     string `json:"url" validate:"required"`
	AltText string `json:"altText"`
}

// SelectedOption is one option/value pair on a variant.
type SelectedOption struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// Variant is a ProductVariant node.
type Variant struct {
	ID               string           `json:"id" validate:"required"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	SKU              string           `json:"sku"`
	Price            Money            `json:"price"`
	CompareAtPrice   *Money           `json:"compareAtPrice"`
	SelectedOptions  []SelectedOption `json:"selectedOptions" validate:"dive"`
	Image            *Image           `json:"image"`
}

// PriceRange wraps the minimum variant price of a product.
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
}

// ImageConnection is a paged list of images.
type ImageConnection struct {
	Nodes []Image `json:"nodes" validate:"dive"`
}

// VariantConnection is a paged list of variants.
type VariantConnection struct {
	Nodes []Variant `json:"nodes" validate:"dive"`
}

// Product is a Product node with the fields the storefront reads.
type Product struct {
	ID                  string            `json:"id" validate:"required"`
	Handle              string            `json:"handle" validate:"required"`
	Title               string            `json:"title" validate:"required"`
	Description         string            `json:"description"`
	ProductType         string            `json:"productType"`
	Vendor              string            `json:"vendor"`
	Tags                []string          `json:"tags"`
	AvailableForSale    bool              `json:"availableForSale"`
	PriceRange          PriceRange        `json:"priceRange"`
	CompareAtPriceRange *PriceRange       `json:"compareAtPriceRange"`
	Images              ImageConnection   `json:"images"`
	Variants            VariantConnection `json:"variants"`
}

// ProductConnection is a paged list of products.
type ProductConnection struct {
	Nodes []Product `json:"nodes" validate:"dive"`
}

// Collection is a Collection node and its products.
type Collection struct {
	ID       string            `json:"id" validate:"required"`
	Handle   string            `json:"handle" validate:"required"`
	Title    string            `json:"title"`
	Products ProductConnection `json:"products"`
}

// CartCost is the cost block of a created cart.
type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
}

// Cart is the cart returned by cartCreate.
type Cart struct {
	ID            string   `json:"id" validate:"required"`
	CheckoutURL   string   `json:"checkoutUrl" validate:"required,url"`
	TotalQuantity int      `json:"totalQuantity" validate:"gte=0"`
	Cost          CartCost `json:"cost"`
}

// UserError is a business-level rejection reported by a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Response payloads, one per operation.
type (
	productData struct {
		Product *Product `json:"product"`
	}

	productsData struct {
		Products ProductConnection `json:"products"`
	}

	collectionData struct {
		Collection *Collection `json:"collection"`
	}

	cartCreateData struct {
		CartCreate *struct {
			Cart       *Cart       `json:"cart"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"cartCreate"`
	}
)

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type graphQLResponse[T any] struct {
	Data   *T             `json:"data"`
	Errors []graphQLError `json:"errors"`
}
