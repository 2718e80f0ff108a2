package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Source
// ---------------------------------------------------------------------------

// Source identifies which upstream store an order came from
type Source string

const (
	// SourceFirebase represents the Firebase-backed order store
	SourceFirebase Source = "firebase"
	// SourceWooCommerce represents the WooCommerce store
	SourceWooCommerce Source = "woocommerce"
)

// IsValid returns true if the source is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceFirebase, SourceWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status represents the fulfilment status of an order
type Status string

const (
	// StatusPending indicates the order has not been completed yet
	StatusPending Status = "pending"
	// StatusCompleted indicates the order has been fulfilled
	StatusCompleted Status = "completed"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus maps a raw upstream status value to Status.
// Any unrecognized value defaults to pending.
func ParseStatus(raw string) Status {
	if Status(raw) == StatusCompleted {
		return StatusCompleted
	}
	return StatusPending
}

// ---------------------------------------------------------------------------
// PaymentMethod
// ---------------------------------------------------------------------------

// PaymentMethod represents how an order was paid
type PaymentMethod string

const (
	// PaymentCOD represents cash on delivery
	PaymentCOD PaymentMethod = "cod"
	// PaymentPrepaid represents any online/prepaid payment
	PaymentPrepaid PaymentMethod = "prepaid"
)

// IsValid returns true if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCOD, PaymentPrepaid:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod maps a raw upstream payment method to PaymentMethod.
// Only the literal "cod" maps to COD; everything else is prepaid.
func ParsePaymentMethod(raw string) PaymentMethod {
	if raw == string(PaymentCOD) {
		return PaymentCOD
	}
	return PaymentPrepaid
}

// ---------------------------------------------------------------------------
// Normalized model
// ---------------------------------------------------------------------------

// DefaultColour is used when a line item carries no resolvable colour metadata
const DefaultColour = "Black"

// Product is a single line item of a normalized order
type Product struct {
	// ProductID is the upstream catalog product id, 0 when the source has none
	ProductID int64
	// SKU is the stock keeping unit code
	SKU string
	// Name is the product display name
	Name string
	// UnitPrice is the per-unit price (currency-agnostic)
	UnitPrice decimal.Decimal
	// Qty is the ordered quantity (>= 1 for valid orders)
	Qty int
	// Colour is the print colour, DefaultColour when unresolvable
	Colour string
	// Size is the garment size, empty when unresolvable
	Size string
	// ImageURL is the product image URL
	ImageURL string
	// ProductPageURL is the store page URL for the product
	ProductPageURL string
	// DownloadURL is the downloadable asset URL, if any
	DownloadURL string
}

// Subtotal returns UnitPrice * Qty for this line item
func (p Product) Subtotal() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Qty)))
}

// Order is the source-agnostic order record produced by a channel adapter.
// It is ephemeral: recomputed on every fetch and never persisted locally.
type Order struct {
	// ID is the source-local identifier
	ID string
	// Source identifies the upstream store
	Source Source
	// OrderID is the display/business order number
	OrderID string
	// CustomerName is the buyer's name
	CustomerName string
	// Status is the fulfilment status
	Status Status
	// PaymentMethod is how the order was paid
	PaymentMethod PaymentMethod
	// Products contains the line items; never empty for a valid order
	Products []Product
	// TrackingID is the carrier waybill number, empty when unset
	TrackingID string
	// DesignURL is the print design asset URL, empty when unset
	DesignURL string
	// CreatedAt is when the order was placed; nil for upstream payloads
	// that carry no creation timestamp
	CreatedAt *time.Time
	// UpdatedAt is when the order was last modified, nil when unknown
	UpdatedAt *time.Time
}

// Revenue returns the total revenue contribution of the order,
// the sum of UnitPrice * Qty over all line items.
func (o *Order) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Subtotal())
	}
	return total
}

// Validate checks the normalized order invariants
func (o *Order) Validate() error {
	if !o.Source.IsValid() {
		return ErrInvalidSource
	}
	if len(o.Products) == 0 {
		return ErrOrderWithoutProducts
	}
	for _, p := range o.Products {
		if p.Qty < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// ProductDetails carries the extra catalog fields fetched when a single
// WooCommerce order is inspected (list views do not enrich line items).
type ProductDetails struct {
	// ID is the platform product id
	ID int64
	// Name is the product display name
	Name string
	// ImageURL is the primary catalog image
	ImageURL string
	// Permalink is the product page URL
	Permalink string
	// Categories are the catalog category names
	Categories []string
	// DownloadURL is the first downloadable file URL, if any
	DownloadURL string
}
