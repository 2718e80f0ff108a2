package channels

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchdash/backend/internal/domain/order"
)

// firebaseOrderDoc mirrors the remote JSON document close to 1:1
type firebaseOrderDoc struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"orderId"`
	CustomerName  string               `json:"customerName"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"paymentMethod"`
	Products      []firebaseProductDoc `json:"products"`
	TrackingID    string               `json:"trackingId,omitempty"`
	DesignURL     string               `json:"designUrl,omitempty"`
	CreatedAt     string               `json:"createdAt,omitempty"`
	UpdatedAt     string               `json:"updatedAt,omitempty"`
}

type firebaseProductDoc struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Qty            int             `json:"qty"`
	Colour         string          `json:"colour,omitempty"`
	Size           string          `json:"size,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	ProductPageURL string          `json:"productPageUrl,omitempty"`
	DownloadURL    string          `json:"downloadUrl,omitempty"`
}

// firebaseErrorBody is the best-effort error envelope returned on non-2xx
type firebaseErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// String returns whichever error field the store populated
func (b firebaseErrorBody) String() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// firebaseUpdateBody is the PUT payload: id plus the partial fields
type firebaseUpdateBody struct {
	ID            string  `json:"id"`
	Status        *string `json:"status,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	TrackingID    *string `json:"trackingId,omitempty"`
	DesignURL     *string `json:"designUrl,omitempty"`
	UpdatedAt     string  `json:"updatedAt"`
}

// toDomain converts a remote document into the normalized order model.
// Absent trackingId/designUrl stay empty so downstream presence checks work;
// timestamps that fail to parse are dropped rather than zeroed.
func (d *firebaseOrderDoc) toDomain() order.Order {
	o := order.Order{
		ID:            d.ID,
		Source:        order.SourceFirebase,
		OrderID:       d.OrderID,
		CustomerName:  d.CustomerName,
		Status:        order.ParseStatus(d.Status),
		PaymentMethod: order.ParsePaymentMethod(d.PaymentMethod),
		TrackingID:    d.TrackingID,
		DesignURL:     d.DesignURL,
		Products:      make([]order.Product, 0, len(d.Products)),
	}
	for _, p := range d.Products {
		colour := p.Colour
		if colour == "" {
			colour = order.DefaultColour
		}
		o.Products = append(o.Products, order.Product{
			SKU:            p.SKU,
			Name:           p.Name,
			UnitPrice:      p.Price,
			Qty:            p.Qty,
			Colour:         colour,
			Size:           p.Size,
			ImageURL:       p.ImageURL,
			ProductPageURL: p.ProductPageURL,
			DownloadURL:    p.DownloadURL,
		})
	}
	o.CreatedAt = parseISOTime(d.CreatedAt)
	o.UpdatedAt = parseISOTime(d.UpdatedAt)
	return o
}

// fromDomain builds the create payload from a normalized order
func firebaseDocFromDomain(o *order.Order) firebaseOrderDoc {
	doc := firebaseOrderDoc{
		ID:            o.ID,
		OrderID:       o.OrderID,
		CustomerName:  o.CustomerName,
		Status:        o.Status.String(),
		PaymentMethod: o.PaymentMethod.String(),
		TrackingID:    o.TrackingID,
		DesignURL:     o.DesignURL,
		Products:      make([]firebaseProductDoc, 0, len(o.Products)),
	}
	for _, p := range o.Products {
		doc.Products = append(doc.Products, firebaseProductDoc{
			SKU:            p.SKU,
			Name:           p.Name,
			Price:          p.UnitPrice,
			Qty:            p.Qty,
			Colour:         p.Colour,
			Size:           p.Size,
			ImageURL:       p.ImageURL,
			ProductPageURL: p.ProductPageURL,
			DownloadURL:    p.DownloadURL,
		})
	}
	if o.CreatedAt != nil {
		doc.CreatedAt = o.CreatedAt.UTC().Format(time.RFC3339)
	}
	if o.UpdatedAt != nil {
		doc.UpdatedAt = o.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// parseISOTime parses an ISO-8601 timestamp, returning nil when absent or
// unparseable
func parseISOTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
