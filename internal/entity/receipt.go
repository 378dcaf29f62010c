package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/common"
	"github.com/vickotoAguilera/BoletasScaner/internal/money"
)

// CityUnspecified is the sentinel stored when the receipt carries no city.
// The city column is never null at rest.
const CityUnspecified = "Sin especificar"

// LineItem is a single printed line of a boleta. Items are immutable once the
// receipt is built; an edit replaces the whole item.
type LineItem struct {
	Quantity       int    `json:"cantidad"`
	Description    string `json:"descripcion"`
	UnitPriceGross int64  `json:"precioUnitario"`
	UnitPriceNet   int64  `json:"precioNeto"`
	UnitTax        int64  `json:"iva"`
	LineTotalGross int64  `json:"subtotal"`
	LineTotalNet   int64  `json:"subtotalNeto"`
	LineTotalTax   int64  `json:"subtotalIva"`
}

// NewLineItem derives the net/tax breakdown for one line. The line total is
// split from quantity*unitGross independently of the unit split, so
// LineTotalTax is not necessarily quantity*UnitTax when rounding differs.
func NewLineItem(quantity int, description string, unitGross int64) (LineItem, error) {
	if quantity <= 0 {
		quantity = 1
	}
	unitNet, unitTax, err := money.DeriveNet(unitGross)
	if err != nil {
		return LineItem{}, err
	}
	lineGross := int64(quantity) * unitGross
	lineNet, lineTax, err := money.DeriveNet(lineGross)
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{
		Quantity:       quantity,
		Description:    strings.TrimSpace(description),
		UnitPriceGross: unitGross,
		UnitPriceNet:   unitNet,
		UnitTax:        unitTax,
		LineTotalGross: lineGross,
		LineTotalNet:   lineNet,
		LineTotalTax:   lineTax,
	}, nil
}

// Receipt is the canonical persisted record for one boleta. Created once from
// a confirmed extraction, deleted on explicit user action; never partially
// updated.
type Receipt struct {
	ID              uuid.UUID               `json:"id"`
	OwnerID         string                  `json:"ownerId"`
	MerchantName    string                  `json:"tienda"`
	MerchantTaxID   *string                 `json:"rutTienda,omitempty"`
	MerchantAddress *string                 `json:"direccion,omitempty"`
	ReceiptNumber   *string                 `json:"numeroBoleta,omitempty"`
	City            string                  `json:"ciudad"`
	PurchaseDate    time.Time               `json:"fecha"`
	PurchaseTime    *string                 `json:"hora,omitempty"` // HH:MM:SS
	Items           []LineItem              `json:"items"`
	TotalGross      int64                   `json:"totalBruto"`
	TotalNet        int64                   `json:"totalNeto"`
	TotalTax        int64                   `json:"iva"`
	PaymentMethod   constants.PaymentMethod `json:"metodoPago"`
	Category        constants.Category      `json:"categoria"`
	ImageRef        string                  `json:"imagenURL"`
	Confidence      int                     `json:"confianza"` // 0-100, advisory
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// Validate checks the record is fit for persistence: required fields present,
// enums canonical, and the gross/net/tax identity intact. The record-level
// total is allowed to diverge from the item sum (receipts carry rounding
// noise the extraction model cannot resolve), so that is deliberately not
// checked here.
func (r *Receipt) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return common.NewAppError("VALIDATION", "owner id is required", common.ErrValidation)
	}
	if strings.TrimSpace(r.MerchantName) == "" {
		return common.NewAppError("VALIDATION", "merchant name is required", common.ErrValidation)
	}
	if r.PurchaseDate.IsZero() {
		return common.NewAppError("VALIDATION", "purchase date is required", common.ErrValidation)
	}
	if r.City == "" {
		return common.NewAppError("VALIDATION", "city must be set (use the unspecified sentinel)", common.ErrValidation)
	}
	if r.TotalGross < 0 || r.TotalNet < 0 || r.TotalTax < 0 {
		return common.NewAppError("VALIDATION", "amounts must be non-negative", common.ErrInvalidAmount)
	}
	if r.TotalNet+r.TotalTax != r.TotalGross {
		return common.NewAppError("VALIDATION", "totalNeto + iva must equal totalBruto", common.ErrValidation)
	}
	if _, ok := constants.CanonicalizeCategory(string(r.Category)); !ok {
		return common.NewAppError("VALIDATION", "unknown category", common.ErrValidation)
	}
	for i := range r.Items {
		it := &r.Items[i]
		if it.Quantity <= 0 {
			return common.NewAppError("VALIDATION", "item quantity must be positive", common.ErrValidation)
		}
		if it.UnitPriceNet+it.UnitTax != it.UnitPriceGross {
			return common.NewAppError("VALIDATION", "item unit net + tax must equal unit gross", common.ErrValidation)
		}
		if it.LineTotalNet+it.LineTotalTax != it.LineTotalGross {
			return common.NewAppError("VALIDATION", "item line net + tax must equal line gross", common.ErrValidation)
		}
	}
	return nil
}

// ItemsTotalGross sums the line totals. Reported for display; not enforced
// against TotalGross.
func (r *Receipt) ItemsTotalGross() int64 {
	var sum int64
	for _, it := range r.Items {
		sum += it.LineTotalGross
	}
	return sum
}

// MonthKey returns the (year, month) bucket of the purchase date.
func (r *Receipt) MonthKey() (int, time.Month) {
	return r.PurchaseDate.Year(), r.PurchaseDate.Month()
}
