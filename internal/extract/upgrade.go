package extract

import (
	"strings"
	"time"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/common"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/money"
)

const dateLayout = "2006-01-02"

// Upgrade resolves the payload's wire shape and produces the canonical
// record, with every net field filled in. Legacy payloads (total/iva only,
// no ciudad) are upgraded losslessly; the rest of the system never sees the
// legacy shape. The record is validated but not persisted here.
func Upgrade(p *Payload, ownerID, imageRef string) (*entity.Receipt, error) {
	if p == nil {
		return nil, common.NewAppError("EXTRACT", "nil payload", common.ErrMalformedExtraction)
	}

	var gross int64
	switch p.Shape() {
	case ShapeCurrent:
		gross = *p.TotalBruto
	case ShapeLegacy:
		gross = *p.Total
	default:
		return nil, common.NewAppError("EXTRACT", "payload has neither total nor totalBruto", common.ErrMalformedExtraction)
	}

	if strings.TrimSpace(p.Tienda) == "" {
		return nil, common.NewAppError("EXTRACT", "tienda is required", common.ErrMalformedExtraction)
	}
	purchaseDate, err := time.Parse(dateLayout, strings.TrimSpace(p.Fecha))
	if err != nil {
		return nil, common.NewAppError("EXTRACT", "fecha must be YYYY-MM-DD", common.ErrMalformedExtraction)
	}

	var net, tax int64
	if p.IVA != nil {
		net, tax, err = money.DeriveNetWithTax(gross, *p.IVA)
	} else {
		net, tax, err = money.DeriveNet(gross)
	}
	if err != nil {
		return nil, common.NewAppError("EXTRACT", "invalid total amounts", err)
	}

	items := make([]entity.LineItem, 0, len(p.Items))
	for _, it := range p.Items {
		li, err := upgradeItem(it)
		if err != nil {
			return nil, common.NewAppError("EXTRACT", "invalid line item", err)
		}
		items = append(items, li)
	}

	city := entity.CityUnspecified
	if p.Ciudad != nil && strings.TrimSpace(*p.Ciudad) != "" {
		city = strings.TrimSpace(*p.Ciudad)
	}
	category, _ := constants.CanonicalizeCategory(p.CategoriaSugerida)

	confidence := p.Confianza
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}

	rec := &entity.Receipt{
		OwnerID:         ownerID,
		MerchantName:    strings.TrimSpace(p.Tienda),
		MerchantTaxID:   trimmed(p.RutTienda),
		MerchantAddress: trimmed(p.Direccion),
		ReceiptNumber:   trimmed(p.NumeroBoleta),
		City:            city,
		PurchaseDate:    purchaseDate,
		PurchaseTime:    trimmed(p.Hora),
		Items:           items,
		TotalGross:      gross,
		TotalNet:        net,
		TotalTax:        tax,
		PaymentMethod:   constants.CanonicalizePayment(p.MetodoPago),
		Category:        category,
		ImageRef:        imageRef,
		Confidence:      confidence,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// upgradeItem fills the item's net breakdown. A declared per-unit iva wins
// over the fixed-rate derivation, same rule as the record level; the line
// totals are always split from the extended gross independently.
func upgradeItem(it Item) (entity.LineItem, error) {
	li, err := entity.NewLineItem(it.Cantidad, it.Descripcion, it.PrecioUnitario)
	if err != nil {
		return entity.LineItem{}, err
	}
	if it.IVA != nil {
		net, tax, err := money.DeriveNetWithTax(it.PrecioUnitario, *it.IVA)
		if err != nil {
			return entity.LineItem{}, err
		}
		li.UnitPriceNet = net
		li.UnitTax = tax
	}
	return li, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
