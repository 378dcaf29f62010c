package extract

import "context"

// Item is one line of the boleta as the model reports it. The net breakdown
// fields only exist in the current schema; legacy payloads omit them.
type Item struct {
	Cantidad       int    `json:"cantidad"`
	Descripcion    string `json:"descripcion"`
	PrecioUnitario int64  `json:"precioUnitario"`
	PrecioNeto     *int64 `json:"precioNeto,omitempty"`
	IVA            *int64 `json:"iva,omitempty"`
	Subtotal       int64  `json:"subtotal"`
	SubtotalNeto   *int64 `json:"subtotalNeto,omitempty"`
}

// Payload is the raw structured extraction for one boleta image. It covers
// both wire shapes: the current one (totalBruto/totalNeto/iva plus ciudad)
// and the legacy one (total/iva only, no ciudad). Shape() reports which
// arrived.
type Payload struct {
	Tienda            string  `json:"tienda"`
	RutTienda         *string `json:"rutTienda,omitempty"`
	Direccion         *string `json:"direccion,omitempty"`
	Ciudad            *string `json:"ciudad,omitempty"`
	NumeroBoleta      *string `json:"numeroBoleta,omitempty"`
	Fecha             string  `json:"fecha"`
	Hora              *string `json:"hora,omitempty"`
	Items             []Item  `json:"items"`
	Total             *int64  `json:"total,omitempty"`
	TotalBruto        *int64  `json:"totalBruto,omitempty"`
	TotalNeto         *int64  `json:"totalNeto,omitempty"`
	IVA               *int64  `json:"iva,omitempty"`
	MetodoPago        string  `json:"metodoPago"`
	CategoriaSugerida string  `json:"categoriaSugerida"`
	Confianza         int     `json:"confianza"`
}

// Shape identifies which wire schema a payload arrived in.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeLegacy
	ShapeCurrent
)

// Shape detects the schema by presence of the totalBruto field.
func (p *Payload) Shape() Shape {
	switch {
	case p.TotalBruto != nil:
		return ShapeCurrent
	case p.Total != nil:
		return ShapeLegacy
	default:
		return ShapeUnknown
	}
}

// Extractor is the boundary to the hosted vision model: submit an image,
// receive a structured payload (plus the raw JSON for audit) or a failure.
// Model fallback and retries live behind this interface, not in the core.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Payload, []byte, error)
}
