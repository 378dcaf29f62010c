package extract

import "strings"

// BuildPrompt composes the extraction instruction sent alongside the image.
// The model is asked for the current wire shape; the legacy shape is only
// tolerated on the way back in, never requested.
func BuildPrompt(allowedCategories []string) string {
	categories := strings.Join(allowedCategories, "|")
	if categories == "" {
		categories = "otro"
	}

	return `Analiza esta imagen de una boleta o recibo chileno y extrae la información en formato JSON.

IMPORTANTE:
- Si algún campo no es legible o no existe, usa null
- Los montos deben ser números enteros sin símbolos ($, puntos de miles)
- La fecha debe estar en formato YYYY-MM-DD
- El IVA en Chile es 19%: totalNeto + iva = totalBruto
- Sugiere una categoría basada en el tipo de tienda

Responde SOLO con un JSON válido con esta estructura:
{
  "tienda": "nombre del comercio",
  "rutTienda": "RUT (XX.XXX.XXX-X) o null",
  "direccion": "dirección o null",
  "ciudad": "ciudad del comercio o null",
  "numeroBoleta": "número de boleta o null",
  "fecha": "YYYY-MM-DD",
  "hora": "HH:MM:SS o null",
  "items": [
    {
      "cantidad": 1,
      "descripcion": "descripción del producto",
      "precioUnitario": 1190,
      "precioNeto": 1000,
      "iva": 190,
      "subtotal": 1190,
      "subtotalNeto": 1000
    }
  ],
  "totalBruto": 11900,
  "totalNeto": 10000,
  "iva": 1900,
  "metodoPago": "efectivo|debito|credito|transferencia|otro",
  "categoriaSugerida": "` + categories + `",
  "confianza": 85
}`
}
