package extract

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

var optStrings = []string{"rutTienda", "direccion", "ciudad", "numeroBoleta", "hora", "metodoPago", "categoriaSugerida"}
var moneyKeys = []string{"total", "totalBruto", "totalNeto", "iva"}
var itemMoneyKeys = []string{"precioUnitario", "precioNeto", "iva", "subtotal", "subtotalNeto"}

// The schema's property names. The schema sets additionalProperties false, so
// anything outside these sets is stripped before validation instead of
// failing the whole payload.
var allowedKeys = map[string]struct{}{
	"tienda": {}, "rutTienda": {}, "direccion": {}, "ciudad": {}, "numeroBoleta": {},
	"fecha": {}, "hora": {}, "items": {}, "total": {}, "totalBruto": {}, "totalNeto": {},
	"iva": {}, "metodoPago": {}, "categoriaSugerida": {}, "confianza": {},
}

var allowedItemKeys = map[string]struct{}{
	"cantidad": {}, "descripcion": {}, "precioUnitario": {}, "precioNeto": {},
	"iva": {}, "subtotal": {}, "subtotalNeto": {},
}

// SanitizePayload normalizes a raw model response so the overall document can
// still validate: null optionals are dropped (the prompt says use null for
// unknowns), money values arriving as floats or numeric strings are coerced
// to integer pesos, and string fields are trimmed. Required fields are never
// invented here; a payload missing them still fails validation.
func SanitizePayload(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var touched []string

	for k := range maps.Clone(m) {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			touched = append(touched, k+"(unknown)")
		}
	}

	for _, k := range optStrings {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			touched = append(touched, k)
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				touched = append(touched, k)
			} else {
				m[k] = s
			}
		default:
			delete(m, k)
			touched = append(touched, k)
		}
	}

	for _, k := range moneyKeys {
		if coerceMoney(m, k) {
			touched = append(touched, k)
		}
	}

	if rawItems, ok := m["items"].([]any); ok {
		items := rawItems[:0]
		for _, ri := range rawItems {
			item, ok := ri.(map[string]any)
			if !ok {
				touched = append(touched, "items")
				continue
			}
			for k := range maps.Clone(item) {
				if _, ok := allowedItemKeys[k]; !ok {
					delete(item, k)
					touched = append(touched, "items."+k+"(unknown)")
				}
			}
			for _, k := range itemMoneyKeys {
				if coerceMoney(item, k) {
					touched = append(touched, "items."+k)
				}
			}
			if _, ok := item["cantidad"]; !ok {
				item["cantidad"] = 1
				touched = append(touched, "items.cantidad")
			}
			if coerceMoney(item, "cantidad") {
				touched = append(touched, "items.cantidad")
			}
			if q, ok := asFloat(item["cantidad"]); ok && q < 1 {
				item["cantidad"] = 1
				touched = append(touched, "items.cantidad")
			}
			if d, ok := item["descripcion"]; !ok || d == nil {
				item["descripcion"] = ""
				touched = append(touched, "items.descripcion")
			}
			items = append(items, item)
		}
		m["items"] = items
	} else if _, present := m["items"]; present {
		delete(m, "items")
		touched = append(touched, "items")
	}

	if v, ok := m["confianza"]; ok {
		if f, ok := asFloat(v); ok {
			m["confianza"] = math.Min(100, math.Max(0, math.Floor(f+0.5)))
		} else {
			delete(m, "confianza")
			touched = append(touched, "confianza")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, touched, nil
}

// coerceMoney rewrites m[k] as a non-negative integer when possible and drops
// it otherwise. Returns true when it changed anything.
func coerceMoney(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return false
	}
	f, numeric := asFloat(v)
	if !numeric || f < 0 {
		delete(m, k)
		return true
	}
	rounded := math.Floor(f + 0.5)
	m[k] = rounded
	return rounded != f
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
