package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildBoletaJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the model as an output constraint and used
// locally to validate what comes back. Both wire shapes validate: the amount
// requirement is total OR totalBruto.
func BuildBoletaJSONSchema(allowedCategories []string) map[string]any {
	itemProps := map[string]any{
		"cantidad":       map[string]any{"type": "integer", "minimum": 1},
		"descripcion":    map[string]any{"type": "string"},
		"precioUnitario": moneyProp(),
		"precioNeto":     moneyProp(),
		"iva":            moneyProp(),
		"subtotal":       moneyProp(),
		"subtotalNeto":   moneyProp(),
	}

	props := map[string]any{
		"tienda":       map[string]any{"type": "string", "minLength": 1},
		"rutTienda":    map[string]any{"type": "string"},
		"direccion":    map[string]any{"type": "string"},
		"ciudad":       map[string]any{"type": "string"},
		"numeroBoleta": map[string]any{"type": "string"},
		"fecha":        map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"hora":         map[string]any{"type": "string", "pattern": `^\d{2}:\d{2}(:\d{2})?$`},
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":       "object",
				"properties": itemProps,
				"required":   []string{"cantidad", "precioUnitario"},
			},
		},
		"total":             moneyProp(),
		"totalBruto":        moneyProp(),
		"totalNeto":         moneyProp(),
		"iva":               moneyProp(),
		"metodoPago":        map[string]any{"type": "string"},
		"categoriaSugerida": map[string]any{"type": "string"},
		"confianza":         map[string]any{"type": "number", "minimum": 0, "maximum": 100},
	}

	// Constrain the suggested category if a taxonomy is provided.
	if len(allowedCategories) > 0 {
		props["categoriaSugerida"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"tienda", "fecha"},
		"anyOf": []any{
			map[string]any{"required": []string{"totalBruto"}},
			map[string]any{"required": []string{"total"}},
		},
	}
}

func moneyProp() map[string]any {
	// Integer pesos; CLP has no minor unit.
	return map[string]any{"type": "integer", "minimum": 0}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
