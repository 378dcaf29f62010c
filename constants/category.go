package constants

import (
	"strings"
)

// Category is the closed expense taxonomy for boletas.
type Category string

const (
	Alimentos       Category = "alimentos"
	Supermercado    Category = "supermercado"
	Farmacia        Category = "farmacia"
	Transporte      Category = "transporte"
	Servicios       Category = "servicios"
	Entretenimiento Category = "entretenimiento"
	Ropa            Category = "ropa"
	Tecnologia      Category = "tecnologia"
	Hogar           Category = "hogar"
	Salud           Category = "salud"
	Educacion       Category = "educacion"
	Restaurante     Category = "restaurante"
	Otro            Category = "otro"
)

var allCategories = []Category{
	Alimentos,
	Supermercado,
	Farmacia,
	Transporte,
	Servicios,
	Entretenimiento,
	Ropa,
	Tecnologia,
	Hogar,
	Salud,
	Educacion,
	Restaurante,
	Otro,
}

// Categories returns the taxonomy as strings, for prompts and schema enums.
func Categories() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// CanonicalizeCategory maps free-form model output onto the taxonomy.
// The second return reports whether the input matched; unmatched input
// falls back to Otro.
func CanonicalizeCategory(input string) (Category, bool) {
	if input == "" {
		return Otro, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"comida":      Alimentos,
		"almacen":     Alimentos,
		"almacén":     Alimentos,
		"super":       Supermercado,
		"minimarket":  Supermercado,
		"remedios":    Farmacia,
		"bencina":     Transporte,
		"combustible": Transporte,
		"peaje":       Transporte,
		"micro":       Transporte,
		"metro":       Transporte,
		"luz":         Servicios,
		"agua":        Servicios,
		"gas":         Servicios,
		"cine":        Entretenimiento,
		"vestuario":   Ropa,
		"calzado":     Ropa,
		"electronica": Tecnologia,
		"electrónica": Tecnologia,
		"computacion": Tecnologia,
		"ferreteria":  Hogar,
		"ferretería":  Hogar,
		"muebles":     Hogar,
		"medico":      Salud,
		"médico":      Salud,
		"dental":      Salud,
		"libreria":    Educacion,
		"librería":    Educacion,
		"colegio":     Educacion,
		"cafe":        Restaurante,
		"café":        Restaurante,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Otro, false
}
