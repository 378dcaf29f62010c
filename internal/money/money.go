// Package money derives net/tax breakdowns for Chilean peso amounts under the
// fixed 19% IVA model. Amounts are integers: CLP has no minor unit.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vickotoAguilera/BoletasScaner/internal/common"
)

// TaxRate is the nominal IVA rate applied to gross amounts.
const TaxRate = 0.19

// DeriveNet splits a tax-inclusive amount into net and tax. The net is rounded
// half-up; the tax is the remainder, so net+tax == gross holds exactly.
func DeriveNet(gross int64) (net, tax int64, err error) {
	if gross < 0 {
		return 0, 0, common.ErrInvalidAmount
	}
	net = Round(float64(gross) / (1 + TaxRate))
	return net, gross - net, nil
}

// DeriveNetWithTax trusts a declared tax amount over the fixed-rate
// derivation: net = gross - tax, even when that differs from DeriveNet.
func DeriveNetWithTax(gross, explicitTax int64) (net, tax int64, err error) {
	if gross < 0 || explicitTax < 0 {
		return 0, 0, common.ErrInvalidAmount
	}
	return gross - explicitTax, explicitTax, nil
}

// Round rounds half-up to the nearest integer peso. Every place a net amount
// is derived from a gross one must go through here, or record-level and
// item-level figures drift apart.
func Round(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// RoundDiv divides a sum by a count, rounding like Round. Division by zero
// yields 0 rather than faulting, matching the empty-set tolerance of the
// aggregation views.
func RoundDiv(sum, count int64) int64 {
	if count == 0 {
		return 0
	}
	return Round(float64(sum) / float64(count))
}

var clpPrinter = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders an amount with thousands grouping and no decimals, e.g.
// 11900 -> "$11.900". Display-only; never feed formatted strings back into
// arithmetic.
func FormatCLP(amount int64) string {
	return clpPrinter.Sprintf("$%d", amount)
}
