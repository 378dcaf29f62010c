package constants

import "strings"

// PaymentMethod is the canonical payment method for a boleta.
type PaymentMethod string

// Stable values (store these exact strings in DB).
const (
	PaymentEfectivo      PaymentMethod = "efectivo"
	PaymentDebito        PaymentMethod = "debito"
	PaymentCredito       PaymentMethod = "credito"
	PaymentTransferencia PaymentMethod = "transferencia"
	PaymentOtro          PaymentMethod = "otro"
)

var allPaymentMethods = []PaymentMethod{
	PaymentEfectivo,
	PaymentDebito,
	PaymentCredito,
	PaymentTransferencia,
	PaymentOtro,
}

// PaymentMethods returns the enumeration as strings.
func PaymentMethods() []string {
	result := make([]string, len(allPaymentMethods))
	for i, pm := range allPaymentMethods {
		result[i] = string(pm)
	}
	return result
}

// CanonicalizePayment maps model output (accents, casing, variants) onto the
// enumeration. Unknown input defaults to PaymentOtro.
func CanonicalizePayment(input string) PaymentMethod {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch normalized {
	case "efectivo", "cash":
		return PaymentEfectivo
	case "debito", "débito", "redcompra", "debit":
		return PaymentDebito
	case "credito", "crédito", "tarjeta de credito", "tarjeta de crédito", "credit":
		return PaymentCredito
	case "transferencia", "transfer":
		return PaymentTransferencia
	}
	for _, pm := range allPaymentMethods {
		if normalized == string(pm) {
			return pm
		}
	}
	return PaymentOtro
}
