// Package pricing computes the retail price of an upstream SMM service.
//
// Both the catalog display path and the order charge path go through the
// same functions here, so the price a user is shown is bit-identical to the
// price they are debited for the same inputs.
package pricing

import "github.com/shopspring/decimal"

// TaxRate is the flat transaction tax applied after markup. It is a fixed
// property of the platform, not an admin setting.
var TaxRate = decimal.New(3, -2) // 0.03

var perThousand = decimal.NewFromInt(1000)

// Quote is the staged breakdown of a retail price.
type Quote struct {
	APICost      decimal.Decimal `json:"api_cost"`
	ProfitAmount decimal.Decimal `json:"profit_amount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	FinalPrice   decimal.Decimal `json:"final_price"`
}

// Compute converts a wholesale rate quoted in a foreign currency per 1000
// units into a tax-inclusive local retail price for the requested quantity.
//
// Each stage rounds to 2 decimal places before the next stage consumes it.
// The intermediate rounding is load-bearing: it is what keeps the display
// and charge paths from drifting apart.
func Compute(wholesalePerK decimal.Decimal, quantity int, marginPercent, exchangeRate decimal.Decimal) Quote {
	localPerK := wholesalePerK.Mul(exchangeRate)
	return fromLocalPerK(localPerK, quantity, marginPercent)
}

// ComputeLocal prices a service whose wholesale rate is already expressed in
// the local currency per 1000 units, skipping the FX conversion step.
func ComputeLocal(wholesalePerK decimal.Decimal, quantity int, marginPercent decimal.Decimal) Quote {
	return fromLocalPerK(wholesalePerK, quantity, marginPercent)
}

func fromLocalPerK(localPerK decimal.Decimal, quantity int, marginPercent decimal.Decimal) Quote {
	qty := decimal.NewFromInt(int64(quantity))

	apiCost := round2(localPerK.Div(perThousand).Mul(qty))
	profit := round2(apiCost.Mul(marginPercent).Div(decimal.NewFromInt(100)))
	subtotal := apiCost.Add(profit)
	tax := round2(subtotal.Mul(TaxRate))

	return Quote{
		APICost:      apiCost,
		ProfitAmount: profit,
		Subtotal:     subtotal,
		TaxAmount:    tax,
		FinalPrice:   subtotal.Add(tax),
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
