package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompute_WorkedExample(t *testing.T) {
	// $2.80 per 1000, FX 1600, margin 35%, quantity 1000.
	q := Compute(dec("2.80"), 1000, dec("35"), dec("1600"))

	assert.True(t, q.APICost.Equal(dec("4480.00")), "api cost: %s", q.APICost)
	assert.True(t, q.ProfitAmount.Equal(dec("1568.00")), "profit: %s", q.ProfitAmount)
	assert.True(t, q.Subtotal.Equal(dec("6048.00")), "subtotal: %s", q.Subtotal)
	assert.True(t, q.TaxAmount.Equal(dec("181.44")), "tax: %s", q.TaxAmount)
	assert.True(t, q.FinalPrice.Equal(dec("6229.44")), "final: %s", q.FinalPrice)
}

func TestCompute_Deterministic(t *testing.T) {
	first := Compute(dec("0.90"), 2500, dec("20"), dec("1525.75"))
	for i := 0; i < 50; i++ {
		again := Compute(dec("0.90"), 2500, dec("20"), dec("1525.75"))
		require.True(t, first.FinalPrice.Equal(again.FinalPrice))
		require.True(t, first.TaxAmount.Equal(again.TaxAmount))
	}
}

func TestCompute_IntermediateRounding(t *testing.T) {
	// 0.333 * 1000 / 1000 * 7 = 2.331 -> rounds to 2.33 before markup.
	q := Compute(dec("0.333"), 7, dec("10"), dec("1000"))
	assert.True(t, q.APICost.Equal(dec("2.33")))

	// Small quantities force sub-cent intermediate values.
	q = Compute(dec("0.333"), 7, dec("10"), dec("1"))
	assert.True(t, q.APICost.Equal(dec("0.00")), "0.002331 rounds to 0.00, got %s", q.APICost)
}

func TestCompute_TaxInvariant(t *testing.T) {
	cases := []struct {
		rate, margin, fx string
		qty              int
	}{
		{"2.80", "35", "1600", 1000},
		{"0.47", "0", "1525.5", 113},
		{"12.00", "120", "900", 50000},
		{"1.99", "17.5", "1", 250},
	}
	for _, tc := range cases {
		q := Compute(dec(tc.rate), tc.qty, dec(tc.margin), dec(tc.fx))
		wantTax := q.Subtotal.Mul(TaxRate).Round(2)
		assert.True(t, q.TaxAmount.Equal(wantTax),
			"rate=%s margin=%s: tax %s != %s", tc.rate, tc.margin, q.TaxAmount, wantTax)
		assert.True(t, q.FinalPrice.Equal(q.Subtotal.Add(q.TaxAmount)))
		assert.True(t, q.Subtotal.Equal(q.APICost.Add(q.ProfitAmount)))
	}
}

func TestComputeLocal(t *testing.T) {
	// Rate already in local currency: identical to Compute with FX = 1.
	local := ComputeLocal(dec("4500"), 2000, dec("25"))
	viaFX := Compute(dec("4500"), 2000, dec("25"), dec("1"))

	assert.True(t, local.FinalPrice.Equal(viaFX.FinalPrice))
	assert.True(t, local.APICost.Equal(dec("9000.00")))
	assert.True(t, local.ProfitAmount.Equal(dec("2250.00")))
	assert.True(t, local.TaxAmount.Equal(dec("337.50")))
	assert.True(t, local.FinalPrice.Equal(dec("11587.50")))
}

func TestCompute_ZeroMargin(t *testing.T) {
	// Margin validation belongs to the caller; zero passes straight through.
	q := Compute(dec("1.00"), 1000, dec("0"), dec("1000"))
	assert.True(t, q.ProfitAmount.IsZero())
	assert.True(t, q.Subtotal.Equal(q.APICost))
}
