package scraper

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<!doctype html>
<html><body>
<div data-product-type="credit-card">
  <h3 data-field="name">HSBC  Red
     Credit Card</h3>
  <span data-field="provider">HSBC</span>
  <span data-field="cashback">4% online rebate</span>
  <p data-field="highlights">Earn 4% on online spending</p>
  <span data-field="annual-fee">Free for life</span>
  <span data-field="min-income">HK$96,000</span>
  <span data-field="network">Mastercard</span>
  <ul><li data-field="category">Online</li><li data-field="category">Cashback</li></ul>
  <a data-field="apply" href="/en/credit-card/hsbc-red">Apply</a>
</div>
<div data-product-type="credit-card">
  <h3 data-field="name"> </h3>
  <span data-field="provider">Ghost Bank</span>
</div>
<div data-product-type="credit-card">
  <h3 data-field="name">滙豐 Visa 白金卡</h3>
  <span data-field="provider">HSBC</span>
  <span data-field="annual-fee">HK$1,800.50</span>
  <span data-field="min-income">N/A</span>
  <a data-field="apply" href="https://bank.example/apply">Apply</a>
</div>
</body></html>`

func TestParseOffers(t *testing.T) {
	base, err := url.Parse("https://www.example.com/en/credit-card/all")
	require.NoError(t, err)

	offers, err := ParseOffers(strings.NewReader(listingHTML), DefaultSelectors(), base)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	red := offers[0]
	assert.Equal(t, "HSBC Red Credit Card", red.Name)
	assert.Equal(t, "HSBC", red.Bank)
	assert.Equal(t, "4% online rebate", red.Rate)
	assert.Equal(t, "Earn 4% on online spending", red.Description)
	assert.Equal(t, "Mastercard", red.Network)
	assert.Equal(t, []string{"Online", "Cashback"}, red.Categories)
	assert.Equal(t, "https://www.example.com/en/credit-card/hsbc-red", red.URL)
	require.True(t, red.AnnualFee.Valid)
	assert.True(t, red.AnnualFee.Decimal.IsZero())
	require.True(t, red.MinIncome.Valid)
	assert.True(t, red.MinIncome.Decimal.Equal(decimal.NewFromInt(96000)))

	platinum := offers[1]
	assert.Equal(t, "滙豐 Visa 白金卡", platinum.Name)
	assert.Equal(t, "https://bank.example/apply", platinum.URL)
	assert.True(t, platinum.AnnualFee.Decimal.Equal(decimal.RequireFromString("1800.5")))
	assert.False(t, platinum.MinIncome.Valid)
	assert.Empty(t, platinum.Categories)
}

func TestParseOffers_NoMatches(t *testing.T) {
	offers, err := ParseOffers(strings.NewReader("<html><body><p>redesigned</p></body></html>"), DefaultSelectors(), nil)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{input: "HK$1,800", want: "1800", valid: true},
		{input: "$150,000 p.a.", want: "150000", valid: true},
		{input: "12.5", want: "12.5", valid: true},
		{input: "Annual fee waived", want: "0", valid: true},
		{input: "首年免費", want: "0", valid: true},
		{input: "N/A", valid: false},
		{input: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseAmount(tt.input)
			require.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), "got %s", got.Decimal)
			}
		})
	}
}

func TestSelectors_Validate(t *testing.T) {
	assert.NoError(t, DefaultSelectors().Validate())
	assert.Error(t, Selectors{Card: ".card"}.Validate())
}
