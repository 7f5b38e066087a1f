package notify

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/thriftease/marketplace/internal/domain/checkout"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{1000, "Rp1.000"},
		{15000, "Rp15.000"},
		{115000, "Rp115.000"},
		{1234567, "Rp1.234.567"},
		{-45000, "-Rp45.000"},
	}

	for _, tc := range cases {
		got := FormatRupiah(decimal.NewFromInt(tc.amount))
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatRupiah_TruncatesFraction(t *testing.T) {
	got := FormatRupiah(decimal.RequireFromString("15000.75"))
	assert.Equal(t, "Rp15.000", got)
}

func TestFormatOrderSummary(t *testing.T) {
	staged := &checkout.StagedOrder{
		UserID: "u1",
		Lines: []checkout.StagedLine{
			{
				LineID:      "l1",
				ProductID:   "p1",
				ProductName: "Levi's 501 Vintage Jeans W32",
				Quantity:    1,
				Price:       decimal.NewFromInt(100000),
			},
			{
				LineID:      "l2",
				ProductID:   "p2",
				ProductName: "Uniqlo Flannel Shirt Size M",
				Quantity:    2,
				Price:       decimal.NewFromInt(65000),
			},
		},
		Subtotal:     decimal.NewFromInt(230000),
		ShippingCost: decimal.NewFromInt(15000),
		Total:        decimal.NewFromInt(245000),
	}

	want := "\U0001F4E6 PESANAN-THRIFTEASE \U0001F4E6\n" +
		"- Levi's 501 Vintage Jeans W32\n" +
		"  1 x Rp100.000 = Rp100.000\n" +
		"- Uniqlo Flannel Shirt Size M\n" +
		"  2 x Rp65.000 = Rp130.000\n" +
		"Subtotal: Rp230.000\n" +
		"Ongkir: Rp15.000\n" +
		"Total: Rp245.000"

	assert.Equal(t, want, FormatOrderSummary(staged))
}

func TestWhatsAppURL(t *testing.T) {
	url := WhatsAppURL("6281234567890", "Total: Rp115.000")

	assert.True(t, strings.HasPrefix(url, "https://wa.me/6281234567890?text="))
	assert.Contains(t, url, "Total%3A+Rp115.000")
	assert.NotContains(t, url, " ")
}
