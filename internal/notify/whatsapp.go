// Package notify formats and dispatches order-confirmation messages.
//
// The message text is a stable contract: it is URL-encoded into a WhatsApp
// deep link and read by a human operator, so its shape must not drift.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thriftease/marketplace/internal/domain/checkout"
)

// Header is the literal first line of every order-confirmation message.
const Header = "\U0001F4E6 PESANAN-THRIFTEASE \U0001F4E6"

// FormatOrderSummary renders the plain-text confirmation block: the header,
// one "- <name>" line per item with indented quantity and line subtotal,
// then subtotal, shipping, and grand total lines.
func FormatOrderSummary(staged *checkout.StagedOrder) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	for _, line := range staged.Lines {
		fmt.Fprintf(&b, "- %s\n", line.ProductName)
		fmt.Fprintf(&b, "  %d x %s = %s\n",
			line.Quantity,
			FormatRupiah(line.Price),
			FormatRupiah(line.Subtotal()),
		)
	}

	fmt.Fprintf(&b, "Subtotal: %s\n", FormatRupiah(staged.Subtotal))
	fmt.Fprintf(&b, "Ongkir: %s\n", FormatRupiah(staged.ShippingCost))
	fmt.Fprintf(&b, "Total: %s", FormatRupiah(staged.Total))

	return b.String()
}

// WhatsAppURL builds the wa.me deep link carrying the URL-encoded message.
func WhatsAppURL(phone, text string) string {
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(text)
}

// FormatRupiah renders an amount as "Rp1.234.567". Amounts are integer
// currency units; any fractional part is truncated.
func FormatRupiah(amount decimal.Decimal) string {
	digits := amount.Truncate(0).String()

	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}
