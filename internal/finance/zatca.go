package finance

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"
)

// ZATCA Phase 1 simplified e-invoice QR: a base64 string over TLV-encoded
// fields. Tag and length are single bytes, values are UTF-8.
const (
	zatcaTagSellerName = 1
	zatcaTagVATNumber  = 2
	zatcaTagTimestamp  = 3
	zatcaTagSubtotal   = 4
	zatcaTagVATAmount  = 5
)

// The TLV length field is a single byte, so a value can carry at most 255
// bytes. Longer values (an overlong seller name, in practice) are truncated
// rather than letting the length byte wrap and corrupt the whole payload.
func tlv(tag byte, value string) []byte {
	if len(value) > 255 {
		value = value[:255]
	}
	b := make([]byte, 0, 2+len(value))
	b = append(b, tag, byte(len(value)))
	b = append(b, value...)
	return b
}

// ZATCAQRPayload builds the Phase 1 QR payload. The encoding is a pure
// function of its five inputs: the same seller, VAT number, timestamp,
// subtotal and VAT amount always produce the same bytes, which is what the
// verification apps rely on. Amounts are rendered with two decimals;
// the timestamp in RFC 3339 UTC.
func ZATCAQRPayload(sellerName, vatNumber string, issuedAt time.Time, subtotal, vat decimal.Decimal) string {
	payload := make([]byte, 0, 64)
	payload = append(payload, tlv(zatcaTagSellerName, sellerName)...)
	payload = append(payload, tlv(zatcaTagVATNumber, vatNumber)...)
	payload = append(payload, tlv(zatcaTagTimestamp, issuedAt.UTC().Format(time.RFC3339))...)
	payload = append(payload, tlv(zatcaTagSubtotal, subtotal.StringFixed(2))...)
	payload = append(payload, tlv(zatcaTagVATAmount, vat.StringFixed(2))...)
	return base64.StdEncoding.EncodeToString(payload)
}
