package invoice_test

import (
	"testing"

	"bizbook-backend/internal/invoice"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		prefix string
		n      uint
		want   string
	}{
		{"INV", 1, "INV-0001"},
		{"PUR", 42, "PUR-0042"},
		{"DN", 9999, "DN-9999"},
		{"INV", 10000, "INV-10000"}, // grows, never wraps
	}

	for _, tt := range tests {
		if got := invoice.FormatNumber(tt.prefix, tt.n); got != tt.want {
			t.Errorf("FormatNumber(%q, %d) = %q, want %q", tt.prefix, tt.n, got, tt.want)
		}
	}
}
