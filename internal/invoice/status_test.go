package invoice

import (
	"testing"

	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestStatusFor(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	fifty := decimal.NewFromInt(50)
	zero := decimal.Zero

	tests := []struct {
		name      string
		current   models.DocumentStatus
		keepDraft bool
		total     decimal.Decimal
		paid      decimal.Decimal
		want      models.DocumentStatus
	}{
		{"draft kept on edit", models.StatusDraft, true, hundred, zero, models.StatusDraft},
		{"draft finalized becomes unpaid", models.StatusDraft, false, hundred, zero, models.StatusUnpaid},
		{"unpaid never reverts to draft", models.StatusUnpaid, true, hundred, zero, models.StatusUnpaid},
		{"partial payment", models.StatusUnpaid, false, hundred, fifty, models.StatusPartial},
		{"fully paid", models.StatusPartial, false, hundred, hundred, models.StatusPaid},
		{"total edited below collected", models.StatusPaid, false, fifty, hundred, models.StatusOverpaid},
		{"paid never reverts to draft", models.StatusPaid, true, hundred, hundred, models.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusFor(tt.current, tt.keepDraft, tt.total, tt.paid)
			if got != tt.want {
				t.Errorf("statusFor(%s, keepDraft=%v, total=%s, paid=%s) = %s, want %s",
					tt.current, tt.keepDraft, tt.total, tt.paid, got, tt.want)
			}
		})
	}
}
