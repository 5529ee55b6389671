package payment

import (
	"testing"

	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  models.DocumentStatus
	}{
		{"nothing paid", "100", "0", models.StatusUnpaid},
		{"partial", "100", "40", models.StatusPartial},
		{"exact", "100", "100", models.StatusPaid},
		{"edit pushed total below paid", "80", "100", models.StatusOverpaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := paymentStatus(dec(tc.total), dec(tc.paid))
			if got != tc.want {
				t.Errorf("paymentStatus(%s, %s) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestCheckPayableRejectsOverpayment(t *testing.T) {
	bal := docBalance{total: dec("100"), amountPaid: dec("60"), status: models.StatusPartial}

	if err := checkPayable(bal, dec("40")); err != nil {
		t.Fatalf("paying exactly the open balance: %v", err)
	}

	err := checkPayable(bal, dec("40.01"))
	if err == nil {
		t.Fatal("paying above the open balance should fail")
	}
	verrs, ok := err.(finance.ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want finance.ValidationErrors", err)
	}
	if _, ok := verrs["amount"]; !ok {
		t.Errorf("validation errors = %v, want an amount key", verrs)
	}
}

func TestCheckPayableRejectsDrafts(t *testing.T) {
	bal := docBalance{total: dec("100"), status: models.StatusDraft}

	err := checkPayable(bal, dec("10"))
	if err == nil {
		t.Fatal("draft documents should not take payments")
	}
	fe, ok := err.(*fiber.Error)
	if !ok || fe.Code != fiber.StatusConflict {
		t.Errorf("error = %v, want a 409 conflict", err)
	}
}

func TestValidMethod(t *testing.T) {
	for _, m := range []models.PaymentMethod{models.PaymentCash, models.PaymentBank, models.PaymentCard, models.PaymentOther} {
		if !validMethod(m) {
			t.Errorf("validMethod(%s) = false, want true", m)
		}
	}
	if validMethod("cheque") {
		t.Error("validMethod(cheque) = true, want false")
	}
}
