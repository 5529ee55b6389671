package finance_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"bizbook-backend/internal/finance"
)

func TestZATCAQRPayload_Deterministic(t *testing.T) {
	issued := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	a := finance.ZATCAQRPayload("Najd Trading Co", "310122393500003", issued, dec("1000"), dec("150"))
	b := finance.ZATCAQRPayload("Najd Trading Co", "310122393500003", issued, dec("1000"), dec("150"))
	if a != b {
		t.Errorf("payload not deterministic: %q vs %q", a, b)
	}

	c := finance.ZATCAQRPayload("Najd Trading Co", "310122393500003", issued, dec("1000.01"), dec("150"))
	if a == c {
		t.Error("different subtotal must change the payload")
	}
}

func TestZATCAQRPayload_TLVStructure(t *testing.T) {
	issued := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	payload := finance.ZATCAQRPayload("Acme", "300000000000003", issued, dec("100"), dec("15"))

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}

	// Walk the TLV fields: tags 1..5 in order.
	wantValues := []string{
		"Acme",
		"300000000000003",
		"2025-06-01T14:30:00Z",
		"100.00",
		"15.00",
	}
	pos := 0
	for i, want := range wantValues {
		if pos+2 > len(raw) {
			t.Fatalf("truncated TLV at field %d", i+1)
		}
		tag, length := raw[pos], int(raw[pos+1])
		if int(tag) != i+1 {
			t.Errorf("field %d: tag = %d, want %d", i+1, tag, i+1)
		}
		if pos+2+length > len(raw) {
			t.Fatalf("field %d: length %d overruns payload", i+1, length)
		}
		got := string(raw[pos+2 : pos+2+length])
		if got != want {
			t.Errorf("field %d: value = %q, want %q", i+1, got, want)
		}
		pos += 2 + length
	}
	if pos != len(raw) {
		t.Errorf("trailing bytes after last TLV field: %d leftover", len(raw)-pos)
	}
}

func TestZATCAQRPayload_NonUTCTimestampNormalized(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)
	local := time.Date(2025, 6, 1, 17, 30, 0, 0, loc)
	utc := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	a := finance.ZATCAQRPayload("Acme", "300000000000003", local, dec("100"), dec("15"))
	b := finance.ZATCAQRPayload("Acme", "300000000000003", utc, dec("100"), dec("15"))
	if a != b {
		t.Error("same instant in different zones must encode identically")
	}
}

func TestZATCAQRPayload_OverlongSellerNameTruncated(t *testing.T) {
	issued := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	long := strings.Repeat("x", 300)

	payload := finance.ZATCAQRPayload(long, "300000000000003", issued, dec("100"), dec("15"))
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}

	// The length field is one byte; the seller name must be capped at 255
	// bytes instead of wrapping and shifting every later field.
	if raw[0] != 1 {
		t.Fatalf("first tag = %d, want 1", raw[0])
	}
	if raw[1] != 255 {
		t.Fatalf("seller name length byte = %d, want 255", raw[1])
	}
	if got := string(raw[2 : 2+255]); got != long[:255] {
		t.Error("seller name not truncated to its first 255 bytes")
	}

	// The remaining fields must still walk cleanly after the cap.
	pos := 2 + 255
	for wantTag := byte(2); wantTag <= 5; wantTag++ {
		if pos+2 > len(raw) {
			t.Fatalf("truncated TLV at tag %d", wantTag)
		}
		if raw[pos] != wantTag {
			t.Fatalf("tag = %d, want %d", raw[pos], wantTag)
		}
		pos += 2 + int(raw[pos+1])
	}
	if pos != len(raw) {
		t.Errorf("trailing bytes after last TLV field: %d leftover", len(raw)-pos)
	}
}
