package masking

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"pay_9f8e7d6c":   "pay_****7d6c",
		"abc":            "****",
		"cf_order_12":    "cf_order_****",
		"5114910399":     "****0399",
		"trailing_":      "****ing_",
		"  pay_12345678": "pay_****5678",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskFieldsOnlyTouchesNamedKeys(t *testing.T) {
	input := map[string]any{
		"reason":     "copyright claim",
		"payment_id": "pay_9f8e7d6c",
		"buyer": map[string]any{
			"Email": "asha@example.com",
			"name":  "Asha",
		},
		"attempts": 2,
	}

	out := MaskFields(input, "payment_id", "email")

	if out["reason"] != "copyright claim" || out["attempts"] != 2 {
		t.Fatalf("non-sensitive fields changed: %+v", out)
	}
	if out["payment_id"] != "pay_****7d6c" {
		t.Fatalf("payment id not masked: %v", out["payment_id"])
	}
	buyer := out["buyer"].(map[string]any)
	if buyer["Email"] == "asha@example.com" || buyer["name"] != "Asha" {
		t.Fatalf("unexpected nested masking: %+v", buyer)
	}
	if input["payment_id"] != "pay_9f8e7d6c" {
		t.Fatalf("input was mutated")
	}
}

func TestMaskFieldsEmpty(t *testing.T) {
	if MaskFields(nil, "x") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
