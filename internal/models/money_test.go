package models

import "testing"

func TestParseMoneyRoundsToCents(t *testing.T) {
	m, err := ParseMoney("12.345")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if m.String() != "12.35" {
		t.Fatalf("want 12.35 got %s", m)
	}
	if _, err := ParseMoney("abc"); err == nil {
		t.Fatalf("invalid amount should fail")
	}
}

func TestMoneyUnmarshalAcceptsStringAndNumber(t *testing.T) {
	var fromString, fromNumber Money
	if err := fromString.UnmarshalJSON([]byte(`"12.5"`)); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if err := fromNumber.UnmarshalJSON([]byte(`12.5`)); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromString.String() != "12.50" || fromNumber.String() != "12.50" {
		t.Fatalf("unexpected values: %s %s", fromString, fromNumber)
	}
}

func TestCartCountAndTotal(t *testing.T) {
	cart := Cart{
		{Name: "Wheelchair", RateType: RateDaily, UnitPrice: NewMoneyFromFloat(15), Quantity: 2},
		{Name: "Walker", RateType: RateWeekly, UnitPrice: NewMoneyFromFloat(25.5), Quantity: 1},
	}
	if cart.Count() != 3 {
		t.Fatalf("count want 3 got %d", cart.Count())
	}
	if cart.Total().String() != "55.50" {
		t.Fatalf("total want 55.50 got %s", cart.Total())
	}
	if (Cart{}).Total().String() != "0.00" {
		t.Fatalf("empty total want 0.00")
	}
}

func TestParseRateType(t *testing.T) {
	if r, ok := ParseRateType(" Weekly "); !ok || r != RateWeekly || r.Label() != "Weekly" {
		t.Fatalf("unexpected parse result: %v %v", r, ok)
	}
	if _, ok := ParseRateType("hourly"); ok {
		t.Fatalf("hourly should not parse")
	}
}
