package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateOfUsesLocationCalendarDay(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:30 UTC on Mar 2 is still Mar 1 in São Paulo (UTC-3).
	instant := time.Date(2024, 3, 2, 2, 30, 0, 0, time.UTC)
	if got := DateOf(instant, sp); got.String() != "2024-03-01" {
		t.Fatalf("expected 2024-03-01, got %s", got)
	}
	if got := DateOf(instant, time.UTC); got.String() != "2024-03-02" {
		t.Fatalf("expected 2024-03-02 in UTC, got %s", got)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 2, 28)
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Fatalf("leap day: got %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Fatalf("month rollover: got %s", got)
	}
	if got := d.LastOfMonth().String(); got != "2024-02-29" {
		t.Fatalf("last of month: got %s", got)
	}
	if got := NewDate(2024, 1, 1).DaysUntil(NewDate(2024, 3, 1)); got != 60 {
		t.Fatalf("days until: got %d", got)
	}
	if got := NewDate(2024, 3, 1).Period(); got != "2024-03" {
		t.Fatalf("period: got %s", got)
	}
	if got := NewDate(2024, 1, 1).Weekday(); got != 1 {
		t.Fatalf("2024-01-01 is a Monday, got weekday %d", got)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Fatalf("expected error for Feb 30")
	}
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("unexpected date %s", d)
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		D  Date  `json:"d"`
		DP *Date `json:"dp"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-05-06","dp":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.D.String() != "2024-05-06" || payload.DP != nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
	out, _ := json.Marshal(payload)
	if string(out) != `{"d":"2024-05-06","dp":null}` {
		t.Fatalf("unexpected JSON %s", out)
	}
}
