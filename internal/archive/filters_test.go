package archive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare ten digits", "5551234567", "+15551234567"},
		{"formatted ten digits", "(555) 123-4567", "+15551234567"},
		{"eleven with country code", "15551234567", "+15551234567"},
		{"already canonical", "+15551234567", "+15551234567"},
		{"email passes through", "friend@example.com", "friend@example.com"},
		{"no digits passes through", "somebody", "somebody"},
		{"foreign length unchanged", "+4420719460", "+4420719460"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHandle(tt.in); got != tt.want {
				t.Errorf("NormalizeHandle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFiltersNormalized(t *testing.T) {
	f := Filters{
		MessageTypes: []MessageType{"TEXT", "carrier-pigeon", "attachment"},
		Services:     []Service{"IMESSAGE", "fax", "sms"},
		Sender:       "555-123-4567",
	}
	got := f.normalized()

	if diff := cmp.Diff([]MessageType{TypeText, TypeAttachment}, got.MessageTypes); diff != "" {
		t.Errorf("types mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]Service{ServiceIMessage, ServiceSMS}, got.Services); diff != "" {
		t.Errorf("services mismatch:\n%s", diff)
	}
	if got.Sender != "+15551234567" {
		t.Errorf("Sender = %q, want normalized phone", got.Sender)
	}
}

func TestFiltersNormalizedAllUnknown(t *testing.T) {
	f := Filters{
		MessageTypes: []MessageType{"hologram"},
		Services:     []Service{"telegraph"},
	}
	got := f.normalized()
	if len(got.MessageTypes) != 0 || len(got.Services) != 0 {
		t.Errorf("unknown values should empty out, got types=%v services=%v",
			got.MessageTypes, got.Services)
	}
}

func TestConditionsBaseline(t *testing.T) {
	conds, args := Filters{}.conditions()
	if len(conds) != 2 {
		t.Fatalf("baseline conditions = %v, want service guard + eligibility", conds)
	}
	if len(args) != 0 {
		t.Errorf("baseline args = %v, want none", args)
	}
}

func TestConditionsSenderMatchesCountQuery(t *testing.T) {
	// Page and count must see the exact same predicate set for any filter.
	f := Filters{Sender: "5551234567", Content: "hi"}.normalized()
	c1, a1 := f.conditions()
	c2, a2 := f.conditions()
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Errorf("condition sets diverged:\n%s", diff)
	}
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("argument sets diverged:\n%s", diff)
	}
}
