package id_test

import (
	"testing"

	"github.com/arkline/lifeline/id"
)

func TestNew_HasPrefix(t *testing.T) {
	dID := id.NewDispatchID()
	if dID.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if dID.Prefix() != id.PrefixDispatch {
		t.Errorf("prefix = %q, want %q", dID.Prefix(), id.PrefixDispatch)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	orig := id.NewSweepID()

	parsed, err := id.Parse(orig.String())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), orig.String())
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestParseWithPrefix_Mismatch(t *testing.T) {
	sID := id.NewSweepID()

	if _, err := id.ParseDispatchID(sID.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestNil_StringAndMarshal(t *testing.T) {
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}

	data, err := id.Nil.MarshalText()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("marshal = %q, want empty", data)
	}
}

func TestScan_String(t *testing.T) {
	orig := id.NewDispatchID()

	var scanned id.ID
	if err := scanned.Scan(orig.String()); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if scanned.String() != orig.String() {
		t.Errorf("scanned = %q, want %q", scanned.String(), orig.String())
	}
}

func TestScan_NilGivesNil(t *testing.T) {
	var scanned id.ID
	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if !scanned.IsNil() {
		t.Error("expected Nil ID from nil source")
	}
}

func TestValue_Nil(t *testing.T) {
	v, err := id.Nil.Value()
	if err != nil {
		t.Fatalf("value error: %v", err)
	}
	if v != nil {
		t.Errorf("value = %v, want nil", v)
	}
}
