package id

import (
	"encoding/json"
	"testing"
)

func TestNewGeneratesPrefixedIDs(t *testing.T) {
	cases := []struct {
		prefix Prefix
		ctor   func() ID
	}{
		{PrefixTeam, NewTeamID},
		{PrefixProject, NewProjectID},
		{PrefixEnvironment, NewEnvironmentID},
		{PrefixMembership, NewMembershipID},
		{PrefixDecisionLog, NewDecisionLogID},
	}

	for _, c := range cases {
		got := c.ctor()
		if got.IsNil() {
			t.Fatalf("constructor for %q returned nil ID", c.prefix)
		}
		if got.Prefix() != c.prefix {
			t.Fatalf("expected prefix %q, got %q", c.prefix, got.Prefix())
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	orig := NewProjectID()

	parsed, err := Parse(orig.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.String() != orig.String() {
		t.Fatalf("round trip mismatch: %q != %q", parsed, orig)
	}
}

func TestParseEmptyString(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestParseWithPrefixRejectsMismatch(t *testing.T) {
	teamID := NewTeamID()

	if _, err := ParseProjectID(teamID.String()); err == nil {
		t.Fatal("expected prefix mismatch error")
	}
	if _, err := ParseTeamID(teamID.String()); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestNilID(t *testing.T) {
	var zero ID
	if !zero.IsNil() {
		t.Fatal("zero value should be nil")
	}
	if zero.String() != "" {
		t.Fatalf("nil ID should stringify to empty, got %q", zero)
	}
	if zero.Prefix() != "" {
		t.Fatalf("nil ID should have empty prefix, got %q", zero.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	orig := NewEnvironmentID()

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}

	var decoded ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.String() != orig.String() {
		t.Fatalf("JSON round trip mismatch: %q != %q", decoded, orig)
	}
}

func TestUnmarshalTextEmpty(t *testing.T) {
	var decoded ID
	if err := decoded.UnmarshalText(nil); err != nil {
		t.Fatal(err)
	}
	if !decoded.IsNil() {
		t.Fatal("empty text should decode to nil ID")
	}
}

func TestValueAndScan(t *testing.T) {
	orig := NewMembershipID()

	v, err := orig.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned ID
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != orig.String() {
		t.Fatalf("scan mismatch: %q != %q", scanned, orig)
	}
}

func TestValueNilStoresNull(t *testing.T) {
	var zero ID

	v, err := zero.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("nil ID should store NULL, got %v", v)
	}
}

func TestScanNull(t *testing.T) {
	scanned := NewTeamID()
	if err := scanned.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !scanned.IsNil() {
		t.Fatal("scanning NULL should reset to nil ID")
	}
}

func TestScanUnsupportedType(t *testing.T) {
	var scanned ID
	if err := scanned.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}
