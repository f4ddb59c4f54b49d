package packet

import "testing"

func TestNewRRType(t *testing.T) {
	tp, err := NewRRType(1)
	if err != nil {
		t.Fatalf("NewRRType(1) error = %v", err)
	}
	if tp != TypeA {
		t.Errorf("NewRRType(1) = %v, want TypeA", tp)
	}
}

func TestNewRRType_Unknown(t *testing.T) {
	if _, err := NewRRType(9999); err == nil {
		t.Error("NewRRType(9999) error = nil, want InvalidRecordType")
	}
}

func TestParseRRType(t *testing.T) {
	cases := map[string]RRType{
		"A":     TypeA,
		"NS":    TypeNS,
		"CNAME": TypeCNAME,
		"TXT":   TypeTXT,
		"AAAA":  TypeAAAA,
		"MX":    TypeMX,
	}
	for name, want := range cases {
		got, err := ParseRRType(name)
		if err != nil {
			t.Errorf("ParseRRType(%q) error = %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseRRType(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseRRType_Unknown(t *testing.T) {
	if _, err := ParseRRType("NOTATYPE"); err == nil {
		t.Error("ParseRRType(\"NOTATYPE\") error = nil, want InvalidRecordType")
	}
}

func TestRRType_String(t *testing.T) {
	if TypeAAAA.String() != "AAAA" {
		t.Errorf("TypeAAAA.String() = %q, want AAAA", TypeAAAA.String())
	}
	if RRType(9999).String() != "TYPE9999" {
		t.Errorf("RRType(9999).String() = %q, want TYPE9999", RRType(9999).String())
	}
}
