package packet

import "github.com/dnscore/resolved/internal/rerr"

// RRType is a closed enumeration over the IANA DNS record type codes this
// resolver understands. Conversion from an unknown code or mnemonic fails
// with rerr.InvalidRecordType rather than silently passing the value
// through.
type RRType uint16

const (
	TypeA     RRType = 1
	TypeNS    RRType = 2
	TypeMD    RRType = 3
	TypeMF    RRType = 4
	TypeCNAME RRType = 5
	TypeSOA   RRType = 6
	TypeMB    RRType = 7
	TypeMG    RRType = 8
	TypeMR    RRType = 9
	TypeNULL  RRType = 10
	TypeWKS   RRType = 11
	TypePTR   RRType = 12
	TypeHINFO RRType = 13
	TypeMINFO RRType = 14
	TypeMX    RRType = 15
	TypeTXT   RRType = 16
	TypeAAAA  RRType = 28
)

// rrTypeNames is the single source of truth for the code<->mnemonic
// mapping; ParseRRType and RRType.String derive from it.
var rrTypeNames = map[RRType]string{
	TypeA:     "A",
	TypeNS:    "NS",
	TypeMD:    "MD",
	TypeMF:    "MF",
	TypeCNAME: "CNAME",
	TypeSOA:   "SOA",
	TypeMB:    "MB",
	TypeMG:    "MG",
	TypeMR:    "MR",
	TypeNULL:  "NULL",
	TypeWKS:   "WKS",
	TypePTR:   "PTR",
	TypeHINFO: "HINFO",
	TypeMINFO: "MINFO",
	TypeMX:    "MX",
	TypeTXT:   "TXT",
	TypeAAAA:  "AAAA",
}

var rrTypeByName = func() map[string]RRType {
	m := make(map[string]RRType, len(rrTypeNames))
	for code, name := range rrTypeNames {
		m[name] = code
	}
	return m
}()

// NewRRType converts a 16-bit wire code into an RRType, failing with
// rerr.InvalidRecordType for codes this resolver does not recognize.
func NewRRType(code uint16) (RRType, error) {
	t := RRType(code)
	if _, ok := rrTypeNames[t]; !ok {
		return 0, rerr.InvalidRecordType(t.String())
	}
	return t, nil
}

// ParseRRType converts a case-sensitive IANA mnemonic ("A", "CNAME", ...)
// into an RRType, failing with rerr.InvalidRecordType for unknown names.
func ParseRRType(name string) (RRType, error) {
	t, ok := rrTypeByName[name]
	if !ok {
		return 0, rerr.InvalidRecordType(name)
	}
	return t, nil
}

// String returns the mnemonic for t, or "TYPE" followed by its decimal code
// if t is unknown (reachable via an explicit RRType(n) conversion, and in
// the error NewRRType returns for an unrecognized wire code).
func (t RRType) String() string {
	if name, ok := rrTypeNames[t]; ok {
		return name
	}
	return "TYPE" + itoa(uint16(t))
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
