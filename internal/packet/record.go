package packet

import (
	"net"
	"strconv"

	"github.com/dnscore/resolved/internal/rerr"
)

// ResourceRecord is a decoded resource record (RFC 1035 §4.1.3). RData holds
// the raw octets as they appeared on the wire; Text holds the
// type-appropriate human/resolver-readable rendering produced by parsing
// RData against the enclosing message (needed because NS/CNAME RDATA may
// itself contain compression pointers into the rest of the message).
type ResourceRecord struct {
	Name  DomainName
	Type  RRType
	Class uint16
	TTL   uint32
	RData []byte
	Text  string
}

// Encode appends rr's wire encoding to buf. RData is written verbatim; it is
// the caller's responsibility to have built RData (and Text, if it re-derives
// RData) consistently.
func (rr ResourceRecord) Encode(buf []byte, c *Compressor) ([]byte, error) {
	buf, err := EncodeName(buf, rr.Name, c)
	if err != nil {
		return nil, err
	}
	buf = putU16(buf, uint16(rr.Type))
	buf = putU16(buf, rr.Class)
	buf = putU32(buf, rr.TTL)
	buf = putU16(buf, uint16(len(rr.RData)))
	buf = append(buf, rr.RData...)
	return buf, nil
}

// DecodeResourceRecord reads one resource record starting at offset within
// msg, and returns the offset immediately following it.
func DecodeResourceRecord(msg []byte, offset int) (ResourceRecord, int, error) {
	name, offset, err := DecodeName(msg, offset)
	if err != nil {
		return ResourceRecord{}, 0, err
	}
	if offset+10 > len(msg) {
		return ResourceRecord{}, 0, rerr.Decode("resource record", errMessageTooShort)
	}

	rrType, err := NewRRType(getU16(msg, offset))
	if err != nil {
		return ResourceRecord{}, 0, err
	}
	class := getU16(msg, offset+2)
	ttl := getU32(msg, offset+4)
	rdlength := int(getU16(msg, offset+8))
	rdataOffset := offset + 10

	if rdataOffset+rdlength > len(msg) {
		return ResourceRecord{}, 0, rerr.Decode("resource record rdata", errMessageTooShort)
	}
	rdata := make([]byte, rdlength)
	copy(rdata, msg[rdataOffset:rdataOffset+rdlength])

	text, err := parseRData(msg, rrType, rdataOffset, rdlength)
	if err != nil {
		return ResourceRecord{}, 0, err
	}

	rr := ResourceRecord{
		Name:  name,
		Type:  rrType,
		Class: class,
		TTL:   ttl,
		RData: rdata,
		Text:  text,
	}
	return rr, rdataOffset + rdlength, nil
}

// parseRData renders the type-specific RDATA starting at rdataOffset (length
// rdlength) within the full message msg into the textual form the resolver
// and cache store as a record's value.
func parseRData(msg []byte, rrType RRType, rdataOffset, rdlength int) (string, error) {
	switch rrType {
	case TypeA:
		if rdlength != 4 {
			return "", rerr.Parse("A rdata", errRDataLength(4, rdlength))
		}
		ip := net.IP(msg[rdataOffset : rdataOffset+4])
		return ip.String(), nil

	case TypeAAAA:
		if rdlength != 16 {
			return "", rerr.Parse("AAAA rdata", errRDataLength(16, rdlength))
		}
		ip := net.IP(msg[rdataOffset : rdataOffset+16])
		return ip.String(), nil

	case TypeTXT:
		if rdlength == 0 {
			return "", nil
		}
		// A single character-string: length octet followed by that many
		// octets of text.
		strLen := int(msg[rdataOffset])
		end := rdataOffset + 1 + strLen
		if end > rdataOffset+rdlength {
			return "", rerr.Parse("TXT rdata", errRDataLength(strLen+1, rdlength))
		}
		return string(msg[rdataOffset+1 : end]), nil

	case TypeNS, TypeCNAME, TypeMD, TypeMF, TypeMB, TypeMG, TypeMR, TypePTR:
		name, _, err := DecodeName(msg, rdataOffset)
		if err != nil {
			return "", err
		}
		return name.String(), nil

	default:
		// No resolver-level interpretation defined for this type; the RR
		// is retained with Text absent rather than failing the decode.
		return "", nil
	}
}

func errRDataLength(want, got int) error {
	return &rdataLengthError{want: want, got: got}
}

type rdataLengthError struct{ want, got int }

func (e *rdataLengthError) Error() string {
	return "rdata length " + strconv.Itoa(e.got) + ", want " + strconv.Itoa(e.want)
}
