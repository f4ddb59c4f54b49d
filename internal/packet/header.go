package packet

import "github.com/dnscore/resolved/internal/rerr"

// headerSize is the fixed 12-octet length of a DNS message header
// (RFC 1035 §4.1.1).
const headerSize = 12

// flag bit positions within the 16-bit flags word, MSB = 0.
const (
	bitQR     = 0
	bitsOpcode = 1 // 4 bits, positions 1-4
	bitAA     = 5
	bitTC     = 6
	bitRD     = 7
	bitRA     = 8
	bitsZ     = 9 // 3 bits, positions 9-11
	bitsRcode = 12 // 4 bits, positions 12-15
)

// Header is the fixed 12-byte section at the start of every DNS message.
type Header struct {
	ID      uint16
	flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func (h *Header) QR() bool     { return getBit(h.flags, bitQR) == 1 }
func (h *Header) Opcode() uint8 { return uint8(getBits(h.flags, bitsOpcode, 4)) }
func (h *Header) AA() bool     { return getBit(h.flags, bitAA) == 1 }
func (h *Header) TC() bool     { return getBit(h.flags, bitTC) == 1 }
func (h *Header) RD() bool     { return getBit(h.flags, bitRD) == 1 }
func (h *Header) RA() bool     { return getBit(h.flags, bitRA) == 1 }
func (h *Header) Z() uint8     { return uint8(getBits(h.flags, bitsZ, 3)) }
func (h *Header) Rcode() uint8 { return uint8(getBits(h.flags, bitsRcode, 4)) }

func boolBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (h *Header) SetQR(v bool)      { h.flags = setBit(h.flags, boolBit(v), bitQR) }
func (h *Header) SetOpcode(v uint8) { h.flags = setBits(h.flags, uint16(v), bitsOpcode, 4) }
func (h *Header) SetAA(v bool)      { h.flags = setBit(h.flags, boolBit(v), bitAA) }
func (h *Header) SetTC(v bool)      { h.flags = setBit(h.flags, boolBit(v), bitTC) }
func (h *Header) SetRD(v bool)      { h.flags = setBit(h.flags, boolBit(v), bitRD) }
func (h *Header) SetRA(v bool)      { h.flags = setBit(h.flags, boolBit(v), bitRA) }
func (h *Header) SetRcode(v uint8)  { h.flags = setBits(h.flags, uint16(v), bitsRcode, 4) }

// NewQueryHeader builds a header for an outbound standard query (opcode 0)
// with recursion desired, id as the transaction ID, and qdCount questions.
func NewQueryHeader(id uint16, qdCount uint16) Header {
	h := Header{ID: id, QDCount: qdCount}
	h.SetRD(true)
	return h
}

// Encode appends h's wire encoding to buf.
func (h Header) Encode(buf []byte) []byte {
	buf = putU16(buf, h.ID)
	buf = putU16(buf, h.flags)
	buf = putU16(buf, h.QDCount)
	buf = putU16(buf, h.ANCount)
	buf = putU16(buf, h.NSCount)
	buf = putU16(buf, h.ARCount)
	return buf
}

// DecodeHeader reads the 12-byte header at the start of msg.
func DecodeHeader(msg []byte) (Header, error) {
	if len(msg) < headerSize {
		return Header{}, rerr.Decode("header", errMessageTooShort)
	}
	return Header{
		ID:      getU16(msg, 0),
		flags:   getU16(msg, 2),
		QDCount: getU16(msg, 4),
		ANCount: getU16(msg, 6),
		NSCount: getU16(msg, 8),
		ARCount: getU16(msg, 10),
	}, nil
}

// Question is a single entry in a message's question section.
type Question struct {
	Name  DomainName
	Type  RRType
	Class uint16
}

// ClassIN is the only record class this resolver speaks.
const ClassIN uint16 = 1

// Encode appends q's wire encoding to buf.
func (q Question) Encode(buf []byte, c *Compressor) ([]byte, error) {
	buf, err := EncodeName(buf, q.Name, c)
	if err != nil {
		return nil, err
	}
	buf = putU16(buf, uint16(q.Type))
	buf = putU16(buf, q.Class)
	return buf, nil
}

// DecodeQuestion reads a question section entry starting at offset, and
// returns the offset immediately following it.
func DecodeQuestion(msg []byte, offset int) (Question, int, error) {
	name, offset, err := DecodeName(msg, offset)
	if err != nil {
		return Question{}, 0, err
	}
	if offset+4 > len(msg) {
		return Question{}, 0, rerr.Decode("question", errMessageTooShort)
	}
	rrType, err := NewRRType(getU16(msg, offset))
	if err != nil {
		return Question{}, 0, err
	}
	q := Question{
		Name:  name,
		Type:  rrType,
		Class: getU16(msg, offset+2),
	}
	return q, offset + 4, nil
}
