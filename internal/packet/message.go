package packet

import "github.com/dnscore/resolved/internal/rerr"

// maxRRsPerSection bounds how many records a single section may declare, so
// a forged count field cannot force unbounded allocation or looping.
const maxRRsPerSection = 4096

// Message is a full DNS message: header plus its four sections.
type Message struct {
	Header     Header
	Question   []Question
	Answer     []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// Encode serializes m to wire format, compressing names across the whole
// message as RFC 1035 §4.1.4 permits.
func (m Message) Encode() ([]byte, error) {
	h := m.Header
	h.QDCount = uint16(len(m.Question))
	h.ANCount = uint16(len(m.Answer))
	h.NSCount = uint16(len(m.Authority))
	h.ARCount = uint16(len(m.Additional))

	buf := h.Encode(make([]byte, 0, headerSize))
	c := NewCompressor()

	var err error
	for _, q := range m.Question {
		if buf, err = q.Encode(buf, c); err != nil {
			return nil, err
		}
	}
	for _, section := range [][]ResourceRecord{m.Answer, m.Authority, m.Additional} {
		for _, rr := range section {
			if buf, err = rr.Encode(buf, c); err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// Decode parses a complete DNS message from msg.
func Decode(msg []byte) (Message, error) {
	h, err := DecodeHeader(msg)
	if err != nil {
		return Message{}, err
	}

	m := Message{Header: h}
	offset := headerSize

	if int(h.QDCount) > maxRRsPerSection {
		return Message{}, rerr.Decode("question count", errTooManyRecords)
	}
	m.Question = make([]Question, h.QDCount)
	for i := range m.Question {
		q, next, err := DecodeQuestion(msg, offset)
		if err != nil {
			return Message{}, err
		}
		m.Question[i] = q
		offset = next
	}

	m.Answer, offset, err = decodeSection(msg, offset, int(h.ANCount))
	if err != nil {
		return Message{}, err
	}
	m.Authority, offset, err = decodeSection(msg, offset, int(h.NSCount))
	if err != nil {
		return Message{}, err
	}
	m.Additional, offset, err = decodeSection(msg, offset, int(h.ARCount))
	if err != nil {
		return Message{}, err
	}

	return m, nil
}

func decodeSection(msg []byte, offset, count int) ([]ResourceRecord, int, error) {
	if count > maxRRsPerSection {
		return nil, 0, rerr.Decode("section record count", errTooManyRecords)
	}
	rrs := make([]ResourceRecord, count)
	for i := range rrs {
		rr, next, err := DecodeResourceRecord(msg, offset)
		if err != nil {
			return nil, 0, err
		}
		rrs[i] = rr
		offset = next
	}
	return rrs, offset, nil
}

// NewQuery builds a single-question query message with the given id,
// transaction semantics matching the resolver's fixed-id outbound
// exchanges (see the resolver package).
func NewQuery(id uint16, name DomainName, rrType RRType) Message {
	return Message{
		Header:   NewQueryHeader(id, 1),
		Question: []Question{{Name: name, Type: rrType, Class: ClassIN}},
	}
}
