package packet

import "testing"

func TestMessage_EncodeQuery(t *testing.T) {
	m := NewQuery(45232, "example.com.", TypeA)
	buf, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}

	if buf[0] != 0xB0 || buf[1] != 0xB0 {
		t.Fatalf("id bytes = %02X %02X, want B0 B0", buf[0], buf[1])
	}
	if buf[4] != 0x00 || buf[5] != 0x01 {
		t.Fatalf("qdcount bytes = %02X %02X, want 00 01", buf[4], buf[5])
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if len(got.Question) != 1 {
		t.Fatalf("len(Question) = %d, want 1", len(got.Question))
	}
	if got.Question[0].Name != "example.com." {
		t.Errorf("Question.Name = %q, want example.com.", got.Question[0].Name)
	}
	if got.Question[0].Type != TypeA {
		t.Errorf("Question.Type = %v, want TypeA", got.Question[0].Type)
	}
}

func TestMessage_EncodeDecode_WithAnswer(t *testing.T) {
	m := Message{
		Header:   NewQueryHeader(45232, 1),
		Question: []Question{{Name: "example.com.", Type: TypeA, Class: ClassIN}},
		Answer: []ResourceRecord{
			{Name: "example.com.", Type: TypeA, Class: ClassIN, TTL: 300, RData: []byte{93, 184, 216, 34}},
		},
	}
	m.Header.SetQR(true)
	m.Header.SetRA(true)

	buf, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if len(got.Answer) != 1 {
		t.Fatalf("len(Answer) = %d, want 1", len(got.Answer))
	}
	if got.Answer[0].Text != "93.184.216.34" {
		t.Errorf("Answer[0].Text = %q, want 93.184.216.34", got.Answer[0].Text)
	}
	if !got.Header.QR() {
		t.Error("QR = false, want true")
	}
}

func TestMessage_Encode_CompressesAnswerNameAgainstQuestion(t *testing.T) {
	m := Message{
		Header:   NewQueryHeader(45232, 1),
		Question: []Question{{Name: "example.com.", Type: TypeA, Class: ClassIN}},
		Answer: []ResourceRecord{
			{Name: "example.com.", Type: TypeA, Class: ClassIN, TTL: 300, RData: []byte{1, 2, 3, 4}},
		},
	}
	buf, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	// The answer's owner name should compress to a 2-byte pointer instead of
	// repeating "example.com." (13 bytes of labels).
	uncompressedNameBytes := len("example.com.") + 1 // null-terminated label form
	if len(buf) >= headerSize*2+uncompressedNameBytes*2 {
		t.Errorf("encoded message length %d suggests the answer name was not compressed", len(buf))
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if got.Answer[0].Name != "example.com." {
		t.Errorf("Answer[0].Name = %q, want example.com.", got.Answer[0].Name)
	}
}

func TestMessage_Decode_RejectsOversizedSectionCount(t *testing.T) {
	m := NewQueryHeader(45232, 0)
	m.ANCount = 60000
	buf := m.Encode(nil)
	if _, err := Decode(buf); err == nil {
		t.Error("Decode with forged ANCount error = nil, want failure")
	}
}
