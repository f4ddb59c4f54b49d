package packet

import "testing"

func TestEncodeDecodeName_RoundTrip(t *testing.T) {
	buf, err := EncodeName(nil, "example.com.", nil)
	if err != nil {
		t.Fatalf("EncodeName error = %v", err)
	}
	want := []byte{7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}
	if string(buf) != string(want) {
		t.Fatalf("EncodeName = %v, want %v", buf, want)
	}

	name, next, err := DecodeName(buf, 0)
	if err != nil {
		t.Fatalf("DecodeName error = %v", err)
	}
	if name != "example.com." {
		t.Errorf("DecodeName name = %q, want example.com.", name)
	}
	if next != len(buf) {
		t.Errorf("DecodeName next = %d, want %d", next, len(buf))
	}
}

func TestEncodeName_Compression(t *testing.T) {
	c := NewCompressor()
	buf, err := EncodeName(nil, "ns1.example.com.", c)
	if err != nil {
		t.Fatalf("EncodeName error = %v", err)
	}

	// A second name sharing the "example.com." suffix should compress to a
	// pointer back into the first encoding instead of repeating labels.
	before := len(buf)
	buf, err = EncodeName(buf, "ns2.example.com.", c)
	if err != nil {
		t.Fatalf("EncodeName (2nd) error = %v", err)
	}
	// "ns2" label (4 bytes) + 2-byte pointer = 6 bytes appended.
	if got := len(buf) - before; got != 6 {
		t.Errorf("compressed encoding length = %d, want 6", got)
	}

	name, _, err := DecodeName(buf, before)
	if err != nil {
		t.Fatalf("DecodeName error = %v", err)
	}
	if name != "ns2.example.com." {
		t.Errorf("DecodeName = %q, want ns2.example.com.", name)
	}
}

func TestDecodeName_PointerLoopFails(t *testing.T) {
	// Two pointers referencing each other must fail, not hang.
	msg := make([]byte, 4)
	msg[0], msg[1] = pointerTag, 2
	msg[2], msg[3] = pointerTag, 0
	if _, _, err := DecodeName(msg, 0); err == nil {
		t.Error("DecodeName on cyclic pointers error = nil, want failure")
	}
}

func TestDecodeName_RootIsDot(t *testing.T) {
	msg := []byte{0}
	name, next, err := DecodeName(msg, 0)
	if err != nil {
		t.Fatalf("DecodeName error = %v", err)
	}
	if name != "." {
		t.Errorf("DecodeName root = %q, want .", name)
	}
	if next != 1 {
		t.Errorf("next = %d, want 1", next)
	}
}

func TestDomainName_EqualIgnoresCase(t *testing.T) {
	a := DomainName("Example.COM.")
	b := DomainName("example.com.")
	if !a.Equal(b) {
		t.Error("Equal should ignore case")
	}
}
