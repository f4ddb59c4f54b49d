package packet

import (
	"strings"

	"github.com/dnscore/resolved/internal/rerr"
)

const (
	maxLabelLength      = 63
	maxDomainLength     = 255
	maxCompressionDepth = 128
	pointerTag          = 0xC0
	pointerMask         = 0x3FFF
)

// DomainName is a dotted, fully-qualified, trailing-dot domain name.
// Comparison is case-insensitive per RFC 1035 §2.3.3; the original case is
// preserved for display.
type DomainName string

func (n DomainName) labels() []string {
	s := strings.TrimSuffix(string(n), ".")
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// Equal reports whether n and other denote the same name, ignoring case and
// a trailing dot.
func (n DomainName) Equal(other DomainName) bool {
	return strings.EqualFold(strings.TrimSuffix(string(n), "."), strings.TrimSuffix(string(other), "."))
}

func (n DomainName) String() string {
	if n == "" {
		return "."
	}
	return string(n)
}

// Compressor tracks the offsets of name suffixes already written into a
// message buffer, so later names can reuse them via a compression pointer
// (RFC 1035 §4.1.4) instead of repeating the labels.
type Compressor struct {
	offsets map[string]int // lowercased dotted suffix -> offset it starts at
}

// NewCompressor returns an empty compressor. A fresh one should be used per
// encoded message, since offsets are only valid within one buffer.
func NewCompressor() *Compressor {
	return &Compressor{offsets: make(map[string]int)}
}

// EncodeName appends name to buf, terminating either in a null label or a
// pointer into a previously written suffix, and records any new suffixes it
// writes for reuse by subsequent names. c may be nil to disable compression.
func EncodeName(buf []byte, name DomainName, c *Compressor) ([]byte, error) {
	labels := name.labels()

	total := 0
	for _, l := range labels {
		if len(l) == 0 || len(l) > maxLabelLength {
			return nil, rerr.Encode("name label length", errLabelLength(l))
		}
		total += len(l) + 1
	}
	if total+1 > maxDomainLength {
		return nil, rerr.Encode("name", errNameTooLong(total))
	}

	for i := 0; i < len(labels); i++ {
		suffix := strings.ToLower(strings.Join(labels[i:], "."))
		if c != nil {
			if offset, ok := c.offsets[suffix]; ok && offset <= pointerMask {
				return putU16(buf, uint16(pointerTag<<8)|uint16(offset)), nil
			}
			if len(buf) <= pointerMask {
				c.offsets[suffix] = len(buf)
			}
		}
		buf = append(buf, byte(len(labels[i])))
		buf = append(buf, labels[i]...)
	}
	return append(buf, 0), nil
}

// DecodeName reads a domain name starting at offset within msg, following
// compression pointers per RFC 1035 §4.1.4. It returns the decoded name and
// the offset immediately following the name's own encoding in msg (i.e. not
// following any pointer jump, matching the cursor semantics the rest of the
// message codec expects).
func DecodeName(msg []byte, offset int) (DomainName, int, error) {
	var labels []string
	visited := make(map[int]bool)
	depth := 0
	cur := offset
	next := -1

	for {
		if depth > maxCompressionDepth {
			return "", 0, rerr.Decode("name", errCompressionLoop)
		}
		if cur < 0 || cur >= len(msg) {
			return "", 0, rerr.Decode("name", errInvalidOffset)
		}

		length := int(msg[cur])

		if length&pointerTag == pointerTag {
			if cur+1 >= len(msg) {
				return "", 0, rerr.Decode("name", errMessageTooShort)
			}
			ptr := int(getU16(msg, cur) & pointerMask)
			if visited[ptr] {
				return "", 0, rerr.Decode("name", errCompressionLoop)
			}
			visited[ptr] = true
			if ptr >= cur {
				return "", 0, rerr.Decode("name", errInvalidOffset)
			}
			if next == -1 {
				next = cur + 2
			}
			cur = ptr
			depth++
			continue
		}

		if length == 0 {
			if next == -1 {
				next = cur + 1
			}
			break
		}

		if length > maxLabelLength {
			return "", 0, rerr.Decode("name", errLabelLength(""))
		}
		cur++
		if cur+length > len(msg) {
			return "", 0, rerr.Decode("name", errMessageTooShort)
		}
		labels = append(labels, string(msg[cur:cur+length]))
		cur += length
	}

	if len(labels) == 0 {
		return ".", next, nil
	}
	name := strings.Join(labels, ".") + "."
	if len(name) > maxDomainLength {
		return "", 0, rerr.Decode("name", errNameTooLong(len(name)))
	}
	return DomainName(name), next, nil
}
