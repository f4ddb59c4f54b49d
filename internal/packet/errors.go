package packet

import (
	"errors"
	"fmt"
)

var (
	errCompressionLoop = errors.New("compression pointer loop or excessive depth")
	errInvalidOffset   = errors.New("compression pointer does not point backwards within message")
	errMessageTooShort  = errors.New("message too short")
	errTooManyRecords   = errors.New("record count exceeds section limit")
)

func errLabelLength(label string) error {
	return fmt.Errorf("label length out of range (0, %d]: %q", maxLabelLength, label)
}

func errNameTooLong(n int) error {
	return fmt.Errorf("domain name exceeds %d octets: %d", maxDomainLength, n)
}
