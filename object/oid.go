package object

import (
	"crypto/sha1" //nolint:gosec // git's object naming is contractually SHA-1
	"encoding/hex"
	"errors"
)

// ErrInvalidOid is returned when a given value isn't a valid Oid
var ErrInvalidOid = errors.New("invalid Oid")

// oidSize is the length of a raw Oid, in bytes
const oidSize = 20

// NullOid is the zero-value Oid, used to represent "no object"
var NullOid = Oid{}

// Oid represents a git Object ID: the SHA-1 of a loose object's
// "<type> <size>\0<content>" payload.
type Oid [oidSize]byte

// NewOidFromContent returns the Oid of the given content.
// The oid is the SHA-1 sum of the content
func NewOidFromContent(content []byte) Oid {
	return Oid(sha1.Sum(content)) //nolint:gosec
}

// NewOidFromStr returns an Oid from its hex string representation
// Ex. "9b91da06e69613397b38e0808e0ba5ee6983251b" becomes
// Oid{0x9b, 0x91, 0xda, ...}
func NewOidFromStr(id string) (Oid, error) {
	raw, err := hex.DecodeString(id)
	if err != nil {
		if errors.Is(err, hex.ErrLength) {
			return NullOid, ErrInvalidOid
		}
		return NullOid, err
	}
	return NewOidFromHex(raw)
}

// NewOidFromChars returns an Oid from the given ascii-encoded SHA
// Ex. []byte("9b91da06e69613397b38e0808e0ba5ee6983251b") becomes
// Oid{0x9b, 0x91, 0xda, ...}
func NewOidFromChars(id []byte) (Oid, error) {
	return NewOidFromStr(string(id))
}

// NewOidFromHex returns an Oid from the provided raw (binary) bytes.
// This casts a slice containing an already-encoded oid into an Oid.
func NewOidFromHex(id []byte) (Oid, error) {
	if len(id) != oidSize {
		return NullOid, ErrInvalidOid
	}

	var oid Oid
	copy(oid[:], id)
	return oid, nil
}

// Bytes returns the raw Oid as []byte.
// This is different than doing []byte(oid.String())
func (o Oid) Bytes() []byte {
	return o[:]
}

// String converts an oid to its hex string representation
func (o Oid) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero returns whether the oid has the zero value (NullOid)
func (o Oid) IsZero() bool {
	return o == NullOid
}
