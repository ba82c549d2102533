package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixIDHookFunc defines the signature for the NewSixID test hook.
// It returns a SixID and a boolean indicating whether to override the default generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is a package-level variable that tests can set to override NewSixID behavior.
var NewSixIDHook SixIDHookFunc

// SixID is a 6-byte ID stored as BSON BinData with custom subtype 0x80
type SixID [6]byte

const sixIDSubtype byte = 0x80

// NewSixID returns a random ID, or the hook's ID when a test installed one.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}
	var id SixID
	_, _ = rand.Read(id[:])
	return id
}

// ParseSixID decodes the 10 character Crockford base32 form. Hyphens and spaces are
// ignored and lookalike letters (o, i, l) are accepted. "" decodes to the zero ID.
func ParseSixID(s string) (SixID, error) {
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	if s == "" {
		return SixID{}, nil
	}
	if len(s) != sixIDChars {
		return SixID{}, fmt.Errorf("invalid SixID %q: want %d characters", s, sixIDChars)
	}
	var v uint64
	for i := 0; i < sixIDChars; i++ {
		d := crockfordValue(s[i])
		if d < 0 {
			return SixID{}, fmt.Errorf("invalid SixID %q: bad character %q", s, s[i])
		}
		v |= uint64(d) << (5 * i)
	}
	var id SixID
	for i := range id {
		id[i] = byte(v >> (8 * i))
	}
	return id, nil
}

const (
	crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	sixIDChars        = 10 // ceil(48 / 5)
)

func crockfordValue(c byte) int {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch c {
	case 'O':
		return 0
	case 'I', 'L':
		return 1
	}
	return strings.IndexByte(crockfordAlphabet, c)
}

// String encodes the ID as Crockford base32, least significant bits first.
func (u SixID) String() string {
	var v uint64
	for i, b := range u {
		v |= uint64(b) << (8 * i)
	}
	out := make([]byte, sixIDChars)
	for i := range out {
		out[i] = crockfordAlphabet[(v>>(5*i))&0x1F]
	}
	return string(out)
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (u SixID) MarshalBinary() ([]byte, error) {
	return u[:], nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (u *SixID) UnmarshalBinary(data []byte) error {
	if len(data) != 6 {
		return errors.New("invalid SixID length")
	}
	copy((*u)[:], data)
	return nil
}

// MarshalJSON writes the ID in its Crockford Base32 form.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts the Crockford Base32 form. An empty string decodes to the zero ID.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("SixID must be a JSON string: %w", err)
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// IsZero reports whether the ID is unset. Used by bson omitempty.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

// MarshalBSONValue stores the SixID as BSON binary with custom subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, sixIDSubtype, u[:]), nil
}

// UnmarshalBSONValue reads a SixID stored by MarshalBSONValue. A BSON null decodes to the zero ID.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return fmt.Errorf("invalid BSON type for SixID: %s", t)
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("invalid BSON binary data for SixID")
	}
	if subtype != sixIDSubtype || len(bin) != 6 {
		return errors.New("invalid BSON binary data for SixID: incorrect subtype or length")
	}
	copy((*u)[:], bin)
	return nil
}
