// Package oid provides the 12-byte opaque identifier used for every entity.
//
// IDs travel as 24-char lowercase hex at API boundaries and as raw bytes in
// storage.
package oid

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is a 12-byte identifier: 4 bytes of timestamp, 5 random, 3 counter.
type ID primitive.ObjectID

// Nil is the zero identifier.
var Nil ID

var ErrInvalidID = errors.New("invalid_id")

// New returns a fresh identifier.
func New() ID {
	return ID(primitive.NewObjectID())
}

// Parse decodes a 24-char hex string.
func Parse(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 24 {
		return Nil, ErrInvalidID
	}
	p, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return Nil, ErrInvalidID
	}
	return ID(p), nil
}

// MustParse panics when s is not a valid identifier. Intended for tests and seeds.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("oid: %q: %v", s, err))
	}
	return id
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) IsZero() bool {
	return id == Nil
}

func (id ID) Bytes() []byte {
	out := make([]byte, len(id))
	copy(out, id[:])
	return out
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidID
	}
	if raw == "" {
		*id = Nil
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the raw 12 bytes.
func (id ID) Value() (driver.Value, error) {
	return id.Bytes(), nil
}

// Scan accepts raw bytes or a hex string.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = Nil
		return nil
	case []byte:
		return id.fromBytes(v)
	case string:
		if len(v) == 24 {
			parsed, err := Parse(v)
			if err != nil {
				return err
			}
			*id = parsed
			return nil
		}
		return id.fromBytes([]byte(v))
	default:
		return fmt.Errorf("oid: cannot scan %T", src)
	}
}

func (id *ID) fromBytes(b []byte) error {
	if len(b) == 24 {
		parsed, err := Parse(string(b))
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	if len(b) != 12 {
		return fmt.Errorf("oid: invalid length %d", len(b))
	}
	copy(id[:], b)
	return nil
}

// GormDataType maps the identifier to a binary column.
func (ID) GormDataType() string {
	return "bytes"
}
