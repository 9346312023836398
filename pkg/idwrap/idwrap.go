package idwrap

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDWrap is the identifier of every node in the form tree. It is a ULID so
// ids sort by creation time and fit a 16 byte BLOB column.
type IDWrap struct {
	ulid ulid.ULID
}

func New(ulid ulid.ULID) IDWrap {
	return IDWrap{ulid: ulid}
}

func NewNow() IDWrap {
	return IDWrap{ulid: ulid.Make()}
}

func NewText(ulidString string) (IDWrap, error) {
	parsed, err := ulid.Parse(ulidString)
	if err != nil {
		return IDWrap{}, fmt.Errorf("parse id %q: %w", ulidString, err)
	}
	return IDWrap{ulid: parsed}, nil
}

func NewTextMust(ulidString string) IDWrap {
	id, err := NewText(ulidString)
	if err != nil {
		panic(err)
	}
	return id
}

func NewFromBytes(data []byte) (IDWrap, error) {
	var parsed ulid.ULID
	if err := parsed.UnmarshalBinary(data); err != nil {
		return IDWrap{}, err
	}
	return IDWrap{ulid: parsed}, nil
}

func NewFromBytesMust(data []byte) IDWrap {
	id, err := NewFromBytes(data)
	if err != nil {
		panic(err)
	}
	return id
}

func (u IDWrap) String() string {
	return u.ulid.String()
}

func (u IDWrap) Bytes() []byte {
	return u.ulid[:]
}

func (u IDWrap) Compare(id IDWrap) int {
	return u.ulid.Compare(id.ulid)
}

// IsZero reports whether the id was never assigned.
func (u IDWrap) IsZero() bool {
	return u.ulid == ulid.ULID{}
}

func (u IDWrap) Time() time.Time {
	return time.UnixMilli(int64(u.ulid.Time()))
}

// Value stores the id as its 16 raw bytes.
func (u IDWrap) Value() (driver.Value, error) {
	return u.ulid[:], nil
}

func (u *IDWrap) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return u.ulid.UnmarshalBinary(v)
	case string:
		return u.ulid.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("idwrap: cannot scan %T", value)
	}
}

func (u IDWrap) MarshalText() ([]byte, error) {
	return u.ulid.MarshalText()
}

func (u *IDWrap) UnmarshalText(data []byte) error {
	return u.ulid.UnmarshalText(data)
}

// Ptr returns a pointer to a copy of id, handy for optional parent columns.
func Ptr(id IDWrap) *IDWrap {
	return &id
}

// Equal compares two optional ids; two nils are equal.
func Equal(a, b *IDWrap) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Compare(*b) == 0
}
