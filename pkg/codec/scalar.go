package codec

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Tag identifies a Scalar's ground type. Tag is also the first byte written
// for that scalar, so comparing two encoded tuples compares tags before it
// compares anything else — the global ordering is tag order first, then a
// type-specific rule for scalars sharing a tag.
type Tag byte

const (
	TagNull        Tag = 0x00
	TagBytes       Tag = 0x01
	TagString      Tag = 0x02
	TagNested      Tag = 0x03
	TagIntZero     Tag = 0x04
	TagIntPos      Tag = 0x05
	TagIntNeg      Tag = 0x06
	TagFloat       Tag = 0x07
	TagTrue        Tag = 0x08
	TagFalse       Tag = 0x09
	TagUUID        Tag = 0x0A
	TagContentHash Tag = 0x0B
)

// Scalar is a ground value understood by the codec. The zero value is Null.
type Scalar struct {
	tag    Tag
	raw    []byte // Bytes/String payload (decoded, unescaped), UUID (16B), ContentHash (32B)
	i      uint64 // IntPos/IntNeg magnitude, already folded for IntNeg
	f      float64
	nested []Scalar
}

// Null is the Null scalar.
var Null = Scalar{tag: TagNull}

// Bytes builds a Bytes scalar.
func Bytes(b []byte) Scalar {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Scalar{tag: TagBytes, raw: cp}
}

// String builds a String scalar from UTF-8 text.
func String(s string) Scalar {
	return Scalar{tag: TagString, raw: []byte(s)}
}

// Int builds an integer scalar, choosing IntZero/IntPos/IntNeg by sign.
func Int(n int64) Scalar {
	switch {
	case n == 0:
		return Scalar{tag: TagIntZero}
	case n > 0:
		return Scalar{tag: TagIntPos, i: uint64(n)}
	default:
		// Fold into u64 space so the most-negative value maps to the lowest
		// bytes: encoded = (2^64-1) + n, computed as uint64(n)-1 (wraps
		// correctly under Go's defined unsigned-integer arithmetic).
		return Scalar{tag: TagIntNeg, i: uint64(n) - 1}
	}
}

// Float builds a Float scalar from an IEEE-754 double.
func Float(f float64) Scalar {
	return Scalar{tag: TagFloat, f: f}
}

// Bool builds a True/False scalar.
func Bool(b bool) Scalar {
	if b {
		return Scalar{tag: TagTrue}
	}
	return Scalar{tag: TagFalse}
}

// UUID builds a UUID scalar from a 16-byte google/uuid value.
func UUID(u uuid.UUID) Scalar {
	raw := make([]byte, 16)
	copy(raw, u[:])
	return Scalar{tag: TagUUID, raw: raw}
}

// ContentHash builds a ContentHash scalar from a 32-byte digest.
func ContentHash(h [32]byte) Scalar {
	raw := make([]byte, 32)
	copy(raw, h[:])
	return Scalar{tag: TagContentHash, raw: raw}
}

// ContentHashFromHex decodes a 64-character hex string into a ContentHash
// scalar, an alternate construction form for values read off the wire.
func ContentHashFromHex(s string) (Scalar, error) {
	if len(s) != 64 {
		return Scalar{}, fmt.Errorf("%w: content hash hex must be 64 chars, got %d", ErrInvalidInput, len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Scalar{}, fmt.Errorf("%w: invalid content hash hex: %v", ErrInvalidInput, err)
	}
	var raw [32]byte
	copy(raw[:], decoded)
	return ContentHash(raw), nil
}

// Nested builds a NestedTuple scalar.
func Nested(items ...Scalar) Scalar {
	cp := make([]Scalar, len(items))
	copy(cp, items)
	return Scalar{tag: TagNested, nested: cp}
}

// Kind reports the scalar's tag.
func (s Scalar) Kind() Tag { return s.tag }

// IsNull reports whether s is Null.
func (s Scalar) IsNull() bool { return s.tag == TagNull }

// AsBytes returns the raw bytes for a Bytes scalar.
func (s Scalar) AsBytes() ([]byte, bool) {
	if s.tag != TagBytes {
		return nil, false
	}
	return s.raw, true
}

// AsString returns the decoded string for a String scalar.
func (s Scalar) AsString() (string, bool) {
	if s.tag != TagString {
		return "", false
	}
	return string(s.raw), true
}

// AsInt returns the signed value for an IntZero/IntPos/IntNeg scalar.
func (s Scalar) AsInt() (int64, bool) {
	switch s.tag {
	case TagIntZero:
		return 0, true
	case TagIntPos:
		return int64(s.i), true
	case TagIntNeg:
		return int64(s.i + 1), true
	default:
		return 0, false
	}
}

// AsFloat returns the value for a Float scalar.
func (s Scalar) AsFloat() (float64, bool) {
	if s.tag != TagFloat {
		return 0, false
	}
	return s.f, true
}

// AsBool returns the value for a True/False scalar.
func (s Scalar) AsBool() (bool, bool) {
	switch s.tag {
	case TagTrue:
		return true, true
	case TagFalse:
		return false, true
	default:
		return false, false
	}
}

// AsUUID returns the value for a UUID scalar.
func (s Scalar) AsUUID() (uuid.UUID, bool) {
	if s.tag != TagUUID {
		return uuid.UUID{}, false
	}
	var u uuid.UUID
	copy(u[:], s.raw)
	return u, true
}

// AsContentHash returns the 32-byte digest for a ContentHash scalar.
func (s Scalar) AsContentHash() ([32]byte, bool) {
	if s.tag != TagContentHash {
		return [32]byte{}, false
	}
	var h [32]byte
	copy(h[:], s.raw)
	return h, true
}

// AsTuple returns the elements of a NestedTuple scalar.
func (s Scalar) AsTuple() ([]Scalar, bool) {
	if s.tag != TagNested {
		return nil, false
	}
	return s.nested, true
}

// Equal reports whether two scalars are identical in tag and value.
func (s Scalar) Equal(o Scalar) bool {
	if s.tag != o.tag {
		return false
	}
	switch s.tag {
	case TagBytes, TagString, TagUUID, TagContentHash:
		return string(s.raw) == string(o.raw)
	case TagIntPos, TagIntNeg:
		return s.i == o.i
	case TagFloat:
		return math.Float64bits(s.f) == math.Float64bits(o.f) // bit image, so NaN equals itself and +0 != -0
	case TagNested:
		if len(s.nested) != len(o.nested) {
			return false
		}
		for i := range s.nested {
			if !s.nested[i].Equal(o.nested[i]) {
				return false
			}
		}
		return true
	default:
		return true // Null, IntZero, True, False carry no payload
	}
}

func (s Scalar) String() string {
	switch s.tag {
	case TagNull:
		return "null"
	case TagBytes:
		return fmt.Sprintf("bytes(%x)", s.raw)
	case TagString:
		return fmt.Sprintf("%q", string(s.raw))
	case TagIntZero:
		return "0"
	case TagIntPos:
		return fmt.Sprintf("%d", s.i)
	case TagIntNeg:
		n, _ := s.AsInt()
		return fmt.Sprintf("%d", n)
	case TagFloat:
		return fmt.Sprintf("%v", s.f)
	case TagTrue:
		return "true"
	case TagFalse:
		return "false"
	case TagUUID:
		u, _ := s.AsUUID()
		return u.String()
	case TagContentHash:
		return fmt.Sprintf("contenthash(%x)", s.raw)
	case TagNested:
		return fmt.Sprintf("%v", s.nested)
	default:
		return "<invalid scalar>"
	}
}
