package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tuple is an ordered sequence of scalars.
type Tuple []Scalar

// EncodeTuple encodes t so that byte-lexicographic comparison of the result
// matches component-wise comparison of t.
func EncodeTuple(t Tuple) ([]byte, error) {
	var buf []byte
	for _, s := range t {
		if err := encodeScalar(&buf, s, false); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeTuple decodes a byte string produced by EncodeTuple back into a
// Tuple, exactly, with no loss of information.
func DecodeTuple(data []byte) (Tuple, error) {
	var out Tuple
	pos := 0
	for pos < len(data) {
		s, next, err := decodeScalar(data, pos, false)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		pos = next
	}
	return out, nil
}

func escape(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, b)
		}
	}
	return out
}

func unescape(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == 0x00 && i+1 < len(raw) && raw[i+1] == 0xFF {
			out = append(out, 0x00)
			i++
		} else {
			out = append(out, raw[i])
		}
	}
	return out
}

// encodeFloatBits order-preserves an IEEE-754 double: flip the sign bit for
// non-negatives, invert every bit for negatives.
func encodeFloatBits(f float64) []byte {
	bits := math.Float64bits(f)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	if buf[0]&0x80 != 0 {
		for i := range buf {
			buf[i] ^= 0xFF
		}
	} else {
		buf[0] ^= 0x80
	}
	return buf
}

func decodeFloatBits(buf []byte) float64 {
	cp := make([]byte, 8)
	copy(cp, buf)
	if cp[0]&0x80 != 0 {
		cp[0] ^= 0x80
	} else {
		for i := range cp {
			cp[i] ^= 0xFF
		}
	}
	return math.Float64frombits(binary.BigEndian.Uint64(cp))
}

func encodeScalar(buf *[]byte, s Scalar, nested bool) error {
	switch s.tag {
	case TagNull:
		if nested {
			*buf = append(*buf, byte(TagNull), 0xFF)
		} else {
			*buf = append(*buf, byte(TagNull))
		}
	case TagBytes, TagString:
		*buf = append(*buf, byte(s.tag))
		*buf = append(*buf, escape(s.raw)...)
		*buf = append(*buf, 0x00)
	case TagIntZero:
		*buf = append(*buf, byte(TagIntZero))
	case TagIntPos, TagIntNeg:
		*buf = append(*buf, byte(s.tag))
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], s.i)
		*buf = append(*buf, n[:]...)
	case TagFloat:
		*buf = append(*buf, byte(TagFloat))
		*buf = append(*buf, encodeFloatBits(s.f)...)
	case TagTrue, TagFalse:
		*buf = append(*buf, byte(s.tag))
	case TagUUID:
		*buf = append(*buf, byte(TagUUID))
		*buf = append(*buf, s.raw...)
	case TagContentHash:
		*buf = append(*buf, byte(TagContentHash))
		*buf = append(*buf, s.raw...)
	case TagNested:
		*buf = append(*buf, byte(TagNested))
		for _, e := range s.nested {
			if err := encodeScalar(buf, e, true); err != nil {
				return err
			}
		}
		*buf = append(*buf, 0x00)
	default:
		return fmt.Errorf("%w: unsupported scalar tag %#x", ErrInvalidInput, s.tag)
	}
	return nil
}

// decodeScalar decodes one scalar starting at pos, returning it and the
// position just past its encoding. nested selects the nested-tuple framing
// where Null is two bytes (0x00 0xFF) so it can't be confused with a
// terminator.
func decodeScalar(data []byte, pos int, nested bool) (Scalar, int, error) {
	if pos >= len(data) {
		return Scalar{}, 0, fmt.Errorf("%w: unexpected end of input at offset %d", ErrCorruptData, pos)
	}
	tag := Tag(data[pos])
	switch tag {
	case TagNull:
		if nested {
			if pos+1 >= len(data) || data[pos+1] != 0xFF {
				return Scalar{}, 0, fmt.Errorf("%w: malformed nested null at offset %d", ErrCorruptData, pos)
			}
			return Null, pos + 2, nil
		}
		return Null, pos + 1, nil
	case TagBytes, TagString:
		end, err := scanEscaped(data, pos+1)
		if err != nil {
			return Scalar{}, 0, err
		}
		payload := unescape(data[pos+1 : end])
		if tag == TagBytes {
			return Bytes(payload), end + 1, nil
		}
		return String(string(payload)), end + 1, nil
	case TagIntZero:
		return Int(0), pos + 1, nil
	case TagIntPos:
		if pos+9 > len(data) {
			return Scalar{}, 0, fmt.Errorf("%w: truncated int at offset %d", ErrCorruptData, pos)
		}
		return Scalar{tag: TagIntPos, i: binary.BigEndian.Uint64(data[pos+1 : pos+9])}, pos + 9, nil
	case TagIntNeg:
		if pos+9 > len(data) {
			return Scalar{}, 0, fmt.Errorf("%w: truncated int at offset %d", ErrCorruptData, pos)
		}
		return Scalar{tag: TagIntNeg, i: binary.BigEndian.Uint64(data[pos+1 : pos+9])}, pos + 9, nil
	case TagFloat:
		if pos+9 > len(data) {
			return Scalar{}, 0, fmt.Errorf("%w: truncated float at offset %d", ErrCorruptData, pos)
		}
		return Float(decodeFloatBits(data[pos+1 : pos+9])), pos + 9, nil
	case TagTrue:
		return Bool(true), pos + 1, nil
	case TagFalse:
		return Bool(false), pos + 1, nil
	case TagUUID:
		if pos+17 > len(data) {
			return Scalar{}, 0, fmt.Errorf("%w: truncated uuid at offset %d", ErrCorruptData, pos)
		}
		var raw [16]byte
		copy(raw[:], data[pos+1:pos+17])
		return Scalar{tag: TagUUID, raw: raw[:]}, pos + 17, nil
	case TagContentHash:
		if pos+33 > len(data) {
			return Scalar{}, 0, fmt.Errorf("%w: truncated content hash at offset %d", ErrCorruptData, pos)
		}
		var raw [32]byte
		copy(raw[:], data[pos+1:pos+33])
		return Scalar{tag: TagContentHash, raw: raw[:]}, pos + 33, nil
	case TagNested:
		var elems []Scalar
		p := pos + 1
		for {
			if p >= len(data) {
				return Scalar{}, 0, fmt.Errorf("%w: unterminated nested tuple at offset %d", ErrCorruptData, pos)
			}
			if data[p] == 0x00 && (p+1 >= len(data) || data[p+1] != 0xFF) {
				p++
				break
			}
			var (
				e   Scalar
				err error
			)
			e, p, err = decodeScalar(data, p, true)
			if err != nil {
				return Scalar{}, 0, err
			}
			elems = append(elems, e)
		}
		return Nested(elems...), p, nil
	default:
		return Scalar{}, 0, fmt.Errorf("%w: unknown tag byte %#x at offset %d", ErrCorruptData, tag, pos)
	}
}

// scanEscaped finds the terminator of an escaped Bytes/String payload
// starting at pos: the first unescaped 0x00 (one not followed by 0xFF).
func scanEscaped(data []byte, pos int) (int, error) {
	i := pos
	for i < len(data) {
		if data[i] == 0x00 {
			if i+1 < len(data) && data[i+1] == 0xFF {
				i += 2
				continue
			}
			return i, nil
		}
		i++
	}
	return 0, fmt.Errorf("%w: unterminated bytes/string at offset %d", ErrCorruptData, pos)
}
