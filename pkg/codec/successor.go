package codec

// Successor returns the shortest byte string strictly greater than b such
// that no string prefixed by b exceeds it — the least byte string greater
// than every string starting with b. It returns
// (nil, false) when b consists entirely of 0xFF bytes, in which case no such
// successor exists at length len(b); the caller must fall back to
// append(b, 0x00) to form a valid (longer) upper bound.
func Successor(b []byte) ([]byte, bool) {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xFF {
			out := make([]byte, i+1)
			copy(out, b[:i])
			out[i] = b[i] + 1
			return out, true
		}
	}
	return nil, false
}

// UpperBound returns the exclusive upper bound for a prefix scan over keys
// starting with b: Successor(b) when it exists, or append(b, 0x00) otherwise.
func UpperBound(b []byte) []byte {
	if s, ok := Successor(b); ok {
		return s
	}
	out := make([]byte, len(b)+1)
	copy(out, b)
	out[len(b)] = 0x00
	return out
}
