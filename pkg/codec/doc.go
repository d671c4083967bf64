// Package codec implements the order-preserving tuple encoding used to turn
// relation tuples into bbolt keys: encode(t1) < encode(t2) (byte-lexicographic)
// iff t1 < t2 (component-wise). Every stored nstore key is built by this
// package, so the comparison bbolt does for free on the wire is exactly the
// comparison callers expect on tuples.
//
// A Scalar is a tagged union over the ground types the system understands:
// Null, Bytes, String, a NestedTuple, three integer encodings (zero, positive,
// negative), Float, True, False, UUID, and ContentHash. The tag byte values are
// part of the wire format, not an implementation detail — changing them breaks
// every value already written to disk.
package codec
