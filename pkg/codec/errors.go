package codec

import "github.com/cuemby/lattice/pkg/errs"

// ErrInvalidInput marks a value that cannot be encoded: an unsupported type,
// or a malformed argument at an API boundary (e.g. a content hash hex string
// of the wrong length).
var ErrInvalidInput = errs.ErrInvalidInput

// ErrCorruptData marks bytes that cannot be decoded: truncated input, an
// unknown tag byte, or a nested tuple missing its terminator.
var ErrCorruptData = errs.ErrCorruptData
