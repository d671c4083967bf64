package main

import (
	"strconv"

	"github.com/cuemby/lattice/pkg/codec"
)

// parseScalar turns a command-line argument into a codec.Scalar, trying
// integer, then float, then boolean, and falling back to a string.
func parseScalar(arg string) codec.Scalar {
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return codec.Int(n)
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return codec.Float(f)
	}
	if b, err := strconv.ParseBool(arg); err == nil {
		return codec.Bool(b)
	}
	return codec.String(arg)
}
