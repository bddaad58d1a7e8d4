// Package resultio implements the binary serialization and text report for
// a profiler.Bundle: the profiler package owns the data model, resultio
// owns the wire formats (spec.md §6).
package resultio

import "errors"

// magic is the four-byte file header identifying an IYFR results file.
var magic = [4]byte{'I', 'Y', 'F', 'R'}

// formatVersion is the only binary format version this package writes or
// reads (spec.md §6.1).
const formatVersion = 0x01

// ErrDeserialize wraps any failure reading a results file: an unopenable
// file, mismatched magic, an unsupported version, or a short read (spec.md
// §6.1, §7).
var ErrDeserialize = errors.New("resultio: failed to deserialize results")
