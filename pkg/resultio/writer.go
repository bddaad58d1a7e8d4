package resultio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// WriteTo serializes b to w in the binary layout specified by spec.md
// §6.1: a fixed header, then thread names, frames, tags, scopes, and
// finally each thread's events, all little-endian/native-width integers.
func WriteTo(w io.Writer, b *profiler.Bundle) error {
	bw := &byteWriter{w: w}

	bw.writeRaw(magic[:])
	bw.writeRaw([]byte{formatVersion})
	bw.writeRaw([]byte{boolByte(b.IsFrameDataMissing())})
	bw.writeRaw([]byte{boolByte(b.HasAnyRecords())})
	bw.writeRaw([]byte{boolByte(b.WithCookie())})

	writeThreadNames(bw, b)
	writeFrames(bw, b)
	writeTags(bw, b)
	writeScopes(bw, b)
	writeEvents(bw, b)

	return bw.err
}

// WriteFile serializes b and writes it to path, creating or truncating the
// file. Returns the I/O error, if any (spec.md §4.7's write_to_file,
// translated to Go's explicit-error idiom instead of a bool). A WithLogger
// option reports the failure at Error level before it is returned.
func WriteFile(path string, b *profiler.Bundle, opts ...IOOption) error {
	var cfg ioConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Create(path)
	if err != nil {
		wrapped := fmt.Errorf("resultio: failed to create %s: %w", path, err)
		cfg.logAnomaly("failed to create bundle file", wrapped)
		return wrapped
	}
	defer f.Close()

	if err := WriteTo(f, b); err != nil {
		wrapped := fmt.Errorf("resultio: failed to write %s: %w", path, err)
		cfg.logAnomaly("failed to write bundle file", wrapped)
		return wrapped
	}
	if err := f.Close(); err != nil {
		cfg.logAnomaly("failed to close bundle file", err)
		return err
	}
	return nil
}

func writeThreadNames(bw *byteWriter, b *profiler.Bundle) {
	bw.writeU64(uint64(b.ThreadCount()))
	for i := 0; i < b.ThreadCount(); i++ {
		bw.writeString(b.ThreadName(i))
	}
}

func writeFrames(bw *byteWriter, b *profiler.Bundle) {
	frames := b.Frames()
	bw.writeU64(uint64(len(frames)))
	for _, f := range frames {
		bw.writeU64(f.Number)
		bw.writeI64(f.Start)
		bw.writeI64(f.End)
	}
}

func writeTags(bw *byteWriter, b *profiler.Bundle) {
	tags := b.Tags()
	bw.writeU64(uint64(len(tags)))
	for _, t := range tags {
		bw.writeU32(uint32(t.ID))
		bw.writeString(t.Name)
		bw.writeRaw([]byte{t.R, t.G, t.B, t.A})
	}
}

func writeScopes(bw *byteWriter, b *profiler.Bundle) {
	scopes := b.Scopes()

	keys := make([]profiler.ScopeKey, 0, len(scopes))
	for k := range scopes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	bw.writeU64(uint64(len(keys)))
	for _, k := range keys {
		info := scopes[k]
		bw.writeU32(uint32(info.Key))
		bw.writeU32(uint32(info.Tag))
		bw.writeString(info.Name)
		bw.writeString(info.Function)
		bw.writeString(info.File)
		bw.writeU32(info.Line)
	}
}

func writeEvents(bw *byteWriter, b *profiler.Bundle) {
	withCookie := b.WithCookie()
	for i := 0; i < b.ThreadCount(); i++ {
		events := b.Events(i)
		bw.writeU64(uint64(len(events)))
		for _, e := range events {
			bw.writeU32(uint32(e.Key))
			bw.writeI32(e.Depth)
			bw.writeI64(e.Start)
			bw.writeI64(e.End)
			if withCookie {
				bw.writeU64(e.Cookie)
			}
		}
	}
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// byteWriter accumulates the first error from a sequence of little-endian
// writes so call sites don't need to check err after every field.
type byteWriter struct {
	w   io.Writer
	err error
}

func (bw *byteWriter) writeRaw(p []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

func (bw *byteWriter) writeU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	bw.writeRaw(buf[:])
}

func (bw *byteWriter) writeI64(v int64) { bw.writeU64(uint64(v)) }

func (bw *byteWriter) writeU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	bw.writeRaw(buf[:])
}

func (bw *byteWriter) writeI32(v int32) { bw.writeU32(uint32(v)) }

func (bw *byteWriter) writeString(s string) {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	bw.writeRaw(lenBuf[:])
	bw.writeRaw([]byte(s))
}
