package resultio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// ReadFrom deserializes a Bundle from r in the layout spec.md §6.1
// specifies. It fails with ErrDeserialize if the magic bytes don't match,
// the version is unsupported, or any read comes up short.
func ReadFrom(r io.Reader) (*profiler.Bundle, error) {
	br := &byteReader{r: r}

	var gotMagic [4]byte
	br.readRaw(gotMagic[:])
	if br.err == nil && gotMagic != magic {
		br.err = fmt.Errorf("resultio: bad magic bytes %q", gotMagic[:])
	}

	var header [4]byte
	br.readRaw(header[:])
	if br.err == nil && header[0] != formatVersion {
		br.err = fmt.Errorf("resultio: unsupported format version %d", header[0])
	}
	if br.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, br.err)
	}

	data := profiler.BundleData{
		FrameDataMissing: header[1] != 0,
		AnyRecords:       header[2] != 0,
		WithCookie:       header[3] != 0,
	}

	data.ThreadNames = readThreadNames(br)
	data.Frames = readFrames(br)
	data.Tags = readTags(br)
	data.Scopes = readScopes(br)
	data.ThreadEvents, data.ThreadMaxDepth = readEvents(br, len(data.ThreadNames), data.WithCookie)

	if br.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, br.err)
	}

	return profiler.NewBundle(data), nil
}

// LoadFile opens path and deserializes a Bundle from it. Returns
// ErrDeserialize (wrapping the underlying cause) on any I/O or validation
// failure, mirroring spec.md §4.7's load_from_file returning none. A
// WithLogger option reports the failure at Error level before it is
// returned.
func LoadFile(path string, opts ...IOOption) (*profiler.Bundle, error) {
	var cfg ioConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrDeserialize, err)
		cfg.logAnomaly("failed to open bundle file", wrapped)
		return nil, wrapped
	}
	defer f.Close()

	b, err := ReadFrom(f)
	if err != nil {
		cfg.logAnomaly("failed to read bundle file", err)
	}
	return b, err
}

func readThreadNames(br *byteReader) []string {
	count := br.readU64()
	names := make([]string, count)
	for i := range names {
		names[i] = br.readString()
	}
	return names
}

func readFrames(br *byteReader) []profiler.FrameData {
	count := br.readU64()
	frames := make([]profiler.FrameData, count)
	for i := range frames {
		frames[i] = profiler.FrameData{
			Number: br.readU64(),
			Start:  br.readI64(),
			End:    br.readI64(),
		}
	}
	return frames
}

func readTags(br *byteReader) []profiler.TagInfo {
	count := br.readU64()
	tags := make([]profiler.TagInfo, count)
	for i := range tags {
		id := br.readU32()
		name := br.readString()
		var rgba [4]byte
		br.readRaw(rgba[:])
		tags[i] = profiler.TagInfo{
			ID:   int32(id),
			Name: name,
			R:    rgba[0],
			G:    rgba[1],
			B:    rgba[2],
			A:    rgba[3],
		}
	}
	return tags
}

func readScopes(br *byteReader) map[profiler.ScopeKey]*profiler.ScopeInfo {
	count := br.readU64()
	scopes := make(map[profiler.ScopeKey]*profiler.ScopeInfo, count)
	for i := uint64(0); i < count; i++ {
		key := br.readU32()
		tag := br.readU32()
		name := br.readString()
		function := br.readString()
		file := br.readString()
		line := br.readU32()

		info := &profiler.ScopeInfo{
			Key:      profiler.ScopeKey(key),
			Tag:      int32(tag),
			Name:     name,
			Function: function,
			File:     file,
			Line:     line,
		}
		scopes[info.Key] = info
	}
	return scopes
}

func readEvents(br *byteReader, threadCount int, withCookie bool) ([][]profiler.RecordedEvent, []int32) {
	threadEvents := make([][]profiler.RecordedEvent, threadCount)
	maxDepth := make([]int32, threadCount)

	for t := 0; t < threadCount; t++ {
		count := br.readU64()
		events := make([]profiler.RecordedEvent, count)
		for i := range events {
			e := profiler.RecordedEvent{
				Key:   profiler.ScopeKey(br.readU32()),
				Depth: br.readI32(),
				Start: br.readI64(),
				End:   br.readI64(),
			}
			if withCookie {
				e.Cookie = br.readU64()
			}
			if e.Depth > maxDepth[t] {
				maxDepth[t] = e.Depth
			}
			events[i] = e
		}
		threadEvents[t] = events
	}

	return threadEvents, maxDepth
}

// byteReader mirrors byteWriter: accumulates the first error from a
// sequence of little-endian reads.
type byteReader struct {
	r   io.Reader
	err error
}

func (br *byteReader) readRaw(p []byte) {
	if br.err != nil {
		return
	}
	_, br.err = io.ReadFull(br.r, p)
}

func (br *byteReader) readU64() uint64 {
	var buf [8]byte
	br.readRaw(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

func (br *byteReader) readI64() int64 { return int64(br.readU64()) }

func (br *byteReader) readU32() uint32 {
	var buf [4]byte
	br.readRaw(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func (br *byteReader) readI32() int32 { return int32(br.readU32()) }

func (br *byteReader) readString() string {
	var lenBuf [2]byte
	br.readRaw(lenBuf[:])
	n := binary.LittleEndian.Uint16(lenBuf[:])

	buf := make([]byte, n)
	br.readRaw(buf)
	return string(buf)
}
