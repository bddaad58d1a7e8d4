// Package tagconfig loads the application-supplied tag table (spec.md
// §4.6, §6.4) from a TOML file, the way cmd/surge loads surge.toml: decode
// into a plain struct, then check the decode metadata for the fields that
// matter before trusting the zero value.
package tagconfig

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// ErrSparseTagTable is returned when a tag file's ids are not the dense
// range [0, N) spec.md §4.6 requires for an O(1) lookup table.
var ErrSparseTagTable = errors.New("tagconfig: tag ids must be dense, starting at 0")

// ErrInvalidColor is returned when a tag's color string isn't a valid
// "#rrggbb" or "#rrggbbaa" hex triple/quad.
var ErrInvalidColor = errors.New("tagconfig: invalid color")

// ErrDuplicateTagID is returned when two [[tags]] entries share an id.
var ErrDuplicateTagID = errors.New("tagconfig: duplicate tag id")

type fileFormat struct {
	Tags []Entry `toml:"tags"`
}

// Entry is a single [[tags]] row, exported so callers can build a table
// with Parse instead of going through a file on disk (e.g. in tests).
type Entry struct {
	ID    int32  `toml:"id"`
	Name  string `toml:"name"`
	Color string `toml:"color"`
}

// Provider is a profiler.TagProvider backed by a loaded TOML tag table. Tag
// 0 is always present even if the file is empty, matching
// profiler.NoTag's reserved meaning.
type Provider struct {
	names  []string
	colors [][4]uint8
}

var _ profiler.TagProvider = (*Provider)(nil)

// Load reads and validates a tag table from path.
func Load(path string) (*Provider, error) {
	var doc fileFormat
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if !meta.IsDefined("tags") || len(doc.Tags) == 0 {
		return &Provider{
			names:  []string{""},
			colors: [][4]uint8{{0, 0, 0, 0}},
		}, nil
	}

	return build(path, doc.Tags)
}

// Parse validates and builds a Provider directly from decoded entries,
// useful for tests and for embedding tag tables without a file on disk.
func Parse(path string, entries []Entry) (*Provider, error) {
	return build(path, entries)
}

func build(path string, entries []Entry) (*Provider, error) {
	byID := make(map[int32]Entry, len(entries))
	maxID := int32(-1)
	for _, e := range entries {
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("%s: %w: %d", path, ErrDuplicateTagID, e.ID)
		}
		byID[e.ID] = e
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	if _, ok := byID[profiler.NoTag]; !ok {
		return nil, fmt.Errorf("%s: %w: missing id 0", path, ErrSparseTagTable)
	}

	names := make([]string, maxID+1)
	colors := make([][4]uint8, maxID+1)
	for id := int32(0); id <= maxID; id++ {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s: %w: missing id %d", path, ErrSparseTagTable, id)
		}
		rgba, err := parseColor(e.Color)
		if err != nil {
			return nil, fmt.Errorf("%s: tag %d (%s): %w", path, id, e.Name, err)
		}
		names[id] = e.Name
		colors[id] = rgba
	}

	return &Provider{names: names, colors: colors}, nil
}

func parseColor(s string) ([4]uint8, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 6:
		s += "ff"
	case 8:
	case 0:
		return [4]uint8{0, 0, 0, 0}, nil
	default:
		return [4]uint8{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [4]uint8{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	return [4]uint8{
		uint8(v >> 24),
		uint8(v >> 16),
		uint8(v >> 8),
		uint8(v),
	}, nil
}

// Count implements profiler.TagProvider.
func (p *Provider) Count() int32 { return int32(len(p.names)) }

// Name implements profiler.TagProvider.
func (p *Provider) Name(tag int32) string {
	if tag < 0 || int(tag) >= len(p.names) {
		return ""
	}
	return p.names[tag]
}

// Color implements profiler.TagProvider.
func (p *Provider) Color(tag int32) (r, g, b, a uint8) {
	if tag < 0 || int(tag) >= len(p.colors) {
		return 0, 0, 0, 0
	}
	c := p.colors[tag]
	return c[0], c[1], c[2], c[3]
}

// Entries returns a sorted snapshot of this table, id 0 first, for callers
// (e.g. cmd/iyfrdump's tags subcommand) that want to print it.
func (p *Provider) Entries() []profiler.TagInfo {
	out := make([]profiler.TagInfo, len(p.names))
	for id := range p.names {
		r, g, b, a := p.Color(int32(id))
		out[id] = profiler.TagInfo{ID: int32(id), Name: p.names[id], R: r, G: g, B: b, A: a}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
