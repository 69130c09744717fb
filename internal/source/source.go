// Package source describes the configured data sources and how they are
// validated, read and rendered as text.
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the on-disk encoding of a data source.
type Format int

const (
	// Text sources are indexed as raw content.
	Text Format = iota
	// JSON sources are parsed and indexed as their parsed structure.
	JSON
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat maps a config value to a Format. An empty value is inferred
// from the file extension of path.
func ParseFormat(value, path string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "":
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return JSON, nil
		}
		return Text, nil
	default:
		return 0, fmt.Errorf("unknown source format %q", value)
	}
}

// DataSource is one configured input document.
type DataSource struct {
	Path   string
	Format Format
}

// Name is the base file name used for provenance headers and uploads.
func (s DataSource) Name() string { return filepath.Base(s.Path) }

func (s DataSource) String() string { return s.Path + " (" + s.Format.String() + ")" }

// Paths returns the paths of sources in order.
func Paths(sources []DataSource) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Path
	}
	return out
}
