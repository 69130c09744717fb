// Package fallback builds the raw-text corpus used when the retrieval
// engine cannot answer, and searches it lexically.
package fallback

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"raganswer/internal/logger"
	"raganswer/internal/source"
)

const (
	// HeaderPrefix starts the provenance line written above each section.
	HeaderPrefix = "### Source: "
	// sectionSeparator joins per-source sections.
	sectionSeparator = "\n\n"
)

// Header returns the provenance header written above a source's section.
func Header(s source.DataSource) string {
	return HeaderPrefix + s.Name()
}

// Assemble reads every source and concatenates the readable ones, each under
// its provenance header, in configuration order. Sources are read
// concurrently. Unreadable sources are logged and skipped. The boolean is
// false when nothing could be read.
func Assemble(ctx context.Context, sources []source.DataSource, log logger.Logger) (string, bool) {
	if log == nil {
		log = logger.NewNop()
	}
	sections := make([]string, len(sources))
	g, _ := errgroup.WithContext(ctx)
	for i, s := range sources {
		g.Go(func() error {
			text, err := source.ReadText(s)
			if err != nil {
				log.Warn("fallback source unreadable, skipping", "source", s.Path, "error", err)
				return nil
			}
			sections[i] = Header(s) + "\n" + strings.TrimSpace(text)
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		if sec != "" {
			parts = append(parts, sec)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, sectionSeparator), true
}

// IsHeader reports whether a corpus line is a provenance header.
func IsHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), HeaderPrefix)
}
