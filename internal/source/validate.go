package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// MissingSourcesError lists every configured path that is not a readable
// regular file. Causes holds the reason for paths that exist but could not
// be used, such as a permission error or a directory.
type MissingSourcesError struct {
	Paths  []string
	Causes map[string]error
}

func (e *MissingSourcesError) Error() string {
	msg := fmt.Sprintf("data sources not found: %s", strings.Join(e.Paths, ", "))
	var why []string
	for _, p := range e.Paths {
		if err, ok := e.Causes[p]; ok {
			why = append(why, fmt.Sprintf("%s: %v", p, err))
		}
	}
	if len(why) > 0 {
		msg += " (" + strings.Join(why, "; ") + ")"
	}
	return msg
}

// EmptySourcesError lists every configured path that exists but is empty.
type EmptySourcesError struct {
	Paths []string
}

func (e *EmptySourcesError) Error() string {
	return fmt.Sprintf("data sources are empty: %s", strings.Join(e.Paths, ", "))
}

// ErrNotRegularFile is the cause recorded for a source path that is a
// directory or other non-regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// Validate checks every source for existence and non-emptiness. All sources
// are inspected before failing. When both conditions occur the returned
// error joins a *MissingSourcesError and an *EmptySourcesError.
func Validate(sources []DataSource) error {
	var missing, empty []string
	causes := make(map[string]error)
	for _, s := range sources {
		info, err := os.Stat(s.Path)
		switch {
		case err != nil:
			missing = append(missing, s.Path)
			if !errors.Is(err, fs.ErrNotExist) {
				causes[s.Path] = err
			}
		case !info.Mode().IsRegular():
			missing = append(missing, s.Path)
			causes[s.Path] = ErrNotRegularFile
		case info.Size() == 0:
			empty = append(empty, s.Path)
		}
	}
	var errs []error
	if len(missing) > 0 {
		m := &MissingSourcesError{Paths: missing}
		if len(causes) > 0 {
			m.Causes = causes
		}
		errs = append(errs, m)
	}
	if len(empty) > 0 {
		errs = append(errs, &EmptySourcesError{Paths: empty})
	}
	return errors.Join(errs...)
}
