package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raganswer/internal/source"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidate_ReportsEveryMissingPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.txt", "content")
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.json")

	err := source.Validate([]source.DataSource{{Path: a}, {Path: ok}, {Path: b, Format: source.JSON}})

	var missing *source.MissingSourcesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{a, b}, missing.Paths)
	var empty *source.EmptySourcesError
	assert.False(t, errors.As(err, &empty))
}

func TestValidate_ReportsEveryEmptyPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	e1 := writeFile(t, dir, "e1.txt", "")
	e2 := writeFile(t, dir, "e2.json", "")
	ok := writeFile(t, dir, "ok.txt", "x")

	err := source.Validate([]source.DataSource{{Path: e1}, {Path: ok}, {Path: e2, Format: source.JSON}})

	var empty *source.EmptySourcesError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, []string{e1, e2}, empty.Paths)
}

func TestValidate_ReportsMissingAndEmptyTogether(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	e := writeFile(t, dir, "e.txt", "")
	m := filepath.Join(dir, "m.txt")

	err := source.Validate([]source.DataSource{{Path: m}, {Path: e}})

	var missing *source.MissingSourcesError
	var empty *source.EmptySourcesError
	require.ErrorAs(t, err, &missing)
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, []string{m}, missing.Paths)
	assert.Equal(t, []string{e}, empty.Paths)
}

func TestValidate_PassesForReadableSources(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "ok.txt", "x")
	assert.NoError(t, source.Validate([]source.DataSource{{Path: p}}))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value, path string
		want        source.Format
		wantErr     bool
	}{
		{"text", "a.json", source.Text, false},
		{"JSON", "a.txt", source.JSON, false},
		{"", "data/data.json", source.JSON, false},
		{"", "data/data.txt", source.Text, false},
		{"xml", "a.xml", 0, true},
	}
	for _, tt := range tests {
		got, err := source.ParseFormat(tt.value, tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.value+" "+tt.path)
	}
}

func TestRead_TextVerbatimAndJSONParsed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	txt := writeFile(t, dir, "data.txt", "line one\nline two\n")
	js := writeFile(t, dir, "data.json", `{"battles": ["Austerlitz"]}`)

	c, err := source.Read(source.DataSource{Path: txt})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", c.Text)
	assert.False(t, c.IsStructured())

	c, err = source.Read(source.DataSource{Path: js, Format: source.JSON})
	require.NoError(t, err)
	require.True(t, c.IsStructured())
	assert.Equal(t, map[string]any{"battles": []any{"Austerlitz"}}, c.Data)
}

func TestRead_InvalidJSONFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	js := writeFile(t, dir, "bad.json", `{"battles": [`)

	_, err := source.Read(source.DataSource{Path: js, Format: source.JSON})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestRenderJSON_FlattensDeterministically(t *testing.T) {
	t.Parallel()
	v, err := source.ParseJSON([]byte(`{
		"name": "Napoleon",
		"born": 1769,
		"emperor": true,
		"battles": ["Austerlitz", {"name": "Waterloo", "year": 1815}],
		"empty": {},
		"none": null
	}`))
	require.NoError(t, err)

	got := source.RenderJSON(v)

	want := strings.Join([]string{
		"battles[1]: Austerlitz",
		"battles[2].name: Waterloo",
		"battles[2].year: 1815",
		"born: 1769",
		"emperor: true",
		"empty: {}",
		"name: Napoleon",
		"none: null",
	}, "\n")
	assert.Equal(t, want, got)
	for i := 0; i < 5; i++ {
		assert.Equal(t, got, source.RenderJSON(v))
	}
}

func TestRenderJSON_RecoversLeafTokens(t *testing.T) {
	t.Parallel()
	raw := `{"marshals": ["Ney", "Murat"], "guard": "Garde Impériale", "year": 1804.5}`
	v, err := source.ParseJSON([]byte(raw))
	require.NoError(t, err)

	rendered := source.RenderJSON(v)

	for _, leaf := range []string{"Ney", "Murat", "Garde Impériale", "1804.5"} {
		assert.Contains(t, rendered, leaf)
	}
}

func TestRenderJSON_TopLevelScalarAndArray(t *testing.T) {
	t.Parallel()
	v, err := source.ParseJSON([]byte(`["a", "b"]`))
	require.NoError(t, err)
	assert.Equal(t, "[1]: a\n[2]: b", source.RenderJSON(v))

	v, err = source.ParseJSON([]byte(`"just text"`))
	require.NoError(t, err)
	assert.Equal(t, "just text", source.RenderJSON(v))
}

func TestValidate_DirectoryIsNotASource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.txt")

	err := source.Validate([]source.DataSource{{Path: dir}, {Path: gone}})

	var missing *source.MissingSourcesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{dir, gone}, missing.Paths)
	assert.ErrorIs(t, missing.Causes[dir], source.ErrNotRegularFile)
	assert.NotContains(t, missing.Causes, gone)
	assert.Contains(t, err.Error(), dir+": not a regular file")
}

func TestValidate_RecordsStatFailureCause(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o755))
	p := writeFile(t, locked, "data.txt", "content")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	err := source.Validate([]source.DataSource{{Path: p}})

	var missing *source.MissingSourcesError
	require.ErrorAs(t, err, &missing)
	assert.ErrorIs(t, missing.Causes[p], os.ErrPermission)
}
