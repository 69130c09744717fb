package fallback_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raganswer/internal/fallback"
	"raganswer/internal/source"
)

func TestSearch_ReturnsMatchingLinesInCorpusOrder(t *testing.T) {
	t.Parallel()
	corpus := "Napoleon was a French emperor.\n\nThe sky is blue.\nAusterlitz was a victory for NAPOLEON.\n"

	got := fallback.Search(corpus, "napoleon", 5)

	assert.Equal(t, "Napoleon was a French emperor. Austerlitz was a victory for NAPOLEON.", got)
}

func TestSearch_StopsAtTopK(t *testing.T) {
	t.Parallel()
	corpus := "alpha one\nalpha two\nalpha three"

	assert.Equal(t, "alpha one alpha two", fallback.Search(corpus, "alpha", 2))
}

func TestSearch_NonPositiveTopKMeansOne(t *testing.T) {
	t.Parallel()
	corpus := "alpha one\nalpha two"

	assert.Equal(t, "alpha one", fallback.Search(corpus, "alpha", 0))
	assert.Equal(t, "alpha one", fallback.Search(corpus, "alpha", -3))
}

func TestSearch_NoMatchEchoesQuestion(t *testing.T) {
	t.Parallel()

	got := fallback.Search("nothing relevant here", "Who was Caesar?", 3)

	assert.Equal(t, fallback.NoMatchAnswer("Who was Caesar?"), got)
	assert.Contains(t, got, "Who was Caesar?")
}

func TestSearch_TrimsPunctuationFromTokens(t *testing.T) {
	t.Parallel()

	got := fallback.Search("Napoleon Bonaparte\nunrelated", "Napoleon?", 5)

	assert.Equal(t, "Napoleon Bonaparte", got)
}

func TestSearch_TruncatesToCharacterBudget(t *testing.T) {
	t.Parallel()
	line := strings.Repeat("é", 1500)
	corpus := line + "\n" + line

	got := fallback.Search(corpus, "é", 2)

	assert.Equal(t, fallback.MaxAnswerChars, len([]rune(got)))
}

func TestSearch_IsDeterministicAndBoundedInLines(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("match line\n")
	}
	corpus := b.String()

	for _, k := range []int{-1, 0, 1, 3, 7} {
		first := fallback.Search(corpus, "match", k)
		assert.Equal(t, first, fallback.Search(corpus, "match", k))
		assert.LessOrEqual(t, strings.Count(first, "match line"), max(k, 1))
	}
}

func TestAssemble_SectionsInConfiguredOrderWithHeaders(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	txt := filepath.Join(dir, "data.txt")
	js := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(txt, []byte("Napoleon was a French emperor.\n"), 0o644))
	require.NoError(t, os.WriteFile(js, []byte(`{"battles": ["Austerlitz"]}`), 0o644))
	sources := []source.DataSource{{Path: js, Format: source.JSON}, {Path: txt}}

	got, ok := fallback.Assemble(context.Background(), sources, nil)

	require.True(t, ok)
	want := "### Source: data.json\nbattles[1]: Austerlitz\n\n### Source: data.txt\nNapoleon was a French emperor."
	assert.Equal(t, want, got)
	again, _ := fallback.Assemble(context.Background(), sources, nil)
	assert.Equal(t, got, again)
}

func TestAssemble_SkipsUnreadableSources(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	txt := filepath.Join(dir, "data.txt")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	sources := []source.DataSource{
		{Path: filepath.Join(dir, "missing.txt")},
		{Path: bad, Format: source.JSON},
		{Path: txt},
	}

	got, ok := fallback.Assemble(context.Background(), sources, nil)

	require.True(t, ok)
	assert.Equal(t, "### Source: data.txt\nhello", got)
}

func TestAssemble_AbsentWhenNothingReadable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got, ok := fallback.Assemble(context.Background(), []source.DataSource{{Path: filepath.Join(dir, "nope.txt")}}, nil)

	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestSearch_SkipsProvenanceHeaders(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	txt := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Napoleon was a French emperor."), 0o644))
	corpus, ok := fallback.Assemble(context.Background(), []source.DataSource{{Path: txt}}, nil)
	require.True(t, ok)

	assert.Equal(t, "Napoleon was a French emperor.", fallback.Search(corpus, "Is Napoleon a French emperor?", 1))
	assert.Equal(t, fallback.NoMatchAnswer("source data"), fallback.Search(corpus, "source data", 3))
	assert.True(t, fallback.IsHeader(fallback.Header(source.DataSource{Path: txt})))
	assert.False(t, fallback.IsHeader("Napoleon was a French emperor."))
}
