package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileProviderParsesBullets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.md")
	content := `# Portfolio notes

Some prose that is not a bullet.

- heavy tech concentration
* gold position opened in March
- watching real-estate exposure
- bullet four
- bullet five
- bullet six
- bullet seven should be dropped
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got := FileProvider{Path: path}.Context(context.Background())
	if got.Source != "memory-file" {
		t.Errorf("source = %q, want memory-file", got.Source)
	}
	if len(got.Highlights) != maxHighlights {
		t.Fatalf("highlights = %d, want %d", len(got.Highlights), maxHighlights)
	}
	if got.Highlights[0] != "heavy tech concentration" {
		t.Errorf("highlights[0] = %q", got.Highlights[0])
	}
	if got.Highlights[1] != "gold position opened in March" {
		t.Errorf("highlights[1] = %q", got.Highlights[1])
	}
	if got.RawExcerpt == "" {
		t.Error("raw excerpt missing")
	}
}

func TestFileProviderFallsBackToMock(t *testing.T) {
	got := FileProvider{Path: filepath.Join(t.TempDir(), "missing.md")}.Context(context.Background())
	if got.Source != "mock" {
		t.Errorf("source = %q, want mock fallback", got.Source)
	}
	if len(got.Highlights) == 0 {
		t.Error("mock fallback has no highlights")
	}
}
