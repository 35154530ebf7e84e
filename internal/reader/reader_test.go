package reader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dslipak/pdf"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
)

type stubLoader struct {
	segments []docmodel.Segment
}

func (s *stubLoader) Load(path string) ([]docmodel.Segment, error) {
	return s.segments, nil
}

func TestRead_UnsupportedFormat(t *testing.T) {
	r := New()
	_, err := r.Read("image.png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRead_TextAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"note.txt", "note.md"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("Paris is the capital of France."), 0644); err != nil {
			t.Fatal(err)
		}

		segments, err := New().Read(path)
		if err != nil {
			t.Fatalf("Read(%s) failed: %v", name, err)
		}
		if len(segments) != 1 {
			t.Fatalf("expected 1 segment for %s, got %d", name, len(segments))
		}
		if segments[0].Text != "Paris is the capital of France." {
			t.Errorf("unexpected content: %q", segments[0].Text)
		}
		if segments[0].Metadata.Source != path {
			t.Errorf("source metadata got %q, want %q", segments[0].Metadata.Source, path)
		}
	}
}

func TestRegister_CustomLoader(t *testing.T) {
	r := New()
	r.Register(".csv", &stubLoader{segments: []docmodel.Segment{{Text: "a,b"}}})

	if !r.Supported("data.CSV") {
		t.Error("registered extension should be supported case-insensitively")
	}
	segments, err := r.Read("data.csv")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "a,b" {
		t.Errorf("custom loader not dispatched: %+v", segments)
	}
}

func TestPageToMarkdown_Heuristics(t *testing.T) {
	texts := []pdf.Text{
		{S: "Big Title", FontSize: 24, Font: "Helvetica", X: 10, Y: 700},
		{S: "Section", FontSize: 16, Font: "Helvetica", X: 10, Y: 650},
		{S: "plain body text", FontSize: 11, Font: "Helvetica", X: 10, Y: 600},
		{S: "strong", FontSize: 11, Font: "Helvetica-Bold", X: 10, Y: 550},
		{S: "slanted", FontSize: 11, Font: "Times-Italic", X: 10, Y: 500},
	}

	md := pageToMarkdown(texts)

	for _, want := range []string{"# Big Title", "## Section", "plain body text", "**strong**", "*slanted*"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestGroupIntoLines_OrdersTopToBottom(t *testing.T) {
	texts := []pdf.Text{
		{S: "second", FontSize: 11, Y: 500, X: 10},
		{S: "first", FontSize: 11, Y: 700, X: 10},
		{S: "line", FontSize: 11, Y: 700.5, X: 50},
	}

	lines := groupIntoLines(texts)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].spans[0].S != "first" {
		t.Errorf("top line should come first, got %q", lines[0].spans[0].S)
	}
	if len(lines[0].spans) != 2 {
		t.Errorf("spans on the same baseline should merge, got %d", len(lines[0].spans))
	}
}
