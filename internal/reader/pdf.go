package reader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dslipak/pdf"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
)

// Font-size cutoffs for the markdown reconstruction. Best effort: real
// heading sizes vary by document, these just have to separate "clearly
// large" from body text.
const (
	headingOneMinSize = 18.0
	headingTwoMinSize = 14.0
	lineYTolerance    = 2.0
)

// PDFToMarkdownLoader produces one segment per page and reconstructs an
// approximate markdown rendering from font metrics: large spans become
// headings, bold and italic fonts become emphasis. Image and vector content
// is not present in the text stream and is skipped implicitly.
type PDFToMarkdownLoader struct{}

func (l *PDFToMarkdownLoader) Load(path string) ([]docmodel.Segment, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	totalPages := f.NumPage()
	var segments []docmodel.Segment
	for i := 1; i <= totalPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		texts, err := guardedContent(page)
		if err != nil {
			// a broken page should not sink the whole document
			continue
		}

		markdown := pageToMarkdown(texts)
		if strings.TrimSpace(markdown) == "" {
			continue
		}

		segments = append(segments, docmodel.Segment{
			Text: markdown,
			Metadata: docmodel.SegmentMetadata{
				Source:     path,
				Page:       i,
				TotalPages: totalPages,
			},
		})
	}
	return segments, nil
}

// guardedContent bounds the extraction of a single page; malformed PDFs can
// make the parser spin.
func guardedContent(page pdf.Page) ([]pdf.Text, error) {
	type result struct {
		texts []pdf.Text
		err   error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{nil, fmt.Errorf("pdf content panic: %v", r)}
			}
		}()
		content := page.Content()
		resChan <- result{content.Text, nil}
	}()

	select {
	case r := <-resChan:
		return r.texts, r.err
	case <-time.After(10 * time.Second):
		return nil, errors.New("timeout extracting page content")
	}
}

type pdfLine struct {
	y     float64
	spans []pdf.Text
}

func pageToMarkdown(texts []pdf.Text) string {
	lines := groupIntoLines(texts)

	var b strings.Builder
	for _, line := range lines {
		rendered := renderLine(line.spans)
		if strings.TrimSpace(rendered) == "" {
			continue
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	return b.String()
}

// groupIntoLines clusters spans that share a baseline. PDF text order is
// whatever the producer emitted, so spans are re-sorted top-to-bottom and
// left-to-right.
func groupIntoLines(texts []pdf.Text) []pdfLine {
	var lines []pdfLine
	for _, t := range texts {
		placed := false
		for i := range lines {
			if t.Y > lines[i].y-lineYTolerance && t.Y < lines[i].y+lineYTolerance {
				lines[i].spans = append(lines[i].spans, t)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, pdfLine{y: t.Y, spans: []pdf.Text{t}})
		}
	}

	// PDF origin is bottom-left: larger Y means higher on the page
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	for i := range lines {
		spans := lines[i].spans
		sort.SliceStable(spans, func(a, b int) bool { return spans[a].X < spans[b].X })
	}
	return lines
}

func renderLine(spans []pdf.Text) string {
	maxSize := 0.0
	var b strings.Builder
	for _, s := range spans {
		if s.FontSize > maxSize {
			maxSize = s.FontSize
		}
		b.WriteString(styleSpan(s))
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return ""
	}

	switch {
	case maxSize > headingOneMinSize:
		return "# " + text
	case maxSize > headingTwoMinSize:
		return "## " + text
	default:
		return text
	}
}

func styleSpan(s pdf.Text) string {
	text := s.S
	if strings.TrimSpace(text) == "" {
		return text
	}
	font := strings.ToLower(s.Font)
	switch {
	case strings.Contains(font, "bold"):
		return "**" + text + "**"
	case strings.Contains(font, "italic"), strings.Contains(font, "oblique"):
		return "*" + text + "*"
	default:
		return text
	}
}
