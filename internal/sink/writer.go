package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"ytcomments/internal/scraper"
)

// Output formats of Writer.
const (
	FormatJSONL    = "jsonl"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Writer streams records to an io.Writer, one record per Append.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	format string

	enc       *json.Encoder
	csv       *csv.Writer
	converter *md.Converter
	wroteHead bool
}

// NewWriter returns a Writer in the given format. If w is an io.Closer it is
// closed by Close.
func NewWriter(w io.Writer, format string) (*Writer, error) {
	sw := &Writer{w: w, format: strings.ToLower(format)}
	if c, ok := w.(io.Closer); ok {
		sw.closer = c
	}
	switch sw.format {
	case FormatJSONL:
		sw.enc = json.NewEncoder(w)
		sw.enc.SetEscapeHTML(false)
	case FormatCSV:
		sw.csv = csv.NewWriter(w)
	case FormatMarkdown:
		sw.converter = md.NewConverter("", true, nil)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return sw, nil
}

// InferFormat infers the output format from a file extension. It returns
// "" when the extension is not recognised.
func InferFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return ""
	}
}

func (s *Writer) Append(_ context.Context, c scraper.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case FormatJSONL:
		return s.enc.Encode(c)
	case FormatCSV:
		if !s.wroteHead {
			if err := s.csv.Write([]string{"videoUrl", "username", "timestamp", "comment"}); err != nil {
				return err
			}
			s.wroteHead = true
		}
		if err := s.csv.Write([]string{c.VideoURL, c.Username, c.Timestamp, c.Comment}); err != nil {
			return err
		}
		s.csv.Flush()
		return s.csv.Error()
	default:
		return s.appendMarkdown(c)
	}
}

// appendMarkdown renders the record as HTML and converts it, so comment
// text with markdown metacharacters comes out escaped.
func (s *Writer) appendMarkdown(c scraper.Comment) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s · %s</h2>", html.EscapeString(c.Username), html.EscapeString(c.Timestamp))
	for _, line := range strings.Split(c.Comment, "\n") {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}
	fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, html.EscapeString(c.VideoURL), html.EscapeString(c.VideoURL))

	out, err := s.converter.ConvertString(b.String())
	if err != nil {
		return fmt.Errorf("failed to convert comment to markdown: %w", err)
	}
	_, err = io.WriteString(s.w, out+"\n\n---\n\n")
	return err
}

func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.csv != nil {
		s.csv.Flush()
		if err := s.csv.Error(); err != nil {
			return err
		}
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
