// ABOUTME: Loads the source document from a PDF, a text file or a URL
// ABOUTME: Produces page texts plus cumulative page ends for page attribution
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// MaxDownloadBytes caps remote documents
const MaxDownloadBytes = 50 << 20

// pageSeparator joins page texts into the document text
const pageSeparator = "\n"

// formFeed separates pages in plain-text documents
const formFeed = "\f"

// Document is the loaded text of one source
type Document struct {
	Source string
	Pages  []string
	Text   string
	// PageLengths holds the cumulative end offset of each page in Text,
	// counting the separator that follows it
	PageLengths []int
}

// FromPages assembles a Document from page texts
func FromPages(source string, pages []string) *Document {
	doc := &Document{
		Source:      source,
		Pages:       pages,
		Text:        strings.Join(pages, pageSeparator),
		PageLengths: make([]int, len(pages)),
	}
	total := 0
	for i, p := range pages {
		total += len(p) + len(pageSeparator)
		doc.PageLengths[i] = total
	}
	return doc
}

// Loader reads documents from disk or over HTTP
type Loader struct {
	client *http.Client
	logger *log.Logger
}

// NewLoader creates a Loader; a zero timeout disables the download deadline
func NewLoader(timeout time.Duration, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
		logger: logger.WithPrefix("document"),
	}
}

// Load reads source, which is a file path or an http(s) URL
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if source == "" {
		return nil, fmt.Errorf("document source cannot be empty")
	}

	var (
		data  []byte
		isPDF bool
		err   error
	)
	if isURL(source) {
		data, isPDF, err = l.download(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		isPDF = strings.EqualFold(filepath.Ext(source), ".pdf")
	}
	if err != nil {
		return nil, err
	}

	if !isPDF && bytes.HasPrefix(data, []byte("%PDF-")) {
		isPDF = true
	}

	var pages []string
	if isPDF {
		pages, err = l.pdfPages(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF %s: %w", source, err)
		}
	} else {
		pages = strings.Split(string(data), formFeed)
	}

	doc := FromPages(source, pages)
	l.logger.Info("document loaded", "source", source, "pages", len(pages), "bytes", len(doc.Text))
	return doc, nil
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, false, fmt.Errorf("document %s exceeds %d bytes", url, MaxDownloadBytes)
	}

	isPDF := strings.Contains(resp.Header.Get("Content-Type"), "application/pdf") ||
		strings.HasSuffix(strings.ToLower(req.URL.Path), ".pdf")
	return data, isPDF, nil
}

func (l *Loader) pdfPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("failed to extract page text", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
