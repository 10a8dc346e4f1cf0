// Package extract pulls plain text out of stored case documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/veralex-legal/casebrain/internal/domain"
)

const maxDownloadBytes = 50 * 1024 * 1024

var pdfMagic = []byte("%PDF-")

// Result holds the extracted text of a document.
// Text may be empty on a successful extraction; the caller decides
// whether that is a failure condition.
type Result struct {
	Text  string
	Pages int
}

// Extractor downloads a document by URL and extracts its text content.
type Extractor struct {
	client *http.Client
}

func NewExtractor() *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func NewExtractorWithClient(client *http.Client) *Extractor {
	return &Extractor{client: client}
}

// ExtractText fetches the file at fileURL and returns its concatenated
// plain text. PDFs are detected by MIME type or the %PDF- signature;
// everything else is treated as plain text.
func (e *Extractor) ExtractText(ctx context.Context, fileURL, mimeType string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("invalid file url: %w", err))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("failed to download file: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExtractionError(fmt.Errorf("failed to download file: HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("failed to read file body: %w", err))
	}
	if len(data) > maxDownloadBytes {
		return nil, domain.NewExtractionError(fmt.Errorf("file exceeds %d byte download limit", maxDownloadBytes))
	}

	if isPDF(data, mimeType) {
		return extractPDF(data)
	}

	return &Result{Text: string(data)}, nil
}

func isPDF(data []byte, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// extractPDF concatenates the text layer of every page in reading order.
// Unreadable pages are skipped; a PDF with no readable pages at all is
// reported as corrupt rather than returned empty.
func extractPDF(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("failed to open pdf: %w", err))
	}

	pageCount := reader.NumPage()
	var builder strings.Builder
	readable := 0

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("extract: failed to read pdf page %d: %v", i, err)
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n")
		readable++
	}

	if pageCount > 0 && readable == 0 {
		return nil, domain.NewExtractionError(fmt.Errorf("pdf has %d pages but no readable text layer", pageCount))
	}

	return &Result{Text: builder.String(), Pages: pageCount}, nil
}
