package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// PageExtractor turns one document file into its ordered page texts.
type PageExtractor interface {
	ExtractPages(filePath string) ([]string, error)
}

// Extractor is the default PageExtractor: PDFs are read page by page with a
// lenient fallback, office formats are converted or parsed natively.
type Extractor struct {
	converter *Converter
}

func NewExtractor(converter *Converter) *Extractor {
	return &Extractor{converter: converter}
}

// ExtractPages dispatches on the file extension. A PDF page that cannot be
// read degrades to an empty string; only a fully unreadable file is an error.
func (e *Extractor) ExtractPages(filePath string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".pdf":
		return extractPDFPages(filePath)
	case ".docx", ".pptx", ".xlsx", ".ods", ".doc", ".ppt", ".xls":
		return e.extractOfficePages(filePath)
	case ".md", ".markdown":
		return extractMarkdownPages(filePath)
	case ".txt":
		return extractTextPages(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// IsIngestible reports whether the ingestion pipeline picks the file up.
func IsIngestible(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".doc", ".ppt", ".xls", ".md", ".markdown", ".txt":
		return true
	}
	return false
}

func extractPDFPages(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filePath, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			log.Warn().
				Err(err).
				Str("filename", filepath.Base(filePath)).
				Int("page", i).
				Msg("Skipping unreadable page")
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageText tries the plain-text extractor first and falls back to row-wise
// assembly for pages the primary path cannot decode.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()

	text, err = page.GetPlainText(nil)
	if err == nil {
		return text, nil
	}

	rows, rowErr := page.GetTextByRow()
	if rowErr != nil {
		return "", fmt.Errorf("plain text: %v, by row: %w", err, rowErr)
	}
	var b strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			b.WriteString(word.S)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// extractOfficePages prefers a best-effort PDF conversion; when no converter
// is available or conversion fails, the native extractors run instead.
func (e *Extractor) extractOfficePages(filePath string) ([]string, error) {
	if e.converter != nil && e.converter.Available() {
		pdfPath, err := e.converter.ToPDF(filePath)
		if err == nil {
			defer os.Remove(pdfPath)
			return extractPDFPages(pdfPath)
		}
		log.Warn().
			Err(err).
			Str("filename", filepath.Base(filePath)).
			Msg("Conversion failed, trying native extraction")
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".docx":
		return extractDOCXPages(filePath)
	case ".xlsx":
		return extractXLSXPages(filePath)
	case ".ods":
		return extractODSPages(filePath)
	default:
		return nil, fmt.Errorf("no extractor for %s without a converter", filepath.Ext(filePath))
	}
}

func extractTextPages(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []string{string(data)}, nil
}
