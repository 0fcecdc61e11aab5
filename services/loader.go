package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"docchat-platform/internal/logger"
)

// DocumentUnit is one extractable unit of a document: a PDF page, a
// spreadsheet sheet, or a whole plain-text file. Page numbers are 1-based.
type DocumentUnit struct {
	Text string
	Page int
}

// DocumentLoader extracts plain text plus per-unit metadata from a stored
// file, dispatched on the file extension.
type DocumentLoader struct{}

func NewDocumentLoader() *DocumentLoader {
	return &DocumentLoader{}
}

// Supported reports whether a loader exists for the extension (lower-case,
// no leading dot).
func (l *DocumentLoader) Supported(ext string) bool {
	switch ext {
	case "pdf", "txt", "md", "html", "htm", "docx", "xlsx":
		return true
	}
	return false
}

// Load extracts the document's text units. Unsupported extensions fail with
// ErrUnsupportedType.
func (l *DocumentLoader) Load(filePath, ext string) ([]DocumentUnit, error) {
	switch strings.ToLower(ext) {
	case "pdf":
		return l.loadPDF(filePath)
	case "txt", "md":
		return l.loadPlainText(filePath)
	case "html", "htm":
		return l.loadHTML(filePath)
	case "docx":
		return l.loadDocx(filePath)
	case "xlsx":
		return l.loadXLSX(filePath)
	default:
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
}

func (l *DocumentLoader) loadPDF(filePath string) ([]DocumentUnit, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var units []DocumentUnit
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, DocumentUnit{Text: text, Page: i})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("no text extracted from PDF")
	}
	return units, nil
}

func (l *DocumentLoader) loadPlainText(filePath string) ([]DocumentUnit, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("file is empty")
	}
	return []DocumentUnit{{Text: text, Page: 1}}, nil
}

func (l *DocumentLoader) loadHTML(filePath string) ([]DocumentUnit, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open HTML file: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}
	if text == "" {
		return nil, fmt.Errorf("no text extracted from HTML")
	}
	return []DocumentUnit{{Text: collapseWhitespace(text), Page: 1}}, nil
}

// docx is a zip archive; the document body lives in word/document.xml. We
// walk the XML and collect w:t character data, inserting breaks at
// paragraph ends.
func (l *DocumentLoader) loadDocx(filePath string) ([]DocumentUnit, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	defer zr.Close()

	var docXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("docx has no word/document.xml")
	}

	rc, err := docXML.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read docx body: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from docx")
	}
	return []DocumentUnit{{Text: text, Page: 1}}, nil
}

// xlsx: one unit per sheet, sheet index as the page number, rows joined
// with tabs so cell adjacency survives into the chunk text.
func (l *DocumentLoader) loadXLSX(filePath string) ([]DocumentUnit, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	var units []DocumentUnit
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("failed to read sheet", "sheet", sheet, "error", err)
			continue
		}
		var sb strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		units = append(units, DocumentUnit{Text: text, Page: i + 1})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("no text extracted from xlsx")
	}
	return units, nil
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
