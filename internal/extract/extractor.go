// Package extract turns uploaded or watched files into plain text plus a content profile
// used by the quality scorer.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is a recognised source format.
type Format string

const (
	FormatPlain Format = "plain"
	FormatPDF   Format = "pdf"
	FormatSheet Format = "spreadsheet"
	FormatDOCX  Format = "docx"
	FormatPPTX  Format = "pptx"
	FormatODF   Format = "opendocument"
)

var formatsByExt = map[string]Format{
	".txt":  FormatPlain,
	".md":   FormatPlain,
	".rst":  FormatPlain,
	".csv":  FormatPlain,
	".html": FormatPlain,
	".pdf":  FormatPDF,
	".xlsx": FormatSheet,
	".docx": FormatDOCX,
	".pptx": FormatPPTX,
	".odt":  FormatODF,
	".odp":  FormatODF,
	".ods":  FormatODF,
}

// Result is the text of one file with its profile.
type Result struct {
	Text    string
	Format  Format
	Profile Profile
}

// Extractor extracts text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) has a dedicated extractor.
func Supported(ext string) bool {
	_, ok := formatsByExt[strings.ToLower(ext)]
	return ok
}

// Extract reads the file at path and extracts it by extension.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content. Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Result, error) {
	format, ok := formatsByExt[strings.ToLower(ext)]
	if !ok {
		format = FormatPlain
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(content)
	case FormatSheet:
		text, err = extractSheet(content)
	case FormatDOCX, FormatPPTX, FormatODF:
		text, err = extractOffice(content, format)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Format: format, Profile: Analyze(text)}, nil
}
