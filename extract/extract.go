// Package extract produces cleaned UTF-8 text from source documents.
// Supported: .pdf, .txt, .md, .docx, .csv, .json, .xlsx.
package extract

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// TextExtractor reads one source format and returns its raw text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Registry dispatches on the lowercased file extension. The rest of the
// pipeline never branches on format.
type Registry struct {
	readers map[string]TextExtractor
}

func NewRegistry(cfg types.Config) *Registry {
	pdf := &PDFExtractor{CropTop: cfg.PDFCropTop, CropBottom: cfg.PDFCropBottom}
	plain := PlainTextExtractor{}
	return &Registry{
		readers: map[string]TextExtractor{
			".pdf":  pdf,
			".txt":  plain,
			".md":   plain, // markdown is plain text
			".docx": DocxExtractor{},
			".csv":  CSVExtractor{},
			".json": JSONExtractor{},
			".xlsx": XLSXExtractor{},
		},
	}
}

// Supported reports whether ext (with leading dot, any case) has a reader.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.readers[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns the recognized extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract pulls text from the file at path and cleans it. An unrecognized
// extension is an input error, rejected before the file is even opened.
func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	reader, ok := r.readers[ext]
	if !ok {
		return "", types.Ef(types.StageExtract, types.KindInput,
			"unsupported format %q, supported: %s", ext, strings.Join(r.SupportedExtensions(), ", "))
	}
	if _, err := os.Stat(path); err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	raw, err := reader.Extract(path)
	if err != nil {
		return "", err
	}
	return clean(raw), nil
}

// clean strips carriage returns, trims every line, and drops blank lines.
func clean(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
