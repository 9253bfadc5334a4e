package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// DocxExtractor reads the main document part of a .docx archive. A docx is a
// zip holding word/document.xml; paragraph runs become lines.
type DocxExtractor struct{}

func (DocxExtractor) Extract(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", types.E(types.StageExtract, types.KindInput, err)
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", types.E(types.StageExtract, types.KindInput,
		errors.New("docx archive has no word/document.xml"))
}

func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", types.E(types.StageExtract, types.KindInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return "", types.E(types.StageExtract, types.KindInput, err)
				}
				b.WriteString(text)
			}
		case xml.EndElement:
			// paragraph boundary
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}

// XLSXExtractor renders every sheet as a banner line followed by
// " | "-joined rows.
type XLSXExtractor struct{}

func (XLSXExtractor) Extract(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	defer wb.Close()

	var parts []string
	for _, sheet := range wb.GetSheetList() {
		parts = append(parts, fmt.Sprintf("--- Sheet: %s ---", sheet))
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", types.E(types.StageExtract, types.KindInput, err)
		}
		for _, row := range rows {
			parts = append(parts, strings.Join(row, " | "))
		}
	}
	return strings.Join(parts, "\n"), nil
}
