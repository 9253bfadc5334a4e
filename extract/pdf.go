package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// PDFExtractor pulls plain text out of a PDF. When crop margins are set, the
// pages are cropped first so repeating headers and footers stay out of the
// chunk stream.
type PDFExtractor struct {
	// CropTop and CropBottom are in points (1 pt = 1/72 inch), 0 disables.
	CropTop    float64
	CropBottom float64
}

func (p *PDFExtractor) Extract(path string) (string, error) {
	src := path
	if p.CropTop > 0 || p.CropBottom > 0 {
		tmp, err := cropTempPath()
		if err != nil {
			return "", err
		}
		defer os.Remove(tmp)
		if err := cropHeaderFooter(path, tmp, p.CropTop, p.CropBottom); err != nil {
			return "", err
		}
		src = tmp
	}

	f, reader, err := pdf.Open(src)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	defer f.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	return buf.String(), nil
}

// cropTempPath reserves a unique destination for the cropped copy, so
// overlapping extractions of same-named files never share an output file.
func cropTempPath() (string, error) {
	f, err := os.CreateTemp("", "cropped-*.pdf")
	if err != nil {
		return "", types.E(types.StageExtract, types.KindState, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", types.E(types.StageExtract, types.KindState, err)
	}
	return f.Name(), nil
}

// cropHeaderFooter trims the top and bottom page margins of a PDF.
func cropHeaderFooter(inputPath, outputPath string, top, bottom float64) error {
	conf := api.LoadConfiguration()

	pages := []string{"1-"}

	cropStr := fmt.Sprintf("%.2f 0 %.2f 0", top, bottom)

	box, err := pdfmodel.ParseBox(cropStr, pdftypes.POINTS)
	if err != nil {
		return types.Ef(types.StageExtract, types.KindConfig, "parse crop box: %w", err)
	}

	if err := api.CropFile(inputPath, outputPath, pages, box, conf); err != nil {
		return types.Ef(types.StageExtract, types.KindInput, "crop PDF: %w", err)
	}
	return nil
}
