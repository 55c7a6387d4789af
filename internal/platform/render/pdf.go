package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Keep pdfcpu from creating a config dir under $HOME.
func init() { api.DisableConfigDir() }

// pdfPage is one full-page raster, already JPEG encoded.
type pdfPage struct {
	jpeg []byte
}

// encodePDF places each page image full-bleed on its own A4 page.
func encodePDF(pages []pdfPage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf needs at least one page")
	}
	imgs := make([]io.Reader, 0, len(pages))
	for i, p := range pages {
		if len(p.jpeg) == 0 {
			return nil, fmt.Errorf("page %d: empty image", i+1)
		}
		imgs = append(imgs, bytes.NewReader(p.jpeg))
	}
	imp := pdfcpu.DefaultImportConfig()
	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, imgs, imp, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to assemble pdf: %w", err)
	}
	return buf.Bytes(), nil
}
