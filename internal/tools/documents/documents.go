// Package documents adds builders that turn images, SVG drawings and
// reStructuredText into PDF and HTML documents.
package documents

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Builder names.
const (
	ImgToPDF  = "ImgToPDF"
	SVGToPDF  = "SVGToPDF"
	PDFMerge  = "PDFMerge"
	RSTToHTML = "RSTToHTML"
)

// A4 at 150 dpi.
const (
	a4Width   = 1240
	a4Height  = 1754
	a4Density = 150
)

var _ ports.Tool = (*Tool)(nil)

// Tool is the documents tool.
type Tool struct{}

// New creates the documents tool.
func New() *Tool {
	return &Tool{}
}

// Name implements ports.Tool.
func (t *Tool) Name() string {
	return "documents"
}

// Exists implements ports.Tool. Each builder checks its own program when
// it runs, since a project rarely needs all of them.
func (t *Tool) Exists(*domain.Env) bool {
	return true
}

// Generate implements ports.Tool.
func (t *Tool) Generate(reg *domain.Registry, env *domain.Env, _ ports.Logger) error {
	env.SetDefault("CONVERT", "convert")
	env.SetDefault("IMG_PDF_DENSITY", a4Density)
	env.SetDefault("IMG_PDF_QUALITY", 80)
	env.SetDefault("IMG_PDF_WIDTH", a4Width)
	env.SetDefault("IMG_PDF_HEIGHT", a4Height)
	env.SetDefault("INKSCAPE", "inkscape")
	env.SetDefault("PDFTK", "pdftk")
	env.SetDefault("RST2HTML", "rst2html")
	env.SetDefault("RST2HTML_FLAGS", []string{"--strict", "--math-output=MathJax"})

	builders := []*domain.Builder{
		{
			Name: ImgToPDF,
			Action: domain.CommandAction("$CONVERT $SOURCE -units PixelsPerInch -density $IMG_PDF_DENSITY " +
				"-quality $IMG_PDF_QUALITY -resize ${IMG_PDF_WIDTH}x${IMG_PDF_HEIGHT} $TARGET"),
			Suffix:       ".pdf",
			SingleSource: true,
		},
		{
			Name:         SVGToPDF,
			Action:       domain.CommandAction("$INKSCAPE --export-area-page --export-pdf=$TARGET $SOURCE"),
			Suffix:       ".pdf",
			SrcSuffix:    ".svg",
			SingleSource: true,
		},
		{
			Name:   PDFMerge,
			Action: domain.CommandAction("$PDFTK $SOURCES cat output $TARGET"),
		},
		{
			Name:      RSTToHTML,
			Action:    domain.CommandAction("$RST2HTML $RST2HTML_FLAGS $SOURCE $TARGET"),
			Suffix:    ".html",
			SrcSuffix: ".rst",
		},
	}

	for _, b := range builders {
		if err := reg.AddBuilder(b); err != nil {
			return err
		}
	}
	return nil
}
