package documents_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/tools/documents"
	"go.uber.org/mock/gomock"
)

func setup(t *testing.T) (*domain.Registry, *domain.Env) {
	t.Helper()
	ctrl := gomock.NewController(t)
	reg := domain.NewRegistry()
	env := domain.NewEnv()
	require.NoError(t, documents.New().Generate(reg, env, mocks.NewMockLogger(ctrl)))
	return reg, env
}

func commandLines(t *testing.T, reg *domain.Registry, env *domain.Env, builder string, targets, sources []string) []string {
	t.Helper()
	b, err := reg.Builder(builder)
	require.NoError(t, err)

	steps, err := b.NewSteps(env, domain.Files(targets...), domain.Files(sources...))
	require.NoError(t, err)

	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		inv, err := b.Action.Prepare(s)
		require.NoError(t, err)
		lines = append(lines, inv.Command)
	}
	return lines
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	reg, env := setup(t)

	tests := []struct {
		name    string
		builder string
		targets []string
		sources []string
		want    []string
	}{
		{
			name:    "image to pdf",
			builder: documents.ImgToPDF,
			sources: []string{"scans/page1.jpg", "scans/page2.png"},
			want: []string{
				"convert scans/page1.jpg -units PixelsPerInch -density 150 -quality 80 -resize 1240x1754 scans/page1.pdf",
				"convert scans/page2.png -units PixelsPerInch -density 150 -quality 80 -resize 1240x1754 scans/page2.pdf",
			},
		},
		{
			name:    "svg to pdf",
			builder: documents.SVGToPDF,
			sources: []string{"figures/plot.svg"},
			want:    []string{"inkscape --export-area-page --export-pdf=figures/plot.pdf figures/plot.svg"},
		},
		{
			name:    "merge",
			builder: documents.PDFMerge,
			targets: []string{"out/book.pdf"},
			sources: []string{"a.pdf", "b.pdf"},
			want:    []string{"pdftk a.pdf b.pdf cat output out/book.pdf"},
		},
		{
			name:    "rst to html",
			builder: documents.RSTToHTML,
			sources: []string{"docs/index.rst"},
			want:    []string{"rst2html --strict --math-output=MathJax docs/index.rst docs/index.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, commandLines(t, reg, env, tt.builder, tt.targets, tt.sources))
		})
	}
}

func TestImgToPDF_CustomPage(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	reg := domain.NewRegistry()
	env := domain.NewEnv()
	env.Replace("IMG_PDF_DENSITY", 300)
	env.Replace("IMG_PDF_WIDTH", 2480)
	env.Replace("IMG_PDF_HEIGHT", 3508)
	require.NoError(t, documents.New().Generate(reg, env, mocks.NewMockLogger(ctrl)))

	lines := commandLines(t, reg, env, documents.ImgToPDF, nil, []string{"scan.jpg"})
	assert.Equal(t, []string{
		"convert scan.jpg -units PixelsPerInch -density 300 -quality 80 -resize 2480x3508 scan.pdf",
	}, lines)
}

func TestPDFMerge_RequiresTarget(t *testing.T) {
	t.Parallel()

	reg, env := setup(t)
	b, err := reg.Builder(documents.PDFMerge)
	require.NoError(t, err)

	_, err = b.NewSteps(env, nil, domain.Files("a.pdf", "b.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTargetRequired.Error())
}
