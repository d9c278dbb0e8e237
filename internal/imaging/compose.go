package imaging

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/eugenenazirov/icon-grid/internal/grid"
)

var (
	// PlaceholderColor fills the canvas when there is nothing to compose.
	PlaceholderColor = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	defaultOutline   = color.RGBA{R: 64, G: 64, B: 64, A: 255}
)

// ComposeOption tweaks ComposeGroupIcon.
type ComposeOption func(*composeConfig)

type composeConfig struct {
	background   color.Color
	outline      bool
	outlineColor color.Color
	outlineWidth float64
	squareCrop   bool
}

// WithBackground sets the canvas colour behind the icons. Defaults to opaque white.
func WithBackground(c color.Color) ComposeOption {
	return func(cfg *composeConfig) {
		cfg.background = c
	}
}

// WithOutline strokes the border of every placed cell.
func WithOutline(c color.Color, width float64) ComposeOption {
	return func(cfg *composeConfig) {
		cfg.outline = true
		if c != nil {
			cfg.outlineColor = c
		}
		if width > 0 {
			cfg.outlineWidth = width
		}
	}
}

// WithSquareCrop centre-crops every icon before scaling so that
// non-square sources keep their aspect ratio.
func WithSquareCrop(enabled bool) ComposeOption {
	return func(cfg *composeConfig) {
		cfg.squareCrop = enabled
	}
}

// Composition is the result of ComposeGroupIcon.
type Composition struct {
	Image    *image.RGBA
	CellSize int
	// Placed is the number of icons drawn; Dropped counts icons beyond grid.MaxItems.
	Placed  int
	Dropped int
}

// ComposeGroupIcon packs icons into a size×size canvas using the grid
// layout. Each icon is resampled with Scale to the cell size. Only the first grid.MaxItems icons are drawn. With no icons the
// canvas is filled with PlaceholderColor.
func ComposeGroupIcon(icons []image.Image, size int, opts ...ComposeOption) (Composition, error) {
	if size <= 0 {
		return Composition{}, ErrInvalidSize
	}

	cfg := composeConfig{
		background:   color.White,
		outlineColor: defaultOutline,
		outlineWidth: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(icons) == 0 {
		return Composition{Image: Solid(PlaceholderColor, size, size), CellSize: size / 2}, nil
	}

	packer := grid.New(size, len(icons))
	canvas := Solid(cfg.background, size, size)

	placed := 0
	for i, icon := range icons {
		dr := packer.ImageRect(i)
		if dr.Empty() || icon == nil {
			continue
		}
		if cfg.squareCrop {
			icon = CenterSquare(icon)
		}
		scaled, err := Scale(icon, dr.Dx(), dr.Dy())
		if err != nil {
			return Composition{}, err
		}
		draw.Draw(canvas, dr, scaled, scaled.Bounds().Min, draw.Src)
		placed++
	}

	if cfg.outline {
		drawOutline(canvas, packer, cfg)
	}

	return Composition{
		Image:    canvas,
		CellSize: packer.CellSize(),
		Placed:   placed,
		Dropped:  max(len(icons)-grid.MaxItems, 0),
	}, nil
}

func drawOutline(canvas *image.RGBA, packer *grid.Packer, cfg composeConfig) {
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(cfg.outlineColor)
	dc.SetLineWidth(cfg.outlineWidth)

	inset := cfg.outlineWidth / 2
	for i := 0; i < packer.Len(); i++ {
		r := packer.ImageRect(i)
		dc.DrawRectangle(float64(r.Min.X)+inset, float64(r.Min.Y)+inset,
			float64(r.Dx())-cfg.outlineWidth, float64(r.Dy())-cfg.outlineWidth)
	}
	dc.Stroke()
}
