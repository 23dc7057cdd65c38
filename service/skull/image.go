package skull

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// The raster frame covers every cell an accessory can reach plus a one-cell
// margin.
const (
	FrameLeft   = -2
	FrameTop    = -9
	FrameWidth  = 21
	FrameHeight = 30
)

// MaxScale bounds the pixel size of one cell in exported images.
const MaxScale = 32

// Raster is a flattened frame of cell colours indexed [y][x] from
// (FrameLeft, FrameTop).
type Raster [FrameHeight][FrameWidth]RGB

// Rasterize flattens the identity over the palette background. pulse is the
// glow intensity in [0, 1]; laser beams are blended in when the identity has
// them.
func (id Identity) Rasterize(pal Palette, pulse float64) Raster {
	var r Raster
	for y := range r {
		for x := range r[y] {
			r[y][x] = pal.BG
		}
	}

	put := func(x, y int, c RGB) {
		fx, fy := x-FrameLeft, y-FrameTop
		if fx < 0 || fx >= FrameWidth || fy < 0 || fy >= FrameHeight {
			return
		}
		r[fy][fx] = c
	}

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if c, ok := CellColor(id.Grid[y][x], pal, pulse); ok {
				put(x, y, c)
			}
		}
	}
	for _, p := range id.Overlays {
		put(p.X, p.Y, p.C)
	}

	if id.HasLaserEyes {
		blend := func(x, y int) {
			fx, fy := x-FrameLeft, y-FrameTop
			if fx < 0 || fx >= FrameWidth || fy < 0 || fy >= FrameHeight {
				return
			}
			r[fy][fx] = mix(r[fy][fx], pal.Energy, 0.4+0.3*pulse)
		}
		for i := 0; i < 20; i++ {
			y := int(math.Floor(7 + float64(i)*0.3))
			left := int(math.Floor(4 - float64(i)*0.5))
			right := int(math.Floor(10 + float64(i)*0.5))
			blend(left, y)
			blend(left+1, y)
			blend(right, y)
			blend(right+1, y)
		}
	}
	return r
}

func mix(a, b RGB, t float64) RGB {
	var out RGB
	for i := range out {
		out[i] = uint8(float64(a[i])*(1-t) + float64(b[i])*t)
	}
	return out
}

// Image renders the identity at scale pixels per cell. scale is clamped to
// [1, MaxScale].
func (id Identity) Image(pal Palette, scale int) *image.RGBA {
	scale = max(1, min(scale, MaxScale))
	r := id.Rasterize(pal, 1)
	img := image.NewRGBA(image.Rect(0, 0, FrameWidth*scale, FrameHeight*scale))
	for y := range r {
		for x := range r[y] {
			c := r[y][x].RGBA()
			for py := y * scale; py < (y+1)*scale; py++ {
				for px := x * scale; px < (x+1)*scale; px++ {
					img.SetRGBA(px, py, c)
				}
			}
		}
	}
	return img
}

// WritePNG encodes the identity as a PNG.
func (id Identity) WritePNG(w io.Writer, pal Palette, scale int) error {
	if err := png.Encode(w, id.Image(pal, scale)); err != nil {
		return fmt.Errorf("failed to encode skull png: %w", err)
	}
	return nil
}

// Terminal renders the identity as rows of truecolour blocks, two columns
// per cell.
func (id Identity) Terminal(pal Palette) string {
	r := id.Rasterize(pal, 1)
	var b strings.Builder
	for y := range r {
		for x := range r[y] {
			b.WriteString(lipgloss.NewStyle().
				Background(lipgloss.Color(r[y][x].Hex())).
				Render("  "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
