package skull

import "strings"

// Grid dimensions in cells.
const (
	Width  = 16
	Height = 18
)

// Cell is the shading code of one grid cell.
type Cell byte

// Cell codes. Empty cells are transparent.
const (
	Empty  Cell = 0
	Light  Cell = 'L'
	Mid    Cell = 'M'
	Shade  Cell = 'S'
	Dark   Cell = 'D'
	Socket Cell = 'B'
	Glow   Cell = 'G'
	Tooth  Cell = 'T'
	Gold   Cell = 'X'
)

// Grid is the bone layer of a skull, indexed [y][x].
type Grid [Height][Width]Cell

// silhouette is the canonical skull every identity starts from.
var silhouette = [Height]string{
	"    LLMMMMLL    ",
	"   LLLLMMMMLL   ",
	"  LLLLLLMMMMSS  ",
	" LLLLLLLMMMMSSS ",
	" LLLLLLLMMMMSSS ",
	"LLLLLLLLMMMMSSSS",
	"LLLLLLLLMMMMSSSS",
	"LLLLBBLLLLBBSSSS",
	"LLLLBBLLLLBBSSSS",
	"LLLLLLLLMMMMSSSS",
	" LLLLLLLMMMMSSS ",
	" LLLLLLBBMMMSSS ",
	" LLLLLLBBMMMSSS ",
	"  LLLLMMMMMSSS  ",
	"  TT TT TT TS",
	"  TT TT TT TS",
	"   LLMMMMMSSS   ",
	"    LMMMMSSS    ",
}

func baseGrid() Grid {
	var g Grid
	for y, row := range silhouette {
		for x := 0; x < len(row) && x < Width; x++ {
			if row[x] != ' ' {
				g[y][x] = Cell(row[x])
			}
		}
	}
	return g
}

// Rows renders the grid one string per row, with '.' for empty cells.
func (g *Grid) Rows() []string {
	rows := make([]string, Height)
	var b strings.Builder
	for y := range g {
		b.Reset()
		for _, c := range g[y] {
			if c == Empty {
				b.WriteByte('.')
			} else {
				b.WriteByte(byte(c))
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// MarshalJSON encodes the grid as its rows.
func (g Grid) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range g.Rows() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(r)
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

func (g *Grid) set(y, x int, c Cell) {
	g[y][x] = c
}

func (g *Grid) filled(y, x int) bool {
	return y >= 0 && y < Height && x >= 0 && x < Width && g[y][x] != Empty
}
