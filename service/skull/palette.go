package skull

import (
	"fmt"
	"image/color"

	"github.com/brojonat/crypt/service/cards"
)

// RGB is an opaque 8-bit colour.
type RGB [3]uint8

// RGBA converts c to an image colour.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
}

// Hex renders c as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Palette is the rarity-keyed colour set used around the skull. The skull's
// bone colours are fixed and do not depend on rarity.
type Palette struct {
	BG        RGB `json:"bg"`
	Energy    RGB `json:"energy"`
	EnergyAlt RGB `json:"energyAlt"`
	Accent    RGB `json:"accent"`
	Glow      RGB `json:"glow"`
}

var palettes = map[cards.Rarity]Palette{
	cards.Legendary: {
		BG: RGB{8, 2, 12}, Energy: RGB{150, 90, 255}, EnergyAlt: RGB{200, 120, 255},
		Accent: RGB{255, 180, 50}, Glow: RGB{150, 90, 255},
	},
	cards.Rare: {
		BG: RGB{2, 6, 10}, Energy: RGB{0, 212, 176}, EnergyAlt: RGB{0, 160, 200},
		Accent: RGB{0, 255, 160}, Glow: RGB{0, 212, 176},
	},
	cards.Common: {
		BG: RGB{4, 6, 4}, Energy: RGB{0, 180, 120}, EnergyAlt: RGB{0, 140, 100},
		Accent: RGB{0, 200, 130}, Glow: RGB{0, 180, 120},
	},
}

// PaletteFor returns the palette for r. Unknown tiers get the common palette.
func PaletteFor(r cards.Rarity) Palette {
	if p, ok := palettes[r]; ok {
		return p
	}
	return palettes[cards.Common]
}

// Bone colours for each non-glowing cell kind.
var (
	BoneLight = RGB{235, 225, 205}
	BoneMid   = RGB{200, 190, 170}
	BoneShade = RGB{150, 140, 125}
	BoneDark  = RGB{90, 80, 70}
	BoneBlack = RGB{25, 20, 18}
	BoneTeeth = RGB{220, 215, 195}
	BoneGold  = RGB{220, 180, 60}
)

// CellColor returns the colour of a grid cell. Glow cells blend the palette's
// energy colour towards grey by pulse, which ranges over [0.2, 1]. ok is
// false for empty cells.
func CellColor(c Cell, pal Palette, pulse float64) (RGB, bool) {
	switch c {
	case Light:
		return BoneLight, true
	case Mid:
		return BoneMid, true
	case Shade:
		return BoneShade, true
	case Dark:
		return BoneDark, true
	case Socket:
		return BoneBlack, true
	case Tooth:
		return BoneTeeth, true
	case Gold:
		return BoneGold, true
	case Glow:
		var out RGB
		for i := range out {
			out[i] = uint8(float64(pal.Energy[i])*pulse + 60*(1-pulse))
		}
		return out, true
	}
	return RGB{}, false
}

// Accessory colours.
var (
	black     = RGB{20, 18, 15}
	white     = RGB{240, 235, 225}
	red       = RGB{200, 40, 30}
	blue      = RGB{40, 80, 200}
	green     = RGB{30, 160, 80}
	yellow    = RGB{220, 200, 50}
	orange    = RGB{220, 130, 30}
	pink      = RGB{220, 100, 160}
	brown     = RGB{120, 80, 40}
	darkBrown = RGB{80, 50, 25}
	gold      = RGB{220, 180, 60}
	silver    = RGB{170, 175, 185}
	teal      = RGB{0, 212, 176}
	purple    = RGB{150, 90, 255}
	gray      = RGB{120, 120, 120}
	lightGray = RGB{180, 180, 180}
	cyan      = RGB{0, 200, 220}
	magenta   = RGB{200, 50, 200}

	smokeLight = RGB{180, 180, 180}
	smokeDark  = RGB{150, 150, 150}
	lensBrown  = RGB{60, 50, 40}
	visorRed   = RGB{150, 30, 20}
	blood      = RGB{200, 0, 0}
	tongue     = RGB{200, 80, 80}
	hood       = RGB{100, 100, 100}
)
