// Package skull derives a pixel-art skull identity from a seed string. The
// same seed always produces the same grid, overlays and flags.
package skull

import (
	"math"

	"github.com/brojonat/crypt/service/rng"
)

// Traits records which variant each roll selected. Accessory names are empty
// when the category was not rolled.
type Traits struct {
	Eyes     string `json:"eyes"`
	Nose     int    `json:"nose"`
	Teeth    string `json:"teeth"`
	Scar     bool   `json:"scar"`
	Crack    bool   `json:"crack"`
	Eyepatch bool   `json:"eyepatch"`
	Hat      string `json:"hat,omitempty"`
	Eyewear  string `json:"eyewear,omitempty"`
	Mouth    string `json:"mouth,omitempty"`
	Neck     string `json:"neck,omitempty"`
}

// Identity is the generated skull: the bone grid, the accessory overlays in
// roll order (hat, eyewear, mouth, neck) and two render flags.
type Identity struct {
	Seed         string  `json:"seed"`
	Grid         Grid    `json:"grid"`
	Overlays     []Pixel `json:"overlays"`
	EyeGlow      bool    `json:"eyeGlow"`
	HasLaserEyes bool    `json:"hasLaserEyes"`
	Traits       Traits  `json:"traits"`
}

// Generate derives the identity for seed.
func Generate(seed string) Identity {
	id := GenerateFrom(rng.FromString(seed))
	id.Seed = seed
	return id
}

func pick(src rng.Source, n int) int {
	return int(math.Floor(src.Float64() * float64(n)))
}

// GenerateFrom derives an identity from src, leaving src positioned after the
// last trait roll so a caller can keep drawing from the same stream.
func GenerateFrom(src rng.Source) Identity {
	g := baseGrid()
	var tr Traits

	eyeStyle := pick(src, len(eyeStyles))
	eyeGlow := src.Float64() > 0.4
	for _, e := range eyeSockets {
		g.set(e.y, e.x, e.c)
	}
	for _, e := range eyeStyles[eyeStyle] {
		g.set(e.y, e.x, e.c)
	}
	tr.Eyes = eyeNames[eyeStyle]
	if eyeGlow {
		for y := 6; y <= 9; y++ {
			for x := 0; x < Width; x++ {
				if g[y][x] == Socket {
					g[y][x] = Glow
				}
			}
		}
	}

	tr.Nose = pick(src, len(noseStyles))
	for _, e := range noseStyles[tr.Nose] {
		g.set(e.y, e.x, e.c)
	}

	teeth := teethStyles[pick(src, len(teethStyles))]
	tr.Teeth = teeth.name
	switch {
	case teeth.rolled:
		x := 2 + pick(src, 4)*3
		for _, y := range []int{14, 15} {
			g.set(y, x, teeth.fill)
			g.set(y, x+1, teeth.fill)
		}
	case teeth.blacken:
		for x := 2; x < 14; x++ {
			for _, y := range []int{14, 15} {
				if g[y][x] == Tooth {
					g[y][x] = Socket
				}
			}
		}
	default:
		for _, e := range teeth.edits {
			g.set(e.y, e.x, e.c)
		}
	}

	if src.Float64() > 0.6 {
		tr.Scar = true
		sx := 2 + pick(src, 5)
		for i := 0; i < 4; i++ {
			y, x := 2+i, sx
			if src.Float64() > 0.5 {
				x += i
			}
			if g.filled(y, x) {
				g[y][x] = Dark
			}
		}
	}

	if src.Float64() > 0.6 {
		tr.Crack = true
		x, y := 6+pick(src, 4), 0
		for i := 0; i < 5; i++ {
			if g.filled(y, x) {
				g[y][x] = Dark
			}
			y++
			x += pick(src, 3) - 1
		}
	}

	if src.Float64() > 0.88 {
		tr.Eyepatch = true
		for y := 6; y <= 9; y++ {
			for x := 3; x <= 6; x++ {
				g[y][x] = Dark
			}
		}
	}

	overlays := []Pixel{}

	hatRoll, hat := src.Float64(), pick(src, len(hats))
	if hatRoll > 0.3 {
		overlays = hats[hat].pixels(overlays)
		tr.Hat = hats[hat].name
	}

	glassesRoll, glasses := src.Float64(), pick(src, len(eyewear))
	if glassesRoll > 0.45 {
		overlays = eyewear[glasses].pixels(overlays)
		tr.Eyewear = eyewear[glasses].name
	}

	mouthRoll, mouth := src.Float64(), pick(src, len(mouthItems))
	if mouthRoll > 0.6 {
		overlays = mouthItems[mouth].pixels(overlays)
		tr.Mouth = mouthItems[mouth].name
	}

	neckRoll, neck := src.Float64(), pick(src, len(neckItems))
	if neckRoll > 0.5 {
		overlays = neckItems[neck].pixels(overlays)
		tr.Neck = neckItems[neck].name
	}

	return Identity{
		Grid:         g,
		Overlays:     overlays,
		EyeGlow:      eyeGlow,
		HasLaserEyes: glassesRoll > 0.45 && glasses == laserEyes,
		Traits:       tr,
	}
}
