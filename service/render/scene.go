// Package render animates a skull identity into a stream of frames. A frame
// is a display list of positioned quads that any canvas can paint; the
// skull itself is sent once and placed by each frame.
package render

import (
	"math"
	"time"

	"github.com/brojonat/crypt/service/playback"
	"github.com/brojonat/crypt/service/rng"
	"github.com/brojonat/crypt/service/skull"
)

// Default canvas size in logical pixels.
const (
	DefaultWidth  = 420
	DefaultHeight = 560
)

const (
	frameStep  = 0.016
	ringMaxAge = 2 * time.Second
)

// Quad is a filled or stroked rectangle. Rot is radians about the quad's
// centre. Alt selects the palette's alternate energy colour.
type Quad struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Rot   float64 `json:"rot,omitempty"`
	Alpha float64 `json:"a"`
	Alt   bool    `json:"alt,omitempty"`
}

// Placement positions the skull grid on the canvas.
type Placement struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Scale     float64   `json:"scale"`
	GlowPulse float64   `json:"glowPulse"`
	GlowColor skull.RGB `json:"glowColor"`
	Halo      []Quad    `json:"halo"`
	Lasers    []Quad    `json:"lasers,omitempty"`
}

// Frame is one redraw.
type Frame struct {
	Seq    int       `json:"seq"`
	Time   float64   `json:"t"`
	Audio  Audio     `json:"audio"`
	Portal []Quad    `json:"portal"`
	Glow   []Quad    `json:"glow"`
	Blocks []Quad    `json:"blocks"`
	Skull  Placement `json:"skull"`
	Souls  []Quad    `json:"souls"`
	Sparks []Quad    `json:"sparks"`
	Rings  []Quad    `json:"rings"`
}

// Header describes the static parts of a scene, sent before its frames.
type Header struct {
	Seed     string         `json:"seed"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Palette  skull.Palette  `json:"palette"`
	Identity skull.Identity `json:"identity"`
}

type block struct {
	angle, radius, speed float64
	size                 float64
	alpha, pulse         float64
	alt                  bool
}

type soul struct {
	x, y, speed float64
	size        float64
	alpha       float64
	wobble      float64
}

// Scene holds the animated state for one card. A Scene is not safe for
// concurrent use; each card owns its own.
type Scene struct {
	seed     string
	identity skull.Identity
	palette  skull.Palette
	width    float64
	height   float64

	src         rng.Source
	blocks      []block
	souls       []soul
	portalRings int
	portalSpeed float64

	audio *AudioTracker
	time  float64
	seq   int
}

// NewScene builds the scene for seed. The identity and every particle are
// drawn from one RNG stream in a fixed order, so a seed always produces the
// same opening frame.
func NewScene(seed string, pal skull.Palette, width, height float64) *Scene {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	seeds := rng.HashToSeeds(seed)
	src := rng.FromString(seed)
	id := skull.GenerateFrom(src)
	id.Seed = seed

	s := &Scene{
		seed:        seed,
		identity:    id,
		palette:     pal,
		width:       width,
		height:      height,
		src:         src,
		portalRings: 5 + int(math.Floor(seeds[2]*5)),
		portalSpeed: seeds[3]*0.2 + 0.08,
		audio:       NewAudioTracker(),
	}

	nBlocks := 20 + int(math.Floor(seeds[1]*15))
	s.blocks = make([]block, nBlocks)
	for i := range s.blocks {
		s.blocks[i] = block{
			angle:  src.Float64() * math.Pi * 2,
			radius: 40 + src.Float64()*100,
			speed:  (src.Float64() - 0.5) * 0.015,
			size:   2 + math.Floor(src.Float64()*4),
			alpha:  0.1 + src.Float64()*0.35,
			pulse:  src.Float64() * math.Pi * 2,
			alt:    src.Float64() > 0.5,
		}
	}

	nSouls := 6 + int(math.Floor(seeds[4]*6))
	s.souls = make([]soul, nSouls)
	for i := range s.souls {
		s.souls[i] = soul{
			x:      (src.Float64() - 0.5) * width * 0.6,
			y:      src.Float64() * height * 0.4,
			speed:  0.2 + src.Float64()*0.5,
			size:   2 + math.Floor(src.Float64()*3),
			alpha:  0.1 + src.Float64()*0.25,
			wobble: src.Float64() * math.Pi * 2,
		}
	}
	return s
}

// Identity returns the skull the scene is built around.
func (s *Scene) Identity() skull.Identity { return s.identity }

// Header returns the static description of the scene.
func (s *Scene) Header() Header {
	return Header{
		Seed:     s.seed,
		Width:    s.width,
		Height:   s.height,
		Palette:  s.palette,
		Identity: s.identity,
	}
}

// Audio exposes the scene's tracker.
func (s *Scene) Audio() *AudioTracker { return s.audio }

// Frame samples the audio reading, advances the animation by one step and
// returns the resulting display list.
func (s *Scene) Frame(now time.Time, levels playback.Levels, playing bool) Frame {
	s.time += frameStep
	s.seq++
	s.audio.Sample(levels, playing, now)
	ad := s.audio.Audio()

	cx, cy := s.width/2, s.height/2-15
	bR := ad.Bass * 0.8
	f := Frame{Seq: s.seq, Time: s.time, Audio: ad}

	f.Portal = make([]Quad, 0, s.portalRings+1)
	for ring := s.portalRings; ring >= 0; ring-- {
		size := 30 + float64(ring)*22 + bR*10
		dir := 1.0
		if ring%2 != 0 {
			dir = -1
		}
		f.Portal = append(f.Portal, Quad{
			X:     cx - size/2,
			Y:     cy - size/2*0.7,
			W:     size,
			H:     size * 0.7,
			Rot:   s.time * s.portalSpeed * dir * 0.5,
			Alpha: (0.03 + float64(s.portalRings-ring)*0.006) * (1 + bR*1.5),
			Alt:   ring%2 != 0,
		})
	}

	glowS := 50 + bR*20 + math.Sin(s.time*1.5)*5
	f.Glow = make([]Quad, 0, 4)
	for i := 3; i >= 0; i-- {
		gs := glowS + float64(i)*15
		f.Glow = append(f.Glow, Quad{
			X:     cx - gs/2,
			Y:     cy - gs/2*0.7,
			W:     gs,
			H:     gs * 0.7,
			Alpha: (0.02 + bR*0.03) * (1 - float64(i)*0.2),
		})
	}

	f.Blocks = make([]Quad, len(s.blocks))
	for i := range s.blocks {
		b := &s.blocks[i]
		b.angle += b.speed * (1 + ad.High*2)
		b.pulse += 0.02
		r := b.radius + bR*20 + math.Sin(b.pulse)*8
		f.Blocks[i] = Quad{
			X:     math.Floor(cx + math.Cos(b.angle)*r),
			Y:     math.Floor(cy + math.Sin(b.angle)*r*0.55),
			W:     b.size,
			H:     b.size,
			Alpha: b.alpha * (0.4 + 0.6*math.Sin(s.time*1.5+b.pulse)) * (1 + bR),
			Alt:   b.alt,
		}
	}

	f.Skull = s.placeSkull(cx, cy, bR, ad.Hit)

	f.Souls = make([]Quad, len(s.souls))
	f.Sparks = make([]Quad, len(s.souls))
	for i := range s.souls {
		p := &s.souls[i]
		p.y -= p.speed * (1 + bR*2)
		p.wobble += 0.02
		if p.y < -20 {
			p.y = s.height*0.35 + s.src.Float64()*20
		}
		sx := math.Floor(cx + p.x + math.Sin(p.wobble)*10)
		sy := math.Floor(cy - 30 - p.y)
		sa := p.alpha * (0.5 + math.Sin(s.time+p.wobble)*0.5)
		f.Souls[i] = Quad{X: sx - p.size, Y: sy - p.size, W: p.size * 3, H: p.size * 3, Alpha: sa * 0.3}
		f.Sparks[i] = Quad{X: sx, Y: sy, W: p.size, H: p.size, Alpha: sa * 0.6}
	}

	live := s.audio.Rings(now, ringMaxAge)
	f.Rings = make([]Quad, 0, len(live))
	for _, ring := range live {
		age := now.Sub(ring.Birth).Seconds()
		r := age * 150 * ring.Intensity
		f.Rings = append(f.Rings, Quad{
			X:     cx - r,
			Y:     cy - r*0.6,
			W:     r * 2,
			H:     r * 1.2,
			Alpha: (1 - age/2) * 0.2 * ring.Intensity,
		})
	}
	return f
}

func (s *Scene) placeSkull(cx, cy, bR, hit float64) Placement {
	scale := math.Min(s.width, s.height) * 0.024 * (1 + bR*0.08)
	w, h := skull.Width*scale, skull.Height*scale
	x, y := cx-w/2, cy-h/2+5

	pulse := 0.6 + math.Sin(s.time*3)*0.4
	glow, _ := skull.CellColor(skull.Glow, s.palette, pulse)
	p := Placement{
		X:         x,
		Y:         y,
		Scale:     scale,
		GlowPulse: pulse,
		GlowColor: glow,
		Halo:      make([]Quad, 0, 3),
	}
	for i := 2; i >= 0; i-- {
		gs := float64(i) * 4
		p.Halo = append(p.Halo, Quad{
			X:     x + scale*2 - gs,
			Y:     y + scale - gs,
			W:     w - scale*4 + gs*2,
			H:     h - scale*2 + gs*2,
			Alpha: 0.02 + hit*0.04,
		})
	}

	if s.identity.HasLaserEyes {
		alpha := 0.4 + math.Sin(s.time*5)*0.3
		p.Lasers = make([]Quad, 0, 40)
		for i := 0; i < 20; i++ {
			fi := float64(i)
			ly := y + 7*scale + fi*scale*0.3
			p.Lasers = append(p.Lasers,
				Quad{X: x + 4*scale - fi*scale*0.5, Y: ly, W: scale * 2, H: scale, Alpha: alpha},
				Quad{X: x + 10*scale + fi*scale*0.5, Y: ly, W: scale * 2, H: scale, Alpha: alpha},
			)
		}
	}
	return p
}
