package skull

// edit overwrites one grid cell.
type edit struct {
	y, x int
	c    Cell
}

func sockets(cells ...[2]int) []edit {
	out := make([]edit, len(cells))
	for i, yx := range cells {
		out[i] = edit{y: yx[0], x: yx[1], c: Socket}
	}
	return out
}

// eyeStyles are applied after the sockets are reset, indexed by roll.
var eyeStyles = [8][]edit{
	nil,
	sockets([2]int{6, 4}, [2]int{6, 5}, [2]int{6, 10}, [2]int{6, 11}),
	sockets([2]int{7, 3}, [2]int{8, 3}, [2]int{7, 12}, [2]int{8, 12}),
	{{7, 5, Shade}, {7, 10, Shade}},
	{{7, 4, Light}, {7, 11, Mid}, {8, 5, Light}, {8, 10, Mid}},
	{{7, 4, Light}, {7, 11, Mid}, {8, 4, Light}, {8, 11, Mid}},
	sockets(
		[2]int{6, 4}, [2]int{6, 5}, [2]int{6, 6}, [2]int{7, 6}, [2]int{8, 6},
		[2]int{6, 9}, [2]int{6, 10}, [2]int{6, 11}, [2]int{7, 9}, [2]int{8, 9},
	),
	{{7, 4, Light}, {7, 5, Light}, {7, 10, Mid}, {7, 11, Mid}},
}

var eyeNames = [8]string{"round", "tall", "wide", "angry", "dots", "diamond", "big", "slit"}

var eyeSockets = sockets(
	[2]int{7, 4}, [2]int{7, 5}, [2]int{8, 4}, [2]int{8, 5},
	[2]int{7, 10}, [2]int{7, 11}, [2]int{8, 10}, [2]int{8, 11},
)

var noseStyles = [4][]edit{
	nil,
	sockets([2]int{11, 6}, [2]int{11, 7}, [2]int{11, 8}, [2]int{12, 6}, [2]int{12, 7}, [2]int{12, 8}),
	{{12, 7, Mid}, {12, 8, Mid}},
	sockets([2]int{11, 7}, [2]int{12, 7}, [2]int{12, 8}),
}

// teethStyle either applies fixed edits, blackens every tooth, or fills a
// two-wide column pair chosen by an extra roll.
type teethStyle struct {
	name    string
	edits   []edit
	blacken bool
	rolled  bool
	fill    Cell
}

var teethStyles = [6]teethStyle{
	{name: "full"},
	{name: "gap", rolled: true, fill: Empty},
	{name: "gold", rolled: true, fill: Gold},
	{name: "fangs", edits: []edit{{16, 3, Tooth}, {16, 12, Tooth}}},
	{name: "rotten", blacken: true},
	{name: "lower row", edits: []edit{
		{16, 4, Tooth}, {16, 5, Tooth}, {16, 7, Tooth}, {16, 8, Tooth}, {16, 10, Tooth}, {16, 11, Tooth},
	}},
}

// Pixel is one accessory cell. Coordinates are relative to the grid origin
// and may fall outside it.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
	C RGB `json:"c"`
}

// stroke places pixels for x in [x0, x1) stepping by step, and for each x
// every y in ys, in that order.
type stroke struct {
	x0, x1, step int
	ys           []int
	c            RGB
}

func row(x0, x1, y int, c RGB) stroke { return stroke{x0: x0, x1: x1, step: 1, ys: []int{y}, c: c} }

func dot(x, y int, c RGB) stroke { return row(x, x+1, y, c) }

func block(x0, x1, y0, y1 int, c RGB) stroke {
	ys := make([]int, 0, y1-y0)
	for y := y0; y < y1; y++ {
		ys = append(ys, y)
	}
	return stroke{x0: x0, x1: x1, step: 1, ys: ys, c: c}
}

func columns(x0, x1, step int, c RGB, ys ...int) stroke {
	return stroke{x0: x0, x1: x1, step: step, ys: ys, c: c}
}

func dots(c RGB, xys ...[2]int) []stroke {
	out := make([]stroke, len(xys))
	for i, xy := range xys {
		out[i] = dot(xy[0], xy[1], c)
	}
	return out
}

func strokes(parts ...any) []stroke {
	var out []stroke
	for _, p := range parts {
		switch v := p.(type) {
		case stroke:
			out = append(out, v)
		case []stroke:
			out = append(out, v...)
		default:
			panic("skull: strokes takes stroke or []stroke")
		}
	}
	return out
}

// Accessory is a named set of overlay strokes.
type accessory struct {
	name    string
	strokes []stroke
}

func (a accessory) pixels(dst []Pixel) []Pixel {
	for _, s := range a.strokes {
		for x := s.x0; x < s.x1; x += s.step {
			for _, y := range s.ys {
				dst = append(dst, Pixel{X: x, Y: y, C: s.c})
			}
		}
	}
	return dst
}

type xy = [2]int

var hats = [30]accessory{
	{"cowboy hat", strokes(
		row(0, 16, -2, brown), row(1, 15, -3, brown), row(3, 13, -4, brown),
		row(4, 12, -5, darkBrown), row(5, 11, -6, brown), row(5, 11, -3, darkBrown),
	)},
	{"top hat", strokes(block(3, 13, -8, -1, black), row(2, 14, -2, black), row(4, 12, -3, darkBrown))},
	{"beanie", strokes(
		row(3, 13, -2, red), row(4, 12, -3, red), row(5, 11, -4, red), row(6, 10, -5, red), dot(8, -6, red),
	)},
	{"baseball cap", strokes(row(2, 14, -2, blue), row(3, 13, -3, blue), row(4, 12, -4, blue), row(0, 8, -1, blue))},
	{"crown", strokes(
		row(3, 13, -2, gold),
		dots(gold, xy{4, -3}, xy{6, -4}, xy{8, -5}, xy{10, -4}, xy{12, -3}, xy{6, -3}, xy{8, -4}, xy{8, -3}, xy{10, -3}),
		dot(8, -4, red),
	)},
	{"pirate hat", strokes(
		row(2, 14, -2, black), row(3, 13, -3, black), row(1, 5, -4, black), row(11, 15, -4, black),
		row(5, 11, -5, black), dot(7, -4, white), dot(8, -4, white),
	)},
	{"sailor hat", strokes(row(3, 13, -2, white), row(4, 12, -3, white), row(5, 11, -4, white), row(3, 13, -2, blue))},
	{"trucker cap", strokes(row(2, 14, -2, orange), row(3, 13, -3, orange), row(4, 12, -4, white), row(0, 8, -1, orange))},
	{"fedora", strokes(
		row(1, 15, -2, gray), row(3, 13, -3, gray), row(4, 12, -4, gray), row(4, 12, -5, gray), row(3, 13, -3, black),
	)},
	{"wizard hat", strokes(
		row(3, 13, -2, purple), row(4, 12, -3, purple), row(5, 11, -4, purple), row(6, 10, -5, purple),
		row(7, 9, -6, purple), dot(7, -7, purple), dot(8, -8, purple), dot(7, -5, gold),
	)},
	{"headband", strokes(row(1, 15, 4, red), dot(0, 5, red), dot(0, 6, red))},
	{"mohawk", strokes(
		row(7, 9, -6, green), row(7, 9, -5, green), row(7, 9, -4, green),
		row(7, 9, -3, green), row(7, 9, -2, green), row(7, 9, -1, green),
	)},
	{"viking helmet", strokes(
		row(2, 14, -2, silver), row(3, 13, -3, silver), row(4, 12, -4, silver),
		dots(white, xy{1, -3}, xy{0, -4}, xy{-1, -5}, xy{14, -3}, xy{15, -4}, xy{16, -5}),
	)},
	{"chef hat", strokes(row(3, 13, -2, white), block(3, 13, -6, -2, white))},
	{"bandana", strokes(row(1, 15, -1, red), row(2, 14, -2, red), dot(14, 0, red), dot(15, 1, red))},
	{"halo", strokes(row(4, 12, -4, gold), dot(3, -3, gold), dot(12, -3, gold))},
	{"bucket hat", strokes(row(1, 15, -2, green), row(3, 13, -3, green), row(4, 12, -4, green))},
	{"santa hat", strokes(
		row(3, 13, -2, red), row(4, 12, -3, red), row(5, 11, -4, red), row(10, 13, -5, red),
		dot(13, -5, white), row(3, 13, -2, white),
	)},
	{"afro", strokes(block(1, 15, -5, 1, black))},
	{"devil horns", strokes(dots(red, xy{2, -2}, xy{1, -3}, xy{0, -4}, xy{13, -2}, xy{14, -3}, xy{15, -4}))},
	{"army helmet", strokes(row(2, 14, -2, green), row(3, 13, -3, green), row(4, 12, -4, green), row(5, 11, -5, green))},
	{"sombrero", strokes(row(-1, 17, -2, yellow), row(3, 13, -3, orange), row(4, 12, -4, yellow), row(5, 11, -5, orange))},
	{"backwards cap", strokes(row(2, 14, -2, red), row(3, 13, -3, red), row(9, 16, -1, red))},
	{"durag", strokes(row(2, 14, -1, blue), row(3, 13, -2, blue), dots(blue, xy{14, 0}, xy{15, 1}, xy{15, 2}))},
	{"bowler hat", strokes(row(2, 14, -2, black), block(4, 12, -5, -2, black))},
	{"straw hat", strokes(row(0, 16, -2, yellow), row(3, 13, -3, yellow), row(4, 12, -4, yellow), row(3, 13, -3, brown))},
	{"space helmet", strokes(
		row(1, 15, -2, lightGray), row(1, 15, -3, lightGray), row(2, 14, -4, lightGray),
		row(3, 13, -5, lightGray), row(2, 14, -2, cyan),
	)},
	{"fire", strokes(
		dot(6, -2, orange), dot(7, -3, red), dot(8, -4, yellow), dot(9, -3, orange),
		dot(7, -5, orange), dot(8, -6, red), dot(5, -3, red), dot(10, -2, yellow),
	)},
	{"propeller hat", strokes(
		row(3, 13, -2, blue), row(4, 12, -3, blue),
		dots(red, xy{7, -4}, xy{8, -4}, xy{5, -5}, xy{6, -4}, xy{9, -4}, xy{10, -5}),
	)},
	{"toque", strokes(
		row(3, 13, -2, teal), row(4, 12, -3, white), row(4, 12, -4, teal), row(5, 11, -5, teal), row(6, 10, -6, teal),
	)},
}

// laserEyes is the eyewear index drawn by the renderer instead of overlays.
const laserEyes = 10

var eyewear = [12]accessory{
	{"pit vipers", strokes(
		row(2, 7, 7, cyan), row(9, 14, 7, magenta), row(2, 7, 8, cyan), row(9, 14, 8, magenta), row(7, 9, 7, black),
	)},
	{"aviators", strokes(
		row(2, 7, 7, gold), row(9, 14, 7, gold), row(3, 6, 8, lensBrown), row(10, 13, 8, lensBrown), row(7, 9, 7, gold),
	)},
	{"3d glasses", strokes(
		row(2, 7, 7, red), row(9, 14, 7, cyan), row(2, 7, 8, red), row(9, 14, 8, cyan), row(7, 9, 7, black),
	)},
	{"heart glasses", strokes(
		dots(pink, xy{3, 7}, xy{4, 6}, xy{5, 7}, xy{4, 8}, xy{10, 7}, xy{11, 6}, xy{12, 7}, xy{11, 8}),
		row(6, 10, 7, pink),
	)},
	{"nerd glasses", strokes(
		columns(2, 7, 1, black, 6, 9), columns(9, 14, 1, black, 6, 9),
		dots(black, xy{2, 7}, xy{2, 8}, xy{6, 7}, xy{6, 8}, xy{9, 7}, xy{9, 8}, xy{13, 7}, xy{13, 8}),
		row(7, 9, 7, black),
	)},
	{"monocle", strokes(
		dots(gold, xy{9, 6}, xy{13, 6}, xy{9, 9}, xy{13, 9}),
		columns(10, 13, 1, gold, 6, 9),
		dot(13, 10, gold), dot(13, 11, gold),
	)},
	{"cyclops visor", strokes(row(1, 15, 7, red), row(1, 15, 8, visorRed))},
	{"thug life", strokes(
		row(2, 7, 8, black), row(9, 14, 8, black), row(2, 7, 7, black), row(9, 14, 7, black), row(7, 9, 8, black),
	)},
	{"star glasses", strokes(
		dots(gold, xy{4, 7}, xy{3, 7}, xy{5, 7}, xy{4, 6}, xy{4, 8}, xy{11, 7}, xy{10, 7}, xy{12, 7}, xy{11, 6}, xy{11, 8}),
		row(6, 10, 7, gold),
	)},
	{"vr headset", strokes(block(1, 15, 6, 10, black), row(3, 6, 7, cyan), row(10, 13, 7, cyan))},
	{"laser eyes", nil},
	{"lennon glasses", strokes(
		dots(gold, xy{3, 6}, xy{6, 6}, xy{3, 9}, xy{6, 9}, xy{10, 6}, xy{13, 6}, xy{10, 9}, xy{13, 9}),
		row(7, 10, 7, gold),
	)},
}

var mouthItems = [8]accessory{
	{"cigarette", strokes(row(12, 16, 14, white), dot(16, 14, orange), dot(16, 13, smokeLight), dot(17, 12, smokeDark))},
	{"pipe", strokes(
		dots(brown, xy{13, 15}, xy{14, 15}, xy{14, 14}, xy{15, 14}, xy{15, 13}, xy{15, 12}, xy{14, 12}),
		dot(14, 11, smokeLight),
	)},
	{"cigar", strokes(row(12, 17, 14, brown), dot(17, 14, orange), dot(17, 13, smokeLight))},
	{"rose", strokes(dot(13, 14, green), dot(14, 14, green), dot(15, 14, red), dot(15, 13, red), dot(14, 13, red))},
	{"lollipop", strokes(dot(13, 14, white), dot(14, 14, white), dot(15, 13, pink), dot(15, 14, pink), dot(14, 13, pink))},
	{"dripping fangs", strokes(dot(4, 16, blood), dot(11, 16, blood))},
	{"bubble gum", strokes(dots(pink, xy{8, 16}, xy{9, 16}, xy{8, 17}, xy{9, 17}))},
	{"tongue", strokes(dots(tongue, xy{7, 16}, xy{8, 16}, xy{8, 17}))},
}

var neckItems = [6]accessory{
	{"gold chain", strokes(row(3, 13, 17, gold), dots(gold, xy{7, 18}, xy{8, 18}, xy{7, 19}, xy{8, 19}))},
	{"silver chain", strokes(row(3, 13, 17, silver), dot(8, 18, silver))},
	{"bowtie", strokes(
		dot(6, 17, red), dot(7, 17, black), dot(8, 17, black), dot(9, 17, red), dot(5, 17, red), dot(10, 17, red),
	)},
	{"neck bandana", strokes(row(4, 12, 16, red), row(5, 11, 17, red))},
	{"hoodie", strokes(
		block(0, 4, 8, 18, gray), block(12, 16, 8, 18, gray), block(4, 12, 16, 20, gray), block(1, 15, -2, 3, hood),
	)},
	{"pearl necklace", strokes(columns(3, 13, 2, white, 17))},
}

// HatNames, EyewearNames, MouthNames and NeckNames list the accessory
// variants in roll order.
var (
	HatNames     = accessoryNames(hats[:])
	EyewearNames = accessoryNames(eyewear[:])
	MouthNames   = accessoryNames(mouthItems[:])
	NeckNames    = accessoryNames(neckItems[:])
)

func accessoryNames(as []accessory) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.name
	}
	return out
}
