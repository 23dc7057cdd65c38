package cards

// Decorator fills in the cosmetic social counters on freshly built cards. It
// runs after classification and never reads or writes score, tags or rarity.
type Decorator struct {
	pick Picker
}

// NewDecorator returns a decorator drawing from pick, or from the process-wide
// generator when pick is nil.
func NewDecorator(pick Picker) *Decorator {
	if pick == nil {
		pick = globalPicker{}
	}
	return &Decorator{pick: pick}
}

// Decorate assigns likes in [100, 5100) and comments in [10, 510) to every
// card and clears Liked.
func (d *Decorator) Decorate(cs []Card) {
	for i := range cs {
		cs[i].Likes = d.pick.IntN(5000) + 100
		cs[i].Comments = d.pick.IntN(500) + 10
		cs[i].Liked = false
	}
}
