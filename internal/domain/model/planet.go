package model

// Unknown is the sentinel the source uses for missing numeric attributes.
const Unknown = "unknown"

// Planet is a homeworld as served by the source. Numeric attributes stay
// string-encoded because the destination stores them as strings too.
type Planet struct {
	ID             string
	Name           string
	URL            string
	Diameter       string
	Population     string
	RotationPeriod string
	OrbitalPeriod  string
}

// Normalized returns a copy with every unknown or empty numeric attribute set to "0".
func (p Planet) Normalized() Planet {
	p.Diameter = zeroIfUnknown(p.Diameter)
	p.Population = zeroIfUnknown(p.Population)
	p.RotationPeriod = zeroIfUnknown(p.RotationPeriod)
	p.OrbitalPeriod = zeroIfUnknown(p.OrbitalPeriod)
	return p
}

func zeroIfUnknown(v string) string {
	if v == Unknown || v == "" {
		return "0"
	}
	return v
}

// Homeworlds is a planet collection keyed by ID that remembers insertion order.
type Homeworlds struct {
	order []string
	byID  map[string]Planet
}

// NewHomeworlds returns an empty collection.
func NewHomeworlds() *Homeworlds {
	return &Homeworlds{byID: make(map[string]Planet)}
}

// Add stores p. Re-adding an existing ID keeps the first position and the first value.
func (h *Homeworlds) Add(p Planet) bool {
	if _, ok := h.byID[p.ID]; ok {
		return false
	}
	h.order = append(h.order, p.ID)
	h.byID[p.ID] = p
	return true
}

// Get returns the planet stored under id.
func (h *Homeworlds) Get(id string) (Planet, bool) {
	p, ok := h.byID[id]
	return p, ok
}

// Len reports how many planets are stored.
func (h *Homeworlds) Len() int { return len(h.order) }

// All returns the planets in insertion order.
func (h *Homeworlds) All() []Planet {
	out := make([]Planet, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}
