package gamesave

import (
	"sort"
	"unicode/utf8"

	"github.com/vovakirdan/powdersave/internal/elements"
)

// CellSize is the edge length of one block in particle pixels.
const CellSize = 4

// Sign limits.
const (
	MaxSigns    = 16
	MaxSignText = 45
)

// DefaultTemp is the temperature given to particles built with NewParticle.
const DefaultTemp = 295.15

// Wall types stored in BlockMap.
const (
	WallNone uint8 = iota
	WallConductive
	WallEHole
	WallDetector
	WallStreamline
	WallFan
	WallLiquid
	WallAbsorb
	WallErase
	WallWall
	WallAirOnly
	WallPowder
	WallConductor
	WallEHoleOpen
	WallGas
	WallGravity
	WallEnergy
	WallNoAir
	WallStasis

	WallCount
)

// Ref is an index into GameSave.Particles, or NoRef.
type Ref int32

// NoRef marks an absent reference.
const NoRef Ref = -1

// Valid reports whether r points at a particle (range is not checked).
func (r Ref) Valid() bool {
	return r >= 0
}

// Particle is one simulation particle. Type and element-valued Ctype hold
// runtime element IDs, or missing-element sentinels.
type Particle struct {
	Type  int
	Life  int
	Ctype int

	X, Y   float32
	VX, VY float32
	Temp   float32

	Tmp, Tmp2, Tmp3, Tmp4 int

	Dcolour uint32
	Flags   uint32

	// Bonds link this particle to up to two others (wire-like elements).
	Bonds [2]Ref
}

// NewParticle returns a particle of type typ at (x, y) with default
// temperature and no bonds.
func NewParticle(typ int, x, y float32) Particle {
	return Particle{
		Type:  typ,
		X:     x,
		Y:     y,
		Temp:  DefaultTemp,
		Bonds: [2]Ref{NoRef, NoRef},
	}
}

// Justification controls how a sign's text is anchored.
type Justification uint8

const (
	JustifyLeft Justification = iota
	JustifyMiddle
	JustifyRight
	JustifyNone
)

// Sign is a text label placed on the canvas in pixel coordinates.
type Sign struct {
	Text string
	X, Y int
	Ju   Justification
}

func (s Sign) validText() bool {
	return utf8.ValidString(s.Text) && utf8.RuneCountInString(s.Text) <= MaxSignText
}

// StkmData records which particles are stick-figure controllers and what
// equipment they carry.
type StkmData struct {
	RocketBoots1 bool
	RocketBoots2 bool
	Fan1         bool
	Fan2         bool

	RocketBootsFigh []Ref
	FanFigh         []Ref
}

// HasData reports whether anything would need to be saved.
func (s StkmData) HasData() bool {
	return s.RocketBoots1 || s.RocketBoots2 || s.Fan1 || s.Fan2 ||
		len(s.RocketBootsFigh) > 0 || len(s.FanFigh) > 0
}

func (s StkmData) clone() StkmData {
	out := s
	out.RocketBootsFigh = append([]Ref(nil), s.RocketBootsFigh...)
	out.FanFigh = append([]Ref(nil), s.FanFigh...)
	return out
}

// PaletteItem maps an element name to the ID used inside one save file.
type PaletteItem struct {
	Name string
	ID   int
}

// MissingElements tracks element names a save referenced that the runtime
// table did not know. Each name gets one sentinel ID so it can be written back
// unchanged.
type MissingElements struct {
	// Identifiers counts particles (types and element ctypes) per name.
	Identifiers map[string]int
	// IDs maps each sentinel to its name.
	IDs map[int]string
}

// Len returns the number of distinct missing names.
func (m MissingElements) Len() int {
	return len(m.IDs)
}

// Names returns the missing names sorted alphabetically.
func (m MissingElements) Names() []string {
	names := make([]string, 0, len(m.IDs))
	for _, name := range m.IDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the name recorded for a sentinel.
func (m MissingElements) Name(id int) (string, bool) {
	name, ok := m.IDs[id]
	return name, ok
}

func (m MissingElements) clone() MissingElements {
	out := MissingElements{}
	if m.Identifiers != nil {
		out.Identifiers = make(map[string]int, len(m.Identifiers))
		for k, v := range m.Identifiers {
			out.Identifiers[k] = v
		}
	}
	if m.IDs != nil {
		out.IDs = make(map[int]string, len(m.IDs))
		for k, v := range m.IDs {
			out.IDs[k] = v
		}
	}
	return out
}

// sentinelFor returns the sentinel for name, allocating the next free one.
func (m *MissingElements) sentinelFor(base int, name string) int {
	if m.IDs == nil {
		m.IDs = make(map[int]string)
		m.Identifiers = make(map[string]int)
	}
	if id, ok := m.lookup(name); ok {
		return id
	}
	id := base + len(m.IDs)
	m.IDs[id] = name
	m.Identifiers[name] = 0
	return id
}

// count records one more reference to a sentinel.
func (m *MissingElements) count(id int) {
	if name, ok := m.IDs[id]; ok {
		m.Identifiers[name]++
	}
}

// lookup returns the sentinel recorded for name.
func (m MissingElements) lookup(name string) (int, bool) {
	for id, n := range m.IDs {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// countParticle records the references p makes to sentinels: its type, and
// its ctype when the type is known and the ctype is a recorded sentinel.
func (m *MissingElements) countParticle(p Particle) {
	if len(m.IDs) == 0 {
		return
	}
	if elements.IsMissing(p.Type) {
		m.count(p.Type)
		return
	}
	m.count(p.Ctype)
}

// recount rebuilds the per-name counts from parts. Names stay recorded at
// zero so their sentinels remain valid.
func (m *MissingElements) recount(parts []Particle) {
	if len(m.IDs) == 0 {
		return
	}
	for name := range m.Identifiers {
		m.Identifiers[name] = 0
	}
	for _, p := range parts {
		m.countParticle(p)
	}
}
