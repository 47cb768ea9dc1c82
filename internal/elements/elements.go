// Package elements holds the runtime's canonical element table: the mapping
// between element names and the numeric IDs the running program uses. The
// table is read-only once loaded and is handed to the save codec per call.
package elements

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/elements.yaml
var defaultElementsYAML []byte

const (
	// None is the empty element. Particles of this type are not saved.
	None = 0

	// MissingBase is the first sentinel ID. Elements a save references but the
	// table does not know get IDs at or above this value, one per name.
	MissingBase = 1 << 20
)

// IsMissing reports whether id is a missing-element sentinel.
func IsMissing(id int) bool {
	return id >= MissingBase
}

// Element describes one runtime element.
type Element struct {
	ID             int    `yaml:"id"`
	Name           string `yaml:"name"`
	LegacyID       *int   `yaml:"legacy_id,omitempty"`
	Color          string `yaml:"color,omitempty"`
	Glyph          string `yaml:"glyph,omitempty"`
	CtypeIsElement bool   `yaml:"ctype_is_element,omitempty"`
	PressureInTmp3 bool   `yaml:"pressure_in_tmp3,omitempty"`
}

// tableFile is the YAML document layout.
type tableFile struct {
	Elements []Element `yaml:"elements"`
}

// Table is the canonical element table.
type Table struct {
	byID     map[int]Element
	byName   map[string]int
	byLegacy map[int]int
	ordered  []Element
}

// Parse builds a Table from YAML. IDs and names must be unique, names
// non-empty, IDs in [0, MissingBase) and ID 0 must be NONE.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("elements: yaml unmarshal: %w", err)
	}
	return New(f.Elements)
}

// New builds a Table from a list of elements.
func New(list []Element) (*Table, error) {
	t := &Table{
		byID:     make(map[int]Element, len(list)),
		byName:   make(map[string]int, len(list)),
		byLegacy: make(map[int]int),
	}

	for _, e := range list {
		if e.Name == "" {
			return nil, fmt.Errorf("elements: element %d has no name", e.ID)
		}
		if e.ID < 0 || e.ID >= MissingBase {
			return nil, fmt.Errorf("elements: %s has out-of-range id %d", e.Name, e.ID)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("elements: duplicate id %d", e.ID)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("elements: duplicate name %q", e.Name)
		}
		if e.LegacyID != nil {
			if prev, dup := t.byLegacy[*e.LegacyID]; dup {
				return nil, fmt.Errorf("elements: legacy id %d used by both %s and %s",
					*e.LegacyID, t.byID[prev].Name, e.Name)
			}
			t.byLegacy[*e.LegacyID] = e.ID
		}
		t.byID[e.ID] = e
		t.byName[e.Name] = e.ID
		t.ordered = append(t.ordered, e)
	}

	if none, ok := t.byID[None]; !ok || none.Name != "NONE" {
		return nil, fmt.Errorf("elements: id 0 must be NONE")
	}

	sort.Slice(t.ordered, func(i, j int) bool {
		return t.ordered[i].ID < t.ordered[j].ID
	})
	return t, nil
}

// Default returns the embedded element table.
func Default() *Table {
	t, err := Parse(defaultElementsYAML)
	if err != nil {
		panic(fmt.Sprintf("elements: embedded table is invalid: %v", err))
	}
	return t
}

// Load loads the element table.
// Search order: customPath -> ~/.powdersave/elements.yaml -> ./configs/elements.yaml -> embedded default
func Load(customPath string) (*Table, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read elements %s: %w", customPath, err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse elements %s: %w", customPath, err)
		}
		return t, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(home, ".powdersave", "elements.yaml")); err == nil {
			if t, err := Parse(data); err == nil {
				return t, nil
			}
		}
	}

	if data, err := os.ReadFile("configs/elements.yaml"); err == nil {
		if t, err := Parse(data); err == nil {
			return t, nil
		}
	}

	return Default(), nil
}

// ByName returns the runtime ID for a name.
func (t *Table) ByName(name string) (int, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// ByID returns the element with the given runtime ID.
func (t *Table) ByID(id int) (Element, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// ByLegacyID returns the runtime ID for a PSv-era element number.
func (t *Table) ByLegacyID(legacy int) (int, bool) {
	id, ok := t.byLegacy[legacy]
	return id, ok
}

// Name returns the element name, or "" for unknown IDs.
func (t *Table) Name(id int) string {
	return t.byID[id].Name
}

// Valid reports whether id is a known runtime element.
func (t *Table) Valid(id int) bool {
	_, ok := t.byID[id]
	return ok
}

// CtypeIsElement reports whether particles of this type store an element ID
// in their ctype field. Such ctypes are translated through the save palette.
func (t *Table) CtypeIsElement(id int) bool {
	return t.byID[id].CtypeIsElement
}

// PressureInTmp3 reports whether the element keeps pressure in tmp3.
func (t *Table) PressureInTmp3(id int) bool {
	return t.byID[id].PressureInTmp3
}

// Elements returns all elements ordered by ID.
func (t *Table) Elements() []Element {
	out := make([]Element, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of elements.
func (t *Table) Len() int {
	return len(t.ordered)
}
