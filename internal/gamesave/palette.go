package gamesave

import (
	"sort"

	"github.com/vovakirdan/powdersave/internal/elements"
)

// maxSaveID is the largest element ID a save can carry (stored as uint16).
const maxSaveID = 0xFFFF

// TranslatePalette maps the IDs a save uses onto runtime IDs. Names the table
// does not know are given sentinel IDs recorded in missing. The palette must
// not repeat an ID or a name, and must not use ID 0 or an empty name.
func TranslatePalette(items []PaletteItem, table *elements.Table, missing *MissingElements) (map[int]int, error) {
	out := make(map[int]int, len(items))
	names := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID <= 0 || item.ID > maxSaveID {
			return nil, parseErrorf(ParseCorrupt, "palette id %d out of range", item.ID)
		}
		if item.Name == "" {
			return nil, parseErrorf(ParseCorrupt, "palette id %d has an empty name", item.ID)
		}
		if _, dup := out[item.ID]; dup {
			return nil, parseErrorf(ParseCorrupt, "palette repeats id %d", item.ID)
		}
		if names[item.Name] {
			return nil, parseErrorf(ParseCorrupt, "palette repeats name %q", item.Name)
		}
		names[item.Name] = true

		if id, ok := table.ByName(item.Name); ok && id != elements.None {
			out[item.ID] = id
			continue
		}
		out[item.ID] = missing.sentinelFor(elements.MissingBase, item.Name)
	}
	return out, nil
}

// BuildPalette assigns dense save IDs (1..n, in runtime ID order) to every
// element the particles use, including element-valued ctypes and the ctypes
// of missing elements that prior (the palette the save was read with) names.
// It returns the palette and the runtime-to-save mapping. A type with no
// known name is a BuildError.
func BuildPalette(parts []Particle, table *elements.Table, missing MissingElements, prior []PaletteItem) ([]PaletteItem, map[int]int, error) {
	used := make(map[int]bool)
	for _, p := range parts {
		used[p.Type] = true
		if p.Ctype != 0 && ctypeIsElement(table, p.Type) {
			used[p.Ctype] = true
		}
		if id, ok := carriedCtype(p, table, missing, prior); ok {
			used[id] = true
		}
	}

	ids := make([]int, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if len(ids) > maxSaveID {
		return nil, nil, buildErrorf("%d distinct elements exceed the palette limit", len(ids))
	}

	items := make([]PaletteItem, 0, len(ids))
	toSave := make(map[int]int, len(ids))
	for i, id := range ids {
		name, ok := elementName(table, missing, id)
		if !ok {
			return nil, nil, buildErrorf("element id %d has no known name", id)
		}
		items = append(items, PaletteItem{Name: name, ID: i + 1})
		toSave[id] = i + 1
	}
	return items, toSave, nil
}

func elementName(table *elements.Table, missing MissingElements, id int) (string, bool) {
	if elements.IsMissing(id) {
		return missing.Name(id)
	}
	if id == elements.None || !table.Valid(id) {
		return "", false
	}
	return table.Name(id), true
}

// carriedCtype resolves the ctype of a particle whose type is missing. The
// table cannot say whether such a ctype names an element, so it is kept as
// the ID it had in prior. When prior lists that ID, the element it names is
// returned as a runtime ID.
func carriedCtype(p Particle, table *elements.Table, missing MissingElements, prior []PaletteItem) (int, bool) {
	if p.Ctype == 0 || !elements.IsMissing(p.Type) {
		return 0, false
	}
	for _, item := range prior {
		if item.ID != p.Ctype {
			continue
		}
		if id, ok := table.ByName(item.Name); ok && id != elements.None {
			return id, true
		}
		return missing.lookup(item.Name)
	}
	return 0, false
}

// ctypeIsElement reports whether a particle of type typ stores an element ID
// in its ctype. Unknown types keep their ctype verbatim.
func ctypeIsElement(table *elements.Table, typ int) bool {
	return !elements.IsMissing(typ) && table.CtypeIsElement(typ)
}
