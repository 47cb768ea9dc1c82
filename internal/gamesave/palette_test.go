package gamesave

import (
	"reflect"
	"testing"

	"github.com/vovakirdan/powdersave/internal/elements"
)

func TestTranslatePalette(t *testing.T) {
	table := elements.Default()
	var missing MissingElements

	mapping, err := TranslatePalette([]PaletteItem{
		{Name: "WATR", ID: 7},
		{Name: "MYST", ID: 3},
		{Name: "DUST", ID: 1},
	}, table, &missing)
	if err != nil {
		t.Fatalf("TranslatePalette failed: %v", err)
	}
	if mapping[7] != elementID(t, "WATR") || mapping[1] != elementID(t, "DUST") {
		t.Errorf("mapping = %v", mapping)
	}
	if mapping[3] != elements.MissingBase {
		t.Errorf("MYST mapped to %d, expected sentinel %d", mapping[3], elements.MissingBase)
	}
	if name, _ := missing.Name(mapping[3]); name != "MYST" {
		t.Errorf("sentinel name = %q", name)
	}
}

func TestTranslatePaletteRejects(t *testing.T) {
	tests := []struct {
		name  string
		items []PaletteItem
	}{
		{"zero id", []PaletteItem{{Name: "DUST", ID: 0}}},
		{"large id", []PaletteItem{{Name: "DUST", ID: 70000}}},
		{"empty name", []PaletteItem{{Name: "", ID: 1}}},
		{"duplicate id", []PaletteItem{{Name: "DUST", ID: 1}, {Name: "WATR", ID: 1}}},
		{"duplicate name", []PaletteItem{{Name: "DUST", ID: 1}, {Name: "DUST", ID: 2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var missing MissingElements
			_, err := TranslatePalette(tc.items, elements.Default(), &missing)
			expectResult(t, err, ParseCorrupt)
		})
	}
}

func TestBuildPalette(t *testing.T) {
	table := elements.Default()
	dust, watr, clne := elementID(t, "DUST"), elementID(t, "WATR"), elementID(t, "CLNE")

	var missing MissingElements
	sentinel := missing.sentinelFor(elements.MissingBase, "MYST")

	cloner := NewParticle(clne, 0, 0)
	cloner.Ctype = watr
	stone := NewParticle(dust, 1, 0)
	stone.Ctype = 5 // plain data, not an element
	parts := []Particle{cloner, stone, NewParticle(sentinel, 2, 0), NewParticle(dust, 3, 0)}

	items, toSave, err := BuildPalette(parts, table, missing, nil)
	if err != nil {
		t.Fatalf("BuildPalette failed: %v", err)
	}
	want := []PaletteItem{
		{Name: "DUST", ID: 1},
		{Name: "WATR", ID: 2},
		{Name: "CLNE", ID: 3},
		{Name: "MYST", ID: 4},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("palette = %+v, expected %+v", items, want)
	}
	if toSave[sentinel] != 4 || toSave[clne] != 3 {
		t.Errorf("toSave = %v", toSave)
	}

	if _, _, err := BuildPalette([]Particle{NewParticle(4242, 0, 0)}, table, missing, nil); err == nil {
		t.Error("expected error for unnamed element")
	}
	orphan := NewParticle(clne, 0, 0)
	orphan.Ctype = elements.MissingBase + 9
	if _, _, err := BuildPalette([]Particle{orphan}, table, missing, nil); err == nil {
		t.Error("expected error for unnamed sentinel ctype")
	}
}

func TestBuildPaletteEmpty(t *testing.T) {
	items, toSave, err := BuildPalette(nil, elements.Default(), MissingElements{}, nil)
	if err != nil || len(items) != 0 || len(toSave) != 0 {
		t.Errorf("BuildPalette(nil) = %v, %v, %v", items, toSave, err)
	}
}

func TestBuildPaletteCarriesMissingCtype(t *testing.T) {
	table := elements.Default()
	var missing MissingElements
	sentinel := missing.sentinelFor(elements.MissingBase, "MYST")
	ghost := missing.sentinelFor(elements.MissingBase, "GHOST")
	prior := []PaletteItem{{Name: "MYST", ID: 7}, {Name: "WATR", ID: 8}, {Name: "GHOST", ID: 9}}

	toWater := NewParticle(sentinel, 0, 0)
	toWater.Ctype = 8
	toGhost := NewParticle(sentinel, 1, 0)
	toGhost.Ctype = 9
	plain := NewParticle(sentinel, 2, 0)
	plain.Ctype = 50

	items, toSave, err := BuildPalette([]Particle{toWater, toGhost, plain}, table, missing, prior)
	if err != nil {
		t.Fatalf("BuildPalette failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("palette = %+v, expected WATR, MYST and GHOST", items)
	}
	if _, ok := toSave[elementID(t, "WATR")]; !ok {
		t.Error("WATR missing from the palette")
	}
	if _, ok := toSave[ghost]; !ok {
		t.Error("GHOST missing from the palette")
	}

	if _, ok := carriedCtype(plain, table, missing, prior); ok {
		t.Error("ctype outside the prior palette should stay as data")
	}
	known := NewParticle(elementID(t, "DUST"), 0, 0)
	known.Ctype = 8
	if _, ok := carriedCtype(known, table, missing, prior); ok {
		t.Error("known types are handled by the element table")
	}
}
