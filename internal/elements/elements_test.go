package elements

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	if table.Len() < 10 {
		t.Fatalf("expected a populated default table, got %d elements", table.Len())
	}

	id, ok := table.ByName("WATR")
	if !ok || id != 2 {
		t.Errorf("ByName(WATR) = %d, %v; expected 2, true", id, ok)
	}
	if table.Name(id) != "WATR" {
		t.Errorf("Name(%d) = %q, expected WATR", id, table.Name(id))
	}
	if !table.CtypeIsElement(9) {
		t.Error("CLNE should store an element in ctype")
	}
	if table.CtypeIsElement(2) {
		t.Error("WATR should not store an element in ctype")
	}

	qrtz, _ := table.ByName("QRTZ")
	if !table.PressureInTmp3(qrtz) {
		t.Error("QRTZ should keep pressure in tmp3")
	}

	legacy, ok := table.ByLegacyID(1)
	if !ok || table.Name(legacy) != "DUST" {
		t.Errorf("ByLegacyID(1) = %d, %v; expected DUST", legacy, ok)
	}
	if _, ok := table.ByLegacyID(250); ok {
		t.Error("legacy id 250 should be unknown")
	}
}

func TestElementsSorted(t *testing.T) {
	list := Default().Elements()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("elements not sorted: %d >= %d", list[i-1].ID, list[i].ID)
		}
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate id",
			yaml: "elements:\n  - {id: 0, name: NONE}\n  - {id: 1, name: DUST}\n  - {id: 1, name: WATR}\n",
			want: "duplicate id",
		},
		{
			name: "duplicate name",
			yaml: "elements:\n  - {id: 0, name: NONE}\n  - {id: 1, name: DUST}\n  - {id: 2, name: DUST}\n",
			want: "duplicate name",
		},
		{
			name: "missing none",
			yaml: "elements:\n  - {id: 1, name: DUST}\n",
			want: "must be NONE",
		},
		{
			name: "empty name",
			yaml: "elements:\n  - {id: 0, name: NONE}\n  - {id: 3}\n",
			want: "no name",
		},
		{
			name: "sentinel range",
			yaml: "elements:\n  - {id: 0, name: NONE}\n  - {id: 1048576, name: BIG}\n",
			want: "out-of-range",
		},
		{
			name: "shared legacy id",
			yaml: "elements:\n  - {id: 0, name: NONE}\n  - {id: 1, name: A, legacy_id: 4}\n  - {id: 2, name: B, legacy_id: 4}\n",
			want: "legacy id 4",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elements.yaml")
	data := "elements:\n  - {id: 0, name: NONE}\n  - {id: 7, name: ZAP, legacy_id: 3}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 elements, got %d", table.Len())
	}
	if id, ok := table.ByName("ZAP"); !ok || id != 7 {
		t.Errorf("ByName(ZAP) = %d, %v", id, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing custom path")
	}
}

func TestIsMissing(t *testing.T) {
	if IsMissing(5) {
		t.Error("5 is not a sentinel")
	}
	if !IsMissing(MissingBase) || !IsMissing(MissingBase+3) {
		t.Error("ids at or above MissingBase are sentinels")
	}
}
