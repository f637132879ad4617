package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

func TestReadFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json", FormatJSON, `{"budget": 300, "precision": 0, "algorithm": "dp",
			"items": [{"id": "roads", "cost": 120, "value": 130}, {"id": "parks", "cost": 80}]}`},
		{"yaml", FormatYAML, `
budget: 300
precision: 0
algorithm: dp
items:
  - id: roads
    cost: 120
    value: 130
  - id: parks
    cost: 80
`},
		{"toml", FormatTOML, `
budget = 300.0
precision = 0
algorithm = "dp"

[[items]]
id = "roads"
cost = 120.0
value = 130.0

[[items]]
id = "parks"
cost = 80.0
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Read(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if d.Budget == nil || *d.Budget != 300 {
				t.Errorf("budget = %v", d.Budget)
			}
			if d.Precision == nil || *d.Precision != 0 {
				t.Errorf("precision = %v", d.Precision)
			}
			if d.Algorithm != "dp" {
				t.Errorf("algorithm = %q", d.Algorithm)
			}
			if len(d.Items) != 2 {
				t.Fatalf("items = %+v", d.Items)
			}
			if d.Items[0].ID != "roads" || d.Items[0].Cost != 120 || d.Items[0].Value == nil || *d.Items[0].Value != 130 {
				t.Errorf("item 0 = %+v", d.Items[0])
			}
			if d.Items[1].Value != nil {
				t.Errorf("item 1 should be unweighted, got value %v", *d.Items[1].Value)
			}
		})
	}
}

func TestReadCostsShorthand(t *testing.T) {
	d, err := Read(strings.NewReader("budget: 300\ncosts: [120, 80, 150, 40]\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(d.Items) != 4 || d.Items[2].Cost != 150 || d.Costs != nil {
		t.Errorf("costs not folded into items: %+v", d)
	}

	_, err = Read(strings.NewReader(`{"costs": [1], "items": [{"cost": 2}]}`), FormatJSON)
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("items and costs together: %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	input := "id,cost,value\nroads,120,130\nparks, 80,\n"
	d, err := Read(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if d.Budget != nil {
		t.Error("csv carries no budget")
	}
	want := []solver.Item{{ID: "roads", Cost: 120, Value: solver.Float(130)}, {ID: "parks", Cost: 80}}
	if len(d.Items) != len(want) {
		t.Fatalf("items = %+v", d.Items)
	}
	for i := range want {
		got := d.Items[i]
		if got.ID != want[i].ID || got.Cost != want[i].Cost || (got.Value == nil) != (want[i].Value == nil) {
			t.Errorf("item %d = %+v, want %+v", i, got, want[i])
		}
	}

	costOnly, err := Read(strings.NewReader("cost\n1.5\n2.25\n"), FormatCSV)
	if err != nil || len(costOnly.Items) != 2 || costOnly.Items[1].Cost != 2.25 {
		t.Errorf("cost-only csv: %+v, %v", costOnly, err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json syntax", FormatJSON, `{"budget": `},
		{"json unknown field", FormatJSON, `{"budjet": 3}`},
		{"yaml unknown field", FormatYAML, "items: []\nbudjet: 3\n"},
		{"toml unknown key", FormatTOML, "budjet = 3.0\n"},
		{"csv missing cost", FormatCSV, "id,value\na,1\n"},
		{"csv unknown column", FormatCSV, "id,cost,weight\na,1,2\n"},
		{"csv bad cost", FormatCSV, "cost\nlots\n"},
		{"csv bad value", FormatCSV, "cost,value\n1,many\n"},
		{"unknown format", Format("xml"), "<items/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.format)
			if !errs.Is(err, errs.ErrCodeInvalidFormat) {
				t.Errorf("error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	for path, want := range map[string]Format{
		"a.json": FormatJSON, "b.YAML": FormatYAML, "c.yml": FormatYAML, "d.toml": FormatTOML, "e.csv": FormatCSV,
	} {
		got, err := DetectFormat(path)
		if err != nil || got != want {
			t.Errorf("DetectFormat(%s) = %s, %v; want %s", path, got, err, want)
		}
	}
	if _, err := DetectFormat("items.txt"); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("txt: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %s, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("xlsx: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.json")
	if err := os.WriteFile(path, []byte(`{"budget": 10, "costs": [4, 5, 6]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Items) != 3 {
		t.Errorf("items = %+v", d.Items)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("cost\nx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	if !errs.Is(err, errs.ErrCodeInvalidFormat) || !strings.Contains(err.Error(), "bad.csv") {
		t.Errorf("bad csv error should name the file: %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	budget, precision := 300.0, 2
	d := &Dataset{
		Budget:    &budget,
		Precision: &precision,
		Items:     []solver.Item{{ID: "a", Cost: 120.5, Value: solver.Float(7)}, {ID: "b", Cost: 80}},
	}
	for _, f := range []Format{FormatJSON, FormatYAML, FormatTOML, FormatCSV} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(d, f)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := Read(strings.NewReader(string(data)), f)
			if err != nil {
				t.Fatalf("Read: %v\n%s", err, data)
			}
			if len(got.Items) != 2 || got.Items[0].Cost != 120.5 || *got.Items[0].Value != 7 || got.Items[1].Value != nil {
				t.Errorf("items changed: %+v", got.Items)
			}
			if f != FormatCSV && (got.Budget == nil || *got.Budget != 300) {
				t.Errorf("budget lost: %v", got.Budget)
			}
		})
	}
}
