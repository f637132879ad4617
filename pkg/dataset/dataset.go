package dataset

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// Format is a dataset file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
)

var formatByExt = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
	".csv":  FormatCSV,
}

// Dataset is a problem as stored in a file. Pointer fields are nil when the
// file leaves them out.
type Dataset struct {
	Budget    *float64      `json:"budget,omitempty" yaml:"budget,omitempty" toml:"budget,omitempty"`
	Precision *int          `json:"precision,omitempty" yaml:"precision,omitempty" toml:"precision,omitempty"`
	Algorithm string        `json:"algorithm,omitempty" yaml:"algorithm,omitempty" toml:"algorithm,omitempty"`
	Items     []solver.Item `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
	Costs     []float64     `json:"costs,omitempty" yaml:"costs,omitempty" toml:"costs,omitempty"`
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	if f == "yml" {
		f = FormatYAML
	}
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatCSV:
		return f, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unknown dataset format %q (must be one of: json, yaml, toml, csv)", s)
}

// DetectFormat returns the format implied by the extension of path.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatByExt[ext]; ok {
		return f, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "cannot infer dataset format from %q (use .json, .yaml, .toml or .csv)", filepath.Base(path))
}

// Load reads the dataset file at path, detecting its format from the extension.
func Load(path string) (*Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errs.New(errs.ErrCodeFileNotFound, "dataset %s not found", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open %s: %v", path, err)
	}
	defer f.Close()

	d, err := Read(f, format)
	if err != nil {
		return nil, errs.Wrap(errs.GetCode(err), err, "%s: %s", path, errs.UserMessage(err))
	}
	return d, nil
}

// Read decodes a dataset in the given format from r. The costs shorthand is
// folded into Items, so callers only ever look at Items.
func Read(r io.Reader, format Format) (*Dataset, error) {
	var (
		d   Dataset
		err error
	)
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&d)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&d)
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.NewDecoder(r).Decode(&d)
		if err == nil && len(md.Undecoded()) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown key %s", md.Undecoded()[0])
		}
	case FormatCSV:
		var items []solver.Item
		items, err = readCSV(r)
		d.Items = items
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	if err != nil {
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode %s: %v", format, err)
	}

	if len(d.Costs) > 0 {
		if len(d.Items) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "dataset has both items and costs; use one")
		}
		d.Items = solver.ItemsFromCosts(d.Costs)
		d.Costs = nil
	}
	return &d, nil
}

// Write encodes d in the given format. CSV output holds items only.
func Write(w io.Writer, d *Dataset, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(d)
	case FormatCSV:
		return writeCSV(w, d.Items)
	}
	return errs.New(errs.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
}

// Marshal is Write into a byte slice.
func Marshal(d *Dataset, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
