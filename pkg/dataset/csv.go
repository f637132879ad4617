package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

func readCSV(r io.Reader) ([]solver.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := map[string]int{"id": -1, "cost": -1, "value": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := col[name]; !ok {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "csv: unknown column %q", name)
		}
		col[name] = i
	}
	if col["cost"] < 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "csv: missing cost column")
	}

	var items []solver.Item
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}

		var it solver.Item
		if i := col["id"]; i >= 0 && i < len(rec) {
			it.ID = strings.TrimSpace(rec[i])
		}
		cost := field(rec, col["cost"])
		if it.Cost, err = strconv.ParseFloat(cost, 64); err != nil {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "csv line %d: cost %q is not a number", line, cost)
		}
		if v := field(rec, col["value"]); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errs.New(errs.ErrCodeInvalidFormat, "csv line %d: value %q is not a number", line, v)
			}
			it.Value = &f
		}
		items = append(items, it)
	}
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func writeCSV(w io.Writer, items []solver.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "cost", "value"}); err != nil {
		return err
	}
	for _, it := range items {
		value := ""
		if it.Value != nil {
			value = strconv.FormatFloat(*it.Value, 'f', -1, 64)
		}
		if err := cw.Write([]string{it.ID, strconv.FormatFloat(it.Cost, 'f', -1, 64), value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
