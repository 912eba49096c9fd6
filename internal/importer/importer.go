// Package importer turns spreadsheet exports of an inventory into items.
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/inventory"
)

const unknownLocation = "Unknown"

type Result struct {
	Imported int64    `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// columns holds the index of each known field, -1 when absent.
type columns struct {
	brand, item, location, current, target, extra, needed int
}

var headerAliases = map[string]string{
	"brand":         "brand",
	"item":          "item",
	"name":          "item",
	"location":      "location",
	"currentcount":  "current",
	"current count": "current",
	"current":       "current",
	"targetamount":  "target",
	"target amount": "target",
	"target":        "target",
	"extra":         "extra",
	"needed":        "needed",
}

// legacyColumns is the positional layout of the old supermarket export:
// #, brand, item, size, location, target, needed.
var legacyColumns = columns{brand: 1, item: 2, location: 4, current: -1, target: 5, extra: -1, needed: 6}

func mapHeader(header []string) (columns, bool) {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch headerAliases[strings.ToLower(strings.TrimSpace(h))] {
		case "brand":
			c.brand = i
		case "item":
			c.item = i
		case "location":
			c.location = i
		case "current":
			c.current = i
		case "target":
			c.target = i
		case "extra":
			c.extra = i
		case "needed":
			c.needed = i
		}
	}
	return c, c.brand >= 0 && c.item >= 0
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a count cell. Blank and unreadable cells count as 0.
func number(row []string, i int) int {
	v := cell(row, i)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

// Rows converts records (header first) into item inputs. Rows that cannot
// become an item are counted in the result instead of failing the batch.
func Rows(records [][]string) ([]inventory.ItemInput, Result) {
	res := Result{Errors: []string{}}
	if len(records) == 0 {
		return nil, res
	}

	cols, ok := mapHeader(records[0])
	if !ok {
		cols = legacyColumns
	}

	inputs := make([]inventory.ItemInput, 0, len(records)-1)
	for i, row := range records[1:] {
		line := i + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			res.Skipped++
			continue
		}

		in := inventory.ItemInput{
			Brand:        cell(row, cols.brand),
			Item:         cell(row, cols.item),
			Location:     cell(row, cols.location),
			TargetAmount: number(row, cols.target),
			Extra:        number(row, cols.extra),
		}
		if in.Location == "" {
			in.Location = unknownLocation
		}
		switch {
		case cols.current >= 0:
			in.CurrentCount = number(row, cols.current)
		case cols.needed >= 0:
			if needed := number(row, cols.needed); needed > 0 {
				in.CurrentCount = max(0, in.TargetAmount-needed)
			} else {
				in.CurrentCount = in.TargetAmount
			}
		default:
			in.CurrentCount = in.TargetAmount
		}

		if in.Brand == "" || in.Item == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: missing brand or item", line))
			continue
		}
		if err := in.Normalize(); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, res
}

// Import reads name from r and adds every valid row to the store in one
// transaction.
func Import(ctx context.Context, repo *inventory.Repository, storeID uint, name string, r io.Reader) (Result, error) {
	records, err := ReadRecords(name, r)
	if err != nil {
		return Result{}, apperr.Validation("%v", err)
	}

	inputs, res := Rows(records)
	if len(inputs) == 0 {
		return res, nil
	}
	n, err := repo.ImportItems(ctx, storeID, inputs)
	if err != nil {
		return Result{}, err
	}
	res.Imported = n
	return res, nil
}
