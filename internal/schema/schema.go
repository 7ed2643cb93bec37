// Package schema resolves named fields out of semi-structured tabular
// responses. Upstream price APIs shape the same table differently (flat
// columns, columns nested by ticker, compound "Close_BTC-USD" labels,
// positional tuples); everything is flattened into one Table with
// "_"-joined column names and fields are then resolved by name.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"sentiment-lens/internal/domain"

	"github.com/tidwall/gjson"
)

// Table is a column-oriented view of a response. Column order follows the
// order in which names first appear in the document.
type Table struct {
	columns []string
	values  map[string][]gjson.Result
	rows    int
}

func newTable() *Table {
	return &Table{values: make(map[string][]gjson.Result)}
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Rows is the length of the longest column.
func (t *Table) Rows() int {
	return t.rows
}

func (t *Table) Column(name string) []gjson.Result {
	return t.values[name]
}

func (t *Table) set(name string, row int, v gjson.Result) {
	col, ok := t.values[name]
	if !ok {
		t.columns = append(t.columns, name)
	}
	for len(col) < row {
		col = append(col, gjson.Result{})
	}
	if len(col) == row {
		col = append(col, v)
	} else {
		col[row] = v
	}
	t.values[name] = col
}

// FromRows builds a table from an array of objects. Nested objects are
// flattened, so {"Close":{"BTC-USD":1}} yields the column "Close_BTC-USD".
func FromRows(rows gjson.Result) (*Table, error) {
	if !rows.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of records", domain.ErrSchemaMismatch)
	}
	t := newTable()
	var err error
	rows.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			err = fmt.Errorf("%w: record %d is not an object", domain.ErrSchemaMismatch, t.rows)
			return false
		}
		flattenRecord("", row, func(name string, v gjson.Result) {
			t.set(name, t.rows, v)
		})
		t.rows++
		return true
	})
	if err != nil {
		return nil, err
	}
	t.pad()
	return t, nil
}

// FromColumns builds a table from an object whose leaves are arrays. Arrays
// holding a single object are descended without an index segment, so
// {"indicators":{"quote":[{"close":[...]}]}} yields the column
// "indicators_quote_close". Scalar leaves are not columns and are skipped.
func FromColumns(doc gjson.Result) (*Table, error) {
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected a column object", domain.ErrSchemaMismatch)
	}
	t := newTable()
	var walk func(prefix string, v gjson.Result)
	walk = func(prefix string, v gjson.Result) {
		switch {
		case v.IsObject():
			v.ForEach(func(k, child gjson.Result) bool {
				walk(join(prefix, k.String()), child)
				return true
			})
		case v.IsArray():
			items := v.Array()
			if len(items) > 0 && allObjects(items) {
				for i, item := range items {
					p := prefix
					if len(items) > 1 {
						p = join(prefix, strconv.Itoa(i))
					}
					walk(p, item)
				}
				return
			}
			if _, ok := t.values[prefix]; !ok {
				t.columns = append(t.columns, prefix)
			}
			t.values[prefix] = items
			if len(items) > t.rows {
				t.rows = len(items)
			}
		}
	}
	walk("", doc)
	return t, nil
}

// FromTuples builds a table from an array of positional arrays, naming the
// positions with names. Extra positions are ignored; short tuples are an error.
func FromTuples(rows gjson.Result, names ...string) (*Table, error) {
	if !rows.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of tuples", domain.ErrSchemaMismatch)
	}
	t := newTable()
	for _, n := range names {
		t.columns = append(t.columns, n)
		t.values[n] = nil
	}
	var err error
	rows.ForEach(func(_, row gjson.Result) bool {
		items := row.Array()
		if !row.IsArray() || len(items) < len(names) {
			err = fmt.Errorf("%w: tuple %d has fewer than %d values", domain.ErrSchemaMismatch, t.rows, len(names))
			return false
		}
		for i, n := range names {
			t.values[n] = append(t.values[n], items[i])
		}
		t.rows++
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) pad() {
	for _, name := range t.columns {
		col := t.values[name]
		for len(col) < t.rows {
			col = append(col, gjson.Result{})
		}
		t.values[name] = col
	}
}

func flattenRecord(prefix string, obj gjson.Result, emit func(string, gjson.Result)) {
	obj.ForEach(func(k, v gjson.Result) bool {
		name := join(prefix, k.String())
		if v.IsObject() {
			flattenRecord(name, v, emit)
			return true
		}
		emit(name, v)
		return true
	})
}

func allObjects(items []gjson.Result) bool {
	for _, it := range items {
		if !it.IsObject() {
			return false
		}
	}
	return true
}

func join(prefix, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "_" + name
	}
}
