package pipeline

import (
	"reflect"
	"sync"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

var (
	schemaOnce    sync.Once
	schemaIndex   map[string]int
	schemaColumns []string
)

// loadSchema indexes the csv tags of domain.Transaction once.
func loadSchema() {
	schemaOnce.Do(func() {
		t := reflect.TypeOf(domain.Transaction{})
		schemaIndex = make(map[string]int, t.NumField())
		schemaColumns = make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			name := t.Field(i).Tag.Get("csv")
			if name == "" {
				continue
			}
			schemaIndex[name] = i
			schemaColumns = append(schemaColumns, name)
		}
	})
}

// Columns returns the schema's column names in declaration order.
func Columns() []string {
	loadSchema()
	return append([]string(nil), schemaColumns...)
}

// SetField assigns value to the field backing column. It reports false when
// the column is not part of the schema.
func SetField(tx *domain.Transaction, column, value string) bool {
	loadSchema()
	idx, ok := schemaIndex[column]
	if !ok {
		return false
	}
	reflect.ValueOf(tx).Elem().Field(idx).SetString(value)
	return true
}

// FieldValues returns the values of tx in Columns order.
func FieldValues(tx *domain.Transaction) []string {
	loadSchema()
	v := reflect.ValueOf(tx).Elem()
	out := make([]string, len(schemaColumns))
	for i, name := range schemaColumns {
		out[i] = v.Field(schemaIndex[name]).String()
	}
	return out
}

// headerBinding maps header positions to struct fields; -1 means the column
// is not in the schema.
type headerBinding struct {
	fields  []int
	unknown []string
}

func bindHeader(columns []string) headerBinding {
	loadSchema()
	b := headerBinding{fields: make([]int, len(columns))}
	for i, name := range columns {
		idx, ok := schemaIndex[name]
		if !ok {
			b.fields[i] = -1
			if name != "" {
				b.unknown = append(b.unknown, name)
			}
			continue
		}
		b.fields[i] = idx
	}
	return b
}

// assign copies values positionally. Missing trailing values leave fields
// empty and values beyond the header are dropped.
func (b headerBinding) assign(tx *domain.Transaction, values []string) {
	v := reflect.ValueOf(tx).Elem()
	for i, idx := range b.fields {
		if idx < 0 || i >= len(values) {
			continue
		}
		v.Field(idx).SetString(values[i])
	}
}
