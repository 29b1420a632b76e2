package tables

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// TagName is the struct tag that names a field's column. It is the same tag
// clickhouse-go reads when appending structs to a batch.
const TagName = "ch"

type (
	// Table is implemented by entities that live in a table whose name differs
	// from the Go type name.
	//
	// Example:
	//
	//	type PageView struct {
	//		URL       string    `ch:"url"`
	//		Timestamp time.Time `ch:"ts"`
	//	}
	//
	//	func (PageView) TableName() string { return "analytics.page_views" }
	Table interface {
		TableName() string
	}

	// Entity describes a Go struct registered as the row type of a table.
	Entity struct {
		// Type is the struct type (never a pointer)
		Type reflect.Type
		// Table is the table name, optionally qualified with a database ("db.table")
		Table string
		// Fields are the exported, non-ignored fields in declaration order
		Fields []Field
	}

	// Field maps a struct field to a column.
	Field struct {
		Name   string
		Column string
		Index  []int
		Type   reflect.Type
	}
)

// Describe builds an Entity from a struct value or pointer to struct.
//
// The table name comes from the Table interface when implemented, otherwise
// from the Go type name. Column names come from the `ch` tag, falling back to
// the field name. Fields tagged `ch:"-"` and unexported fields are skipped.
// Embedded structs without a tag are flattened.
func Describe(v any) (*Entity, error) {
	if v == nil {
		return nil, errors.New("cannot describe nil entity")
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("entity must be a struct, got %s", t)
	}

	e := &Entity{
		Type:  t,
		Table: tableName(v, t),
	}

	seen := make(map[string]string)
	if err := collectFields(t, nil, e, seen); err != nil {
		return nil, err
	}

	if len(e.Fields) == 0 {
		return nil, errors.Errorf("entity %s has no columns", t)
	}

	return e, nil
}

// Database returns the database part of a qualified table name, or "".
func (e *Entity) Database() string {
	db, _ := splitTable(e.Table)
	return db
}

// Name returns the table name without a database qualifier.
func (e *Entity) Name() string {
	_, name := splitTable(e.Table)
	return name
}

// Field returns the field mapped to column, if any.
func (e *Entity) Field(column string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Column == column {
			return f, true
		}
	}

	return Field{}, false
}

func tableName(v any, t reflect.Type) string {
	if tn, ok := v.(Table); ok {
		if name := strings.TrimSpace(tn.TableName()); name != "" {
			return name
		}
	}

	// pointer receivers on a value argument
	if tn, ok := reflect.New(t).Interface().(Table); ok {
		if name := strings.TrimSpace(tn.TableName()); name != "" {
			return name
		}
	}

	return t.Name()
}

func collectFields(t reflect.Type, index []int, e *Entity, seen map[string]string) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}

		idx := append(append([]int(nil), index...), i)

		if sf.Anonymous && !hasTag {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := collectFields(ft, idx, e, seen); err != nil {
					return err
				}
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		column, _, _ := strings.Cut(tag, ",")
		if column == "" {
			column = sf.Name
		}

		if prev, ok := seen[column]; ok {
			return errors.Errorf("entity %s maps column %q twice (%s, %s)", e.Type, column, prev, sf.Name)
		}
		seen[column] = sf.Name

		e.Fields = append(e.Fields, Field{
			Name:   sf.Name,
			Column: column,
			Index:  idx,
			Type:   sf.Type,
		})
	}

	return nil
}

func splitTable(table string) (string, string) {
	if db, name, ok := strings.Cut(table, "."); ok {
		return db, name
	}

	return "", table
}
