package tables

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/utils"
)

// ErrSchemaMismatch is returned when an entity cannot be bound to a table schema.
var ErrSchemaMismatch = errors.New("entity does not match table schema")

// Binding is an Entity bound to the Schema of its table.
type Binding struct {
	Entity *Entity
	Schema *Schema

	// Columns are the columns written on insert, in schema order
	Columns []string

	// Omitted are writable schema columns the entity does not supply. The
	// server fills them from their default expression or with NULL.
	Omitted []string
}

// Bind checks entity against schema and returns the resulting Binding.
//
// Every entity column must exist in the schema, must be writable (not
// MATERIALIZED or ALIAS) and its Go type must be assignable to the column type.
// Schema columns the entity does not map must have a default. All problems are
// reported together, wrapped around ErrSchemaMismatch.
//
// Example:
//
//	entity, _ := tables.Describe(PageView{})
//	schema, _ := client.TableSchema(ctx, entity.Table)
//
//	binding, err := tables.Bind(entity, schema)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(binding.InsertQuery())
func Bind(entity *Entity, schema *Schema) (*Binding, error) {
	var problems []string

	for _, f := range entity.Fields {
		col, ok := schema.Column(f.Column)
		if !ok {
			problems = append(problems, fmt.Sprintf("column %q (field %s) does not exist", f.Column, f.Name))
			continue
		}

		if !col.Writable() {
			problems = append(problems, fmt.Sprintf("column %q is %s and cannot be inserted", col.Name, col.DefaultKind))
			continue
		}

		ct, err := col.ParsedType()
		if err != nil {
			problems = append(problems, fmt.Sprintf("column %q: %v", col.Name, err))
			continue
		}

		if !ct.AssignableFrom(f.Type) {
			problems = append(problems, fmt.Sprintf("field %s (%s) cannot be written to column %q of type %s", f.Name, f.Type, col.Name, col.Type))
		}
	}

	for i := range schema.Columns {
		col := &schema.Columns[i]
		if _, ok := entity.Field(col.Name); !ok && !col.HasDefault() {
			problems = append(problems, fmt.Sprintf("column %q has no default and is not mapped", col.Name))
		}
	}

	if len(problems) > 0 {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s -> %s: %s", entity.Type, schema.QualifiedName(), strings.Join(problems, "; "))
	}

	b := &Binding{Entity: entity, Schema: schema}
	for _, col := range schema.Columns {
		if _, ok := entity.Field(col.Name); ok {
			b.Columns = append(b.Columns, col.Name)
			continue
		}

		if col.Writable() {
			b.Omitted = append(b.Omitted, col.Name)
		}
	}

	return b, nil
}

// InsertQuery returns the INSERT statement used to prepare a batch for this binding.
func (b *Binding) InsertQuery() string {
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = utils.BacktickIdentifier(c)
	}

	return fmt.Sprintf("INSERT INTO %s (%s)", utils.BacktickQualifiedName(b.Schema.Database, b.Schema.Table), strings.Join(cols, ", "))
}

// Values returns the column values of row in Columns order. row must be of the
// bound entity type or a pointer to it. Fields promoted through a nil embedded
// pointer are sent as the zero value of their Go type. The column is still part
// of the INSERT, so the server's DEFAULT expression does not apply.
func (b *Binding) Values(row any) ([]any, error) {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.New("nil row")
		}
		v = v.Elem()
	}

	if v.Type() != b.Entity.Type {
		return nil, errors.Errorf("row of type %s does not match entity %s", v.Type(), b.Entity.Type)
	}

	out := make([]any, len(b.Columns))
	for i, c := range b.Columns {
		f, _ := b.Entity.Field(c)
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// nil embedded pointer
			out[i] = reflect.Zero(f.Type).Interface()
			continue
		}
		out[i] = fv.Interface()
	}

	return out, nil
}
