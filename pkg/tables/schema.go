package tables

import (
	"github.com/pseudomuto/chdata/pkg/chtype"
)

// Default kinds reported by system.columns.default_kind
const (
	DefaultKindNone         = ""
	DefaultKindDefault      = "DEFAULT"
	DefaultKindMaterialized = "MATERIALIZED"
	DefaultKindAlias        = "ALIAS"
	DefaultKindEphemeral    = "EPHEMERAL"
)

type (
	// Schema is a table's structure as read from system.columns.
	Schema struct {
		Database string
		Table    string
		Columns  []Column
	}

	// Column is one column of a Schema.
	Column struct {
		Name              string
		Type              string
		DefaultKind       string
		DefaultExpression string
		Comment           string
		InPrimaryKey      bool
		InSortingKey      bool
		InPartitionKey    bool

		parsed *chtype.Type
	}
)

// QualifiedName returns "database.table".
func (s *Schema) QualifiedName() string {
	if s.Database == "" {
		return s.Table
	}

	return s.Database + "." + s.Table
}

// Column returns the column with the given name, if present.
func (s *Schema) Column(name string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}

	return nil, false
}

// ParsedType returns the column type as a chtype.Type, parsing it on first use.
func (c *Column) ParsedType() (*chtype.Type, error) {
	if c.parsed != nil {
		return c.parsed, nil
	}

	t, err := chtype.Parse(c.Type)
	if err != nil {
		return nil, err
	}

	c.parsed = t
	return t, nil
}

// HasDefault reports whether the server fills the column when an insert omits it.
// Nullable columns default to NULL.
func (c *Column) HasDefault() bool {
	if c.DefaultKind != DefaultKindNone {
		return true
	}

	t, err := c.ParsedType()
	return err == nil && t.IsNullable()
}

// Writable reports whether an insert may supply a value for the column.
func (c *Column) Writable() bool {
	return c.DefaultKind != DefaultKindMaterialized && c.DefaultKind != DefaultKindAlias
}
