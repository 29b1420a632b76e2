// Package chtype parses ClickHouse column types and decides which Go types can
// be written to them.
//
// Column types come from system.columns in the form ClickHouse prints them,
// e.g. "LowCardinality(Nullable(String))", "DateTime64(3, 'UTC')" or
// "Enum8('a' = 1, 'b' = 2)". Parse turns that text into a Type tree, and
// Type.AssignableFrom checks a reflect.Type against it. The tables package uses
// both to validate entity structs before they are bound to a table.
package chtype
