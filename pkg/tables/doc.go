// Package tables maps Go structs to ClickHouse tables.
//
// An entity is a plain struct whose exported fields carry `ch` tags naming
// their columns. The table comes from an optional TableName method:
//
//	type PageView struct {
//		URL       string    `ch:"url"`
//		Referrer  *string   `ch:"referrer"`
//		Timestamp time.Time `ch:"ts"`
//		Internal  string    `ch:"-"`
//	}
//
//	func (PageView) TableName() string { return "analytics.page_views" }
//
// Registration reads the table's schema from system.columns and binds the
// entity to it. Binding fails when a mapped column is missing, cannot be
// written, has an incompatible type, or when an unmapped column has no
// default. Successful bindings are kept in a Registry and drive inserts.
package tables
