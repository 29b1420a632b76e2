// Package utils provides small helpers shared by the chdata packages.
//
// # Identifier Utilities (identifier.go)
//
// ClickHouse identifiers are quoted with backticks. A column name may contain
// dots (Nested subcolumns such as "attrs.key"), so quoting works on single
// identifiers and qualified names are built from their parts:
//
//	utils.BacktickIdentifier("attrs.key")
//	// Result: `attrs.key`
//
//	utils.BacktickQualifiedName("analytics", "page_views")
//	// Result: `analytics`.`page_views`
//
// SplitQualifiedName goes the other way for names typed by users, honouring
// backticks around either part:
//
//	db, table := utils.SplitQualifiedName("`my.db`.events")
//	// db == "my.db", table == "events"
package utils
