package utils

import "strings"

// BacktickIdentifier wraps a single identifier in backticks, escaping any
// backslashes and backticks it contains. Dots are part of the identifier.
//
// Examples:
//   - "table" -> "`table`"
//   - "attrs.key" -> "`attrs.key`"
//   - "`table`" -> "`table`" (already backticked, not double-backticked)
//   - "we`ird" -> "`we\`ird`"
//   - "" -> ""
func BacktickIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if IsBackticked(name) {
		return name
	}

	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(name) + "`"
}

// BacktickQualifiedName formats a qualified name (database.name) with proper backticks.
// If database is empty, only the name is backticked.
//
// Examples:
//   - ("analytics", "events") -> "`analytics`.`events`"
//   - ("", "events") -> "`events`"
func BacktickQualifiedName(database, name string) string {
	if database != "" {
		return BacktickIdentifier(database) + "." + BacktickIdentifier(name)
	}

	return BacktickIdentifier(name)
}

// SplitQualifiedName splits "database.name" at the first dot outside
// backticks and strips the backticks from both parts. A name without a
// database returns an empty database.
//
// Examples:
//   - "analytics.events" -> ("analytics", "events")
//   - "events" -> ("", "events")
//   - "`my.db`.`t`" -> ("my.db", "t")
//   - "db." -> ("db", "")
func SplitQualifiedName(s string) (string, string) {
	quoted := false
	for i, r := range s {
		switch {
		case r == '`':
			quoted = !quoted
		case r == '.' && !quoted:
			return StripBackticks(s[:i]), StripBackticks(s[i+1:])
		}
	}

	return "", StripBackticks(s)
}

// IsBackticked checks if a string is already wrapped in backticks.
//
// Examples:
//   - "`table`" -> true
//   - "table" -> false
//   - "`db`.`table`" -> false (qualified name, not a single backticked identifier)
//   - "" -> false
func IsBackticked(s string) bool {
	return len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' && !strings.Contains(s[1:len(s)-1], "`")
}

// StripBackticks removes backticks from an identifier if present.
//
// Examples:
//   - "`table`" -> "table"
//   - "table" -> "table"
//   - "`db`.`table`" -> "db.table"
//   - "" -> ""
func StripBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "")
}
