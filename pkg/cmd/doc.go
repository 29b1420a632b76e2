// Package cmd provides the chdata command-line interface.
//
// Every command is a function returning a *cli.Command, following the
// urfave/cli/v3 pattern, and is contributed to the fx value group
// `group:"commands"`. Run assembles the group into the root command and runs it
// once the fx application starts.
//
// # Available Commands
//
//   - config: print the effective client properties (secrets redacted)
//   - ping: connect to ClickHouse and print the server version
//   - schema: print a table's columns as read from system.columns
//   - publication: print the publishing coordinates and credential sources
//   - health: serve health, readiness and metrics endpoints
//
// The application file is read from $CLICKHOUSE_DATA_CONFIG (default
// application.yaml) and CLICKHOUSE_DATA_* environment variables override it.
//
// Example usage:
//
//	CLICKHOUSE_DATA_ENDPOINT=http://localhost:8123 chdata ping
//	chdata schema analytics.page_views
//	chdata publication --snapshot --properties gradle.properties
//	chdata health --listen :8080
package cmd
