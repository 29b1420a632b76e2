// Package clickhouse turns config.Properties into a ready-to-use ClickHouse client.
//
// A Factory maps every property onto clickhouse-go's Options: the endpoint
// picks the protocol (http/https for the HTTP interface, tcp/clickhouse or a bare
// host:port for the native protocol), timeouts become dial/read deadlines and
// server settings, socket properties go through a custom dialer and TLS material
// is loaded from PEM files. Options are built without dialing, so a Factory can be
// inspected or tested without a server.
//
// The resulting Client wraps the driver connection with the behaviour the
// properties ask for:
//   - Ping retries with exponential backoff up to max-retries
//   - connection-request-timeout bounds every request
//   - Register reads system.columns and binds table entities to their schema
//   - Insert writes rows of a registered entity with a prepared batch
//
// Example usage:
//
//	props := config.Properties{
//		Endpoint: "http://localhost:8123",
//		Username: "default",
//	}
//
//	client, err := clickhouse.NewFactory(props).Connect(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Register(ctx, PageView{}); err != nil {
//		log.Fatal(err)
//	}
//
//	n, err := client.Insert(ctx, []PageView{{URL: "/"}})
package clickhouse
