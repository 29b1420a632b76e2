// Package docker runs throwaway ClickHouse servers for integration tests and
// local experiments.
//
// Containers are started through testcontainers with the official
// clickhouse-server image and the default user. A config.d directory can be
// mounted, profile settings are rendered into a generated users.d file, and a
// database can be created on start. The server counts as started once the HTTP
// interface answers /ping.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version:  "25.7",
//		Database: "analytics",
//		Password: "secret",
//		Settings: map[string]string{"max_threads": "2"},
//	})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	// Client properties for either protocol
//	props, _ := container.Properties(ctx, docker.ProtocolNative)
//
//	client, err := clickhouse.NewFactory(props).Connect(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
package docker
