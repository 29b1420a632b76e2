// Package publish describes how the chdata artifact is published to GitHub
// Packages: its coordinates, the release and snapshot publications, and the
// repository credentials.
//
// Values come from build properties (a gradle.properties style file) and fall
// back to the environment when a property is absent:
//
//	gpr.user  or GITHUB_USERNAME
//	gpr.key   or GITHUB_TOKEN
//	gpr.url   or GITHUB_URL
//
// Example:
//
//	props, err := publish.LoadPropertiesFile("gradle.properties")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pub := publish.Release(publish.NewResolver(props, os.LookupEnv))
//	if err := pub.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(pub.Coordinates) // com.github.octocat:clickhouse-spring-data:1.0.0
package publish
