package publish

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

const (
	Artifact         = "clickhouse-spring-data"
	SnapshotArtifact = Artifact + "-snapshot"
	Version          = "1.0.0"
	SnapshotVersion  = Version + "-SNAPSHOT"

	RepositoryName = "GitHubPackages"
	RepositoryURL  = "https://maven.pkg.github.com/serzhe1/clickhouse-spring-data"

	// Toolchain is the minimum Go release the module builds with.
	Toolchain = "go1.24"

	groupPrefix = "com.github."
)

// ErrIncomplete is returned by Validate when coordinates or credentials are missing.
var ErrIncomplete = errors.New("publication is incomplete")

type (
	// Coordinates identify a published artifact.
	Coordinates struct {
		Group    string `yaml:"group"`
		Artifact string `yaml:"artifact"`
		Version  string `yaml:"version"`
	}

	// POM is the descriptive package metadata.
	POM struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		URL         string `yaml:"url"`
	}

	// Repository is the package registry a publication is uploaded to.
	Repository struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	}

	// Credentials authenticate against the repository.
	Credentials struct {
		Username Value
		Password Value
	}

	// Publication is one publishable variant of the artifact.
	Publication struct {
		Name        string
		Coordinates Coordinates
		POM         POM
		Repository  Repository
		Credentials Credentials

		user Value
		url  Value
	}
)

func (c Coordinates) String() string {
	return fmt.Sprintf("%s:%s:%s", c.Group, c.Artifact, c.Version)
}

// Release is the `gpr` publication.
func Release(r *Resolver) Publication {
	return newPublication(r, "gpr", Artifact, Version, "Spring Boot integration for ClickHouse")
}

// Snapshot is the `gprSnapshot` publication, published under its own artifact.
func Snapshot(r *Resolver) Publication {
	return newPublication(r, "gprSnapshot", SnapshotArtifact, SnapshotVersion, "Snapshot build of the Spring Boot integration for ClickHouse")
}

func newPublication(r *Resolver, name, artifact, version, description string) Publication {
	user := r.User()
	url := r.URL()

	return Publication{
		Name: name,
		Coordinates: Coordinates{
			Group:    groupPrefix + user.Value,
			Artifact: artifact,
			Version:  version,
		},
		POM: POM{
			Name:        artifact,
			Description: description,
			URL:         url.Value,
		},
		Repository: Repository{
			Name: RepositoryName,
			URL:  RepositoryURL,
		},
		Credentials: Credentials{
			Username: user,
			Password: r.Key(),
		},
		user: user,
		url:  url,
	}
}

// Validate lists every missing coordinate and credential.
func (p Publication) Validate() error {
	var missing []string

	if !p.user.Set() {
		missing = append(missing, "group ("+p.user.Key+")")
	}

	if !p.url.Set() {
		missing = append(missing, "pom url ("+p.url.Key+")")
	}

	if !p.Credentials.Username.Set() {
		missing = append(missing, "username ("+p.Credentials.Username.Key+")")
	}

	if !p.Credentials.Password.Set() {
		missing = append(missing, "password ("+p.Credentials.Password.Key+")")
	}

	if len(missing) == 0 {
		return nil
	}

	return errors.Wrapf(ErrIncomplete, "%s: missing %s", p.Name, strings.Join(missing, ", "))
}

// CheckToolchain reports an error when goVersion (e.g. runtime.Version())
// is older than Toolchain. Development builds are accepted.
func CheckToolchain(goVersion string) error {
	if !strings.HasPrefix(goVersion, "go") {
		return nil
	}

	have := semverOf(goVersion)
	if !semver.IsValid(have) {
		return errors.Errorf("unrecognized Go version %q", goVersion)
	}

	if semver.Compare(have, semverOf(Toolchain)) < 0 {
		return errors.Errorf("%s is older than the required %s", goVersion, Toolchain)
	}

	return nil
}

// RuntimeToolchain checks the running binary's Go version.
func RuntimeToolchain() error {
	return CheckToolchain(runtime.Version())
}

func semverOf(goVersion string) string {
	v, pre := strings.TrimPrefix(goVersion, "go"), ""
	// pre-releases look like go1.25rc1
	if i := strings.IndexAny(v, "abcdefghijklmnopqrstuvwxyz"); i > 0 {
		v, pre = v[:i], "-"+v[i:]
	}

	if pre != "" && strings.Count(v, ".") == 1 {
		v += ".0"
	}

	return "v" + v + pre
}
