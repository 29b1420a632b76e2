package publish

import (
	"io"
	"os"

	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

// Build properties and their environment fallbacks
const (
	PropUser = "gpr.user"
	PropKey  = "gpr.key"
	PropURL  = "gpr.url"

	EnvUser  = "GITHUB_USERNAME"
	EnvToken = "GITHUB_TOKEN"
	EnvURL   = "GITHUB_URL"
)

// Source records where a resolved value came from.
type Source int

const (
	SourceNone Source = iota
	SourceProperty
	SourceEnv
)

func (s Source) String() string {
	switch s {
	case SourceProperty:
		return "property"
	case SourceEnv:
		return "env"
	default:
		return "unset"
	}
}

// Value is a resolved setting and its origin.
type Value struct {
	Value  string
	Source Source
	Key    string
}

// Set reports whether the value was found anywhere.
func (v Value) Set() bool {
	return v.Source != SourceNone
}

// Resolver looks values up in build properties first and the environment second.
type Resolver struct {
	props  *properties.Properties
	lookup func(string) (string, bool)
}

// NewResolver creates a resolver. Nil props or lookup are treated as empty.
func NewResolver(props *properties.Properties, lookup func(string) (string, bool)) *Resolver {
	if props == nil {
		props = properties.NewProperties()
	}

	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	return &Resolver{props: props, lookup: lookup}
}

// Resolve returns the property prop when it is present, otherwise the
// environment variable env when it is present. A present but empty value
// is kept as is, it does not fall through to the next source.
func (r *Resolver) Resolve(prop, env string) Value {
	if v, ok := r.props.Get(prop); ok {
		return Value{Value: v, Source: SourceProperty, Key: prop}
	}

	if v, ok := r.lookup(env); ok {
		return Value{Value: v, Source: SourceEnv, Key: env}
	}

	return Value{Key: prop + "/" + env}
}

// User resolves gpr.user or GITHUB_USERNAME.
func (r *Resolver) User() Value { return r.Resolve(PropUser, EnvUser) }

// Key resolves gpr.key or GITHUB_TOKEN.
func (r *Resolver) Key() Value { return r.Resolve(PropKey, EnvToken) }

// URL resolves gpr.url or GITHUB_URL.
func (r *Resolver) URL() Value { return r.Resolve(PropURL, EnvURL) }

// LoadProperties reads key=value build properties.
func LoadProperties(r io.Reader) (*properties.Properties, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read properties")
	}

	props, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse properties")
	}

	return props, nil
}

// LoadPropertiesFile reads the properties file at path. A missing file yields
// no properties, so every value falls back to the environment.
func LoadPropertiesFile(path string) (*properties.Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return properties.NewProperties(), nil
		}

		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadProperties(f)
}
