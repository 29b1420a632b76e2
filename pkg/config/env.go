package config

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/consts"
)

var (
	durationType = reflect.TypeOf(Duration(0))
	settingsType = reflect.TypeOf(Settings(nil))
)

// EnvKey returns the environment variable that overrides the given property key,
// e.g. "connect-timeout" -> "CLICKHOUSE_DATA_CONNECT_TIMEOUT".
func EnvKey(property string) string {
	return consts.EnvPrefix + strings.ToUpper(strings.ReplaceAll(property, "-", "_"))
}

// ApplyEnv overrides configuration values with environment variables.
//
// Every property has a variable named after its key (see EnvKey), and
// CLICKHOUSE_DATA_ENABLED, CLICKHOUSE_DATA_LOG_LEVEL and CLICKHOUSE_DATA_LOG_FORMAT
// control the top-level switch block. Environment
// values win over the application file. Maps are written as "k1=v1,k2=v2".
// Empty variables are ignored.
//
// Example:
//
//	cfg, _ := config.LoadConfigFile("application.yaml")
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//		log.Fatal(err)
//	}
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvKey("enabled")); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", EnvKey("enabled"))
		}
		c.ClickHouseData.Enabled = &b
	}

	if v, ok := lookup(EnvKey("log-level")); ok && v != "" {
		c.ClickHouseData.LogLevel = v
	}

	if v, ok := lookup(EnvKey("log-format")); ok && v != "" {
		c.ClickHouseData.LogFormat = v
	}

	props := reflect.ValueOf(&c.Spring.ClickHouseData).Elem()
	for i := range props.NumField() {
		field := props.Type().Field(i)
		key := propertyKey(field)
		if key == "" {
			continue
		}

		envKey := EnvKey(key)
		raw, ok := lookup(envKey)
		if !ok || raw == "" {
			continue
		}

		if err := setField(props.Field(i), raw); err != nil {
			return errors.Wrapf(err, "invalid value for %s", envKey)
		}
	}

	return nil
}

// propertyKey returns the yaml key of a Properties field.
func propertyKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}

	return name
}

func setField(v reflect.Value, raw string) error {
	t := v.Type()

	switch {
	case t.Kind() == reflect.String:
		v.SetString(raw)
		return nil

	case t == settingsType:
		s, err := ParseSettings(raw)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(s))
		return nil

	case t.Kind() == reflect.Map:
		s, err := ParseSettings(raw)
		if err != nil {
			return err
		}

		m := make(map[string]string, len(s))
		for _, e := range s {
			m[e.Name] = e.Value
		}
		v.Set(reflect.ValueOf(m))
		return nil

	case t.Kind() == reflect.Ptr:
		elem := reflect.New(t.Elem())
		if err := setScalar(elem.Elem(), raw); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}

	return errors.Errorf("unsupported property type %s", t)
}

func setScalar(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	default:
		return errors.Errorf("unsupported property type %s", v.Type())
	}

	return nil
}
