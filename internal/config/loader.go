package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFiles returns the dotenv files to load, highest priority first. ENV_FILE
// replaces the defaults. godotenv never overrides variables already set, so
// the real environment wins over every file.
func envFiles() []string {
	if f := os.Getenv("ENV_FILE"); f != "" {
		return []string{f}
	}
	return []string{".env.local", ".env"}
}

func loadEnvFiles() error {
	for _, f := range envFiles() {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// readYAML decodes path into cfg. A missing file leaves cfg untouched so the
// tracker can be configured from the environment alone.
func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

// applyEnv walks v and sets every field tagged `env:"NAME"` whose variable is
// non-empty. Values that cannot be parsed are reported, not skipped.
func applyEnv(v reflect.Value) error {
	var errs []error
	t := v.Type()
	for i := range t.NumField() {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			errs = append(errs, applyEnv(field))
			continue
		}
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			continue
		}
		if err := setFromEnv(field, raw); err != nil {
			errs = append(errs, &ValidationError{Field: name, Message: err.Error()})
		}
	}
	return errors.Join(errs...)
}

func setFromEnv(field reflect.Value, raw string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q", raw)
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(int64(n))
	case field.Kind() == reflect.Bool:
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			field.SetBool(true)
		case "0", "false", "no", "off":
			field.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean %q", raw)
		}
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// GetConfigPath returns $CONFIG_PATH, or defaultPath when it is unset.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
