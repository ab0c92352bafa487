package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is read when present and no file is named explicitly.
	DefaultFile = "config.yaml"
	// DefaultEnvFile is the dotenv file read when present.
	DefaultEnvFile = ".env"
	// DefaultBaseURL is the ClickUp API v2 root.
	DefaultBaseURL = "https://api.clickup.com/api/v2"
)

// envAliases maps the historical ClickUp variable names onto config keys.
var envAliases = map[string]string{
	"CLICKUP_API_TOKEN":    "clickup.apitoken",
	"CLICKUP_WORKSPACE_ID": "clickup.workspaceid",
	"CLICKUP_SPACE_ID":     "clickup.spaceid",
	"CLICKUP_LIST_ID":      "clickup.listid",
	"CLICKUP_BASEURL":      "clickup.baseurl",
	"CLICKUP_BASE_URL":     "clickup.baseurl",
}

// sections are the top-level keys environment variables may target.
var sections = map[string]bool{
	"clickup":       true,
	"http":          true,
	"log":           true,
	"sync":          true,
	"observability": true,
}

// Options selects the sources Load reads.
type Options struct {
	// File is a YAML file. When empty, DefaultFile is read if it exists.
	File string
	// YAML is inline YAML applied after File.
	YAML []byte
	// EnvFile is a dotenv file. When empty, DefaultEnvFile is read if it exists.
	EnvFile string
	// SkipEnv ignores the process environment and the dotenv file.
	SkipEnv bool
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The dotenv file
// 3. YAML configuration (file, then inline)
// 4. Default values (lowest priority)
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadFile(k, opts.File); err != nil {
		return nil, err
	}

	if len(opts.YAML) > 0 {
		if err := k.Load(rawbytes.Provider(opts.YAML), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse inline config: %w", err)
		}
	}

	if !opts.SkipEnv {
		if err := loadDotEnv(k, opts.EnvFile); err != nil {
			return nil, err
		}
		if err := k.Load(env.Provider(".", env.Opt{TransformFunc: transformEnv}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"clickup.baseurl": DefaultBaseURL,

		"http.timeout":    "30s",
		"http.maxretries": 3,
		"http.retrydelay": "1s",
		"http.retryafter": "60s",
		"http.ratelimit":  100,
		"http.rateburst":  10,

		"log.level":  "info",
		"log.pretty": false,

		"sync.concurrency": 1,
		"sync.tasksfile":   "",

		"observability.enabled":     false,
		"observability.servicename": "clickup-sync",
		"observability.endpoint":    "stdout",
		"observability.protocol":    "http",
		"observability.insecure":    false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadDotEnv layers a dotenv file below the real environment without
// modifying the process environment.
func loadDotEnv(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	flat := make(map[string]any, len(values))
	for name, value := range values {
		if key, v := transformEnv(name, value); key != "" {
			flat[key] = v
		}
	}
	return k.Load(confmap.Provider(flat, "."), nil)
}

// transformEnv maps SECTION_SOME_KEY to section.somekey and drops variables
// outside the known sections.
func transformEnv(name, value string) (string, any) {
	if key, ok := envAliases[name]; ok {
		return key, value
	}
	section, rest, found := strings.Cut(name, "_")
	if !found || rest == "" {
		return "", nil
	}
	section = strings.ToLower(section)
	if !sections[section] {
		return "", nil
	}
	return section + "." + strings.ToLower(strings.ReplaceAll(rest, "_", "")), value
}

// EnvName returns the environment variable that sets key.
func EnvName(key string) string {
	for name, k := range envAliases {
		if k == key && !strings.HasSuffix(name, "_BASE_URL") {
			return name
		}
	}
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
