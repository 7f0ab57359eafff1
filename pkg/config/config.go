package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFlag   string
	flagsOnce sync.Once

	exportMu sync.Mutex
	exported = map[string]bool{}
)

// Validator is implemented by config structs that check themselves after
// the environment has been processed.
type Validator interface {
	Validate() error
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New exports the env file named by -env (or ./.env when present) into the
// process environment, then fills T from variables under prefix.
func New[T any](prefix string) (*T, error) {
	if path := envFilePath(); path != "" {
		if err := exportFile(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := exportFileIfExists(defaultEnvFile); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %s config: %w", displayPrefix(prefix), err)
	}
	if v, ok := any(&conf).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", displayPrefix(prefix), err)
		}
	}
	return &conf, nil
}

// Enabled reports whether any variable under prefix is set. Optional
// components use it to decide whether to load their config at all.
func Enabled(prefix string) bool {
	_ = envFilePath()
	want := strings.ToUpper(prefix) + "_"
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, want) {
			return true
		}
	}
	return false
}

// envFilePath reads -env. Binaries with their own flags register -env
// themselves and parse before loading config.
func envFilePath() string {
	flagsOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFlag, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	if f := flag.Lookup("env"); f != nil {
		return strings.TrimSpace(f.Value.String())
	}
	return strings.TrimSpace(envFlag)
}

func exportFileIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportFile(path)
}

// exportFile copies the file's settings into the environment once per path.
// Variables already set in the environment win over the file.
func exportFile(path string) error {
	exportMu.Lock()
	defer exportMu.Unlock()
	if exported[path] {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" || strings.HasPrefix(filepath.Base(path), ".env") {
		v.SetConfigType("env")
	}
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	exported[path] = true
	return nil
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "app"
	}
	return strings.ToLower(prefix)
}
