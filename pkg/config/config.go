// Package config loads shapecloud options from TOML files.
//
// A config file holds the same keys as the API request body:
//
//	width = 1920
//	height = 1080
//	text = "BRICS"
//	text_size = "AutoFit"
//	words = ["Brazil", "Russia", "India", "China", "South Africa"]
//	colors = ["black", "#1f77b4"]
//
// Keys that are not present keep the value of the base options passed to
// [Load], so a file only needs to mention what it changes.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

const (
	appName  = "shapecloud"
	fileName = "config.toml"
)

// DefaultPath returns $XDG_CONFIG_HOME/shapecloud/config.toml, falling back
// to the platform config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, fileName), nil
}

// Load reads the TOML file at path and decodes it over base. Unknown keys
// are rejected so that typos do not silently fall back to defaults.
func Load(path string, base pipeline.Options) (pipeline.Options, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, errors.Wrap(errors.ErrCodeNotFound, err, "config file not found: %s", path)
	}
	if err != nil {
		return base, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return Decode(string(data), base)
}

// Decode decodes TOML data over base.
func Decode(data string, base pipeline.Options) (pipeline.Options, error) {
	opts := base
	md, err := toml.Decode(data, &opts)
	if err != nil {
		return base, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return base, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return opts, nil
}

const header = `# shapecloud configuration
#
# Every key is optional; omitted keys use the built-in defaults.
# Command-line flags override values from this file.
#
# text_size is "AutoFit" or a fixed size in pixels.
# colors accepts SVG color names and hex (#rgb, #rrggbb, #rrggbbaa).
# formats is any of "svg", "png", "pdf", "json".

`

// WriteDefault writes a commented config file holding the default options
// plus a sample shape and word list.
func WriteDefault(w io.Writer) error {
	opts := pipeline.DefaultOptions()
	opts.Text = "BRICS"
	opts.Words = []string{"Brazil", "Russia", "India", "China", "South Africa"}

	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(opts); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
