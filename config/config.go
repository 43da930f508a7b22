// Package config handles genbuiltins.toml build configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "genbuiltins.toml"

// Config represents a genbuiltins.toml file.
type Config struct {
	Build    Build    `toml:"build"`
	Target   Target   `toml:"target"`
	Metadata Metadata `toml:"metadata"`
	Output   Output   `toml:"output"`

	// Dir is the directory containing the config file (set at load time).
	// Relative paths resolve against it.
	Dir string `toml:"-"`
}

// Build describes the build being generated.
type Build struct {
	// Version is the integer version, major*10000 + minor*100 + patch.
	Version     int    `toml:"version"`
	GitDescribe string `toml:"git-describe"`
	// InitJS is an optional script embedded in the generated source.
	InitJS string `toml:"initjs"`
}

// Target selects the build variants.
type Target struct {
	ByteOrders    []string `toml:"byte-orders"`
	SectionB      *bool    `toml:"section-b"`
	BrowserLike   *bool    `toml:"browser-like"`
	VersionObject string   `toml:"version-object"`
}

// Metadata points at the metadata documents. Empty means embedded.
type Metadata struct {
	Builtins string `toml:"builtins"`
	Strings  string `toml:"strings"`
}

// Output names the generated files. An empty name skips that output,
// except for the C header and source which always have a default.
type Output struct {
	Header       string `toml:"header"`
	Source       string `toml:"source"`
	MetadataJSON string `toml:"metadata-json"`
	IndexCBOR    string `toml:"index-cbor"`
	Go           string `toml:"go"`
	GoPackage    string `toml:"go-package"`
	DefinePrefix string `toml:"define-prefix"`
}

// Default returns the configuration used when no file is found, rooted at
// dir.
func Default(dir string) (*Config, error) {
	c := &Config{}
	if err := c.finish(dir); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses a genbuiltins.toml file from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the config file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, derrors.Schemaf(path, undec[0].String(), "unknown key")
	}
	if err := c.finish(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) finish(dir string) error {
	var err error
	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(c.Target.ByteOrders) == 0 {
		for _, b := range builtins.ByteOrders {
			c.Target.ByteOrders = append(c.Target.ByteOrders, b.String())
		}
	}
	if c.Target.SectionB == nil {
		c.Target.SectionB = ptr(true)
	}
	if c.Target.BrowserLike == nil {
		c.Target.BrowserLike = ptr(true)
	}
	if c.Target.VersionObject == "" {
		c.Target.VersionObject = "bi_duktape"
	}
	if c.Output.Header == "" {
		c.Output.Header = "duk_builtins.h"
	}
	if c.Output.Source == "" {
		c.Output.Source = "duk_builtins.c"
	}
	if c.Output.GoPackage == "" {
		c.Output.GoPackage = "dukbuiltins"
	}
	if c.Output.DefinePrefix == "" {
		c.Output.DefinePrefix = "DUK_"
	}

	if c.Build.Version < 0 {
		return derrors.Schemaf("build", "version", "negative version %d", c.Build.Version)
	}
	_, err = c.ByteOrders()
	return err
}

func ptr[T any](v T) *T { return &v }

// FindAndLoad walks up from startDir to find a genbuiltins.toml file,
// then loads and returns the config. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ByteOrders returns the configured byte orders in emission order.
func (c *Config) ByteOrders() ([]builtins.ByteOrder, error) {
	seen := make(map[builtins.ByteOrder]bool)
	var out []builtins.ByteOrder
	for _, s := range c.Target.ByteOrders {
		b, err := builtins.ParseByteOrder(s)
		if err != nil {
			return nil, derrors.At(err, "target", "byte-orders")
		}
		if seen[b] {
			return nil, derrors.Schemaf("target", "byte-orders", "%s listed twice", s)
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// Extensions returns the extension gates to build with.
func (c *Config) Extensions() builtins.Extensions {
	return builtins.Extensions{
		SectionB:    c.Target.SectionB == nil || *c.Target.SectionB,
		BrowserLike: c.Target.BrowserLike == nil || *c.Target.BrowserLike,
	}
}

// Path resolves p against the config directory. Empty stays empty.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
