// Package config loads molrep settings from TOML or YAML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	// ErrInvalid is wrapped by every validation error.
	ErrInvalid = errors.New("config: invalid")

	// ErrFormat is returned for files that are neither TOML nor YAML.
	ErrFormat = errors.New("config: unsupported format")
)

// Camera holds the initial camera setup.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV  float32 `toml:"fov" yaml:"fov"`
	Near float32 `toml:"near" yaml:"near"`
	Far  float32 `toml:"far" yaml:"far"`
	// Distance is the distance of the camera from the scene center in Å.
	Distance float32 `toml:"distance" yaml:"distance"`
}

// Config holds stage settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Impostor selects ray-cast impostors over meshes by default.
	Impostor bool `toml:"impostor" yaml:"impostor"`
	// SphereDetail is the default mesh sphere tessellation level (0-3).
	SphereDetail int `toml:"sphere_detail" yaml:"sphere_detail"`
	// RadialSegments is the default mesh cylinder segment count.
	RadialSegments int `toml:"radial_segments" yaml:"radial_segments"`

	Camera Camera `toml:"camera" yaml:"camera"`

	// Representations holds default parameters per representation name.
	Representations map[string]map[string]any `toml:"representations" yaml:"representations"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Impostor:       true,
		SphereDetail:   2,
		RadialSegments: 10,
		Camera: Camera{
			FOV:      40,
			Near:     0.1,
			Far:      10000,
			Distance: 50,
		},
	}
}

// Decoder decodes a document into a value.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

// TOML decodes TOML documents.
func TOML(r io.Reader) Decoder { return toml.NewDecoder(r) }

// YAML decodes YAML documents.
func YAML(r io.Reader) Decoder { return yaml.NewDecoder(r) }

// DecoderFor returns the decoder for a file name by extension.
func DecoderFor(filename string) (DecoderFunc, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, filename)
	}
}

// Read decodes settings from r over the defaults and validates them.
func Read(r io.Reader, f DecoderFunc) (Config, error) {
	c := Default()
	if err := f(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads settings from a TOML or YAML file.
func Load(filename string) (Config, error) {
	f, err := DecoderFor(filename)
	if err != nil {
		return Config{}, err
	}
	fp, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer fp.Close()
	c, err := Read(bufio.NewReader(fp), f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Validate checks ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.SphereDetail < 0 || c.SphereDetail > 3 {
		errs = append(errs, fmt.Errorf("%w: sphere_detail %d not in [0, 3]", ErrInvalid, c.SphereDetail))
	}
	if c.RadialSegments < 3 {
		errs = append(errs, fmt.Errorf("%w: radial_segments %d below 3", ErrInvalid, c.RadialSegments))
	}
	cam := c.Camera
	if cam.FOV <= 0 || cam.FOV >= 180 {
		errs = append(errs, fmt.Errorf("%w: camera fov %v not in (0, 180)", ErrInvalid, cam.FOV))
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		errs = append(errs, fmt.Errorf("%w: camera clip %v..%v", ErrInvalid, cam.Near, cam.Far))
	}
	if cam.Distance <= 0 {
		errs = append(errs, fmt.Errorf("%w: camera distance %v", ErrInvalid, cam.Distance))
	}
	return errors.Join(errs...)
}

// Level returns the slog level of LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// GlobalParams are the representation parameters set from the top-level
// strategy settings.
var GlobalParams = []string{"impostor", "sphereDetail", "radialSegments"}

// Params returns the default parameters of a representation: the global
// strategy settings overlaid with its own section.
func (c *Config) Params(name string) map[string]any {
	p := map[string]any{
		"impostor":       c.Impostor,
		"sphereDetail":   c.SphereDetail,
		"radialSegments": c.RadialSegments,
	}
	for k, v := range c.Representations[name] {
		p[k] = v
	}
	return p
}
