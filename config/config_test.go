package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
log_level = "debug"
impostor = false
radial_segments = 16

[camera]
fov = 30.0
distance = 80.0

[representations.distance]
labelSize = 2.5
atomPair = [["@0", "@1"]]

[representations."ball+stick"]
aspectRatio = 1.5
`

const sampleYAML = `
log_level: warn
sphere_detail: 1
camera:
  near: 1
  far: 500
representations:
  rocket:
    localAngle: 20
`

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
}

func TestReadTOML(t *testing.T) {
	c, err := Read(strings.NewReader(sampleTOML), TOML)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.False(t, c.Impostor)
	assert.Equal(t, 16, c.RadialSegments)
	assert.Equal(t, 2, c.SphereDetail, "unset keys keep defaults")
	assert.InDelta(t, 30, c.Camera.FOV, 1e-6)
	assert.InDelta(t, 80, c.Camera.Distance, 1e-6)
	assert.InDelta(t, 0.1, c.Camera.Near, 1e-6)

	p := c.Params("distance")
	assert.Equal(t, false, p["impostor"])
	assert.Equal(t, 16, p["radialSegments"])
	assert.InDelta(t, 2.5, p["labelSize"], 1e-9)
	assert.Equal(t, []any{[]any{"@0", "@1"}}, p["atomPair"])

	assert.InDelta(t, 1.5, c.Params("ball+stick")["aspectRatio"], 1e-9)
}

func TestReadYAML(t *testing.T) {
	c, err := Read(strings.NewReader(sampleYAML), YAML)
	require.NoError(t, err)

	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, 1, c.SphereDetail)
	assert.InDelta(t, 1, c.Camera.Near, 1e-6)
	assert.InDelta(t, 500, c.Camera.Far, 1e-6)
	assert.InDelta(t, 40, c.Camera.FOV, 1e-6)
	assert.Equal(t, 20, c.Params("rocket")["localAngle"])
}

func TestReadEmpty(t *testing.T) {
	for name, f := range map[string]DecoderFunc{"toml": TOML, "yaml": YAML} {
		c, err := Read(strings.NewReader(""), f)
		require.NoError(t, err, name)
		assert.Equal(t, Default(), c, name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"sphere detail", func(c *Config) { c.SphereDetail = 4 }},
		{"radial segments", func(c *Config) { c.RadialSegments = 2 }},
		{"fov", func(c *Config) { c.Camera.FOV = 180 }},
		{"clip", func(c *Config) { c.Camera.Far = c.Camera.Near }},
		{"distance", func(c *Config) { c.Camera.Distance = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	_, err := Read(strings.NewReader("sphere_detail = 9\n"), TOML)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Read(strings.NewReader("sphere_detail = \n"), TOML)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "molrep.toml")
	yamlPath := filepath.Join(dir, "molrep.YML")
	require.NoError(t, os.WriteFile(tomlPath, []byte(sampleTOML), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))

	c, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)

	c, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)

	_, err = Load(filepath.Join(dir, "molrep.json"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
