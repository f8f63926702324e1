package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliTestEnv struct {
	dir        string
	configPath string
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Chdir(base)

	images := filepath.Join(base, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))
	writePNG(t, filepath.Join(images, "Bulbasaur.png"), color.RGBA{G: 200, A: 255})
	writePNG(t, filepath.Join(images, "Charmander.png"), color.RGBA{R: 230, G: 90, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(images, "broken.png"), []byte("nope"), 0o644))

	configPath := filepath.Join(base, "spawnwatch.toml")
	content := fmt.Sprintf(`
[catalog]
dir = %q
scale_width = 8
scale_height = 8

[store]
path = %q

[gateway]
url = "http://gateway.invalid"
secret = "gw-secret"

[http]
jwt_secret = "api-secret"
`, images, filepath.Join(base, "pings.json"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return &cliTestEnv{dir: base, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Bulbasaur")
	assert.Contains(t, out, "Charmander")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2 of 3 entries loaded")
}

func TestIdentifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.dir, "sample.png")
	writePNG(t, sample, color.RGBA{R: 228, G: 92, A: 255})

	out, err := env.run(t, "identify", sample)
	require.NoError(t, err)
	assert.Contains(t, out, "Charmander")

	_, err = env.run(t, "identify", filepath.Join(env.dir, "missing.png"))
	assert.Error(t, err)
}

func TestInterestsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "interests", "add", "u1", "Bulbasaur,", "Charmander")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Bulbasaur, Charmander to your ping list.")

	out, err = env.run(t, "interests", "add", "u1", "Bulbasaur")
	require.NoError(t, err)
	assert.Contains(t, out, "Bulbasaur are already in your ping list.")

	out, err = env.run(t, "interests", "list", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Bulbasaur")
	assert.Contains(t, out, "Charmander")

	_, err = env.run(t, "interests", "list", "nobody")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name    string
		args    []string
		secret  string
		subject string
	}{
		{"api token", []string{"token"}, "api-secret", "spawnctl"},
		{"gateway token", []string{"token", "--gateway"}, "gw-secret", "gateway"},
		{"custom subject", []string{"token", "--subject", "ops"}, "api-secret", "ops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			require.NoError(t, err)

			claims := &jwt.RegisteredClaims{}
			_, err = jwt.ParseWithClaims(string(bytes.TrimSpace([]byte(out))), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(tt.secret), nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.subject, claims.Subject)
		})
	}
}
