package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"spawnwatch/internal/feature/identification/adapters/imaging"
	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
	"spawnwatch/internal/feature/identification/usecase"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewCanonicalizer(t *testing.T) {
	_, err := imaging.NewCanonicalizer(entity.Scale{Width: 0, Height: 64}, "")
	assert.Error(t, err)

	_, err = imaging.NewCanonicalizer(entity.Scale{Width: 8, Height: 8}, "lanczos")
	assert.Error(t, err)

	c, err := imaging.NewCanonicalizer(entity.Scale{Width: 8, Height: 4}, "")
	require.NoError(t, err)
	assert.Equal(t, entity.Scale{Width: 8, Height: 4}, c.Scale())
}

func TestParseInterpolator(t *testing.T) {
	for _, name := range []string{"", "bilinear", "Nearest", "approx-bilinear", " catmull-rom "} {
		_, err := imaging.ParseInterpolator(name)
		assert.NoError(t, err, name)
	}
	_, err := imaging.ParseInterpolator("bicubic")
	assert.Error(t, err)
}

func TestCanonicalizer_Canonicalize(t *testing.T) {
	scale := entity.Scale{Width: 16, Height: 16}
	c, err := imaging.NewCanonicalizer(scale, "")
	require.NoError(t, err)

	t.Run("success: サイズに関係なく同じバイト長になる", func(t *testing.T) {
		small, err := c.Canonicalize(encodePNG(t, solid(3, 7, color.RGBA{R: 200, A: 255})))
		require.NoError(t, err)
		large, err := c.Canonicalize(encodePNG(t, solid(120, 40, color.RGBA{R: 200, A: 255})))
		require.NoError(t, err)

		assert.Len(t, small, scale.BufferLen())
		assert.Len(t, large, scale.BufferLen())
		d, ok := usecase.Distance(small, large)
		assert.True(t, ok)
		assert.Zero(t, d)
	})

	t.Run("success: 同じ画像は距離0、異なる色は正の距離", func(t *testing.T) {
		red := encodePNG(t, solid(10, 10, color.RGBA{R: 255, A: 255}))
		blue := encodePNG(t, solid(10, 10, color.RGBA{B: 255, A: 255}))

		a, err := c.Canonicalize(red)
		require.NoError(t, err)
		b, err := c.Canonicalize(red)
		require.NoError(t, err)
		x, err := c.Canonicalize(blue)
		require.NoError(t, err)

		d, _ := usecase.Distance(a, b)
		assert.Zero(t, d)
		d, _ = usecase.Distance(a, x)
		assert.Equal(t, uint64(255*2*scale.Width*scale.Height), d)
	})

	t.Run("success: BMPもデコードできる", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, bmp.Encode(&buf, solid(4, 4, color.RGBA{G: 128, A: 255})))

		out, err := c.Canonicalize(buf.Bytes())
		require.NoError(t, err)
		assert.Len(t, out, scale.BufferLen())
	})

	t.Run("error: 空の入力", func(t *testing.T) {
		_, err := c.Canonicalize(nil)
		assert.ErrorIs(t, err, domain.ErrDecode)
	})

	t.Run("error: 画像ではない", func(t *testing.T) {
		_, err := c.Canonicalize([]byte("definitely not an image"))
		assert.ErrorIs(t, err, domain.ErrDecode)
	})
}
