// Package imaging は画像バイト列のデコードと共通スケールへのリサイズを提供します。
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// 標準デコーダーの登録
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	// 追加フォーマットの登録
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
	"spawnwatch/internal/feature/identification/usecase"
)

// DefaultInterpolator はリサイズ時のデフォルト補間方式です。
const DefaultInterpolator = "bilinear"

// Canonicalizer は画像を共通スケールのRGBAバッファに変換します。
type Canonicalizer struct {
	scale  entity.Scale
	interp draw.Interpolator
}

// CanonicalizerがusecaseのCanonicalizerを実装していることをコンパイル時に検証します。
var _ usecase.Canonicalizer = (*Canonicalizer)(nil)

// NewCanonicalizer は指定スケールと補間方式でCanonicalizerを生成します。
// interpolatorが空の場合はDefaultInterpolatorを使用します。
func NewCanonicalizer(scale entity.Scale, interpolator string) (*Canonicalizer, error) {
	if !scale.Valid() {
		return nil, fmt.Errorf("invalid scale %dx%d", scale.Width, scale.Height)
	}
	interp, err := ParseInterpolator(interpolator)
	if err != nil {
		return nil, err
	}
	return &Canonicalizer{scale: scale, interp: interp}, nil
}

// ParseInterpolator は設定値の補間方式名をdraw.Interpolatorに変換します。
func ParseInterpolator(name string) (draw.Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DefaultInterpolator:
		return draw.BiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "catmull-rom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown interpolator %q", name)
	}
}

// Scale は出力バッファのスケールを返します。
func (c *Canonicalizer) Scale() entity.Scale {
	return c.scale
}

// Canonicalize はバイト列をデコードし、アスペクト比を無視して共通スケールへリサイズします。
func (c *Canonicalizer) Canonicalize(data []byte) (entity.CanonicalBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrDecode)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return c.resize(src), nil
}

// resize はsrcを共通スケールのRGBA画像に描画し、そのピクセル列を返します。
func (c *Canonicalizer) resize(src image.Image) entity.CanonicalBuffer {
	dst := image.NewRGBA(image.Rect(0, 0, c.scale.Width, c.scale.Height))
	c.interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	// image.NewRGBAはStride == Width*4なのでPixをそのまま使える
	return entity.CanonicalBuffer(dst.Pix)
}
