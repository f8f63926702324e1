// Package render はマッチした名前をラベル画像（PNG）に描画します。
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"spawnwatch/internal/feature/notification/usecase"
)

const (
	DefaultWidth    = 400
	DefaultHeight   = 80
	DefaultFontSize = 35
)

// DefaultTextColor はラベル文字色（#0645AD）です。
var DefaultTextColor = color.RGBA{R: 0x06, G: 0x45, B: 0xAD, A: 0xFF}

// LabelRenderer は固定サイズのキャンバスに名前を描画します。
type LabelRenderer struct {
	width, height int
	background    *image.RGBA // nil なら透明
	textColor     color.Color

	// opentype の Face は同時使用できないため mu で保護する
	mu   sync.Mutex
	face font.Face
}

var _ usecase.Renderer = (*LabelRenderer)(nil)

// NewLabelRenderer はLabelRendererを生成します。
// backgroundPath が空でなければ、その画像をキャンバスサイズに拡縮して背景に使います。
func NewLabelRenderer(backgroundPath string) (*LabelRenderer, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    DefaultFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new font face: %w", err)
	}

	r := &LabelRenderer{
		width:     DefaultWidth,
		height:    DefaultHeight,
		textColor: DefaultTextColor,
		face:      face,
	}
	if backgroundPath != "" {
		bg, err := loadBackground(backgroundPath, r.width, r.height)
		if err != nil {
			return nil, err
		}
		r.background = bg
	}
	return r, nil
}

func loadBackground(path string, w, h int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label background: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode label background %s: %w", path, err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Render は text をキャンバスに描画し、PNGとしてエンコードして返します。
// 文字列は左から15%、高さ60%の位置を中心に配置されます。
func (r *LabelRenderer) Render(text string) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	if r.background != nil {
		draw.Draw(dst, dst.Bounds(), r.background, image.Point{}, draw.Src)
	}

	r.mu.Lock()
	m := r.face.Metrics()
	mid := r.height * 60 / 100
	baseline := mid + (m.Ascent-m.Descent).Ceil()/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.textColor),
		Face: r.face,
		Dot:  fixed.P(r.width*15/100, baseline),
	}
	d.DrawString(text)
	r.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode label: %w", err)
	}
	return buf.Bytes(), nil
}
