// Package entity はidentificationフィーチャーのドメインモデルを定義します。
package entity

// Scale はすべての比較対象画像が揃えられる共通解像度です。
type Scale struct {
	Width  int
	Height int
}

// Channels は正規化バッファの1ピクセルあたりのバイト数（RGBA）です。
const Channels = 4

// BufferLen はこのスケールで正規化されたバッファのバイト長を返します。
func (s Scale) BufferLen() int {
	return s.Width * s.Height * Channels
}

// Valid は幅・高さが正の値かどうかを返します。
func (s Scale) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// CanonicalBuffer は共通スケールにリサイズされた生のピクセルバイト列です。
// バイト長が等しい場合のみ比較可能です。
type CanonicalBuffer []byte

// ReferenceImage はカタログに登録された参照画像です。
// 起動時に一度だけ生成され、以降は変更されません。
type ReferenceImage struct {
	Name   string          // ファイル名（拡張子なし）
	Pixels CanonicalBuffer // 正規化に失敗した場合はnil
}

// Loaded は正規化済みのバッファを持っているかどうかを返します。
func (r ReferenceImage) Loaded() bool {
	return r.Pixels != nil
}

// CatalogSummary はカタログの読み込み状況です。
type CatalogSummary struct {
	Total  int      // エントリ数
	Loaded int      // バッファを持つエントリ数
	Names  []string // 列挙順の名前
}
