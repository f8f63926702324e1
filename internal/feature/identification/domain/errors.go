// Package domain はidentificationフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrFetch はリモート画像の取得に失敗したことを示します（タイムアウトを含む）。
	ErrFetch = errors.New("image fetch failed")

	// ErrRead はローカル画像ファイルの読み込みに失敗したことを示します。
	ErrRead = errors.New("image read failed")

	// ErrDecode は画像バイト列のデコードに失敗したことを示します。
	ErrDecode = errors.New("image decode failed")

	// ErrEventIgnored はイベントが識別対象ではない（送信者・タイトル不一致等）ことを示します。
	ErrEventIgnored = errors.New("event is not an identification target")

	// ErrCatalogDir はカタログディレクトリを列挙できなかったことを示します。
	ErrCatalogDir = errors.New("catalog directory unavailable")
)
