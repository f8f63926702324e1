// Package domain はsubscriptionフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrWatcherNotFound は指定IDのウォッチャーが存在しないことを示します。
	ErrWatcherNotFound = errors.New("watcher not found")

	// ErrInvalidWatcher はウォッチャーIDが空であることを示します。
	ErrInvalidWatcher = errors.New("watcher id is required")

	// ErrNoNames は有効な名前が1つも指定されなかったことを示します。
	ErrNoNames = errors.New("at least one name is required")

	// ErrPersist はストアの永続化に失敗したことを示します。変更は適用されません。
	ErrPersist = errors.New("failed to persist subscription store")

	// ErrStoreCorrupt は永続化ファイルの内容が不正であることを示します（起動時に致命的）。
	ErrStoreCorrupt = errors.New("subscription store is corrupt")

	// ErrStoreLocked は他のプロセスが同じストアファイルを使用中であることを示します。
	ErrStoreLocked = errors.New("subscription store is locked by another process")
)
