// Package domain はnotificationフィーチャーのドメインエラーを定義します。
package domain

import "errors"

// ErrDelivery はプラットフォームへのメッセージ送信に失敗したことを示します。
var ErrDelivery = errors.New("message delivery failed")
