package entity

// MatchResult は1枚の入力画像に対する最近傍探索の結果です。
type MatchResult struct {
	Name      string // 最も近い参照画像の名前（Found=falseのときは空）
	Found     bool   // 比較可能な候補が1件以上あったか
	Distance  uint64 // L1距離
	Unbounded bool   // 距離が無限大（比較可能な候補なし）
}

// NoMatch は比較可能な候補が存在しなかった場合の結果です。
func NoMatch() MatchResult {
	return MatchResult{Unbounded: true}
}

// ImageEvent はチャットプラットフォームから届く画像付きメッセージです。
type ImageEvent struct {
	EventID    string // 相関ID（受信時に採番）
	MessageID  string
	ChannelID  string
	ContextID  string // サーバー（ギルド）ID
	AuthorID   string
	EmbedTitle string
	ImageURL   string
}

// Outcome はマッチ後にプラットフォームへ行った反応の結果です。
type Outcome struct {
	Replied        bool     // 返信を送信したか
	ReplyMessageID string   // 送信した返信のID（自動削除の対象）
	Pinged         []string // 通知したウォッチャーID
	CancelDelete   func()   // 自動削除の取り消し（未スケジュールならnil）
}
