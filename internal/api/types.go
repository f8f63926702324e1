// Package api はHTTP APIのリクエスト/レスポンスDTOを定義します。
package api

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は単純なメッセージを返すレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// ImageEventRequest はプラットフォームゲートウェイから届く画像イベントです。
type ImageEventRequest struct {
	MessageID  string `json:"message_id" binding:"required"`
	ChannelID  string `json:"channel_id" binding:"required"`
	ContextID  string `json:"context_id"`
	AuthorID   string `json:"author_id" binding:"required"`
	EmbedTitle string `json:"embed_title"`
	ImageURL   string `json:"image_url"`
}

// ImageEventResponse は画像イベント処理結果です。
type ImageEventResponse struct {
	EventID  string   `json:"event_id"`
	Matched  bool     `json:"matched"`
	Name     string   `json:"name,omitempty"`
	Distance *uint64  `json:"distance,omitempty"`
	Replied  bool     `json:"replied"`
	Pinged   []string `json:"pinged"`
}

// IdentifyResponse はアップロード画像の照合結果です。
type IdentifyResponse struct {
	Matched  bool    `json:"matched"`
	Name     string  `json:"name,omitempty"`
	Distance *uint64 `json:"distance,omitempty"`
}

// CatalogResponse はカタログの読み込み状況です。
type CatalogResponse struct {
	Total  int      `json:"total"`
	Loaded int      `json:"loaded"`
	Names  []string `json:"names"`
}

// CommandEventRequest はプラットフォームゲートウェイから届くテキストコマンドです。
type CommandEventRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	ChannelID string `json:"channel_id" binding:"required"`
	AuthorID  string `json:"author_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// CommandEventResponse はコマンドへの返信内容です。
type CommandEventResponse struct {
	Replies []string `json:"replies"`
}

// InterestsResponse はウォッチャーの関心リストです。
type InterestsResponse struct {
	WatcherID string   `json:"watcher_id"`
	Interests []string `json:"interests"`
}

// AddInterestsRequest は関心リストへの追加リクエストです。
type AddInterestsRequest struct {
	Names []string `json:"names" binding:"required"`
}

// AddInterestsResponse は関心リストへの追加結果です。
type AddInterestsResponse struct {
	Added          []string `json:"added"`
	AlreadyPresent []string `json:"already_present"`
}
