// Package gateway はチャットプラットフォームのゲートウェイへメッセージを送る Messenger 実装を提供します。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"spawnwatch/internal/feature/notification/usecase"
	"spawnwatch/internal/shared/ratelimiter"
)

// TokenSubject はゲートウェイ向けトークンのsubです。
const TokenSubject = "gateway"

const maxErrorBody = 512

// TokenGenerator はゲートウェイ認証用のトークンを発行します。
type TokenGenerator interface {
	GenerateToken(subject string) (string, error)
}

// sendRequest はテキスト送信時のJSONボディです。
type sendRequest struct {
	Content string `json:"content,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// sendResponse はゲートウェイが返す送信結果です。
type sendResponse struct {
	ID string `json:"id"`
}

// HTTPMessenger はHTTPゲートウェイ経由でメッセージを送受信します。
type HTTPMessenger struct {
	baseURL string
	client  *http.Client
	tokens  TokenGenerator
	limiter ratelimiter.RateLimiterInterface
}

var _ usecase.Messenger = (*HTTPMessenger)(nil)

// NewHTTPMessenger はHTTPMessengerの新しいインスタンスを生成します。
// limiter が nil の場合は送信頻度を制限しません。
func NewHTTPMessenger(baseURL string, client *http.Client, tokens TokenGenerator, limiter ratelimiter.RateLimiterInterface) *HTTPMessenger {
	return &HTTPMessenger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		tokens:  tokens,
		limiter: limiter,
	}
}

// SendText はテキストメッセージを送信します。
func (m *HTTPMessenger) SendText(ctx context.Context, channelID, replyTo, content string) (string, error) {
	body, err := json.Marshal(sendRequest{Content: content, ReplyTo: replyTo})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return m.send(ctx, m.messagesURL(channelID), "application/json", bytes.NewReader(body))
}

// SendFile はファイルを添付したメッセージをmultipartで送信します。
func (m *HTTPMessenger) SendFile(ctx context.Context, channelID, replyTo, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if replyTo != "" {
		if err := w.WriteField("reply_to", replyTo); err != nil {
			return "", fmt.Errorf("encode multipart: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("encode multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("encode multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("encode multipart: %w", err)
	}
	return m.send(ctx, m.messagesURL(channelID), w.FormDataContentType(), &buf)
}

// DeleteMessage はメッセージを削除します。既に削除済み（404）の場合は成功として扱います。
func (m *HTTPMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	endpoint := m.messagesURL(channelID) + "/" + url.PathEscape(messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := m.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Debug("message already deleted", "channel_id", channelID, "message_id", messageID)
		return nil
	}
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

func (m *HTTPMessenger) messagesURL(channelID string) string {
	return m.baseURL + "/channels/" + url.PathEscape(channelID) + "/messages"
}

func (m *HTTPMessenger) send(ctx context.Context, endpoint, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := m.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", statusError(resp)
	}
	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.ID, nil
}

// do は認証ヘッダーを付与し、レート制限を守ってリクエストを送信します。
func (m *HTTPMessenger) do(req *http.Request) (*http.Response, error) {
	token, err := m.tokens.GenerateToken(TokenSubject)
	if err != nil {
		return nil, fmt.Errorf("gateway token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	if m.limiter != nil {
		if err := m.limiter.WaitIfNeeded(req.Context()); err != nil {
			return nil, fmt.Errorf("gateway rate limit wait: %w", err)
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("gateway %s %s: status %d: %s",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
