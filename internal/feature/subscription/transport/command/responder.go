package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
)

// ListChunkSize はlistの返信1通あたりの名前数です。
const ListChunkSize = 50

const (
	msgNoNames    = "Please specify at least one name."
	msgEmptyList  = "You have no names added to your list."
	msgSaveFailed = "Could not save your list, please try again."
)

// SubscriptionUsecase はコマンドが利用する関心リスト操作です。
type SubscriptionUsecase interface {
	AddInterest(ctx context.Context, watcherID string, names []string) (entity.AddResult, error)
	RemoveInterest(ctx context.Context, watcherID string, names []string) (entity.RemoveResult, error)
	SetAway(ctx context.Context, watcherID string, away bool) error
	ListInterest(ctx context.Context, watcherID string) ([]string, error)
}

// Responder はコマンドを実行し、返信テキストを組み立てます。
type Responder struct {
	uc SubscriptionUsecase
}

// NewResponder はResponderを生成します。
func NewResponder(uc SubscriptionUsecase) *Responder {
	return &Responder{uc: uc}
}

// Respond はコマンドを実行して返信テキストを返します。
// 永続化に失敗した場合も失敗を伝える返信を返し、あわせてエラーを返します。
func (r *Responder) Respond(ctx context.Context, authorID string, cmd Command) ([]string, error) {
	switch cmd.Kind {
	case KindAdd:
		res, err := r.uc.AddInterest(ctx, authorID, cmd.Names)
		if err != nil {
			return r.failure(err)
		}
		return []string{FormatAdd(res)}, nil

	case KindRemove:
		res, err := r.uc.RemoveInterest(ctx, authorID, cmd.Names)
		if errors.Is(err, domain.ErrWatcherNotFound) {
			return []string{msgEmptyList}, nil
		}
		if err != nil {
			return r.failure(err)
		}
		return []string{FormatRemove(res)}, nil

	case KindList:
		names, err := r.uc.ListInterest(ctx, authorID)
		if err != nil && !errors.Is(err, domain.ErrWatcherNotFound) {
			return nil, err
		}
		if len(names) == 0 {
			return []string{msgEmptyList}, nil
		}
		return FormatList(names, ListChunkSize), nil

	case KindAway:
		if err := r.uc.SetAway(ctx, authorID, cmd.Away); err != nil {
			return r.failure(err)
		}
		if cmd.Away {
			return []string{"You are now marked as away."}, nil
		}
		return []string{"Welcome back, you are no longer away."}, nil
	}
	return nil, fmt.Errorf("unknown command kind %d", cmd.Kind)
}

func (r *Responder) failure(err error) ([]string, error) {
	switch {
	case errors.Is(err, domain.ErrNoNames):
		return []string{msgNoNames}, nil
	case errors.Is(err, domain.ErrPersist):
		slog.Error("subscription command not saved", "error", err)
		return []string{msgSaveFailed}, err
	default:
		return nil, err
	}
}

// FormatAdd はaddの結果を返信テキストにします。
func FormatAdd(res entity.AddResult) string {
	var b strings.Builder
	if len(res.Added) > 0 {
		fmt.Fprintf(&b, "Added %s to your ping list.", strings.Join(res.Added, ", "))
	}
	if len(res.AlreadyPresent) > 0 {
		fmt.Fprintf(&b, "\n%s are already in your ping list.", strings.Join(res.AlreadyPresent, ", "))
	}
	return strings.TrimPrefix(b.String(), "\n")
}

// FormatRemove はremoveの結果を返信テキストにします。
func FormatRemove(res entity.RemoveResult) string {
	var b strings.Builder
	if len(res.Removed) > 0 {
		fmt.Fprintf(&b, "Removed %s from your ping list.", strings.Join(res.Removed, ", "))
	}
	if len(res.NotPresent) > 0 {
		fmt.Fprintf(&b, "\n%s are not in your ping list.", strings.Join(res.NotPresent, ", "))
	}
	return strings.TrimPrefix(b.String(), "\n")
}

// FormatList は名前をchunkSize件ごとのメッセージに分割します。番号はメッセージをまたいで連番です。
func FormatList(names []string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = ListChunkSize
	}
	var msgs []string
	for start := 0; start < len(names); start += chunkSize {
		end := min(start+chunkSize, len(names))
		lines := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, names[i]))
		}
		body := strings.Join(lines, "\n")
		if start == 0 {
			body = "**Your list:**\n" + body
		}
		msgs = append(msgs, body)
	}
	return msgs
}
