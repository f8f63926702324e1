// Package usecase はsubscriptionフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"strings"

	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
)

// WatcherRepository はウォッチャーの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type WatcherRepository interface {
	// Find は指定IDのウォッチャーを返します。存在しない場合はdomain.ErrWatcherNotFoundを返します。
	Find(ctx context.Context, id string) (*entity.Watcher, error)

	// Update はウォッチャーを読み込み（存在しなければ空で作成し）、fnを適用して永続化します。
	// 読み込み・変更・永続化は1つの不可分な操作として直列化されます。
	// fnがエラーを返した場合、何も永続化されません。
	Update(ctx context.Context, id string, fn func(w *entity.Watcher, existed bool) error) error

	// FindInterestedIn はnameを関心リストに含むウォッチャーのIDを昇順で返します。
	FindInterestedIn(ctx context.Context, name string) ([]string, error)
}

// SubscriptionUsecase は関心リストの追加・参照・検索を提供します。
type SubscriptionUsecase struct {
	repo WatcherRepository
}

// NewSubscriptionUsecase はSubscriptionUsecaseの新しいインスタンスを生成します。
func NewSubscriptionUsecase(repo WatcherRepository) *SubscriptionUsecase {
	return &SubscriptionUsecase{repo: repo}
}

// AddInterest は名前を関心リストに追加します。ウォッチャーが存在しなければ作成します。
// 名前はトリムされ、空の名前は無視されます。永続化は呼び出しごとに1回です。
func (u *SubscriptionUsecase) AddInterest(ctx context.Context, watcherID string, names []string) (entity.AddResult, error) {
	watcherID = strings.TrimSpace(watcherID)
	if watcherID == "" {
		return entity.AddResult{}, domain.ErrInvalidWatcher
	}
	cleaned := entity.CleanNames(names)
	if len(cleaned) == 0 {
		return entity.AddResult{}, domain.ErrNoNames
	}

	var res entity.AddResult
	err := u.repo.Update(ctx, watcherID, func(w *entity.Watcher, _ bool) error {
		res = w.AddNames(cleaned)
		return nil
	})
	if err != nil {
		return entity.AddResult{}, err
	}
	return res, nil
}

// RemoveInterest は名前を関心リストから削除します。
func (u *SubscriptionUsecase) RemoveInterest(ctx context.Context, watcherID string, names []string) (entity.RemoveResult, error) {
	watcherID = strings.TrimSpace(watcherID)
	if watcherID == "" {
		return entity.RemoveResult{}, domain.ErrInvalidWatcher
	}
	cleaned := entity.CleanNames(names)
	if len(cleaned) == 0 {
		return entity.RemoveResult{}, domain.ErrNoNames
	}

	var res entity.RemoveResult
	err := u.repo.Update(ctx, watcherID, func(w *entity.Watcher, existed bool) error {
		if !existed {
			return domain.ErrWatcherNotFound
		}
		res = w.RemoveNames(cleaned)
		return nil
	})
	if err != nil {
		return entity.RemoveResult{}, err
	}
	return res, nil
}

// SetAway は離席フラグを設定します。ウォッチャーが存在しなければ作成します。
func (u *SubscriptionUsecase) SetAway(ctx context.Context, watcherID string, away bool) error {
	watcherID = strings.TrimSpace(watcherID)
	if watcherID == "" {
		return domain.ErrInvalidWatcher
	}
	return u.repo.Update(ctx, watcherID, func(w *entity.Watcher, _ bool) error {
		w.Away = away
		return nil
	})
}

// ListInterest は関心リストを挿入順で返します。
// 未登録のウォッチャーはdomain.ErrWatcherNotFoundを返します。
func (u *SubscriptionUsecase) ListInterest(ctx context.Context, watcherID string) ([]string, error) {
	w, err := u.repo.Find(ctx, strings.TrimSpace(watcherID))
	if err != nil {
		return nil, err
	}
	return append([]string{}, w.InterestList...), nil
}

// WatchersInterestedIn はnameを関心リストに含むウォッチャーのIDを返します。
func (u *SubscriptionUsecase) WatchersInterestedIn(ctx context.Context, name string) ([]string, error) {
	return u.repo.FindInterestedIn(ctx, name)
}
