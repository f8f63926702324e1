// Package adapters はsubscriptionフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
	"spawnwatch/internal/feature/subscription/usecase"
)

// WatcherModel はwatchersテーブルの行です。
type WatcherModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Away      bool   `gorm:"not null;default:false"`
	CreatedAt int64  `gorm:"autoCreateTime"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// TableName はテーブル名を返します。
func (WatcherModel) TableName() string {
	return "watchers"
}

// InterestModel はwatcher_interestsテーブルの行です。Positionが挿入順を表します。
type InterestModel struct {
	ID        uint   `gorm:"primaryKey"`
	WatcherID string `gorm:"size:64;not null;uniqueIndex:watcher_interest,priority:1"`
	Name      string `gorm:"size:255;not null;uniqueIndex:watcher_interest,priority:2;index:idx_interest_name"`
	Position  int    `gorm:"not null"`
}

// TableName はテーブル名を返します。
func (InterestModel) TableName() string {
	return "watcher_interests"
}

// Models はマイグレーション対象のモデルです。
func Models() []any {
	return []any{&WatcherModel{}, &InterestModel{}}
}

// watcherGorm はWatcherRepositoryインターフェースのGORM実装です（SQLite/PostgreSQL）。
// 同一プロセス内の更新はmuで、複数プロセス間はPostgreSQLの行ロックで直列化します。
type watcherGorm struct {
	mu sync.Mutex
	db *gorm.DB
}

var _ usecase.WatcherRepository = (*watcherGorm)(nil)

// NewWatcherRepository は指定されたDB接続でwatcherGormリポジトリの新しいインスタンスを生成します。
func NewWatcherRepository(db *gorm.DB) *watcherGorm {
	return &watcherGorm{db: db}
}

// Find は指定IDのウォッチャーと関心リスト（position順）を返します。
func (r *watcherGorm) Find(ctx context.Context, id string) (*entity.Watcher, error) {
	return findWatcher(r.db.WithContext(ctx), id)
}

// Update はトランザクション内でウォッチャーを読み込み、fnを適用し、関心リストを書き直します。
func (r *watcherGorm) Update(ctx context.Context, id string, fn func(w *entity.Watcher, existed bool) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existed := true
		w, err := findWatcher(lockForUpdate(tx), id)
		if errors.Is(err, domain.ErrWatcherNotFound) {
			existed = false
			w = &entity.Watcher{ID: id, InterestList: []string{}}
		} else if err != nil {
			return err
		}

		if fnErr = fn(w, existed); fnErr != nil {
			return fnErr
		}

		if existed {
			if err := tx.Model(&WatcherModel{}).Where("id = ?", id).Update("away", w.Away).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&WatcherModel{ID: id, Away: w.Away}).Error; err != nil {
				return err
			}
		}

		// 関心リストは丸ごと書き直す（ファイルストアと同じく差分を取らない）
		if err := tx.Where("watcher_id = ?", id).Delete(&InterestModel{}).Error; err != nil {
			return err
		}
		if len(w.InterestList) == 0 {
			return nil
		}
		rows := make([]InterestModel, 0, len(w.InterestList))
		for i, name := range w.InterestList {
			rows = append(rows, InterestModel{WatcherID: id, Name: name, Position: i})
		}
		return tx.Create(&rows).Error
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	return nil
}

// FindInterestedIn はnameを関心リストに含むウォッチャーのIDを昇順で返します。
func (r *watcherGorm) FindInterestedIn(ctx context.Context, name string) ([]string, error) {
	ids := []string{}
	if err := r.db.WithContext(ctx).
		Model(&InterestModel{}).
		Where("name = ?", name).
		Order("watcher_id ASC").
		Pluck("watcher_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// lockForUpdate はPostgreSQLでは読み込む行をSELECT ... FOR UPDATEでロックします。
// SQLiteは書き込みトランザクション自体がDB全体を直列化するためそのまま返します。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	// findWatcherで2回クエリするため条件が積み重ならないようSessionで区切る
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Session(&gorm.Session{})
}

func findWatcher(db *gorm.DB, id string) (*entity.Watcher, error) {
	var m WatcherModel
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWatcherNotFound
		}
		return nil, err
	}

	names := []string{}
	if err := db.Model(&InterestModel{}).
		Where("watcher_id = ?", id).
		Order("position ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return &entity.Watcher{ID: m.ID, InterestList: names, Away: m.Away}, nil
}
