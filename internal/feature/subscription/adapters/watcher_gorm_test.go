package adapters

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
	"spawnwatch/internal/feature/subscription/usecase"
	platformdb "spawnwatch/internal/platform/db"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory:は接続ごとに別のDBになるため1接続に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(Models()...), "failed to migrate tables")
	return db
}

func TestNewWatcherRepository(t *testing.T) {
	t.Parallel()

	repo := NewWatcherRepository(setupTestDB(t))
	assert.NotNil(t, repo.db)
}

func TestWatcherGorm_Find(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewWatcherRepository(setupTestDB(t))

	_, err := repo.Find(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrWatcherNotFound)

	require.NoError(t, repo.Update(ctx, "u1", func(w *entity.Watcher, existed bool) error {
		assert.False(t, existed)
		w.AddNames([]string{"Squirtle", "Bulbasaur", "Abra"})
		return nil
	}))

	w, err := repo.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", w.ID)
	assert.Equal(t, []string{"Squirtle", "Bulbasaur", "Abra"}, w.InterestList, "position順で返す")
}

func TestWatcherGorm_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success: 追加・削除・離席フラグ", func(t *testing.T) {
		repo := NewWatcherRepository(setupTestDB(t))

		require.NoError(t, repo.Update(ctx, "u1", func(w *entity.Watcher, _ bool) error {
			w.AddNames([]string{"A", "B", "C"})
			return nil
		}))
		require.NoError(t, repo.Update(ctx, "u1", func(w *entity.Watcher, existed bool) error {
			assert.True(t, existed)
			w.RemoveNames([]string{"B"})
			w.AddNames([]string{"D"})
			w.Away = true
			return nil
		}))

		w, err := repo.Find(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C", "D"}, w.InterestList)
		assert.True(t, w.Away)
	})

	t.Run("success: 空の関心リストで作成", func(t *testing.T) {
		repo := NewWatcherRepository(setupTestDB(t))

		require.NoError(t, repo.Update(ctx, "u1", func(w *entity.Watcher, _ bool) error {
			w.Away = true
			return nil
		}))
		w, err := repo.Find(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, w.InterestList)
		assert.True(t, w.Away)
	})

	t.Run("error: fnのエラーはロールバックしてそのまま返す", func(t *testing.T) {
		repo := NewWatcherRepository(setupTestDB(t))
		fnErr := errors.New("rejected")

		err := repo.Update(ctx, "u1", func(w *entity.Watcher, _ bool) error {
			w.AddNames([]string{"A"})
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		assert.NotErrorIs(t, err, domain.ErrPersist)

		_, err = repo.Find(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrWatcherNotFound)
	})

	t.Run("error: DB障害はErrPersist", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatcherRepository(db)
		require.NoError(t, db.Migrator().DropTable(&InterestModel{}))

		err := repo.Update(ctx, "u1", func(w *entity.Watcher, _ bool) error {
			w.AddNames([]string{"A"})
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrPersist)
	})
}

func TestWatcherGorm_FindInterestedIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewWatcherRepository(setupTestDB(t))

	for id, names := range map[string][]string{
		"u3": {"Eevee"},
		"u1": {"Eevee", "Mew"},
		"u2": {"Mew"},
	} {
		require.NoError(t, repo.Update(ctx, id, func(w *entity.Watcher, _ bool) error {
			w.AddNames(names)
			return nil
		}))
	}

	ids, err := repo.FindInterestedIn(ctx, "Eevee")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, ids)

	ids, err = repo.FindInterestedIn(ctx, "eevee")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestWatcherGorm_WithUsecase はユースケース経由でもファイルストアと同じ振る舞いになることを検証します。
func TestWatcherGorm_WithUsecase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := usecase.NewSubscriptionUsecase(NewWatcherRepository(setupTestDB(t)))

	res, err := uc.AddInterest(ctx, "u1", []string{"A", "A", " B "})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Added)
	assert.Empty(t, res.AlreadyPresent)

	list, err := uc.ListInterest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, list)

	_, err = uc.ListInterest(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrWatcherNotFound)
}

// TestWatcherGorm_ConcurrentUpdates はファイルSQLite上で同一ウォッチャーへの並行追加が失われないことを検証します。
func TestWatcherGorm_ConcurrentUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := platformdb.OpenDB(platformdb.Config{
		Driver:  platformdb.DriverSQLite,
		Path:    filepath.Join(t.TempDir(), "watchers.db"),
		Migrate: true,
	}, Models()...)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	uc := usecase.NewSubscriptionUsecase(NewWatcherRepository(db))

	const n = 20
	want := make([]string, 0, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("N%d", i)
		want = append(want, name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.AddInterest(ctx, "u1", []string{name})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := uc.ListInterest(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, list)
}
