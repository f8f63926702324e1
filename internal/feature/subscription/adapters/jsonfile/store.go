// Package jsonfile はウォッチャーを単一のJSONドキュメントとして永続化するストアを提供します。
//
// ファイル形式:
//
//	{
//	  "<watcher id>": { "interestList": ["A", "B"], "away": false }
//	}
//
// ストア全体をメモリに保持し、変更のたびにファイル全体を書き直します。
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
	"spawnwatch/internal/feature/subscription/usecase"
)

// record はファイル上の1ウォッチャー分の表現です。
type record struct {
	InterestList []string `json:"interestList"`
	Away         bool     `json:"away"`
}

// Store はJSONファイルに裏付けられたWatcherRepository実装です。
// 変更は1つのミューテックスで直列化され、読み込み・変更・書き込みが交錯することはありません。
type Store struct {
	path     string
	lock     *flock.Flock
	mu       sync.RWMutex
	watchers map[string]entity.Watcher

	// writeFile はテストで書き込み失敗を差し込むためのフックです。
	writeFile func(name string, data []byte, perm os.FileMode) error
}

var _ usecase.WatcherRepository = (*Store)(nil)

// Open はストアファイルを読み込みます。ファイルが存在しなければ空のストアを作成して即座に書き出します。
// 内容が不正な場合はdomain.ErrStoreCorruptを返します。
// 同じファイルを他のプロセスが開いている場合はdomain.ErrStoreLockedを返します。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock store file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreLocked, path)
	}

	s := &Store{
		path:      path,
		lock:      lock,
		watchers:  make(map[string]entity.Watcher),
		writeFile: os.WriteFile,
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close はファイルロックを解放します。
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Path はストアファイルのパスを返します。
func (s *Store) Path() string {
	return s.path
}

// Find は指定IDのウォッチャーのコピーを返します。
func (s *Store) Find(_ context.Context, id string) (*entity.Watcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.watchers[id]
	if !ok {
		return nil, domain.ErrWatcherNotFound
	}
	cp := w.Clone()
	return &cp, nil
}

// Update はウォッチャーにfnを適用し、ストア全体を書き出します。
// 書き出しに失敗した場合はメモリ上の変更を取り消し、domain.ErrPersistを返します。
func (s *Store) Update(ctx context.Context, id string, fn func(w *entity.Watcher, existed bool) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.watchers[id]
	work := entity.Watcher{ID: id, InterestList: []string{}}
	if existed {
		work = prev.Clone()
	}
	if err := fn(&work, existed); err != nil {
		return err
	}

	s.watchers[id] = work
	if err := s.save(); err != nil {
		if existed {
			s.watchers[id] = prev
		} else {
			delete(s.watchers, id)
		}
		slog.Error("failed to flush subscription store", "path", s.path, "watcher_id", id, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	return nil
}

// FindInterestedIn は全ウォッチャーを線形走査し、nameを含むもののIDを昇順で返します。
func (s *Store) FindInterestedIn(_ context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for id, w := range s.watchers {
		if w.Has(name) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// All は全ウォッチャーのコピーをID昇順で返します。
func (s *Store) All(_ context.Context) ([]entity.Watcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// load はファイルを読み込みます。存在しなければ空のストアを書き出します。
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.save(); err != nil {
				return fmt.Errorf("initialize store file: %w", err)
			}
			slog.Info("subscription store initialized", "path", s.path)
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}

	var records map[string]record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreCorrupt, s.path, err)
	}
	if records == nil {
		return fmt.Errorf("%w: %s: top-level value is null", domain.ErrStoreCorrupt, s.path)
	}

	for id, r := range records {
		list := r.InterestList
		if list == nil {
			list = []string{}
		}
		s.watchers[id] = entity.Watcher{ID: id, InterestList: list, Away: r.Away}
	}
	slog.Info("subscription store loaded", "path", s.path, "watchers", len(s.watchers))
	return nil
}

// save はストア全体を一時ファイルに書き出し、リネームで置き換えます。
func (s *Store) save() error {
	records := make(map[string]record, len(s.watchers))
	for id, w := range s.watchers {
		list := w.InterestList
		if list == nil {
			list = []string{}
		}
		records[id] = record{InterestList: list, Away: w.Away}
	}

	// encoding/jsonはマップのキーをソートして出力するので内容は決定的になる
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := s.writeFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
