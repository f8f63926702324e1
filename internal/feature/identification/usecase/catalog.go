package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
)

// DefaultPreloadConcurrency はカタログ構築時の同時正規化数のデフォルト値です。
const DefaultPreloadConcurrency = 4

// catalogExtensions はカタログとして読み込む画像の拡張子です。
var catalogExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".bmp":  {},
}

// Catalog は起動時に一度だけ構築される参照画像の集合です。構築後は読み取り専用です。
type Catalog struct {
	entries []entity.ReferenceImage
}

// NewCatalog は与えられた順序のままエントリを保持するCatalogを生成します。
func NewCatalog(entries []entity.ReferenceImage) *Catalog {
	cp := make([]entity.ReferenceImage, len(entries))
	copy(cp, entries)
	return &Catalog{entries: cp}
}

// BuildCatalog はdir内の画像ファイルをファイル名順に正規化してCatalogを構築します。
// 個々のファイルの正規化失敗はログに記録し、バッファなしのエントリとして保持します。
func BuildCatalog(ctx context.Context, dir string, n Normalizer, concurrency int) (*Catalog, error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogDir, err)
	}

	type source struct {
		name string
		path string
	}
	var sources []source
	seen := make(map[string]struct{})
	// os.ReadDirはファイル名順に返すので、この順序がタイブレークの順序になる
	for _, item := range listing {
		if item.IsDir() {
			continue
		}
		ext := filepath.Ext(item.Name())
		if _, ok := catalogExtensions[strings.ToLower(ext)]; !ok {
			continue
		}
		name := strings.TrimSuffix(item.Name(), ext)
		if _, dup := seen[name]; dup {
			slog.Warn("duplicate catalog name skipped", "name", name, "file", item.Name())
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, source{name: name, path: filepath.Join(dir, item.Name())})
	}

	if concurrency <= 0 {
		concurrency = DefaultPreloadConcurrency
	}

	entries := make([]entity.ReferenceImage, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range sources {
		g.Go(func() error {
			entries[i] = entity.ReferenceImage{Name: src.name}
			buf, err := n.Normalize(gctx, src.path)
			if err != nil {
				slog.Warn("failed to normalize catalog image", "name", src.name, "path", src.path, "error", err)
				return nil
			}
			entries[i].Pixels = buf
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Catalog{entries: entries}
	slog.Info("catalog loaded", "dir", dir, "total", c.Len(), "loaded", c.Loaded())
	return c, nil
}

// Entries はカタログのエントリを列挙順で返します。戻り値を変更してはいけません。
func (c *Catalog) Entries() []entity.ReferenceImage {
	return c.entries
}

// Len はエントリ数（正規化失敗分を含む）を返します。
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Loaded はバッファを持つエントリ数を返します。
func (c *Catalog) Loaded() int {
	n := 0
	for _, e := range c.entries {
		if e.Loaded() {
			n++
		}
	}
	return n
}

// Names はエントリ名を列挙順で返します。
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	return names
}
