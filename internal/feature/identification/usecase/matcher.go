package usecase

import (
	"golang.org/x/sync/errgroup"

	"spawnwatch/internal/feature/identification/domain/entity"
)

// Matcher は正規化バッファに最も近いカタログエントリを探索するインターフェースです。
type Matcher interface {
	Match(candidate entity.CanonicalBuffer) entity.MatchResult
}

// Distance は2つのバッファのL1距離（バイトごとの差の絶対値の総和）を返します。
// バイト長が異なる場合は比較不能としてok=falseを返します（距離は無限大扱い）。
func Distance(a, b []byte) (d uint64, ok bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var sum uint64
	for i := range a {
		x, y := a[i], b[i]
		if x > y {
			sum += uint64(x - y)
		} else {
			sum += uint64(y - x)
		}
	}
	return sum, true
}

// LinearMatcher はカタログを線形走査する最近傍探索器です。
// 距離が同じ場合はカタログの列挙順で先頭のエントリが勝ちます。
type LinearMatcher struct {
	catalog *Catalog
	workers int
}

var _ Matcher = (*LinearMatcher)(nil)

// NewLinearMatcher はLinearMatcherを生成します。
// workersが2以上の場合、カタログを連続したチャンクに分割して並列に走査します。
func NewLinearMatcher(catalog *Catalog, workers int) *LinearMatcher {
	if workers < 1 {
		workers = 1
	}
	return &LinearMatcher{catalog: catalog, workers: workers}
}

// best はチャンク内の暫定最良候補です。
type best struct {
	index    int
	distance uint64
	found    bool
}

// Match はcandidateに最も近いエントリを返します。比較可能なエントリがなければNoMatchを返します。
func (m *LinearMatcher) Match(candidate entity.CanonicalBuffer) entity.MatchResult {
	entries := m.catalog.Entries()
	n := len(entries)

	var b best
	if m.workers == 1 || n < 2*m.workers {
		b = scan(entries, candidate, 0, n)
	} else {
		b = m.scanParallel(entries, candidate)
	}

	if !b.found {
		return entity.NoMatch()
	}
	return entity.MatchResult{
		Name:     entries[b.index].Name,
		Found:    true,
		Distance: b.distance,
	}
}

// scanParallel はチャンクごとに走査し、チャンク順に縮約します。
// 縮約でも厳密な「<」比較を使うため、結果は逐次走査と一致します。
func (m *LinearMatcher) scanParallel(entries []entity.ReferenceImage, candidate entity.CanonicalBuffer) best {
	n := len(entries)
	size := (n + m.workers - 1) / m.workers
	chunks := (n + size - 1) / size
	partials := make([]best, chunks)

	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		lo := c * size
		hi := min(lo+size, n)
		g.Go(func() error {
			partials[c] = scan(entries, candidate, lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	var out best
	for _, p := range partials {
		if p.found && (!out.found || p.distance < out.distance) {
			out = p
		}
	}
	return out
}

// scan はentries[lo:hi]を列挙順に走査し、最初に現れた最小距離のエントリを返します。
func scan(entries []entity.ReferenceImage, candidate entity.CanonicalBuffer, lo, hi int) best {
	var b best
	for i := lo; i < hi; i++ {
		e := entries[i]
		if !e.Loaded() {
			continue
		}
		d, ok := Distance(candidate, e.Pixels)
		if !ok {
			continue
		}
		if !b.found || d < b.distance {
			b = best{index: i, distance: d, found: true}
		}
	}
	return b
}
