// Package entity はsubscriptionフィーチャーのドメインモデルを定義します。
package entity

import "strings"

// Watcher は特定のカタログ名の出現通知を希望するユーザーです。
type Watcher struct {
	ID           string   // プラットフォーム上のユーザーID
	InterestList []string // 関心のある名前（挿入順、重複なし）
	Away         bool     // 離席フラグ（マッチ処理では参照しない）
}

// AddResult は関心リストへの追加結果です。
type AddResult struct {
	Added          []string
	AlreadyPresent []string
}

// RemoveResult は関心リストからの削除結果です。
type RemoveResult struct {
	Removed    []string
	NotPresent []string
}

// CleanNames は前後の空白を除去し、空の名前を取り除きます。順序は保持します。
func CleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Has は名前が関心リストに含まれているかを返します（大文字小文字を区別）。
func (w *Watcher) Has(name string) bool {
	for _, n := range w.InterestList {
		if n == name {
			return true
		}
	}
	return false
}

// AddNames は未登録の名前を末尾に追加します。
// 呼び出し前から含まれている名前はAlreadyPresentに入ります。同じバッチ内の重複は1件として扱います。
func (w *Watcher) AddNames(names []string) AddResult {
	res := AddResult{Added: []string{}, AlreadyPresent: []string{}}
	batch := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := batch[n]; dup {
			continue
		}
		batch[n] = struct{}{}
		if w.Has(n) {
			res.AlreadyPresent = append(res.AlreadyPresent, n)
			continue
		}
		w.InterestList = append(w.InterestList, n)
		res.Added = append(res.Added, n)
	}
	return res
}

// RemoveNames は指定された名前を関心リストから取り除きます。残りの順序は保持します。
func (w *Watcher) RemoveNames(names []string) RemoveResult {
	res := RemoveResult{Removed: []string{}, NotPresent: []string{}}
	for _, n := range names {
		idx := -1
		for i, cur := range w.InterestList {
			if cur == n {
				idx = i
				break
			}
		}
		if idx < 0 {
			res.NotPresent = append(res.NotPresent, n)
			continue
		}
		w.InterestList = append(w.InterestList[:idx], w.InterestList[idx+1:]...)
		res.Removed = append(res.Removed, n)
	}
	return res
}

// Clone はスライスを共有しないコピーを返します。
func (w Watcher) Clone() Watcher {
	cp := w
	cp.InterestList = append([]string(nil), w.InterestList...)
	return cp
}
