package feedview

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/memedeck/internal/model"
	"github.com/hitoshi/memedeck/internal/usercache"
)

// UserFetcher はユーザーレコード取得のインターフェース。
// api.Clientの部分集合として定義する。
type UserFetcher interface {
	GetUserByID(ctx context.Context, id string) (model.UserRecord, error)
}

// Enricher は外部キーの著者IDをユーザーレコードへ解決する。
// 解決結果はセッション共有のユーザーキャッシュに格納され、
// 同一バッチ内の重複IDは1回だけ解決される。
type Enricher struct {
	cache *usercache.Cache
	users UserFetcher
}

// NewEnricher はEnricherを生成する。
func NewEnricher(cache *usercache.Cache, users UserFetcher) *Enricher {
	return &Enricher{
		cache: cache,
		users: users,
	}
}

// ResolveAuthors は著者IDの集合をユーザーレコードへ解決する。
// 重複IDは除去され、外部APIの呼び出し回数は相異なるIDの数に抑えられる。
// キャッシュヒットしたIDはAPIを呼ばない。ミスしたIDは並行取得し、
// いずれか1つでも失敗した場合は全体を失敗させる（部分結果は返さない）。
func (e *Enricher) ResolveAuthors(ctx context.Context, authorIDs []string) (map[string]model.UserRecord, error) {
	// 1. 初出順を保ちながら重複を除去する
	seen := make(map[string]bool, len(authorIDs))
	var distinct []string
	for _, id := range authorIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	// 2. キャッシュヒット分を先に埋め、ミス分のみ取得対象にする
	resolved := make(map[string]model.UserRecord, len(distinct))
	var misses []string
	for _, id := range distinct {
		if user, ok := e.cache.Get(id); ok {
			resolved[id] = user
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) == 0 {
		return resolved, nil
	}

	// 3. ミス分を並行取得し、全件の完了を待つ
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range misses {
		id := id
		g.Go(func() error {
			user, err := e.users.GetUserByID(gctx, id)
			if err != nil {
				return fmt.Errorf("著者 %s の解決に失敗しました: %w", id, err)
			}
			e.cache.Put(id, user)
			mu.Lock()
			resolved[id] = user
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return resolved, nil
}

// Enrich は著者IDを持つ項目列の各要素を、解決済みの著者レコードと
// 結合した表示用の列へ変換する。元の並びと多重度は保持され、
// 著者取得の完了順が出力順に影響することはない。
// いずれかの著者解決に失敗した場合、列全体が失敗となる。
func Enrich[T, V any](
	ctx context.Context,
	e *Enricher,
	items []T,
	authorID func(T) string,
	merge func(T, model.UserRecord) V,
) ([]V, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = authorID(item)
	}

	authors, err := e.ResolveAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]V, len(items))
	for i, item := range items {
		views[i] = merge(item, authors[authorID(item)])
	}
	return views, nil
}
