// Package feedview はページ分割されたAPIリソースを表示用のフィードに
// 組み立てるための中核ロジックを提供する。
// ページ取得の抽象化、著者情報の結合、無限フィードのコントローラを含む。
package feedview

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Page はフィードの1ページを表す。
// NextPage は次ページ番号（1始まり）。0の場合は次ページが存在しない。
type Page[T any] struct {
	Items    []T
	NextPage int
}

// PageFunc は指定ページを取得する関数の抽象化。
// 逐次読み込み（インクリメンタル戦略）で使用する。
type PageFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// RawPageFunc は指定ページの項目と総件数・ページサイズを取得する関数の抽象化。
// 一括読み込み（イーガー戦略）で総ページ数の計算に使用する。
type RawPageFunc[T any] func(ctx context.Context, page int) (items []T, total int, pageSize int, err error)

// NextPageNumber は次ページ番号を計算する。
// page * pageSize が total 未満の場合のみ次ページが存在する。
// 次ページが存在しない場合は0を返す。
func NextPageNumber(page, total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	if page*pageSize < total {
		return page + 1
	}
	return 0
}

// Paged はRawPageFuncを次ページ番号計算済みのPageFuncへ変換する。
func Paged[T any](fetch RawPageFunc[T]) PageFunc[T] {
	return func(ctx context.Context, page int) (Page[T], error) {
		items, total, pageSize, err := fetch(ctx, page)
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{
			Items:    items,
			NextPage: NextPageNumber(page, total, pageSize),
		}, nil
	}
}

// FetchAll は全ページを一括取得して連結する（イーガー戦略）。
// 1ページ目を取得して総ページ数を計算し、残りのページを並行取得する。
// どのページの取得に失敗しても全体が失敗し、取得済みの部分結果は破棄される。
// 結果の並びはページ番号順であり、逐次読み込みと同一の列になる。
func FetchAll[T any](ctx context.Context, fetch RawPageFunc[T]) ([]T, error) {
	first, total, pageSize, err := fetch(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("1ページ目の取得に失敗しました: %w", err)
	}

	if pageSize <= 0 || total <= pageSize {
		return first, nil
	}

	totalPages := (total + pageSize - 1) / pageSize
	pages := make([][]T, totalPages)
	pages[0] = first

	// 2ページ目以降を並行取得し、全件の完了を待つ。
	// いずれか1つでも失敗した場合は全体を失敗させる。
	g, gctx := errgroup.WithContext(ctx)
	for n := 2; n <= totalPages; n++ {
		n := n
		g.Go(func() error {
			items, _, _, err := fetch(gctx, n)
			if err != nil {
				return fmt.Errorf("%dページ目の取得に失敗しました: %w", n, err)
			}
			pages[n-1] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ページ番号順に連結して元の並びを保つ
	var all []T
	for _, p := range pages {
		all = append(all, p...)
	}
	return all, nil
}
