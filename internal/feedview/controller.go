package feedview

import (
	"context"
	"log/slog"
	"sync"
)

// Controller は1つの論理的な無限フィードを管理する。
// ページ列を逐次読み込みで蓄積し、読み込み済み項目・継続有無・
// 読み込み中かどうかを表示層へ公開する。
// 1つのフィード（クエリ識別子）につき1インスタンスを割り当てる。
type Controller[T any] struct {
	logger *slog.Logger

	mu          sync.Mutex
	fetch       PageFunc[T]
	pages       []Page[T]
	nextPage    int // 次に読み込むページ番号（1始まり）。0は終端。
	loading     bool
	firstLoaded bool
	loadErr     error
	generation  uint64
}

// NewController はControllerを生成する。読み込みは1ページ目から始まる。
func NewController[T any](fetch PageFunc[T], logger *slog.Logger) *Controller[T] {
	return &Controller[T]{
		logger:   logger,
		fetch:    fetch,
		nextPage: 1,
	}
}

// Items は読み込み済み全ページの項目を元の順序で平坦化して返す。
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	var items []T
	for _, p := range c.pages {
		items = append(items, p.Items...)
	}
	return items
}

// HasMore は未読み込みのページが残っているかを返す。
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextPage != 0
}

// Loading はページ読み込みが進行中かを返す。
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadingFirst は1ページ目の読み込みが進行中かを返す。
// 表示層が初回ローダーと追加読み込みスピナーを区別するために使用する。
func (c *Controller[T]) LoadingFirst() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading && !c.firstLoaded
}

// Err は直近の読み込み失敗を返す。読み込み失敗は「読み込み中」「読み込み済み」
// と区別される状態であり、クラッシュではなく表示層へ通知される。
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// LoadNext は次のページを取得してフィードへ追加する。
// 読み込みが進行中の場合、または次ページが存在しない場合は何もしない。
// 読み込み中の並行呼び出しは重複排除され、ネットワーク取得は
// フィードインスタンスあたり常に高々1つに保たれる。
func (c *Controller[T]) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.nextPage == 0 {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	page := c.nextPage
	fetch := c.fetch
	c.loading = true
	c.loadErr = nil
	c.mu.Unlock()

	result, err := fetch(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	// フィード識別子が切り替わっていた場合、古い世代の結果は破棄する。
	// 遅延した応答が新しいフィードの内容を破壊してはならない。
	if c.generation != gen {
		c.logger.Debug("破棄されたフィードの読み込み結果を無視します",
			slog.Int("page", page),
		)
		return nil
	}

	c.loading = false
	if err != nil {
		c.loadErr = err
		c.logger.Error("フィードページの読み込みに失敗しました",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.pages = append(c.pages, result)
	c.nextPage = result.NextPage
	c.firstLoaded = true
	return nil
}

// Reset はフィードのクエリ識別子の切り替えを行う。
// 読み込み済みページを全て破棄し、1ページ目から読み込みをやり直す。
// 世代カウンタを進めることで、進行中だった取得の結果は到着時に破棄される。
func (c *Controller[T]) Reset(fetch PageFunc[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.fetch = fetch
	c.pages = nil
	c.nextPage = 1
	c.loading = false
	c.firstLoaded = false
	c.loadErr = nil
}
