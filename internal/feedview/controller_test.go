package feedview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

func TestController_InitialState(t *testing.T) {
	c := NewController(Paged(splitPages(sequence(5), 10)), discardLogger())

	if got := c.Items(); len(got) != 0 {
		t.Errorf("Items() = %v, want empty", got)
	}
	if !c.HasMore() {
		t.Error("HasMore() = false, want true（1ページ目が未読み込み）")
	}
	if c.Loading() {
		t.Error("Loading() = true, want false")
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
}

func TestController_WalksAllPages(t *testing.T) {
	ctx := context.Background()
	items := sequence(25)
	c := NewController(Paged(splitPages(items, 10)), discardLogger())

	pages := 0
	for c.HasMore() {
		if err := c.LoadNext(ctx); err != nil {
			t.Fatalf("LoadNext() error = %v", err)
		}
		pages++
		if pages > 10 {
			t.Fatal("読み込みが終端に到達しません")
		}
	}

	if pages != 3 {
		t.Errorf("loaded %d pages, want 3", pages)
	}
	if got := c.Items(); !reflect.DeepEqual(got, items) {
		t.Errorf("Items() = %v, want %v", got, items)
	}
	if c.HasMore() {
		t.Error("HasMore() = true after last page, want false")
	}
}

func TestController_LoadNextAfterEnd_IsNoop(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32

	fetch := func(_ context.Context, page int) (Page[int], error) {
		calls.Add(1)
		return Page[int]{Items: sequence(3), NextPage: 0}, nil
	}
	c := NewController(fetch, discardLogger())

	if err := c.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() error = %v", err)
	}
	// 終端到達後の呼び出しは取得を行わないこと
	if err := c.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() error = %v", err)
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	if got := c.Items(); len(got) != 3 {
		t.Errorf("Items() = %d items, want 3", len(got))
	}
}

func TestController_ConcurrentLoadNext_SingleFetch(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(_ context.Context, page int) (Page[int], error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return Page[int]{Items: []int{page}, NextPage: page + 1}, nil
	}
	c := NewController(fetch, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadNext(ctx)
	}()
	<-started

	// 読み込み中の並行呼び出しは重複排除されること
	for i := 0; i < 5; i++ {
		if err := c.LoadNext(ctx); err != nil {
			t.Fatalf("LoadNext() error = %v", err)
		}
	}
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestController_LoadError_ExposedAndRetryable(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("fetch failed")
	fail := true

	fetch := func(_ context.Context, page int) (Page[int], error) {
		if fail {
			return Page[int]{}, wantErr
		}
		return Page[int]{Items: sequence(3), NextPage: 0}, nil
	}
	c := NewController(fetch, discardLogger())

	if err := c.LoadNext(ctx); !errors.Is(err, wantErr) {
		t.Fatalf("LoadNext() error = %v, want %v", err, wantErr)
	}
	// 失敗は状態として公開され、項目には影響しないこと
	if !errors.Is(c.Err(), wantErr) {
		t.Errorf("Err() = %v, want %v", c.Err(), wantErr)
	}
	if len(c.Items()) != 0 {
		t.Errorf("Items() = %v, want empty", c.Items())
	}

	// 同一ページの再試行が可能なこと
	fail = false
	if err := c.LoadNext(ctx); err != nil {
		t.Fatalf("retry LoadNext() error = %v", err)
	}
	if c.Err() != nil {
		t.Errorf("Err() after retry = %v, want nil", c.Err())
	}
	if len(c.Items()) != 3 {
		t.Errorf("Items() = %d items, want 3", len(c.Items()))
	}
}

func TestController_LoadingFirst(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	page := 0

	fetch := func(_ context.Context, p int) (Page[int], error) {
		page++
		if page == 1 {
			close(started)
			<-release
		}
		return Page[int]{Items: []int{p}, NextPage: p + 1}, nil
	}
	c := NewController(fetch, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadNext(ctx)
	}()
	<-started

	// 初回読み込み中はLoadingFirstが真であること
	if !c.LoadingFirst() {
		t.Error("LoadingFirst() = false during first load, want true")
	}
	close(release)
	wg.Wait()

	// 2ページ目以降の読み込みでは偽であること
	if c.LoadingFirst() {
		t.Error("LoadingFirst() = true after first load, want false")
	}
}

func TestController_Reset_DiscardsStaleResult(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	staleFetch := func(_ context.Context, page int) (Page[int], error) {
		close(started)
		<-release
		return Page[int]{Items: []int{999}, NextPage: 2}, nil
	}
	c := NewController(staleFetch, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadNext(ctx)
	}()
	<-started

	// 取得中にクエリを切り替える
	c.Reset(Paged(splitPages([]int{1, 2, 3}, 10)))

	// 遅延した旧世代の応答を到着させる
	close(release)
	wg.Wait()

	// 旧世代の結果が新しいフィードを汚染していないこと
	if got := c.Items(); len(got) != 0 {
		t.Errorf("Items() after reset = %v, want empty", got)
	}

	if err := c.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() after reset error = %v", err)
	}
	if got := c.Items(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Items() = %v, want [1 2 3]", got)
	}
}

func TestController_Reset_ClearsState(t *testing.T) {
	ctx := context.Background()
	c := NewController(Paged(splitPages(sequence(5), 10)), discardLogger())

	if err := c.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() error = %v", err)
	}
	if c.HasMore() {
		t.Fatal("HasMore() = true, want false")
	}

	c.Reset(Paged(splitPages(sequence(8), 10)))

	// 1ページ目から読み直しになること
	if !c.HasMore() {
		t.Error("HasMore() after reset = false, want true")
	}
	if len(c.Items()) != 0 {
		t.Errorf("Items() after reset = %v, want empty", c.Items())
	}
	if c.LoadingFirst() {
		t.Error("LoadingFirst() = true, want false（読み込みは開始していない）")
	}
}
