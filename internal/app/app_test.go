package app

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/memedeck/internal/config"
	"github.com/hitoshi/memedeck/internal/feedview"
	"github.com/hitoshi/memedeck/internal/mockapi"
)

// --- テスト用ヘルパー ---

// newTestApp はモックAPIサーバーに接続するワイヤリング済みAppを構築する。
func newTestApp(t *testing.T) *App {
	t.Helper()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	store := mockapi.NewStore()
	mockapi.SeedFixtures(store)
	server := mockapi.NewServer(store, []byte("test-secret"), slog.Default())

	ts := httptest.NewServer(server.Router(nil))
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		APIBaseURL:        ts.URL + "/api",
		APITimeout:        5 * time.Second,
		TokenPath:         filepath.Join(t.TempDir(), "token"),
		ScrollThresholdPx: 100,
		PictureMaxSize:    1 << 20,
	}
	return New(cfg)
}

// login はfixtureアカウントでログインする。
func login(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()

	tok, err := a.API.Login(ctx, "dummy_user_1", "password1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := a.Session.Authenticate(tok); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

// --- テスト ---

func TestApp_LoginAndFeed(t *testing.T) {
	a := newTestApp(t)
	login(t, a)

	ctrl := feedview.NewController(a.Memes.PageFunc(), slog.Default())
	if err := ctrl.LoadNext(context.Background()); err != nil {
		t.Fatalf("LoadNext() error = %v", err)
	}

	items := ctrl.Items()
	if len(items) != 1 {
		t.Fatalf("feed items = %d, want 1", len(items))
	}
	m := items[0]
	if m.ID != "dummy_meme_id_1" {
		t.Errorf("meme ID = %q, want dummy_meme_id_1", m.ID)
	}
	// 著者が結合され、コメント数が数値へ変換されていること
	if m.Author.Username != "dummy_user_1" {
		t.Errorf("Author.Username = %q, want dummy_user_1", m.Author.Username)
	}
	if m.CommentsCount != 3 {
		t.Errorf("CommentsCount = %d, want 3", m.CommentsCount)
	}
	if len(m.Texts) != 2 || m.Texts[1].X != 100 {
		t.Errorf("Texts = %+v", m.Texts)
	}
	if ctrl.HasMore() {
		t.Error("HasMore() = true, want false")
	}
}

func TestApp_OpenCommentsResolvesAllAuthors(t *testing.T) {
	a := newTestApp(t)
	login(t, a)

	comments, err := a.Comments.Open(context.Background(), "dummy_meme_id_1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if len(comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(comments))
	}
	for i, c := range comments {
		wantAuthor := []string{"dummy_user_1", "dummy_user_2", "dummy_user_3"}[i]
		if c.Author.Username != wantAuthor {
			t.Errorf("comments[%d].Author.Username = %q, want %q", i, c.Author.Username, wantAuthor)
		}
	}

	// 相異なる3人の著者がキャッシュに入っていること
	if a.Cache.Len() != 3 {
		t.Errorf("Cache.Len() = %d, want 3", a.Cache.Len())
	}
}

func TestApp_SubmitCommentVisibleWithoutReload(t *testing.T) {
	a := newTestApp(t)
	login(t, a)
	ctx := context.Background()

	if _, err := a.Comments.Open(ctx, "dummy_meme_id_1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	posted, err := a.Comments.Submit(ctx, "dummy_meme_id_1", "nice one")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !posted {
		t.Fatal("Submit() = false, want true")
	}

	// 再読み込みなしでスレッドに投稿が見えること
	thread, ok := a.Comments.Thread("dummy_meme_id_1")
	if !ok || len(thread) != 4 {
		t.Fatalf("Thread() = (%d, %v), want (4, true)", len(thread), ok)
	}
	last := thread[len(thread)-1]
	if last.Content != "nice one" || last.Author.Username != "dummy_user_1" {
		t.Errorf("last comment = %+v", last)
	}

	// サーバー側でも再取得で見えること（read-after-write）
	reloaded, err := a.Comments.Open(ctx, "dummy_meme_id_1")
	if err != nil {
		t.Fatalf("reload Open() error = %v", err)
	}
	if len(reloaded) != 4 {
		t.Errorf("reloaded comments = %d, want 4", len(reloaded))
	}
}

func TestApp_EmptyCommentNeverReachesServer(t *testing.T) {
	a := newTestApp(t)
	login(t, a)
	ctx := context.Background()

	posted, err := a.Comments.Submit(ctx, "dummy_meme_id_1", "   ")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if posted {
		t.Error("Submit() = true, want false")
	}

	comments, err := a.Comments.Open(ctx, "dummy_meme_id_1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(comments) != 3 {
		t.Errorf("comments = %d, want 3（空コメントは投稿されない）", len(comments))
	}
}

func TestApp_UnauthenticatedFeedFails(t *testing.T) {
	a := newTestApp(t)

	// ログインせずにフィードを取得すると認証エラーになること
	if _, err := a.Memes.FeedPage(context.Background(), 1); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestApp_SessionRestoreAcrossInstances(t *testing.T) {
	a := newTestApp(t)
	login(t, a)

	// 同じトークンパスを使う2つ目のAppでセッションが復元されること
	b := New(a.Config)
	if err := b.Session.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !b.Session.Authenticated() {
		t.Fatal("Authenticated() = false after restore, want true")
	}
	id, ok := b.Session.SubjectID()
	if !ok || id != "dummy_user_id_1" {
		t.Errorf("SubjectID() = (%q, %v), want (dummy_user_id_1, true)", id, ok)
	}

	// 復元したセッションでAPIを呼べること
	if _, err := b.Memes.FeedPage(context.Background(), 1); err != nil {
		t.Fatalf("FeedPage() with restored session error = %v", err)
	}
}
