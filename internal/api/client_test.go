package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/memedeck/internal/model"
)

// --- モック定義 ---

type mockTokenSource struct {
	activeTokenFn func() (string, error)
}

func (m *mockTokenSource) ActiveToken() (string, error) {
	if m.activeTokenFn != nil {
		return m.activeTokenFn()
	}
	return "test-token", nil
}

var _ TokenSource = (*mockTokenSource)(nil)

// --- テスト用ヘルパー ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *Client {
	return NewClient(http.DefaultClient, discardLogger(), &mockTokenSource{}, ClientConfig{
		BaseURL: baseURL + "/api",
	})
}

// --- テスト ---

func TestLogin_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/authentication/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗しました: %v", err)
		}
		if req.Username != "alice" || req.Password != "secret" {
			t.Errorf("credentials = %q/%q, want alice/secret", req.Username, req.Password)
		}
		// ログインのみベアラーヘッダーを要求しない
		if r.Header.Get("Authorization") != "" {
			t.Error("ログインリクエストにAuthorizationヘッダーが付与されています")
		}
		json.NewEncoder(w).Encode(map[string]string{"jwt": "issued-token"})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	tok, err := c.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok != "issued-token" {
		t.Errorf("Login() = %q, want issued-token", tok)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	_, err := c.Login(context.Background(), "alice", "wrong")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeLoginFailed {
		t.Errorf("Login() error = %v, want code %s", err, model.ErrCodeLoginFailed)
	}
}

func TestGetMemes_DecodesPaginatedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/memes" {
			t.Errorf("path = %s, want /api/memes", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %s, want 2", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"total":    25,
			"pageSize": 10,
			"results": []map[string]any{
				{"id": "m1", "authorId": "u1", "commentsCount": "3", "description": "first"},
				{"id": "m2", "authorId": "u2", "commentsCount": "0", "description": "second"},
			},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	memes, total, pageSize, err := c.GetMemes(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetMemes() error = %v", err)
	}
	if total != 25 || pageSize != 10 {
		t.Errorf("total/pageSize = %d/%d, want 25/10", total, pageSize)
	}
	if len(memes) != 2 {
		t.Fatalf("memes = %d items, want 2", len(memes))
	}
	if memes[0].ID != "m1" || memes[0].AuthorID != "u1" || memes[0].CommentsCount != "3" {
		t.Errorf("memes[0] = %+v", memes[0])
	}
}

func TestGetMemes_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	_, _, _, err := c.GetMemes(context.Background(), 1)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthenticated {
		t.Errorf("GetMemes() error = %v, want code %s", err, model.ErrCodeUnauthenticated)
	}
}

func TestDo_TokenSourceError_SkipsRequest(t *testing.T) {
	requested := false
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		requested = true
	}))
	defer ts.Close()

	tokens := &mockTokenSource{
		activeTokenFn: func() (string, error) {
			return "", model.NewSessionExpiredError()
		},
	}
	c := NewClient(http.DefaultClient, discardLogger(), tokens, ClientConfig{BaseURL: ts.URL + "/api"})

	_, _, _, err := c.GetMemes(context.Background(), 1)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionExpired {
		t.Fatalf("GetMemes() error = %v, want code %s", err, model.ErrCodeSessionExpired)
	}
	// トークンが得られない場合、リクエストはネットワークに出ないこと
	if requested {
		t.Error("リクエストがサーバーへ送信されています")
	}
}

func TestGetMemeComments_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/memes/m1/comments" {
			t.Errorf("path = %s, want /api/memes/m1/comments", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"total":    1,
			"pageSize": 10,
			"results": []map[string]any{
				{"id": "c1", "authorId": "u1", "memeId": "m1", "content": "nice"},
			},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	comments, total, pageSize, err := c.GetMemeComments(context.Background(), "m1", 1)
	if err != nil {
		t.Fatalf("GetMemeComments() error = %v", err)
	}
	if total != 1 || pageSize != 10 || len(comments) != 1 {
		t.Fatalf("total/pageSize/len = %d/%d/%d, want 1/10/1", total, pageSize, len(comments))
	}
	if comments[0].Content != "nice" {
		t.Errorf("content = %q, want nice", comments[0].Content)
	}
}

func TestGetUserByID_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/u1" {
			t.Errorf("path = %s, want /api/users/u1", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u1", "username": "alice", "pictureUrl": "https://example.com/a.png",
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	user, err := c.GetUserByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	want := model.UserRecord{ID: "u1", Username: "alice", PictureURL: "https://example.com/a.png"}
	if user != want {
		t.Errorf("GetUserByID() = %+v, want %+v", user, want)
	}
}

func TestCreateMeme_SendsMultipartFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("multipartのパースに失敗しました: %v", err)
		}

		file, header, err := r.FormFile("Picture")
		if err != nil {
			t.Fatalf("Pictureフィールドがありません: %v", err)
		}
		defer file.Close()
		if header.Filename != "cat.png" {
			t.Errorf("filename = %q, want cat.png", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" {
			t.Errorf("picture body = %q, want png-bytes", data)
		}

		if got := r.FormValue("Description"); got != "funny cat" {
			t.Errorf("Description = %q, want funny cat", got)
		}
		// キャプションは Texts[i][Content|X|Y] 形式であること
		if got := r.FormValue("Texts[0][Content]"); got != "top text" {
			t.Errorf("Texts[0][Content] = %q, want top text", got)
		}
		if got := r.FormValue("Texts[0][X]"); got != "0" {
			t.Errorf("Texts[0][X] = %q, want 0", got)
		}
		if got := r.FormValue("Texts[1][Content]"); got != "bottom text" {
			t.Errorf("Texts[1][Content] = %q, want bottom text", got)
		}
		if got := r.FormValue("Texts[1][Y]"); got != "100" {
			t.Errorf("Texts[1][Y] = %q, want 100", got)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "created-meme", "commentsCount": "0"})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	created, err := c.CreateMeme(context.Background(), CreateMemeInput{
		PictureName: "cat.png",
		Picture:     strings.NewReader("png-bytes"),
		Description: "funny cat",
		Texts: []model.Caption{
			{Content: "top text", X: 0, Y: 0},
			{Content: "bottom text", X: 100, Y: 100},
		},
	})
	if err != nil {
		t.Fatalf("CreateMeme() error = %v", err)
	}
	if created.ID != "created-meme" {
		t.Errorf("created.ID = %q, want created-meme", created.ID)
	}
}

func TestDo_RateLimitExhausted_FailsBeforeRequest(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{"total": 0, "pageSize": 10, "results": []any{}})
	}))
	defer ts.Close()

	// 1req/s・バースト1のリミッターで、1回目のみ即時に通る
	c := NewClient(http.DefaultClient, discardLogger(), &mockTokenSource{}, ClientConfig{
		BaseURL:   ts.URL + "/api",
		RateLimit: 60,
		RateBurst: 1,
	})

	if _, _, _, err := c.GetMemes(context.Background(), 1); err != nil {
		t.Fatalf("GetMemes() 1回目 error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := c.GetMemes(ctx, 1); err == nil {
		t.Fatal("バースト消費後のキャンセル済みコンテキストでエラーになりません")
	}
	if requests != 1 {
		t.Errorf("server requests = %d, want 1", requests)
	}
}

func TestCreateMemeComment_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/memes/m1/comments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Content != "lol" {
			t.Errorf("content = %q, want lol", req.Content)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"id": "c9", "memeId": "m1", "authorId": "u1", "content": "lol",
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	created, err := c.CreateMemeComment(context.Background(), "m1", "lol")
	if err != nil {
		t.Fatalf("CreateMemeComment() error = %v", err)
	}
	if created.ID != "c9" || created.Content != "lol" {
		t.Errorf("created = %+v", created)
	}
}
