// Package api はミーム共有サービスのREST APIクライアントを提供する。
// ベアラー認証、レート制限、ページ分割レスポンスのデコードを含む。
// APIサーバー自体は外部コラボレータであり、このパッケージは公開された
// エンドポイント契約（memes / comments / users / authentication）のみに依存する。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/memedeck/internal/model"
)

// TokenSource は認証済みリクエストに付与するトークンの供給元。
// session.Managerの部分集合として定義する。
type TokenSource interface {
	ActiveToken() (string, error)
}

// Recorder はAPI呼び出しのメトリクスを記録するインターフェース。
// metrics.Collectorの部分集合として定義する。
type Recorder interface {
	RecordAPIRequest(endpoint string, statusCode int)
	RecordAPILatency(endpoint string, duration time.Duration)
}

// ClientConfig はAPIクライアントの設定。
type ClientConfig struct {
	BaseURL   string // 例: http://localhost:8080/api
	RateLimit int    // APIリクエストのレート（req/min）。0以下で無効。
	RateBurst int    // バーストサイズ
}

// Client はミームAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	tokens     TokenSource
	baseURL    string
	limiter    *rate.Limiter // nilの場合はレート制限なし
	recorder   Recorder      // nilの場合は記録しない
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, tokens TokenSource, cfg ClientConfig) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		tokens:     tokens,
		baseURL:    cfg.BaseURL,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), burst)
	}
	return c
}

// SetRecorder はメトリクス記録先を設定する。
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// paginatedResponse はページ分割エンドポイントの共通レスポンス形式。
type paginatedResponse[T any] struct {
	Total    int `json:"total"`
	PageSize int `json:"pageSize"`
	Results  []T `json:"results"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログインレスポンスのボディ。
type loginResponse struct {
	JWT string `json:"jwt"`
}

// commentRequest はコメント投稿リクエストのボディ。
type commentRequest struct {
	Content string `json:"content"`
}

// Login はユーザー名とパスワードで認証し、発行されたトークンを返す。
// このエンドポイントのみベアラー認証を必要としない。
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("ログインリクエストの構築に失敗しました: %w", err)
	}

	var result loginResponse
	status, err := c.do(ctx, http.MethodPost, "/authentication/login", bytes.NewReader(body), "application/json", false, &result)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized {
		return "", model.NewLoginFailedError()
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("ログインAPIがステータス %d を返しました", status)
	}
	if result.JWT == "" {
		return "", fmt.Errorf("ログインレスポンスにトークンが含まれていません")
	}
	return result.JWT, nil
}

// GetMemes はミーム一覧の指定ページを取得する。
// pageは1始まり。項目列と総件数・ページサイズを返す。
func (c *Client) GetMemes(ctx context.Context, page int) ([]model.MemeSummary, int, int, error) {
	var result paginatedResponse[model.MemeSummary]
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/memes?page=%d", page), nil, "", true, &result)
	if err != nil {
		return nil, 0, 0, err
	}
	if status != http.StatusOK {
		return nil, 0, 0, c.statusError(status, fmt.Sprintf("ミーム一覧API（page=%d）", page))
	}
	return result.Results, result.Total, result.PageSize, nil
}

// GetMemeComments は指定ミームのコメント一覧の指定ページを取得する。
func (c *Client) GetMemeComments(ctx context.Context, memeID string, page int) ([]model.CommentSummary, int, int, error) {
	var result paginatedResponse[model.CommentSummary]
	path := fmt.Sprintf("/memes/%s/comments?page=%d", memeID, page)
	status, err := c.do(ctx, http.MethodGet, path, nil, "", true, &result)
	if err != nil {
		return nil, 0, 0, err
	}
	if status != http.StatusOK {
		return nil, 0, 0, c.statusError(status, fmt.Sprintf("コメント一覧API（meme=%s, page=%d）", memeID, page))
	}
	return result.Results, result.Total, result.PageSize, nil
}

// GetUserByID は指定IDのユーザーを取得する。
func (c *Client) GetUserByID(ctx context.Context, id string) (model.UserRecord, error) {
	var result model.UserRecord
	status, err := c.do(ctx, http.MethodGet, "/users/"+id, nil, "", true, &result)
	if err != nil {
		return model.UserRecord{}, err
	}
	if status != http.StatusOK {
		return model.UserRecord{}, c.statusError(status, fmt.Sprintf("ユーザーAPI（id=%s）", id))
	}
	return result, nil
}

// CreateMemeInput はミーム投稿の入力を表す。
type CreateMemeInput struct {
	PictureName string    // 画像ファイル名
	Picture     io.Reader // 画像本体
	Description string
	Texts       []model.Caption
}

// CreateMeme はミームをmultipart形式で投稿し、作成されたミームを返す。
// フィールド名はAPI仕様に従い Picture / Description /
// Texts[i][Content|X|Y] とする。
func (c *Client) CreateMeme(ctx context.Context, input CreateMemeInput) (model.MemeSummary, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("Picture", input.PictureName)
	if err != nil {
		return model.MemeSummary{}, fmt.Errorf("multipartリクエストの構築に失敗しました: %w", err)
	}
	if _, err := io.Copy(part, input.Picture); err != nil {
		return model.MemeSummary{}, fmt.Errorf("画像の読み取りに失敗しました: %w", err)
	}

	if err := mw.WriteField("Description", input.Description); err != nil {
		return model.MemeSummary{}, fmt.Errorf("multipartリクエストの構築に失敗しました: %w", err)
	}
	for i, text := range input.Texts {
		fields := map[string]string{
			fmt.Sprintf("Texts[%d][Content]", i): text.Content,
			fmt.Sprintf("Texts[%d][X]", i):       strconv.Itoa(text.X),
			fmt.Sprintf("Texts[%d][Y]", i):       strconv.Itoa(text.Y),
		}
		for name, value := range fields {
			if err := mw.WriteField(name, value); err != nil {
				return model.MemeSummary{}, fmt.Errorf("multipartリクエストの構築に失敗しました: %w", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return model.MemeSummary{}, fmt.Errorf("multipartリクエストの構築に失敗しました: %w", err)
	}

	var result model.MemeSummary
	status, err := c.do(ctx, http.MethodPost, "/memes", &buf, mw.FormDataContentType(), true, &result)
	if err != nil {
		return model.MemeSummary{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return model.MemeSummary{}, c.statusError(status, "ミーム投稿API")
	}
	return result, nil
}

// CreateMemeComment は指定ミームへコメントを投稿し、作成されたコメントを返す。
func (c *Client) CreateMemeComment(ctx context.Context, memeID, content string) (model.CommentSummary, error) {
	body, err := json.Marshal(commentRequest{Content: content})
	if err != nil {
		return model.CommentSummary{}, fmt.Errorf("コメントリクエストの構築に失敗しました: %w", err)
	}

	var result model.CommentSummary
	path := fmt.Sprintf("/memes/%s/comments", memeID)
	status, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", true, &result)
	if err != nil {
		return model.CommentSummary{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return model.CommentSummary{}, c.statusError(status, fmt.Sprintf("コメント投稿API（meme=%s）", memeID))
	}
	return result, nil
}

// do はHTTPリクエストを実行し、成功時はoutへJSONデコードする。
// レート制限の待機、ベアラーヘッダーの付与、メトリクス記録を行う。
// HTTPステータスの解釈は呼び出し元に委ねる（戻り値で返す）。
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, authenticated bool, out any) (int, error) {
	// 1. レート制限の待機
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("レート制限の待機に失敗しました: %w", err)
		}
	}

	// 2. リクエスト構築
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Memedeck/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// 3. ベアラーヘッダーの付与
	if authenticated {
		tok, err := c.tokens.ActiveToken()
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// 4. 実行とメトリクス記録
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIリクエストに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("APIリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordAPIRequest(method+" "+path, resp.StatusCode)
		c.recorder.RecordAPILatency(method+" "+path, time.Since(start))
	}

	// 5. 成功時のみデコード
	if resp.StatusCode < 300 && out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// statusError は非成功ステータスをエラーへ変換する。
// 401は認証エラーとして扱い、呼び出し元でのサインアウト判断に使われる。
func (c *Client) statusError(status int, operation string) error {
	c.logger.Error("APIがエラーステータスを返しました",
		slog.String("operation", operation),
		slog.Int("http_status", status),
	)
	if status == http.StatusUnauthorized {
		return model.NewUnauthenticatedError()
	}
	return fmt.Errorf("%sがステータス %d を返しました", operation, status)
}
