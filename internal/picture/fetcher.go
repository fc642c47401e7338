// Package picture はミーム画像・アバター画像のダウンロードを提供する。
// pictureUrlはAPIレスポンス由来の信頼できないURLであるため、
// 事前検証とSSRF防止付きクライアントを通して取得する。
package picture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/memedeck/internal/model"
)

// Guard は画像URL検証とSSRF防止クライアント生成のインターフェース。
// security.PictureGuardServiceの部分集合として定義する。
type Guard interface {
	ValidatePictureURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// Fetcher は画像のダウンロードを行う。
type Fetcher struct {
	guard   Guard
	logger  *slog.Logger
	timeout time.Duration
	maxSize int64
}

// NewFetcher はFetcherを生成する。
// maxSizeは受け入れる画像の最大バイト数。
func NewFetcher(guard Guard, logger *slog.Logger, timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		guard:   guard,
		logger:  logger,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// Fetch は画像をダウンロードし、本体とContent-Typeを返す。
// URL検証に失敗した場合はネットワークに出る前にブロックする。
// サイズ上限を超える画像はエラーとなる。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.guard.ValidatePictureURL(rawURL); err != nil {
		f.logger.Warn("画像URLの検証に失敗しました",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, "", model.NewPictureURLBlockedError(rawURL)
	}

	client := f.guard.NewSafeClient(f.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("画像リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Memedeck/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("画像の取得がステータス %d を返しました", resp.StatusCode)
	}

	// サイズ上限+1バイトまで読み、超過を検出する
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("画像の読み取りに失敗しました: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, "", fmt.Errorf("画像サイズが上限を超えています: > %dバイト", f.maxSize)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
