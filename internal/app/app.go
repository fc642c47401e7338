// Package app はアプリケーションの初期化と依存関係のワイヤリングを提供する。
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/memedeck/internal/api"
	"github.com/hitoshi/memedeck/internal/comment"
	"github.com/hitoshi/memedeck/internal/config"
	"github.com/hitoshi/memedeck/internal/feedview"
	"github.com/hitoshi/memedeck/internal/logger"
	"github.com/hitoshi/memedeck/internal/meme"
	"github.com/hitoshi/memedeck/internal/metrics"
	"github.com/hitoshi/memedeck/internal/picture"
	"github.com/hitoshi/memedeck/internal/security"
	"github.com/hitoshi/memedeck/internal/session"
	"github.com/hitoshi/memedeck/internal/token"
	"github.com/hitoshi/memedeck/internal/usercache"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// App はワイヤリング済みのアプリケーション全体を保持する。
type App struct {
	Config   *config.Config
	Session  *session.Manager
	API      *api.Client
	Cache    *usercache.Cache
	Enricher *feedview.Enricher
	Memes    *meme.Service
	Comments *comment.Service
	Pictures *picture.Fetcher
	Metrics  *metrics.Collector
}

// New は全依存関係をワイヤリングしたAppを生成する。
// ユーザーキャッシュはセッションごとに生成され、プロセス（＝1セッション）の
// 終了とともに破棄される。キャッシュはアンビエントなグローバルではなく、
// 必要とするコンポーネントへ注入される。
func New(cfg *config.Config) *App {
	log := slog.Default()

	// 1. セッション管理
	tokenStore := token.NewStore(cfg.TokenPath)
	sessionMgr := session.NewManager(tokenStore, log)

	// 2. メトリクスとAPIクライアント
	collector := metrics.NewCollector()
	client := api.NewClient(
		&http.Client{Timeout: cfg.APITimeout},
		log,
		sessionMgr,
		api.ClientConfig{
			BaseURL:   cfg.APIBaseURL,
			RateLimit: cfg.APIRateLimit,
			RateBurst: cfg.APIRateBurst,
		},
	)
	client.SetRecorder(collector)

	// 3. セッション共有のユーザーキャッシュと結合器
	cache := usercache.NewWithRecorder(collector)
	enricher := feedview.NewEnricher(cache, client)

	// 4. ドメインサービス
	sanitizer := security.NewContentSanitizer()
	memeService := meme.NewService(client, enricher, sanitizer, log)
	commentService := comment.NewService(client, enricher, sanitizer, log)

	// 5. 画像取得
	guard := security.NewPictureGuard()
	pictureFetcher := picture.NewFetcher(guard, log, cfg.APITimeout, cfg.PictureMaxSize)

	return &App{
		Config:   cfg,
		Session:  sessionMgr,
		API:      client,
		Cache:    cache,
		Enricher: enricher,
		Memes:    memeService,
		Comments: commentService,
		Pictures: pictureFetcher,
		Metrics:  collector,
	}
}
