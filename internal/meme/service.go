// Package meme はミームフィードの取得・結合と新規ミーム投稿を提供する。
package meme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/hitoshi/memedeck/internal/api"
	"github.com/hitoshi/memedeck/internal/feedview"
	"github.com/hitoshi/memedeck/internal/model"
)

// APIClient はミームサービスが必要とするAPI操作のインターフェース。
// api.Clientの部分集合として定義する。
type APIClient interface {
	GetMemes(ctx context.Context, page int) ([]model.MemeSummary, int, int, error)
	CreateMeme(ctx context.Context, input api.CreateMemeInput) (model.MemeSummary, error)
}

// Sanitizer はユーザー投稿文字列のサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service はミームに関するビジネスロジックを提供する。
type Service struct {
	api       APIClient
	enricher  *feedview.Enricher
	sanitizer Sanitizer
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(apiClient APIClient, enricher *feedview.Enricher, sanitizer Sanitizer, logger *slog.Logger) *Service {
	return &Service{
		api:       apiClient,
		enricher:  enricher,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// FeedPage はミーム一覧の指定ページを取得し、著者情報を解決して返す。
// 著者の取得は同一ページ内の相異なる著者IDの数だけに抑えられる。
// ページ取得・著者解決のいずれかに失敗した場合、ページ全体が失敗となる。
func (s *Service) FeedPage(ctx context.Context, page int) (feedview.Page[model.MemeView], error) {
	summaries, total, pageSize, err := s.api.GetMemes(ctx, page)
	if err != nil {
		return feedview.Page[model.MemeView]{}, fmt.Errorf("%s: %w", model.NewMemeFetchError(page).Message, err)
	}

	views, err := feedview.Enrich(ctx, s.enricher, summaries,
		func(m model.MemeSummary) string { return m.AuthorID },
		func(m model.MemeSummary, author model.UserRecord) model.MemeView {
			return s.toView(m, author)
		},
	)
	if err != nil {
		return feedview.Page[model.MemeView]{}, fmt.Errorf("%s: %w", model.NewMemeFetchError(page).Message, err)
	}

	return feedview.Page[model.MemeView]{
		Items:    views,
		NextPage: feedview.NextPageNumber(page, total, pageSize),
	}, nil
}

// PageFunc はフィードコントローラに渡すページ取得関数を返す。
func (s *Service) PageFunc() feedview.PageFunc[model.MemeView] {
	return s.FeedPage
}

// Create は新しいミームを投稿する。
// 画像が未指定の場合は検証エラーを返す（ネットワークには出ない）。
func (s *Service) Create(ctx context.Context, pictureName string, picture io.Reader, description string, texts []model.Caption) (model.MemeSummary, error) {
	if picture == nil {
		return model.MemeSummary{}, model.NewPictureRequiredError()
	}

	created, err := s.api.CreateMeme(ctx, api.CreateMemeInput{
		PictureName: pictureName,
		Picture:     picture,
		Description: description,
		Texts:       texts,
	})
	if err != nil {
		return model.MemeSummary{}, fmt.Errorf("%s: %w", model.NewMemeCreateError().Message, err)
	}

	s.logger.Info("ミームを投稿しました",
		slog.String("meme_id", created.ID),
		slog.Int("caption_count", len(texts)),
	)
	return created, nil
}

// toView は生のミームを表示用に変換する。
// CommentsCountはAPI仕様上10進文字列のため数値へパースする
// （パース不能な値は0として扱う）。説明文はサニタイズする。
func (s *Service) toView(m model.MemeSummary, author model.UserRecord) model.MemeView {
	count, err := strconv.Atoi(m.CommentsCount)
	if err != nil {
		s.logger.Warn("コメント数のパースに失敗しました",
			slog.String("meme_id", m.ID),
			slog.String("comments_count", m.CommentsCount),
		)
		count = 0
	}

	return model.MemeView{
		ID:            m.ID,
		Description:   s.sanitizer.Sanitize(m.Description),
		PictureURL:    m.PictureURL,
		Texts:         m.Texts,
		Author:        author,
		CommentsCount: count,
		CreatedAt:     m.CreatedAt,
	}
}
