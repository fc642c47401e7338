// Package comment はミームのコメントスレッドの読み込みと投稿を提供する。
// スレッドを開く際は全ページを一括取得する（イーガー戦略）。
// 投稿成功時は取得済みスレッドへ新規コメントを追記し、
// 再読み込みなしで次の参照から見えるようにする。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/memedeck/internal/feedview"
	"github.com/hitoshi/memedeck/internal/model"
)

// APIClient はコメントサービスが必要とするAPI操作のインターフェース。
// api.Clientの部分集合として定義する。
type APIClient interface {
	GetMemeComments(ctx context.Context, memeID string, page int) ([]model.CommentSummary, int, int, error)
	CreateMemeComment(ctx context.Context, memeID, content string) (model.CommentSummary, error)
}

// Sanitizer はユーザー投稿文字列のサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service はコメントに関するビジネスロジックを提供する。
// 開いたスレッドの内容をミームIDごとに保持する。
type Service struct {
	api       APIClient
	enricher  *feedview.Enricher
	sanitizer Sanitizer
	logger    *slog.Logger

	mu      sync.Mutex
	threads map[string][]model.CommentView
}

// NewService はServiceを生成する。
func NewService(apiClient APIClient, enricher *feedview.Enricher, sanitizer Sanitizer, logger *slog.Logger) *Service {
	return &Service{
		api:       apiClient,
		enricher:  enricher,
		sanitizer: sanitizer,
		logger:    logger,
		threads:   make(map[string][]model.CommentView),
	}
}

// rawPageFunc は指定ミームのコメントページ取得をRawPageFuncへ適合させる。
func (s *Service) rawPageFunc(memeID string) feedview.RawPageFunc[model.CommentSummary] {
	return func(ctx context.Context, page int) ([]model.CommentSummary, int, int, error) {
		return s.api.GetMemeComments(ctx, memeID, page)
	}
}

// Open は指定ミームのコメントスレッドを開き、全コメントを返す。
// 1ページ目から総ページ数を計算し、残りページを並行取得した上で
// 著者情報を解決する。どこか1箇所でも失敗すれば全体が失敗し、
// 部分的な結果は返さない。
func (s *Service) Open(ctx context.Context, memeID string) ([]model.CommentView, error) {
	summaries, err := feedview.FetchAll(ctx, s.rawPageFunc(memeID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", model.NewCommentFetchError(memeID).Message, err)
	}

	views, err := s.enrichComments(ctx, memeID, summaries)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.threads[memeID] = views
	s.mu.Unlock()

	s.logger.Info("コメントスレッドを読み込みました",
		slog.String("meme_id", memeID),
		slog.Int("comment_count", len(views)),
	)
	return views, nil
}

// Page は指定ミームのコメント1ページを取得して返す（インクリメンタル戦略）。
// フィードコントローラによる逐次読み込みで使用する。
// イーガー戦略のOpenと同一の並び・同一の内容を返す。
func (s *Service) Page(ctx context.Context, memeID string, page int) (feedview.Page[model.CommentView], error) {
	summaries, total, pageSize, err := s.api.GetMemeComments(ctx, memeID, page)
	if err != nil {
		return feedview.Page[model.CommentView]{}, fmt.Errorf("%s: %w", model.NewCommentFetchError(memeID).Message, err)
	}

	views, err := s.enrichComments(ctx, memeID, summaries)
	if err != nil {
		return feedview.Page[model.CommentView]{}, err
	}

	return feedview.Page[model.CommentView]{
		Items:    views,
		NextPage: feedview.NextPageNumber(page, total, pageSize),
	}, nil
}

// PageFunc は指定ミーム用のページ取得関数を返す。
func (s *Service) PageFunc(memeID string) feedview.PageFunc[model.CommentView] {
	return func(ctx context.Context, page int) (feedview.Page[model.CommentView], error) {
		return s.Page(ctx, memeID, page)
	}
}

// Thread は取得済みスレッドの現在の内容を返す。
// まだOpenされていないミームの場合はfalseを返す。
func (s *Service) Thread(memeID string) ([]model.CommentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views, ok := s.threads[memeID]
	if !ok {
		return nil, false
	}
	out := make([]model.CommentView, len(views))
	copy(out, views)
	return out, true
}

// Submit は指定ミームへコメントを投稿する。
// 空白のみの本文はネットワークに出る前に無視される（エラーではない）。
// 投稿成功時は作成されたコメントの著者を解決し、取得済みスレッドへ
// 追記する。これにより直後のThread参照で再読み込みなしに新規コメントが
// 見える（書き込み経路と読み込み経路の共有追記戦略）。
// 投稿が行われた場合はtrueを返す。
func (s *Service) Submit(ctx context.Context, memeID, content string) (bool, error) {
	if strings.TrimSpace(content) == "" {
		return false, nil
	}

	created, err := s.api.CreateMemeComment(ctx, memeID, content)
	if err != nil {
		return false, fmt.Errorf("%s: %w", model.NewCommentPostError(memeID).Message, err)
	}

	views, err := s.enrichComments(ctx, memeID, []model.CommentSummary{created})
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if _, ok := s.threads[memeID]; ok {
		s.threads[memeID] = append(s.threads[memeID], views[0])
	}
	s.mu.Unlock()

	s.logger.Info("コメントを投稿しました",
		slog.String("meme_id", memeID),
		slog.String("comment_id", created.ID),
	)
	return true, nil
}

// enrichComments は生コメント列の著者を解決し、表示用へ変換する。
// 著者取得は相異なる著者IDの数だけに抑えられ、失敗時は列全体が失敗となる。
func (s *Service) enrichComments(ctx context.Context, memeID string, summaries []model.CommentSummary) ([]model.CommentView, error) {
	views, err := feedview.Enrich(ctx, s.enricher, summaries,
		func(c model.CommentSummary) string { return c.AuthorID },
		func(c model.CommentSummary, author model.UserRecord) model.CommentView {
			return model.CommentView{
				ID:        c.ID,
				MemeID:    c.MemeID,
				Content:   s.sanitizer.Sanitize(c.Content),
				Author:    author,
				CreatedAt: c.CreatedAt,
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", model.NewCommentFetchError(memeID).Message, err)
	}
	return views, nil
}
