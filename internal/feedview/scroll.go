package feedview

import (
	"context"
	"log/slog"
)

// defaultScrollThresholdPx は追加読み込みを発火させる残りスクロール距離（px）。
const defaultScrollThresholdPx = 100

// Feed はスクロール監視が必要とするフィード操作のインターフェース。
// Controllerの部分集合として定義する。
type Feed interface {
	LoadNext(ctx context.Context) error
	HasMore() bool
	Loading() bool
}

// ScrollObserver はビューポートのスクロール位置から追加読み込みを駆動する。
// 残りスクロール距離が閾値を下回ったとき、継続ページがあり、かつ
// 読み込み中でない場合にのみLoadNextを呼び出す。
type ScrollObserver struct {
	feed      Feed
	threshold int
	logger    *slog.Logger
}

// NewScrollObserver はScrollObserverを生成する。
// thresholdが0以下の場合はデフォルト値100pxを使用する。
func NewScrollObserver(feed Feed, threshold int, logger *slog.Logger) *ScrollObserver {
	if threshold <= 0 {
		threshold = defaultScrollThresholdPx
	}
	return &ScrollObserver{
		feed:      feed,
		threshold: threshold,
		logger:    logger,
	}
}

// Observe はスクロール位置の更新を受け取り、必要なら追加読み込みを行う。
// scrollTopは先頭からのスクロール量、scrollHeightはコンテンツ全体の高さ、
// clientHeightはビューポートの高さ（いずれもpx）。
func (o *ScrollObserver) Observe(ctx context.Context, scrollTop, scrollHeight, clientHeight int) error {
	remaining := scrollHeight - scrollTop - clientHeight
	if remaining >= o.threshold {
		return nil
	}
	if !o.feed.HasMore() || o.feed.Loading() {
		return nil
	}

	o.logger.Debug("スクロール位置が閾値を下回ったため次ページを読み込みます",
		slog.Int("remaining_px", remaining),
		slog.Int("threshold_px", o.threshold),
	)
	return o.feed.LoadNext(ctx)
}
