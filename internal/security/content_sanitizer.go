// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はミームの説明文とコメント本文をサニタイズし、
// 他ユーザーが投稿した文字列を表示する際のXSSリスクからユーザーを保護する。
// bluemondayライブラリの許可リストベースのポリシーを使用する。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はユーザー投稿文字列のサニタイズ機能の
// インターフェースを定義する。表示前のミーム説明文とコメント本文に適用する。
type ContentSanitizerService interface {
	// Sanitize は投稿文字列からHTMLタグと危険な構造を全て除去し、
	// プレーンテキストとして安全な文字列を返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ミームの説明文とコメントはプレーンテキストとして扱うため、
// タグを一切許可しないStrictPolicyを使用する。
// script、iframe、on*イベント属性を含むあらゆるHTML構造が除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は投稿文字列をサニタイズして安全な文字列を返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
