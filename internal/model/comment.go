// Package model はドメインモデルを定義する。
package model

import "time"

// CommentSummary はAPIから取得した生のコメントを表す。
// AuthorID は外部キーであり、ユーザーキャッシュを通じて解決される。
type CommentSummary struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	MemeID    string    `json:"memeId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentView は著者情報を解決済みの表示用コメントを表す。
// Content はサニタイズ済み。
type CommentView struct {
	ID        string
	MemeID    string
	Content   string
	Author    UserRecord
	CreatedAt time.Time
}
