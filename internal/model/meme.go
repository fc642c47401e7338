// Package model はドメインモデルを定義する。
package model

import "time"

// Caption はミーム画像上に重ねるテキストを表す。
// X, Y は画像左上を原点とするピクセル座標。
type Caption struct {
	Content string `json:"content"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// MemeSummary はAPIから取得した生のミームを表す。
// AuthorID は外部キーであり、ユーザーキャッシュを通じて解決される。
// CommentsCount はAPI仕様上10進文字列で返される点に注意。
type MemeSummary struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	PictureURL    string    `json:"pictureUrl"`
	Description   string    `json:"description"`
	CommentsCount string    `json:"commentsCount"`
	Texts         []Caption `json:"texts"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MemeView は著者情報を解決済みの表示用ミームを表す。
// CommentsCount は数値へパース済み。Description はサニタイズ済み。
type MemeView struct {
	ID            string
	Description   string
	PictureURL    string
	Texts         []Caption
	Author        UserRecord
	CommentsCount int
	CreatedAt     time.Time
}
