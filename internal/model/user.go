// Package model はドメインモデルを定義する。
package model

// UserRecord はミームAPIのユーザーを表す。
// 一度取得した後は不変として扱い、IDをキーにユーザーキャッシュへ格納される。
type UserRecord struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	PictureURL string `json:"pictureUrl"`
}
