// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeCredentialDecode   = "CREDENTIAL_DECODE_FAILED"
	ErrCodeMemeFetchFailed    = "MEME_FETCH_FAILED"
	ErrCodeCommentFetchFailed = "COMMENT_FETCH_FAILED"
	ErrCodeUserFetchFailed    = "USER_FETCH_FAILED"
	ErrCodeMemeCreateFailed   = "MEME_CREATE_FAILED"
	ErrCodeCommentPostFailed  = "COMMENT_POST_FAILED"
	ErrCodePictureRequired    = "PICTURE_REQUIRED"
	ErrCodePictureURLBlocked  = "PICTURE_URL_BLOCKED"
	ErrCodeLoginFailed        = "LOGIN_FAILED"
)

// NewUnauthenticatedError は未認証状態でのトークン要求エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewSessionExpiredError はトークン期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewCredentialDecodeError はトークンのクレーム解析失敗エラーを生成する。
func NewCredentialDecodeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCredentialDecode,
		Message:  fmt.Sprintf("トークンのクレームを解析できませんでした: %s", reason),
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewMemeFetchError はミーム一覧の取得失敗エラーを生成する。
func NewMemeFetchError(page int) *APIError {
	return &APIError{
		Code:     ErrCodeMemeFetchFailed,
		Message:  fmt.Sprintf("ミーム一覧（%dページ目）の取得に失敗しました。", page),
		Category: "resource",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCommentFetchError はコメント一覧の取得失敗エラーを生成する。
func NewCommentFetchError(memeID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentFetchFailed,
		Message:  fmt.Sprintf("ミーム %s のコメント取得に失敗しました。", memeID),
		Category: "resource",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserFetchError はユーザー取得失敗エラーを生成する。
func NewUserFetchError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserFetchFailed,
		Message:  fmt.Sprintf("ユーザー %s の取得に失敗しました。", userID),
		Category: "resource",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMemeCreateError はミーム投稿失敗エラーを生成する。
func NewMemeCreateError() *APIError {
	return &APIError{
		Code:     ErrCodeMemeCreateFailed,
		Message:  "ミームの投稿に失敗しました。",
		Category: "resource",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCommentPostError はコメント投稿失敗エラーを生成する。
func NewCommentPostError(memeID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentPostFailed,
		Message:  fmt.Sprintf("ミーム %s へのコメント投稿に失敗しました。", memeID),
		Category: "resource",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPictureRequiredError は画像未指定エラーを生成する。
func NewPictureRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodePictureRequired,
		Message:  "画像が指定されていません。",
		Category: "validation",
		Action:   "投稿する画像ファイルを指定してください。",
	}
}

// NewPictureURLBlockedError は安全でない画像URLのブロックエラーを生成する。
func NewPictureURLBlockedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodePictureURLBlocked,
		Message:  fmt.Sprintf("セキュリティポリシーにより画像URLへのアクセスがブロックされました: %s", url),
		Category: "validation",
		Action:   "公開されているWebサイトの画像URLのみ表示できます。",
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "ログインに失敗しました。",
		Category: "auth",
		Action:   "ユーザー名とパスワードを確認してください。",
	}
}
