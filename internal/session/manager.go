// Package session はベアラートークンに基づく認証セッションを管理する。
// トークンのクレーム解析、認証状態の遷移、期限切れの遅延検出を提供する。
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/memedeck/internal/model"
)

// Credential は認証済みトークンと解析済みクレームを表す。
type Credential struct {
	Token     string
	SubjectID string
	ExpiresAt time.Time
}

// Valid は現在時刻がクレームの有効期限より前かを返す。
func (c Credential) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// TokenStore はトークン永続化のインターフェース。
// token.Storeの部分集合として定義する。
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager は認証セッションの状態機械を管理する。
// 状態は「認証済み（クレデンシャル保持）」「未認証」の2つのみ。
// 遷移はAuthenticate、Signout、およびActiveTokenでの期限切れ検出に限られる。
type Manager struct {
	store  TokenStore
	logger *slog.Logger
	now    func() time.Time // テスト用に差し替え可能

	mu        sync.Mutex
	cred      *Credential // nilの場合は未認証
	onExpired []func()
}

// NewManager はManagerを生成する。初期状態は未認証。
func NewManager(store TokenStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// OnExpired はセッション期限切れ検出時に呼び出されるコールバックを登録する。
// トークンアクセサが画面遷移などの副作用を直接起こさないよう、
// 表示層はこのイベントを購読して自身で遷移を行う。
func (m *Manager) OnExpired(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = append(m.onExpired, fn)
}

// Initialize は永続化されたトークンからセッションを復元する。
// トークンが存在しない場合は未認証のまま正常終了する。
// クレーム解析に失敗した場合、または期限切れの場合は、
// 永続化トークンを破棄して未認証とする（致命的エラーにはしない）。
func (m *Manager) Initialize() error {
	stored, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("永続化トークンの読み取りに失敗しました: %w", err)
	}
	if stored == "" {
		return nil
	}

	cred, err := decodeCredential(stored)
	if err != nil {
		m.logger.Warn("永続化トークンのクレーム解析に失敗したため破棄します",
			slog.String("error", err.Error()),
		)
		return m.store.Clear()
	}

	if !cred.Valid(m.now()) {
		m.logger.Info("永続化トークンは期限切れのため破棄します",
			slog.String("subject_id", cred.SubjectID),
			slog.Time("expires_at", cred.ExpiresAt),
		)
		return m.store.Clear()
	}

	m.mu.Lock()
	m.cred = &cred
	m.mu.Unlock()

	m.logger.Info("セッションを復元しました",
		slog.String("subject_id", cred.SubjectID),
		slog.Time("expires_at", cred.ExpiresAt),
	)
	return nil
}

// Authenticate はトークンを永続化し、認証済み状態へ遷移する。
// 呼び出し元が取得直後の新しいトークンを渡す前提のため、
// 有効期限の検証は行わない。クレーム解析の失敗はエラーとなる。
func (m *Manager) Authenticate(tok string) error {
	cred, err := decodeCredential(tok)
	if err != nil {
		return err
	}

	if err := m.store.Save(tok); err != nil {
		return fmt.Errorf("トークンの永続化に失敗しました: %w", err)
	}

	m.mu.Lock()
	m.cred = &cred
	m.mu.Unlock()

	m.logger.Info("認証しました",
		slog.String("subject_id", cred.SubjectID),
		slog.Time("expires_at", cred.ExpiresAt),
	)
	return nil
}

// ActiveToken は現在のトークン文字列を返す。
// 未認証の場合は認証エラーを返す。
// 期限切れを検出した場合はサインアウトし、期限切れイベントを通知した上で
// エラーを返す（遅延検出）。
func (m *Manager) ActiveToken() (string, error) {
	m.mu.Lock()
	cred := m.cred
	m.mu.Unlock()

	if cred == nil {
		return "", model.NewUnauthenticatedError()
	}

	if !cred.Valid(m.now()) {
		m.logger.Info("トークンの期限切れを検出したためサインアウトします",
			slog.String("subject_id", cred.SubjectID),
			slog.Time("expires_at", cred.ExpiresAt),
		)
		if err := m.Signout(); err != nil {
			m.logger.Error("期限切れ後のサインアウトに失敗しました",
				slog.String("error", err.Error()),
			)
		}
		m.notifyExpired()
		return "", model.NewSessionExpiredError()
	}

	return cred.Token, nil
}

// Authenticated は現在認証済みかを返す。期限の検証は行わない。
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred != nil
}

// SubjectID は認証済みユーザーのIDを返す。未認証の場合はfalseを返す。
func (m *Manager) SubjectID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return "", false
	}
	return m.cred.SubjectID, true
}

// Signout は永続化トークンを破棄し、未認証状態へ遷移する。冪等。
func (m *Manager) Signout() error {
	m.mu.Lock()
	wasAuthenticated := m.cred != nil
	m.cred = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return err
	}

	if wasAuthenticated {
		m.logger.Info("サインアウトしました")
	}
	return nil
}

// notifyExpired は登録済みの期限切れコールバックを順に呼び出す。
func (m *Manager) notifyExpired() {
	m.mu.Lock()
	subs := make([]func(), len(m.onExpired))
	copy(subs, m.onExpired)
	m.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// tokenClaims はミームAPIが発行するトークンのクレームを表す。
// 最低限 id（ユーザーID）と exp（有効期限）を要求する。
type tokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// decodeCredential はトークン文字列からクレデンシャルを構築する。
// 署名検証は行わない（クライアントは検証鍵を持たず、APIサーバー側で検証される）。
// クレームの形式不正は型付きエラーとして返し、盲目的なキャストは行わない。
func decodeCredential(tok string) (Credential, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, &claims); err != nil {
		return Credential{}, model.NewCredentialDecodeError(err.Error())
	}

	if claims.ID == "" {
		return Credential{}, model.NewCredentialDecodeError("idクレームがありません")
	}
	if claims.ExpiresAt == nil {
		return Credential{}, model.NewCredentialDecodeError("expクレームがありません")
	}

	return Credential{
		Token:     tok,
		SubjectID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
