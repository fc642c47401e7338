// Package token はベアラートークンのローカル永続化を提供する。
// アプリケーション専用のファイル1つにトークン文字列を保存する。
// ファイルの欠落や破損は「セッションなし」として扱い、致命的エラーにはしない。
package token

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store はトークンファイルの読み書きを行う。
type Store struct {
	path string
}

// NewStore はStoreを生成する。pathはトークンファイルの絶対パス。
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load は永続化されたトークンを読み取る。
// ファイルが存在しない場合は空文字列を返す（エラーではない）。
// 読み取れた内容は前後の空白を除去して返す。
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("トークンファイルの読み取りに失敗しました: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save はトークンを永続化する。
// 親ディレクトリが存在しない場合は作成する。パーミッションは0600。
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("トークンディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("トークンファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Clear は永続化されたトークンを削除する。冪等であり、
// ファイルが存在しない場合もエラーにはしない。
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("トークンファイルの削除に失敗しました: %w", err)
	}
	return nil
}
