// Package cli はmemedeckのCLIコマンドを実装する。
// 表示とコマンド解釈のみを担当し、ロジックは各サービスに委ねる。
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hitoshi/memedeck/internal/app"
)

// RootCmd はトップレベルコマンド。
var RootCmd = &cobra.Command{
	Use:   "memedeck",
	Short: "ミーム共有サービスのクライアント",
	Long:  "ミーム共有サービスのフィード閲覧・コメント・投稿を行うCLIクライアント。",
}

// buildApp は設定とログを初期化し、ワイヤリング済みのAppを返す。
func buildApp() (*app.App, error) {
	cfg, err := app.Init(os.Stderr)
	if err != nil {
		return nil, err
	}
	return app.New(cfg), nil
}

// buildAuthenticatedApp はAppを構築し、永続化トークンからセッションを復元する。
// セッション期限切れイベントの購読もここで行う。
func buildAuthenticatedApp() (*app.App, error) {
	a, err := buildApp()
	if err != nil {
		return nil, err
	}
	if err := a.Session.Initialize(); err != nil {
		return nil, err
	}
	a.Session.OnExpired(func() {
		fmt.Fprintln(os.Stderr, "セッションの有効期限が切れました。memedeck login で再ログインしてください。")
	})
	return a, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
