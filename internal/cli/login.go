package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "ログインしてトークンを保存する",
		Run:   runLogin,
	}

	cmd.Flags().StringP("username", "u", "", "ユーザー名（必須）")
	cmd.Flags().StringP("password", "p", "", "パスワード（必須）")

	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	RootCmd.AddCommand(cmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	a, err := buildApp()
	if err != nil {
		exitErr("init", err)
	}

	tok, err := a.API.Login(cmd.Context(), username, password)
	if err != nil {
		exitErr("login", err)
	}
	if err := a.Session.Authenticate(tok); err != nil {
		exitErr("login", err)
	}

	fmt.Printf("%s としてログインしました\n", username)
}
