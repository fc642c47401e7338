package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "サインアウトして保存済みトークンを破棄する",
		Run:   runLogout,
	}

	RootCmd.AddCommand(cmd)
}

func runLogout(cmd *cobra.Command, args []string) {
	a, err := buildApp()
	if err != nil {
		exitErr("init", err)
	}
	if err := a.Session.Signout(); err != nil {
		exitErr("logout", err)
	}
	fmt.Println("サインアウトしました")
}
