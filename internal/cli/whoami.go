package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "ログイン中のユーザーを表示する",
		Run:   runWhoami,
	}

	RootCmd.AddCommand(cmd)
}

func runWhoami(cmd *cobra.Command, args []string) {
	a, err := buildAuthenticatedApp()
	if err != nil {
		exitErr("init", err)
	}

	subjectID, ok := a.Session.SubjectID()
	if !ok {
		fmt.Println("ログインしていません")
		return
	}

	user, err := a.API.GetUserByID(cmd.Context(), subjectID)
	if err != nil {
		exitErr("whoami", err)
	}
	fmt.Printf("%s (%s)\n", user.Username, user.ID)
}
