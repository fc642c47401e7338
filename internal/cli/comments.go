package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "comments <meme-id>",
		Short: "ミームのコメントスレッドを表示する",
		Long:  "指定ミームのコメントを全ページ一括で読み込んで表示する。",
		Args:  cobra.ExactArgs(1),
		Run:   runComments,
	}

	RootCmd.AddCommand(cmd)
}

func runComments(cmd *cobra.Command, args []string) {
	memeID := args[0]

	a, err := buildAuthenticatedApp()
	if err != nil {
		exitErr("init", err)
	}

	comments, err := a.Comments.Open(cmd.Context(), memeID)
	if err != nil {
		exitErr("comments", err)
	}

	if len(comments) == 0 {
		fmt.Println("コメントはまだありません")
		return
	}
	for _, c := range comments {
		fmt.Printf("%s (%s)\n  %s\n", c.Author.Username, c.CreatedAt.Format("2006-01-02 15:04"), c.Content)
	}
}
