package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "post <meme-id> <content>",
		Short: "ミームへコメントを投稿する",
		Args:  cobra.MinimumNArgs(2),
		Run:   runPost,
	}

	RootCmd.AddCommand(cmd)
}

func runPost(cmd *cobra.Command, args []string) {
	memeID := args[0]
	content := strings.Join(args[1:], " ")

	a, err := buildAuthenticatedApp()
	if err != nil {
		exitErr("init", err)
	}

	posted, err := a.Comments.Submit(cmd.Context(), memeID, content)
	if err != nil {
		exitErr("post", err)
	}
	if !posted {
		fmt.Println("空のコメントは投稿されません")
		return
	}
	fmt.Println("コメントを投稿しました")
}
