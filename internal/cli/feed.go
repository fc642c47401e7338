package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hitoshi/memedeck/internal/feedview"
	"github.com/hitoshi/memedeck/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "ミームフィードを表示する",
		Long:  "ミームフィードを新着順に表示する。ページは逐次読み込みされる。",
		Run:   runFeed,
	}

	cmd.Flags().IntP("pages", "n", 1, "読み込むページ数")

	RootCmd.AddCommand(cmd)
}

func runFeed(cmd *cobra.Command, args []string) {
	pages, _ := cmd.Flags().GetInt("pages")

	a, err := buildAuthenticatedApp()
	if err != nil {
		exitErr("init", err)
	}

	controller := feedview.NewController(a.Memes.PageFunc(), slog.Default())

	for i := 0; i < pages && controller.HasMore(); i++ {
		if err := controller.LoadNext(cmd.Context()); err != nil {
			exitErr("feed", err)
		}
		a.Metrics.RecordPageLoaded("memes")
	}

	items := controller.Items()
	if len(items) == 0 {
		fmt.Println("ミームはまだありません")
		return
	}

	for _, meme := range items {
		printMeme(meme)
	}
	if controller.HasMore() {
		fmt.Println("--- 続きがあります（--pages で読み込むページ数を増やせます） ---")
	}
}

func printMeme(meme model.MemeView) {
	fmt.Printf("[%s] %s (%s)\n", meme.ID, meme.Author.Username, meme.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  %s\n", meme.Description)
	for _, text := range meme.Texts {
		fmt.Printf("  キャプション: %q (%d, %d)\n", text.Content, text.X, text.Y)
	}
	fmt.Printf("  コメント %d件\n\n", meme.CommentsCount)
}
