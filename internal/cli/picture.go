package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "picture <url>",
		Short: "ミーム画像をダウンロードして保存する",
		Long:  "pictureUrlの画像を検証付きでダウンロードする。危険なURLはブロックされる。",
		Args:  cobra.ExactArgs(1),
		Run:   runPicture,
	}

	cmd.Flags().StringP("output", "o", "picture.out", "保存先ファイル")

	RootCmd.AddCommand(cmd)
}

func runPicture(cmd *cobra.Command, args []string) {
	rawURL := args[0]
	output, _ := cmd.Flags().GetString("output")

	a, err := buildApp()
	if err != nil {
		exitErr("init", err)
	}

	data, contentType, err := a.Pictures.Fetch(cmd.Context(), rawURL)
	if err != nil {
		exitErr("picture", err)
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		exitErr("picture", err)
	}
	fmt.Printf("%s に保存しました（%s, %dバイト）\n", output, contentType, len(data))
}
