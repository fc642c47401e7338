package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/memedeck/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "新しいミームを投稿する",
		Long:  "画像と説明文、任意個のキャプションからミームを投稿する。",
		Run:   runCreate,
	}

	cmd.Flags().StringP("picture", "i", "", "画像ファイルのパス（必須）")
	cmd.Flags().StringP("description", "d", "", "説明文")
	cmd.Flags().StringArrayP("caption", "c", nil, "キャプション（形式: テキスト@x,y。複数指定可）")

	cmd.MarkFlagRequired("picture")

	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	picturePath, _ := cmd.Flags().GetString("picture")
	description, _ := cmd.Flags().GetString("description")
	captionFlags, _ := cmd.Flags().GetStringArray("caption")

	texts := make([]model.Caption, 0, len(captionFlags))
	for _, raw := range captionFlags {
		caption, err := parseCaption(raw)
		if err != nil {
			exitErr("create", err)
		}
		texts = append(texts, caption)
	}

	a, err := buildAuthenticatedApp()
	if err != nil {
		exitErr("init", err)
	}

	file, err := os.Open(picturePath)
	if err != nil {
		exitErr("create", err)
	}
	defer file.Close()

	created, err := a.Memes.Create(cmd.Context(), filepath.Base(picturePath), file, description, texts)
	if err != nil {
		exitErr("create", err)
	}
	fmt.Printf("ミームを投稿しました: %s\n", created.ID)
}

// parseCaption は「テキスト@x,y」形式のキャプション指定を解析する。
// テキスト自体に@を含められるよう、最後の@で区切る。
func parseCaption(raw string) (model.Caption, error) {
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return model.Caption{}, fmt.Errorf("キャプションの形式が不正です（テキスト@x,y）: %s", raw)
	}

	content := raw[:at]
	coords := strings.SplitN(raw[at+1:], ",", 2)
	if len(coords) != 2 {
		return model.Caption{}, fmt.Errorf("キャプションの座標が不正です（x,y）: %s", raw)
	}

	x, err := strconv.Atoi(strings.TrimSpace(coords[0]))
	if err != nil {
		return model.Caption{}, fmt.Errorf("キャプションのx座標が不正です: %s", coords[0])
	}
	y, err := strconv.Atoi(strings.TrimSpace(coords[1]))
	if err != nil {
		return model.Caption{}, fmt.Errorf("キャプションのy座標が不正です: %s", coords[1])
	}

	return model.Caption{Content: content, X: x, Y: y}, nil
}
