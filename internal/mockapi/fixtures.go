package mockapi

import (
	"fmt"
	"time"

	"github.com/hitoshi/memedeck/internal/model"
)

// SeedFixtures は開発・テスト用の固定データを投入する。
// ミーム dummy_meme_id_1（著者 dummy_user_1、キャプション2つ）と、
// dummy_user_1/2/3 によるコメント3件を含む。
func SeedFixtures(store *Store) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	users := []model.UserRecord{
		{ID: "dummy_user_id_1", Username: "dummy_user_1", PictureURL: "https://dummy.url/user/1"},
		{ID: "dummy_user_id_2", Username: "dummy_user_2", PictureURL: "https://dummy.url/user/2"},
		{ID: "dummy_user_id_3", Username: "dummy_user_3", PictureURL: "https://dummy.url/user/3"},
	}
	store.AddAccount("dummy_user_1", "password1", users[0])
	store.AddUser(users[1])
	store.AddUser(users[2])

	store.AddMeme(
		"dummy_meme_id_1",
		"dummy_user_id_1",
		"https://dummy.url/meme/1",
		"dummy meme 1",
		[]model.Caption{
			{Content: "dummy text 1", X: 0, Y: 0},
			{Content: "dummy text 2", X: 100, Y: 100},
		},
		base,
	)

	for i := 1; i <= 3; i++ {
		store.AddComment(
			fmt.Sprintf("dummy_comment_id_%d", i),
			"dummy_meme_id_1",
			fmt.Sprintf("dummy_user_id_%d", i),
			fmt.Sprintf("dummy comment %d", i),
			base.Add(time.Duration(i)*time.Minute),
		)
	}
}
