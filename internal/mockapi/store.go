// Package mockapi は開発・テスト用のミームAPIモックサーバーを提供する。
// 外部コラボレータであるAPIサーバーのエンドポイント契約を
// インメモリで実装し、CLIのmockapiコマンドとエンドツーエンドテストから使用する。
package mockapi

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/memedeck/internal/model"
)

// defaultPageSize はページ分割エンドポイントの1ページあたり件数。
const defaultPageSize = 10

// account はログイン可能なアカウントを表す。
type account struct {
	userID   string
	password string
}

// storedMeme はモックサーバー内部のミーム表現。
// commentsCountはワイヤ上では10進文字列となるため内部は数値で保持する。
type storedMeme struct {
	ID          string
	AuthorID    string
	PictureURL  string
	Description string
	Texts       []model.Caption
	CreatedAt   time.Time
}

// Store はモックサーバーのインメモリデータストア。
type Store struct {
	mu       sync.Mutex
	pageSize int
	accounts map[string]account // username -> account
	users    map[string]model.UserRecord
	memes    []storedMeme
	comments map[string][]model.CommentSummary // memeID -> 投稿順コメント
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		pageSize: defaultPageSize,
		accounts: make(map[string]account),
		users:    make(map[string]model.UserRecord),
		comments: make(map[string][]model.CommentSummary),
	}
}

// SetPageSize はページ分割の1ページあたり件数を変更する。テスト用。
func (s *Store) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.pageSize = n
	}
}

// AddAccount はログイン可能なアカウントとユーザーを登録する。
func (s *Store) AddAccount(username, password string, user model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{userID: user.ID, password: password}
	s.users[user.ID] = user
}

// AddUser はユーザーのみを登録する（ログイン不可）。
func (s *Store) AddUser(user model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// Authenticate はユーザー名とパスワードを照合し、ユーザーIDを返す。
func (s *Store) Authenticate(username, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok || acc.password != password {
		return "", false
	}
	return acc.userID, true
}

// GetUser は指定IDのユーザーを返す。
func (s *Store) GetUser(id string) (model.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

// AddMeme はミームを登録し、登録したミームのIDを返す。
// IDが空の場合は新しいUUIDを採番する。
func (s *Store) AddMeme(id, authorID, pictureURL, description string, texts []model.Caption, createdAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	s.memes = append(s.memes, storedMeme{
		ID:          id,
		AuthorID:    authorID,
		PictureURL:  pictureURL,
		Description: description,
		Texts:       texts,
		CreatedAt:   createdAt,
	})
	// 新着順に並べる
	sort.SliceStable(s.memes, func(i, j int) bool {
		return s.memes[i].CreatedAt.After(s.memes[j].CreatedAt)
	})
	return id
}

// ListMemes はミーム一覧の指定ページを新着順で返す。pageは1始まり。
func (s *Store) ListMemes(page int) (results []model.MemeSummary, total, pageSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total = len(s.memes)
	pageSize = s.pageSize

	start := (page - 1) * pageSize
	if start < 0 || start >= total {
		return nil, total, pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	for _, m := range s.memes[start:end] {
		results = append(results, s.toSummary(m))
	}
	return results, total, pageSize
}

// HasMeme は指定IDのミームが存在するかを返す。
func (s *Store) HasMeme(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memes {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ListComments は指定ミームのコメント一覧の指定ページを投稿順で返す。
func (s *Store) ListComments(memeID string, page int) (results []model.CommentSummary, total, pageSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.comments[memeID]
	total = len(all)
	pageSize = s.pageSize

	start := (page - 1) * pageSize
	if start < 0 || start >= total {
		return nil, total, pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	results = append(results, all[start:end]...)
	return results, total, pageSize
}

// AddComment はコメントを登録し、登録したコメントを返す。
// IDが空の場合は新しいUUIDを採番する。
func (s *Store) AddComment(id, memeID, authorID, content string, createdAt time.Time) model.CommentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	comment := model.CommentSummary{
		ID:        id,
		AuthorID:  authorID,
		MemeID:    memeID,
		Content:   content,
		CreatedAt: createdAt,
	}
	s.comments[memeID] = append(s.comments[memeID], comment)
	return comment
}

// toSummary は内部表現をワイヤ形式へ変換する。呼び出し元でロック済みであること。
func (s *Store) toSummary(m storedMeme) model.MemeSummary {
	return model.MemeSummary{
		ID:            m.ID,
		AuthorID:      m.AuthorID,
		PictureURL:    m.PictureURL,
		Description:   m.Description,
		CommentsCount: strconv.Itoa(len(s.comments[m.ID])),
		Texts:         m.Texts,
		CreatedAt:     m.CreatedAt,
	}
}
