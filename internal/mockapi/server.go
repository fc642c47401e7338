package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/memedeck/internal/model"
)

// tokenTTL はモックサーバーが発行するトークンの有効期間。
const tokenTTL = time.Hour

// maxMultipartMemory はミーム投稿のmultipartパースに使うメモリ上限。
const maxMultipartMemory = 10 << 20

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// Server はミームAPIのモックサーバー。
type Server struct {
	store  *Store
	secret []byte
	logger *slog.Logger
	now    func() time.Time // テスト用に差し替え可能
}

// NewServer はServerを生成する。secretはトークン署名鍵。
func NewServer(store *Store, secret []byte, logger *slog.Logger) *Server {
	return &Server{
		store:  store,
		secret: secret,
		logger: logger,
		now:    time.Now,
	}
}

// IssueToken は指定ユーザー向けのHS256署名付きトークンを発行する。
// クレームはAPI仕様に合わせて id と exp を含む。
func (s *Server) IssueToken(userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": s.now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Router はAPIルーターを構築して返す。
// metricsHandlerがnilでない場合は/metricsで公開する。
func (s *Server) Router(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/authentication/login", s.handleLogin)

		// 認証必須のエンドポイント
		r.Group(func(r chi.Router) {
			r.Use(s.bearerMiddleware)
			r.Get("/memes", s.handleListMemes)
			r.Post("/memes", s.handleCreateMeme)
			r.Get("/memes/{id}/comments", s.handleListComments)
			r.Post("/memes/{id}/comments", s.handleCreateComment)
			r.Get("/users/{id}", s.handleGetUser)
		})
	})

	return r
}

// bearerMiddleware はAuthorizationヘッダーのベアラートークンを検証し、
// ユーザーIDをリクエストコンテキストに注入する。
// 欠落・不正・期限切れのトークンには401を返す。
func (s *Server) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(header[len(prefix):], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil {
			s.logger.Warn("トークンの検証に失敗しました",
				slog.String("error", err.Error()),
			)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID, _ := claims["id"].(string)
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func userIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// handleLogin はログイン要求を処理し、トークンを発行する。
// POST /api/authentication/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	userID, ok := s.store.Authenticate(req.Username, req.Password)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	tok, err := s.IssueToken(userID, tokenTTL)
	if err != nil {
		s.logger.Error("トークンの発行に失敗しました",
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"jwt": tok})
}

// handleListMemes はミーム一覧を返す。
// GET /api/memes?page=N
func (s *Server) handleListMemes(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	results, total, pageSize := s.store.ListMemes(page)
	writeJSON(w, http.StatusOK, paginatedBody(results, total, pageSize))
}

// handleCreateMeme はmultipart形式のミーム投稿を処理する。
// POST /api/memes（Picture, Description, Texts[i][Content|X|Y]）
func (s *Server) handleCreateMeme(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if _, _, err := r.FormFile("Picture"); err != nil {
		http.Error(w, "picture is required", http.StatusBadRequest)
		return
	}
	description := r.FormValue("Description")

	// Texts[i][Content|X|Y] を添字0から欠番まで読み取る
	var texts []model.Caption
	for i := 0; ; i++ {
		content := r.FormValue(fmt.Sprintf("Texts[%d][Content]", i))
		if content == "" {
			break
		}
		x, _ := strconv.Atoi(r.FormValue(fmt.Sprintf("Texts[%d][X]", i)))
		y, _ := strconv.Atoi(r.FormValue(fmt.Sprintf("Texts[%d][Y]", i)))
		texts = append(texts, model.Caption{Content: content, X: x, Y: y})
	}

	id := uuid.New().String()
	pictureURL := "https://cdn.example.com/memes/" + id + ".png"
	createdAt := s.now()
	s.store.AddMeme(id, userID, pictureURL, description, texts, createdAt)

	s.logger.Info("ミームを作成しました",
		slog.String("meme_id", id),
		slog.String("author_id", userID),
	)

	writeJSON(w, http.StatusCreated, model.MemeSummary{
		ID:            id,
		AuthorID:      userID,
		PictureURL:    pictureURL,
		Description:   description,
		CommentsCount: "0",
		Texts:         texts,
		CreatedAt:     createdAt,
	})
}

// handleListComments は指定ミームのコメント一覧を返す。
// GET /api/memes/{id}/comments?page=N
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	memeID := chi.URLParam(r, "id")
	if !s.store.HasMeme(memeID) {
		http.Error(w, "meme not found", http.StatusNotFound)
		return
	}

	page := pageParam(r)
	results, total, pageSize := s.store.ListComments(memeID, page)
	writeJSON(w, http.StatusOK, paginatedBody(results, total, pageSize))
}

// handleCreateComment は指定ミームへのコメント投稿を処理する。
// POST /api/memes/{id}/comments
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	memeID := chi.URLParam(r, "id")
	if !s.store.HasMeme(memeID) {
		http.Error(w, "meme not found", http.StatusNotFound)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	created := s.store.AddComment("", memeID, userID, req.Content, s.now())
	writeJSON(w, http.StatusCreated, created)
}

// handleGetUser は指定IDのユーザーを返す。
// GET /api/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, ok := s.store.GetUser(id)
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// pageParam はクエリ文字列からページ番号を読み取る。省略時は1。
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// paginatedBody はページ分割レスポンスの共通ボディを構築する。
func paginatedBody[T any](results []T, total, pageSize int) map[string]any {
	if results == nil {
		results = []T{}
	}
	return map[string]any{
		"total":    total,
		"pageSize": pageSize,
		"results":  results,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
