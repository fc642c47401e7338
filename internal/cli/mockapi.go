package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hitoshi/memedeck/internal/app"
	"github.com/hitoshi/memedeck/internal/metrics"
	"github.com/hitoshi/memedeck/internal/mockapi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mockapi",
		Short: "開発用のモックAPIサーバーを起動する",
		Long:  "固定データ入りのモックAPIサーバーを起動する。ログインは dummy_user_1 / password1。",
		Run:   runMockAPI,
	}

	cmd.Flags().String("secret", "memedeck-dev-secret", "トークン署名鍵")

	RootCmd.AddCommand(cmd)
}

func runMockAPI(cmd *cobra.Command, args []string) {
	secret, _ := cmd.Flags().GetString("secret")

	cfg, err := app.Init(os.Stderr)
	if err != nil {
		exitErr("init", err)
	}

	store := mockapi.NewStore()
	mockapi.SeedFixtures(store)

	collector := metrics.NewCollector()
	server := mockapi.NewServer(store, []byte(secret), slog.Default())

	httpServer := &http.Server{
		Addr:         ":" + cfg.MockServerPort,
		Handler:      server.Router(collector.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("モックAPIサーバーを起動します",
			slog.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("モックAPIサーバーを停止します...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		exitErr("shutdown", err)
	}

	fmt.Println("停止しました")
}
