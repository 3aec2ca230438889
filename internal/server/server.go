package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kaoiro/internal/config"
	"kaoiro/internal/emotion"

	"github.com/gin-gonic/gin"
)

// Detector は検出エンジンの制御インターフェース
// emotion.Engineが実装する
type Detector interface {
	// Start は検出を開始する（冪等）
	Start() error

	// Stop は検出を停止する（冪等）
	Stop()

	// Running は検出が動作中かを返す
	Running() bool

	// CameraConnected はカメラが動作可能な状態かを返す
	CameraConnected() bool

	// LastDetection は最後に分類が成功した時刻を返す
	LastDetection() time.Time

	// Reading は最新の検出結果を返す
	Reading() emotion.Reading
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	detector   Detector
	router     *gin.Engine
	httpServer *http.Server
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, detector Detector) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		config:   cfg,
		detector: detector,
		router:   router,
		httpServer: &http.Server{
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	s.router.GET("/emotion", s.handleGetEmotion)
	s.router.GET("/status", s.handleGetStatus)
	s.router.POST("/start", s.handleStart)
	s.router.POST("/stop", s.handleStop)

	// ヘルスチェックエンドポイント
	s.router.GET("/health", s.handleHealth)
}

// corsMiddleware は全オリジンからのアクセスを許可するCORSミドルウェア
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// listen はプライマリポートでリッスンし、使用中の場合は代替ポートを試す
// 両方とも失敗した場合はエラーを返す
func (s *Server) listen() (net.Listener, error) {
	primary := s.config.ServerAddress()
	ln, err := net.Listen("tcp", primary)
	if err == nil {
		return ln, nil
	}

	fallback := s.config.FallbackAddress()
	log.Printf("ポート %s が使用中のため、代替ポート %s を試します: %v", primary, fallback, err)

	ln, fallbackErr := net.Listen("tcp", fallback)
	if fallbackErr != nil {
		return nil, fmt.Errorf("代替ポートでの起動にも失敗: %w（プライマリ: %v）", fallbackErr, err)
	}

	return ln, nil
}

// Start はサーバーを起動する
// コンテキストのキャンセルかシグナル受信までブロックする
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// 検出エンジンを停止してからHTTPサーバーを閉じる
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	s.detector.Stop()

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
