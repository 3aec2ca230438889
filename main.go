package main

import (
	"context"
	"log"

	"kaoiro/internal/app"
	"kaoiro/internal/config"
	"kaoiro/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// 検出エンジンを構築
	engine := app.BuildEngine(cfg)

	// サーバーを作成
	srv := server.New(cfg, engine)

	// 検出を自動開始する（失敗してもサーバーは起動する）
	if err := engine.Start(); err != nil {
		log.Printf("検出の自動開始に失敗しました: %v", err)
	}

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを起動
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
