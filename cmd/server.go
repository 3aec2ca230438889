// Package main は感情検出サーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"kaoiro/internal/app"
	"kaoiro/internal/config"
	"kaoiro/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host    = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port    = flag.Int("port", 0, "サーバーのポート (デフォルト: 5001)")
		device  = flag.Int("device", -1, "カメラのデバイス番号 (デフォルト: 0)")
		noStart = flag.Bool("no-autostart", false, "検出の自動開始を無効にする")
		help    = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Kaoiro - 感情検出サーバー")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}

	// 検出エンジンを構築
	engine := app.BuildEngine(cfg)

	// サーバーを作成
	srv := server.New(cfg, engine)

	// 検出を自動開始する（失敗してもサーバーは起動する）
	if !*noStart {
		if err := engine.Start(); err != nil {
			log.Printf("検出の自動開始に失敗しました: %v", err)
		}
	}

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを起動
	log.Printf("Kaoiro サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
