// Package config はアプリケーション全体の設定管理を担う
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server     ServerConfig
	Camera     CameraConfig
	Detection  DetectionConfig
	Classifier ClassifierConfig
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host         string // リッスンするホスト
	Port         int    // リッスンするポート番号
	FallbackPort int    // プライマリポートが使用中の場合の代替ポート

	// タイムアウト設定
	ReadTimeout  time.Duration // 読み込みタイムアウト
	WriteTimeout time.Duration // 書き込みタイムアウト
}

// CameraConfig はカメラデバイスの設定
type CameraConfig struct {
	Device int // デバイス番号（例: 0 = /dev/video0）
	Width  int // 画像幅
	Height int // 画像高さ
	FPS    int // フレームレート
}

// DetectionConfig は検出ループと顔検出の設定
type DetectionConfig struct {
	ProcessEveryNFrames int           // Nフレームごとに1回処理する（スロットリング）
	CaptureInterval     time.Duration // フレーム取得の間隔（約30fps相当）

	CascadeFile      string  // pigoカスケードファイルのパス
	MinFaceSize      int     // 検出する顔の最小サイズ（ピクセル）
	MaxFaceSize      int     // 検出する顔の最大サイズ（ピクセル）
	QualityThreshold float32 // 検出品質のしきい値
}

// ClassifierConfig は感情分類サービスの設定
type ClassifierConfig struct {
	BaseURL string        // 分類サービスのベースURL
	Timeout time.Duration // リクエストタイムアウト
}

// Load は設定を読み込む
// .envファイルがあれば読み込み、環境変数で上書きする
func Load() (*Config, error) {
	// .envファイルは任意（存在しなくてもエラーにしない）
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 5001),
			FallbackPort: getEnvAsIntOrDefault("FALLBACK_PORT", 5002),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Camera: CameraConfig{
			Device: getEnvAsIntOrDefault("CAMERA_DEVICE", 0),
			Width:  getEnvAsIntOrDefault("CAMERA_WIDTH", 640),
			Height: getEnvAsIntOrDefault("CAMERA_HEIGHT", 480),
			FPS:    getEnvAsIntOrDefault("CAMERA_FPS", 30),
		},
		Detection: DetectionConfig{
			ProcessEveryNFrames: getEnvAsIntOrDefault("PROCESS_EVERY_N_FRAMES", 3),
			CaptureInterval:     33 * time.Millisecond,
			CascadeFile:         getEnvOrDefault("CASCADE_FILE", "cascade/facefinder"),
			MinFaceSize:         getEnvAsIntOrDefault("MIN_FACE_SIZE", 50),
			MaxFaceSize:         getEnvAsIntOrDefault("MAX_FACE_SIZE", 1000),
			QualityThreshold:    5.0,
		},
		Classifier: ClassifierConfig{
			BaseURL: getEnvOrDefault("CLASSIFIER_URL", "http://127.0.0.1:8500"),
			Timeout: time.Duration(getEnvAsIntOrDefault("CLASSIFIER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Server.FallbackPort < 1 || c.Server.FallbackPort > 65535 {
		return fmt.Errorf("無効な代替ポート番号: %d", c.Server.FallbackPort)
	}
	if c.Server.Port == c.Server.FallbackPort {
		return fmt.Errorf("ポートと代替ポートが同一: %d", c.Server.Port)
	}

	// カメラ設定の検証
	if c.Camera.Device < 0 {
		return fmt.Errorf("無効なデバイス番号: %d", c.Camera.Device)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("無効な解像度: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 60 {
		return fmt.Errorf("無効なFPS値: %d", c.Camera.FPS)
	}

	// 検出設定の検証
	if c.Detection.ProcessEveryNFrames < 1 {
		return fmt.Errorf("無効な処理間隔: %d", c.Detection.ProcessEveryNFrames)
	}
	if c.Detection.CaptureInterval <= 0 {
		return fmt.Errorf("無効なキャプチャ間隔: %v", c.Detection.CaptureInterval)
	}
	if c.Detection.CascadeFile == "" {
		return fmt.Errorf("カスケードファイルのパスが設定されていません")
	}
	if c.Detection.MinFaceSize <= 0 || c.Detection.MaxFaceSize <= c.Detection.MinFaceSize {
		return fmt.Errorf("無効な顔サイズ範囲: %d-%d", c.Detection.MinFaceSize, c.Detection.MaxFaceSize)
	}

	// 分類サービス設定の検証
	if c.Classifier.BaseURL == "" {
		return fmt.Errorf("分類サービスのURLが設定されていません")
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// FallbackAddress は代替ポートのリッスンアドレスを返す
func (c *Config) FallbackAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.FallbackPort)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
