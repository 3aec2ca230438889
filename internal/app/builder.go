// Package app はアプリケーションの組み立てを担う
//
// 設定から検出エンジンの協調部品（カメラ・顔検出器・感情分類器）を
// 構築する処理を各エントリポイントで共有するためのパッケージ
package app

import (
	"log"

	"kaoiro/internal/camera"
	"kaoiro/internal/classify"
	"kaoiro/internal/config"
	"kaoiro/internal/detect"
	"kaoiro/internal/emotion"
)

// BuildEngine は設定から検出エンジンを組み立てる
// 顔検出器の初期化に失敗した場合は警告を出し、
// エンジンは検出器未初期化のまま返す（Startが失敗を返す）
func BuildEngine(cfg *config.Config) *emotion.Engine {
	source := camera.NewSource(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)

	var locator emotion.FaceLocator
	opts := detect.DefaultOptions()
	opts.MinSize = cfg.Detection.MinFaceSize
	opts.MaxSize = cfg.Detection.MaxFaceSize
	opts.QualityThreshold = cfg.Detection.QualityThreshold

	if l, err := detect.NewLocator(cfg.Detection.CascadeFile, opts); err != nil {
		log.Printf("顔検出器の初期化に失敗しました: %v", err)
	} else {
		locator = l
	}

	classifier := classify.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout)

	return emotion.NewEngine(
		source,
		locator,
		classifier,
		cfg.Detection.ProcessEveryNFrames,
		cfg.Detection.CaptureInterval,
	)
}
