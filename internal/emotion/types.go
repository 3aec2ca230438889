package emotion

import (
	"context"
	"image"
	"time"

	"kaoiro/internal/classify"
)

// 感情ラベルのセンチネル値
// 分類器が返す実ラベル（happy, sad等）以外に以下の状態を表す
const (
	EmotionUnknown = "unknown" // まだ一度も検出が完了していない
	EmotionNoFace  = "no_face" // フレーム内に顔が見つからなかった
	EmotionError   = "error"   // 分類処理でエラーが発生した
)

// Reading は最新の感情検出結果のスナップショット
// 値は不変であり、更新時は丸ごと置き換えられる
type Reading struct {
	Emotion      string             `json:"emotion"`                  // 感情ラベルまたはセンチネル値
	Confidence   float64            `json:"confidence"`               // 信頼度（0〜100）
	FaceCount    int                `json:"faces_detected"`           // 検出された顔の数
	Timestamp    time.Time          `json:"timestamp"`                // 取得時刻
	Scores       map[string]float64 `json:"emotion_scores,omitempty"` // 全ラベルのスコア分布（成功時のみ）
	ErrorMessage string             `json:"error,omitempty"`          // エラー内容（emotion == error の場合のみ）
}

// FrameSource はカメラデバイスからのフレーム取得を抽象化する
type FrameSource interface {
	// Open はデバイスを開く
	Open() error

	// Read は1フレームをブロッキングで取得する
	Read() (image.Image, error)

	// Close はデバイスを解放する（冪等）
	Close() error

	// IsOpened はデバイスが動作可能な状態かを返す
	IsOpened() bool
}

// FaceLocator は画像内の顔領域の検出を抽象化する
type FaceLocator interface {
	// Locate は顔のバウンディングボックスの一覧を返す
	// 顔が見つからない場合は空のスライスを返す
	Locate(img image.Image) ([]image.Rectangle, error)
}

// Classifier は顔画像の感情分類を抽象化する
type Classifier interface {
	// Classify は顔画像から感情ラベルとスコア分布を得る
	Classify(ctx context.Context, face image.Image) (classify.Result, error)
}
