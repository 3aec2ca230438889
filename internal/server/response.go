package server

import "time"

// StatusResponse は /status のレスポンス
type StatusResponse struct {
	ServerRunning    bool      `json:"server_running"`
	DetectionRunning bool      `json:"detection_running"`
	CameraConnected  bool      `json:"camera_connected"`
	LastDetection    int64     `json:"last_detection"` // Unix秒（未検出の場合は0）
	Timestamp        time.Time `json:"timestamp"`
}

// MessageResponse は操作成功時のレスポンス
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse は操作失敗時のレスポンス
type ErrorResponse struct {
	Error string `json:"error"`
}

// EmotionErrorResponse は /emotion の内部エラー時のレスポンス
// エラーでも感情データと同じ形を保つ
type EmotionErrorResponse struct {
	Error      string    `json:"error"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// HealthResponse は /health のレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
