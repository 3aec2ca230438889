package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaoiro/internal/emotion"
)

// handleGetEmotion は最新の検出結果を返す
func (s *Server) handleGetEmotion(c *gin.Context) {
	reading := s.detector.Reading()

	// Storeは常に完全なスナップショットを返すが、
	// 万一不完全な値を得た場合はエラー形式で応答する
	if reading.Emotion == "" || reading.Timestamp.IsZero() {
		c.JSON(http.StatusInternalServerError, EmotionErrorResponse{
			Error:      "検出結果の取得に失敗しました",
			Emotion:    emotion.EmotionError,
			Confidence: 0.0,
			Timestamp:  time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, reading)
}

// handleGetStatus はサーバーと検出エンジンの状態を返す
func (s *Server) handleGetStatus(c *gin.Context) {
	var lastDetection int64
	if last := s.detector.LastDetection(); !last.IsZero() {
		lastDetection = last.Unix()
	}

	c.JSON(http.StatusOK, StatusResponse{
		ServerRunning:    true,
		DetectionRunning: s.detector.Running(),
		CameraConnected:  s.detector.CameraConnected(),
		LastDetection:    lastDetection,
		Timestamp:        time.Now(),
	})
}

// handleStart は検出エンジンを開始する
func (s *Server) handleStart(c *gin.Context) {
	if err := s.detector.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: "検出を開始しました",
	})
}

// handleStop は検出エンジンを停止する
// 停止は常に成功する（冪等）
func (s *Server) handleStop(c *gin.Context) {
	s.detector.Stop()

	c.JSON(http.StatusOK, MessageResponse{
		Message: "検出を停止しました",
	})
}

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}
