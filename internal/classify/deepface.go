package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result は1回の分類結果を表す
type Result struct {
	Dominant string             // 最もスコアの高い感情ラベル
	Scores   map[string]float64 // 全ラベルのスコア分布（0〜100）
}

// Confidence は支配的ラベルのスコアを返す
func (r Result) Confidence() float64 {
	return r.Scores[r.Dominant]
}

// Client はDeepFace互換サービスへのHTTPクライアント
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient は新しいClientを作成する
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// analyzeRequest は分類サービスへのリクエストボディ
type analyzeRequest struct {
	Img     string   `json:"img_path"`
	Actions []string `json:"actions"`
}

// analyzeResponse は分類サービスからのレスポンスボディ
type analyzeResponse struct {
	Results []struct {
		Emotion         map[string]float64 `json:"emotion"`
		DominantEmotion string             `json:"dominant_emotion"`
	} `json:"results"`
}

// Classify は顔画像を分類サービスに送信し、感情ラベルとスコア分布を返す
func (c *Client) Classify(ctx context.Context, face image.Image) (Result, error) {
	// JPEGエンコードしてdata URIにする
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, face, &jpeg.Options{Quality: 90}); err != nil {
		return Result{}, fmt.Errorf("顔画像のエンコードに失敗: %w", err)
	}
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	body, err := json.Marshal(analyzeRequest{
		Img:     dataURI,
		Actions: []string{"emotion"},
	})
	if err != nil {
		return Result{}, fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("分類サービスへのリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("分類サービスがエラーを返しました: status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("レスポンスのデコードに失敗: %w", err)
	}

	if len(parsed.Results) == 0 {
		return Result{}, fmt.Errorf("分類サービスが結果を返しませんでした")
	}

	first := parsed.Results[0]
	if first.DominantEmotion == "" || len(first.Emotion) == 0 {
		return Result{}, fmt.Errorf("分類結果が不完全です")
	}

	return Result{
		Dominant: first.DominantEmotion,
		Scores:   first.Emotion,
	}, nil
}
