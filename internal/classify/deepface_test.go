package classify

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testFace はテスト用の小さな顔画像を作成する
func testFace() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 170, B: 150, A: 255})
		}
	}
	return img
}

// TestClassifySuccess は正常な分類結果の取得をテストする
func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("予期しないリクエスト: %s %s", r.Method, r.URL.Path)
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("リクエストのデコードに失敗: %v", err)
		}
		if !strings.HasPrefix(req.Img, "data:image/jpeg;base64,") {
			t.Error("画像がdata URI形式で送信されていません")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [{
				"dominant_emotion": "happy",
				"emotion": {"happy": 81.2, "sad": 3.1, "neutral": 10.5, "angry": 5.2}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	result, err := client.Classify(context.Background(), testFace())
	if err != nil {
		t.Fatalf("分類でエラーが発生しました: %v", err)
	}

	if result.Dominant != "happy" {
		t.Errorf("支配的ラベルが一致しません: got %s, want happy", result.Dominant)
	}
	if result.Confidence() != 81.2 {
		t.Errorf("信頼度が一致しません: got %f, want 81.2", result.Confidence())
	}
	if len(result.Scores) != 4 {
		t.Errorf("スコア数が一致しません: got %d, want 4", len(result.Scores))
	}
}

// TestClassifyErrors は異常系のレスポンスをテストする
func TestClassifyErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"サーバーエラー", http.StatusInternalServerError, `{"error": "internal"}`},
		{"不正なJSON", http.StatusOK, `{invalid`},
		{"結果が空", http.StatusOK, `{"results": []}`},
		{"ラベルなし", http.StatusOK, `{"results": [{"dominant_emotion": "", "emotion": {}}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)

			_, err := client.Classify(context.Background(), testFace())
			if err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
		})
	}
}

// TestClassifyUnreachable は到達不能なサービスのエラーをテストする
func TestClassifyUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond)

	_, err := client.Classify(context.Background(), testFace())
	if err == nil {
		t.Fatal("到達不能なサービスでエラーが期待されました")
	}
}
