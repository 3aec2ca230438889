package emotion

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"kaoiro/internal/classify"
)

// testFrame はテスト用のフレーム画像を作成する
func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

// happyResult はテスト用の分類結果を作成する
func happyResult() classify.Result {
	return classify.Result{
		Dominant: "happy",
		Scores: map[string]float64{
			"happy":    81.2,
			"sad":      3.1,
			"neutral":  10.5,
			"angry":    2.2,
			"surprise": 3.0,
		},
	}
}

// newTestEngine はテスト用に短い間隔のEngineを作成する
func newTestEngine(source FrameSource, locator FaceLocator, classifier Classifier) *Engine {
	return NewEngine(source, locator, classifier, 1, time.Millisecond)
}

// waitFor は条件が満たされるまでポーリングする
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("条件が時間内に満たされませんでした")
}

// TestEngineStartIdempotent はStartの冪等性をテストする
// 動作中に何度Startを呼んでもカメラは一度しか開かれない
func TestEngineStartIdempotent(t *testing.T) {
	source := NewMockSource(testFrame())
	engine := newTestEngine(source, NewMockLocator(), NewMockClassifier(happyResult()))
	defer engine.Stop()

	for i := 0; i < 3; i++ {
		if err := engine.Start(); err != nil {
			t.Fatalf("Startでエラーが発生しました（%d回目）: %v", i+1, err)
		}
	}

	if !engine.Running() {
		t.Error("エンジンが動作中ではありません")
	}
	if source.OpenCount() != 1 {
		t.Errorf("カメラのオープン回数が一致しません: got %d, want 1", source.OpenCount())
	}
}

// TestEngineStopIdempotent はStopの冪等性をテストする
func TestEngineStopIdempotent(t *testing.T) {
	source := NewMockSource(testFrame())
	engine := newTestEngine(source, NewMockLocator(), NewMockClassifier(happyResult()))

	// 停止状態でのStopは何もしない
	engine.Stop()
	engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	// 動作中からの複数回のStopも安全
	engine.Stop()
	engine.Stop()

	if engine.Running() {
		t.Error("エンジンが停止していません")
	}
	if source.IsOpened() {
		t.Error("カメラが解放されていません")
	}
}

// TestEngineStartFailsWhenCameraUnavailable はカメラを開けない場合の
// Start失敗をテストする
func TestEngineStartFailsWhenCameraUnavailable(t *testing.T) {
	source := NewMockSource(testFrame())
	source.SetShouldFailOpen(true)

	engine := newTestEngine(source, NewMockLocator(), NewMockClassifier(happyResult()))

	if err := engine.Start(); err == nil {
		t.Fatal("Startの失敗が期待されましたが、成功しました")
	}

	if engine.Running() {
		t.Error("Start失敗後もエンジンが動作中です")
	}
	if engine.CameraConnected() {
		t.Error("Start失敗後もカメラが接続状態です")
	}
}

// TestEngineNoFace は顔が検出されなかった場合のReadingをテストする
func TestEngineNoFace(t *testing.T) {
	source := NewMockSource(testFrame())
	engine := newTestEngine(source, NewMockLocator(), NewMockClassifier(happyResult()))
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == EmotionNoFace
	})

	reading := engine.Reading()
	if reading.Confidence != 0.0 {
		t.Errorf("信頼度が0ではありません: %f", reading.Confidence)
	}
	if reading.FaceCount != 0 {
		t.Errorf("顔数が0ではありません: %d", reading.FaceCount)
	}
	if reading.Scores != nil {
		t.Error("no_faceのReadingにスコアが含まれています")
	}
	if reading.ErrorMessage != "" {
		t.Errorf("no_faceのReadingにエラーメッセージが含まれています: %s", reading.ErrorMessage)
	}
}

// TestEngineDominantFace は最大面積の顔が分類対象になることをテストする
// 40x40と60x60の2領域のうち、60x60の切り出しが分類器に渡り、
// Readingには顔数2と全ラベルのスコアが含まれる
func TestEngineDominantFace(t *testing.T) {
	source := NewMockSource(testFrame())
	locator := NewMockLocator(
		image.Rect(10, 10, 50, 50),     // 40x40
		image.Rect(100, 100, 160, 160), // 60x60
	)
	classifier := NewMockClassifier(happyResult())

	engine := newTestEngine(source, locator, classifier)
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == "happy"
	})

	reading := engine.Reading()
	if reading.Confidence != 81.2 {
		t.Errorf("信頼度が一致しません: got %f, want 81.2", reading.Confidence)
	}
	if reading.FaceCount != 2 {
		t.Errorf("顔数が一致しません: got %d, want 2", reading.FaceCount)
	}
	if len(reading.Scores) != 5 {
		t.Errorf("スコア数が一致しません: got %d, want 5", len(reading.Scores))
	}
	for _, label := range []string{"happy", "sad", "neutral", "angry", "surprise"} {
		if _, found := reading.Scores[label]; !found {
			t.Errorf("スコアにラベル %s が含まれていません", label)
		}
	}

	// 分類器に渡った顔画像は60x60の切り出しであること
	faces := classifier.Faces()
	if len(faces) == 0 {
		t.Fatal("分類器に顔画像が渡されていません")
	}
	bounds := faces[0].Bounds()
	if bounds.Dx() != 60 || bounds.Dy() != 60 {
		t.Errorf("切り出しサイズが一致しません: got %dx%d, want 60x60", bounds.Dx(), bounds.Dy())
	}

	// 成功時はlast detectionが更新される
	if engine.LastDetection().IsZero() {
		t.Error("最終検出時刻が更新されていません")
	}
}

// TestEngineClassifierFailure は分類器が常に失敗しても
// ループが継続し、エラー状態のReadingが書き込まれることをテストする
func TestEngineClassifierFailure(t *testing.T) {
	source := NewMockSource(testFrame())
	locator := NewMockLocator(image.Rect(0, 0, 100, 100))
	classifier := NewMockClassifier(happyResult())
	classifier.SetError(fmt.Errorf("モック: 分類サービスが応答しません"))

	engine := newTestEngine(source, locator, classifier)
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == EmotionError
	})

	reading := engine.Reading()
	if reading.ErrorMessage == "" {
		t.Error("エラーメッセージが空です")
	}
	if reading.Confidence != 0.0 {
		t.Errorf("信頼度が0ではありません: %f", reading.Confidence)
	}
	if reading.Scores != nil {
		t.Error("エラー状態のReadingにスコアが含まれています")
	}

	// 失敗が続いてもループは動作し続ける
	before := classifier.Faces()
	waitFor(t, 2*time.Second, func() bool {
		return len(classifier.Faces()) > len(before)
	})
	if !engine.Running() {
		t.Error("分類失敗後にエンジンが停止しています")
	}

	// 分類器が回復すると次の成功で自己修復する
	classifier.SetError(nil)
	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == "happy"
	})
}

// TestEngineTransientReadFailure は一時的なフレーム取得失敗で
// 前回のReadingが維持されることをテストする
func TestEngineTransientReadFailure(t *testing.T) {
	source := NewMockSource(testFrame())
	locator := NewMockLocator(image.Rect(0, 0, 100, 100))
	engine := newTestEngine(source, locator, NewMockClassifier(happyResult()))
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	// まず成功させる
	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == "happy"
	})

	// 以降のReadを失敗させてもReadingは維持される
	source.SetShouldFailRead(true)
	before := source.ReadCount()
	waitFor(t, 2*time.Second, func() bool {
		return source.ReadCount() > before+2
	})

	reading := engine.Reading()
	if reading.Emotion != "happy" {
		t.Errorf("一時的な失敗でReadingが変化しました: %s", reading.Emotion)
	}
	if !engine.Running() {
		t.Error("一時的な失敗でエンジンが停止しています")
	}
}

// TestEngineExitsWhenSourceBroken はカメラが利用不能になった場合に
// ループが自律的に停止状態へ遷移することをテストする
func TestEngineExitsWhenSourceBroken(t *testing.T) {
	source := NewMockSource(testFrame())
	engine := newTestEngine(source, NewMockLocator(), NewMockClassifier(happyResult()))

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	// デバイス故障を模擬する
	source.ForceClose()

	waitFor(t, 2*time.Second, func() bool {
		return !engine.Running()
	})

	if engine.CameraConnected() {
		t.Error("故障後もカメラが接続状態です")
	}

	// 自律停止後のStopも安全（冪等）
	engine.Stop()
}

// TestEngineConcurrentStopStart は停止中の並行Startとの競合をテストする
// 遅い分類器でループを処理中に保ち、Stopの完了前にStartを発行しても
// Stopは停止の完了（ループ終了とデバイス解放）を待ってから返り、
// その後のStartで開かれたカメラを巻き添えにしないことを検証する
func TestEngineConcurrentStopStart(t *testing.T) {
	source := NewMockSource(testFrame())
	locator := NewMockLocator(image.Rect(0, 0, 100, 100))
	classifier := NewMockClassifier(happyResult())
	classifier.SetDelay(200 * time.Millisecond)

	engine := newTestEngine(source, locator, classifier)
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("Startでエラーが発生しました: %v", err)
	}

	// ループが分類処理に入るまで待つ
	waitFor(t, 2*time.Second, func() bool {
		return len(classifier.Faces()) > 0
	})

	// Stopを別ゴルーチンで発行し、完了前にStartを重ねる
	stopDone := make(chan struct{})
	go func() {
		engine.Stop()
		close(stopDone)
	}()

	time.Sleep(50 * time.Millisecond)

	if err := engine.Start(); err != nil {
		t.Fatalf("並行するStartでエラーが発生しました: %v", err)
	}

	// Stopは新しいループを待たずに完了していること
	select {
	case <-stopDone:
	case <-time.After(3 * time.Second):
		t.Fatal("Stopが時間内に完了しませんでした")
	}

	// Startが開始した検出は生きていること
	if !engine.Running() {
		t.Error("Start後にエンジンが動作中ではありません")
	}
	if !engine.CameraConnected() {
		t.Error("Start後にカメラが接続状態ではありません")
	}

	// 新しいループで検出が継続することの確認
	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == "happy"
	})
}

// TestEngineRestart は停止後の再開をテストする
func TestEngineRestart(t *testing.T) {
	source := NewMockSource(testFrame())
	locator := NewMockLocator(image.Rect(0, 0, 100, 100))
	engine := newTestEngine(source, locator, NewMockClassifier(happyResult()))
	defer engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("1回目のStartでエラーが発生しました: %v", err)
	}
	engine.Stop()

	if err := engine.Start(); err != nil {
		t.Fatalf("2回目のStartでエラーが発生しました: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return engine.Reading().Emotion == "happy"
	})

	if source.OpenCount() != 2 {
		t.Errorf("カメラのオープン回数が一致しません: got %d, want 2", source.OpenCount())
	}
}

// TestEngineStartWithoutCollaborators は検出器・分類器が未初期化の場合の
// Start失敗をテストする
func TestEngineStartWithoutCollaborators(t *testing.T) {
	source := NewMockSource(testFrame())

	testCases := []struct {
		name       string
		locator    FaceLocator
		classifier Classifier
	}{
		{"顔検出器なし", nil, NewMockClassifier(happyResult())},
		{"感情分類器なし", NewMockLocator(), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(source, tc.locator, tc.classifier)

			if err := engine.Start(); err == nil {
				t.Error("Startの失敗が期待されましたが、成功しました")
			}
			if engine.Running() {
				t.Error("Start失敗後もエンジンが動作中です")
			}
		})
	}
}
