package emotion

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Engine はバックグラウンドの検出ループを管理する
// カメラからフレームを取得し、顔検出・感情分類を行い、結果をStoreに書き込む
type Engine struct {
	source     FrameSource
	locator    FaceLocator
	classifier Classifier
	store      *Store

	processEveryN int           // Nフレームに1回処理する
	interval      time.Duration // フレーム取得の間隔

	// ライフサイクル制御
	// startStopMuはStart/Stopの全手順（ループの終了待ちとデバイス解放を含む）を
	// 直列化する。muはrunningフラグの保護用で、ループ側からも取得されるため
	// 手順全体をまたいで保持してはならない
	startStopMu sync.Mutex
	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup

	// 最後に分類が成功した時刻（ステータス報告用）
	lastMu        sync.RWMutex
	lastDetection time.Time
}

// NewEngine は新しいEngineを作成する
func NewEngine(source FrameSource, locator FaceLocator, classifier Classifier, processEveryN int, interval time.Duration) *Engine {
	if processEveryN < 1 {
		processEveryN = 1
	}

	return &Engine{
		source:        source,
		locator:       locator,
		classifier:    classifier,
		store:         NewStore(),
		processEveryN: processEveryN,
		interval:      interval,
	}
}

// Start は検出ループを開始する
// 既に動作中の場合は何もせず成功を返す（冪等）
// カメラのオープンに失敗した場合はエラーを返し、停止状態のまま
func (e *Engine) Start() error {
	e.startStopMu.Lock()
	defer e.startStopMu.Unlock()

	if e.Running() {
		log.Println("検出は既に動作中です")
		return nil
	}

	if e.locator == nil {
		return fmt.Errorf("顔検出器が初期化されていません")
	}
	if e.classifier == nil {
		return fmt.Errorf("感情分類器が初期化されていません")
	}

	if err := e.source.Open(); err != nil {
		return fmt.Errorf("カメラの初期化に失敗: %w", err)
	}

	e.mu.Lock()
	e.stopCh = make(chan struct{})
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.loop(e.stopCh)

	log.Println("感情検出を開始しました")
	return nil
}

// Stop は検出ループを停止してカメラを解放する
// 既に停止している場合は何もしない（冪等）
// 手順全体がstartStopMuで保護されるため、並行するStartは
// 停止の完了（ループ終了とデバイス解放）を待ってから開始される
func (e *Engine) Stop() {
	e.startStopMu.Lock()
	defer e.startStopMu.Unlock()

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	// ループの終了を待ってからデバイスを解放する
	e.wg.Wait()
	if err := e.source.Close(); err != nil {
		log.Printf("カメラの解放に失敗: %v", err)
	}

	log.Println("感情検出を停止しました")
}

// Running は検出ループが動作中かを返す
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CameraConnected はカメラデバイスが動作可能な状態かを返す
func (e *Engine) CameraConnected() bool {
	return e.source.IsOpened()
}

// Reading は最新の検出結果を返す
func (e *Engine) Reading() Reading {
	return e.store.Get()
}

// LastDetection は最後に分類が成功した時刻を返す
// 一度も成功していない場合はゼロ値を返す
func (e *Engine) LastDetection() time.Time {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.lastDetection
}

// markStopped はループ側からの停止遷移を行う
// 呼び出し前にデバイスを解放しておくこと
// （runningがfalseになった時点で新しいStartがデバイスを開いてよいため）
func (e *Engine) markStopped() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// loop は検出ループの本体
// stopChがクローズされるか、カメラが利用不能になるまで動作し続ける
func (e *Engine) loop(stopCh chan struct{}) {
	defer e.wg.Done()

	log.Println("検出ループを開始しました")

	frameSkip := 0
	for {
		select {
		case <-stopCh:
			log.Println("検出ループを終了しました")
			return
		case <-time.After(e.interval):
		}

		// スロットリング: Nフレームに1回のみ処理する
		frameSkip++
		if frameSkip < e.processEveryN {
			continue
		}
		frameSkip = 0

		if !e.iterate() {
			// カメラが利用不能になったため自律的に停止する
			// デバイスを解放してから停止状態へ遷移する
			if err := e.source.Close(); err != nil {
				log.Printf("カメラの解放に失敗: %v", err)
			}
			e.markStopped()
			log.Println("カメラが利用できないため検出ループを終了しました")
			return
		}
	}
}

// iterate は1回分の検出処理を行う
// ループを継続すべき場合はtrue、カメラが利用不能な場合はfalseを返す
// 予期しないpanicは回復してログに残し、1秒待ってからループを継続する
func (e *Engine) iterate() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("検出ループで予期しないエラー: %v", r)
			time.Sleep(time.Second)
			ok = true
		}
	}()

	if !e.source.IsOpened() {
		return false
	}

	img, err := e.source.Read()
	if err != nil {
		// 一時的な取得失敗は致命的ではない（前回の結果を維持する）
		log.Printf("フレームの取得に失敗: %v", err)
		return true
	}

	e.processFrame(img)
	return true
}

// processFrame は1フレームを処理して検出結果をStoreに書き込む
func (e *Engine) processFrame(img image.Image) {
	regions, err := e.locator.Locate(img)
	if err != nil {
		e.setError(fmt.Sprintf("顔検出に失敗: %v", err))
		return
	}

	if len(regions) == 0 {
		// 顔が見つからなかった
		e.store.Set(Reading{
			Emotion:    EmotionNoFace,
			Confidence: 0.0,
			FaceCount:  0,
			Timestamp:  time.Now(),
		})
		return
	}

	// 最も面積の大きい顔を処理対象とする
	// 面積が等しい場合は検出器の出力順で先のものを採用する
	dominant := largestRegion(regions)
	face := imaging.Crop(img, dominant)

	result, err := e.classifier.Classify(context.Background(), face)
	if err != nil {
		e.setError(fmt.Sprintf("感情分類に失敗: %v", err))
		return
	}

	e.store.Set(Reading{
		Emotion:    result.Dominant,
		Confidence: result.Confidence(),
		FaceCount:  len(regions),
		Timestamp:  time.Now(),
		Scores:     result.Scores,
	})

	e.lastMu.Lock()
	e.lastDetection = time.Now()
	e.lastMu.Unlock()
}

// setError はエラー状態のReadingを書き込む
func (e *Engine) setError(msg string) {
	log.Printf("フレーム処理でエラー: %s", msg)
	e.store.Set(Reading{
		Emotion:      EmotionError,
		Confidence:   0.0,
		FaceCount:    0,
		Timestamp:    time.Now(),
		ErrorMessage: msg,
	})
}

// largestRegion は最も面積の大きい領域を返す
func largestRegion(regions []image.Rectangle) image.Rectangle {
	largest := regions[0]
	maxArea := largest.Dx() * largest.Dy()

	for _, r := range regions[1:] {
		if area := r.Dx() * r.Dy(); area > maxArea {
			largest = r
			maxArea = area
		}
	}

	return largest
}
