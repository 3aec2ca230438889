package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNotOpen はデバイスが開いていない状態でReadした場合に返される
// このエラーは復旧不能であり、呼び出し側はループを終了すべき
var ErrNotOpen = errors.New("カメラデバイスが開いていません")

// ErrReadFailed はフレーム取得の一時的な失敗を表す
// このエラーは一過性であり、呼び出し側はリトライしてよい
var ErrReadFailed = errors.New("フレームの取得に失敗しました")

// Source はカメラデバイスからフレームを取得する
// Open/Read/Closeは全て内部のミューテックスで直列化される
type Source struct {
	device int
	width  int
	height int
	fps    int

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewSource は新しいSourceを作成する（デバイスはまだ開かない）
func NewSource(device, width, height, fps int) *Source {
	return &Source{
		device: device,
		width:  width,
		height: height,
		fps:    fps,
	}
}

// Open はカメラデバイスを開き、解像度とフレームレートを設定する
// 既に開いているハンドルがある場合は先に解放する
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 未解放のハンドルが残っている場合は解放してから開き直す
	if s.capture != nil {
		_ = s.capture.Close()
		s.capture = nil
	}

	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("カメラデバイス %d のオープンに失敗: %w", s.device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return fmt.Errorf("カメラデバイス %d を開けませんでした", s.device)
	}

	// パフォーマンスのための解像度・フレームレート設定
	capture.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	capture.Set(gocv.VideoCaptureFPS, float64(s.fps))

	s.capture = capture
	return nil
}

// Read は1フレームをブロッキングで取得する
// デバイスが開いていない場合はErrNotOpen、
// 取得に失敗した場合はErrReadFailedを返す
func (s *Source) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil || !s.capture.IsOpened() {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.capture.Read(&mat); !ok {
		return nil, ErrReadFailed
	}
	if mat.Empty() {
		return nil, fmt.Errorf("%w: 空のフレーム", ErrReadFailed)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: 画像への変換に失敗: %v", ErrReadFailed, err)
	}

	return img, nil
}

// Close はカメラデバイスを解放する
// 既にクローズ済みの場合は何もしない（冪等）
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}

	err := s.capture.Close()
	s.capture = nil

	if err != nil {
		return fmt.Errorf("カメラデバイス %d のクローズに失敗: %w", s.device, err)
	}
	return nil
}

// IsOpened はデバイスが開いて動作可能な状態かを返す
func (s *Source) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture != nil && s.capture.IsOpened()
}
