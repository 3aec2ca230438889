package emotion

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"kaoiro/internal/classify"
)

// MockSource はテスト用のFrameSource実装
type MockSource struct {
	mu     sync.Mutex
	opened bool

	frame image.Image // Readが返すフレーム

	// テスト制御用
	shouldFailOpen bool
	shouldFailRead bool
	openCount      int
	readCount      int
}

// NewMockSource は新しいMockSourceを作成する
func NewMockSource(frame image.Image) *MockSource {
	return &MockSource{frame: frame}
}

// Open はモックデバイスを開く
func (m *MockSource) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.openCount++
	if m.shouldFailOpen {
		return fmt.Errorf("モック: カメラのオープンに失敗")
	}

	m.opened = true
	return nil
}

// Read はあらかじめ設定されたフレームを返す
func (m *MockSource) Read() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCount++
	if !m.opened {
		return nil, fmt.Errorf("モック: デバイスが開いていません")
	}
	if m.shouldFailRead {
		return nil, fmt.Errorf("モック: フレームの取得に失敗")
	}

	return m.frame, nil
}

// Close はモックデバイスを解放する
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = false
	return nil
}

// IsOpened はモックデバイスが開いているかを返す
func (m *MockSource) IsOpened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// SetShouldFailOpen はテスト用にOpen失敗を設定する
func (m *MockSource) SetShouldFailOpen(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOpen = shouldFail
}

// SetShouldFailRead はテスト用にRead失敗を設定する
func (m *MockSource) SetShouldFailRead(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailRead = shouldFail
}

// ForceClose はデバイス故障を模擬するため開閉状態のみを落とす
func (m *MockSource) ForceClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
}

// OpenCount はOpenが呼ばれた回数を返す
func (m *MockSource) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// ReadCount はReadが呼ばれた回数を返す
func (m *MockSource) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCount
}

// MockLocator はテスト用のFaceLocator実装
type MockLocator struct {
	mu      sync.Mutex
	regions []image.Rectangle
	err     error
}

// NewMockLocator は指定した領域を返すMockLocatorを作成する
func NewMockLocator(regions ...image.Rectangle) *MockLocator {
	return &MockLocator{regions: regions}
}

// Locate はあらかじめ設定された領域を返す
func (m *MockLocator) Locate(_ image.Image) ([]image.Rectangle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.regions, nil
}

// SetRegions は返す領域を差し替える
func (m *MockLocator) SetRegions(regions ...image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = regions
}

// SetError はLocateが返すエラーを設定する
func (m *MockLocator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// MockClassifier はテスト用のClassifier実装
type MockClassifier struct {
	mu     sync.Mutex
	result classify.Result
	err    error
	delay  time.Duration

	// 受け取った顔画像の記録（切り出しサイズの検証用）
	faces []image.Image
}

// NewMockClassifier は指定した結果を返すMockClassifierを作成する
func NewMockClassifier(result classify.Result) *MockClassifier {
	return &MockClassifier{result: result}
}

// Classify はあらかじめ設定された結果を返す
// 遅延が設定されている場合はその時間だけブロックする
func (m *MockClassifier) Classify(_ context.Context, face image.Image) (classify.Result, error) {
	m.mu.Lock()
	m.faces = append(m.faces, face)
	result := m.result
	err := m.err
	delay := m.delay
	m.mu.Unlock()

	// 遅い分類サービスを模擬する（ロックは保持しない）
	if delay > 0 {
		time.Sleep(delay)
	}

	if err != nil {
		return classify.Result{}, err
	}
	return result, nil
}

// SetDelay はテスト用にClassifyの応答遅延を設定する
func (m *MockClassifier) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// SetError はClassifyが返すエラーを設定する
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Faces は受け取った顔画像の一覧を返す
func (m *MockClassifier) Faces() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()

	faces := make([]image.Image, len(m.faces))
	copy(faces, m.faces)
	return faces
}
