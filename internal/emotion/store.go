package emotion

import (
	"sync"
	"time"
)

// Store は最新のReadingを保持するスレッドセーフなホルダー
// 書き込みは検出ループから、読み込みはHTTPハンドラから行われる
// ロックは読み書きの間のみ保持し、I/Oをまたいで保持しない
type Store struct {
	mu      sync.RWMutex
	current Reading
}

// NewStore は初期状態（unknown）のStoreを作成する
func NewStore() *Store {
	return &Store{
		current: Reading{
			Emotion:    EmotionUnknown,
			Confidence: 0.0,
			FaceCount:  0,
			Timestamp:  time.Now(),
		},
	}
}

// Get は最新の完全なReadingを返す
func (s *Store) Get() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set はReadingを原子的に置き換える
func (s *Store) Set(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
}
