package detect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// Options は顔検出のパラメータ
type Options struct {
	MinSize          int     // 検出する顔の最小サイズ（ピクセル）
	MaxSize          int     // 検出する顔の最大サイズ（ピクセル）
	ShiftFactor      float64 // 検出ウィンドウの移動率
	ScaleFactor      float64 // 検出ウィンドウの拡大率
	IoUThreshold     float64 // クラスタリングのIoUしきい値
	QualityThreshold float32 // 検出品質のしきい値
}

// DefaultOptions はデフォルトの検出パラメータを返す
func DefaultOptions() Options {
	return Options{
		MinSize:          50,
		MaxSize:          1000,
		ShiftFactor:      0.15,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
	}
}

// Locator はpigoカスケードによる顔検出器
type Locator struct {
	classifier *pigo.Pigo
	opts       Options
}

// NewLocator はカスケードファイルを読み込んでLocatorを作成する
func NewLocator(cascadePath string, opts Options) (*Locator, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("カスケードファイルの読み込みに失敗: %w", err)
	}

	p := pigo.NewPigo()
	classifier, err := p.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("カスケードファイルの展開に失敗: %w", err)
	}

	return &Locator{
		classifier: classifier,
		opts:       opts,
	}, nil
}

// Locate は画像内の顔領域を検出してバウンディングボックスの一覧を返す
// 顔が見つからない場合は空のスライスを返す（エラーではない）
func (l *Locator) Locate(img image.Image) ([]image.Rectangle, error) {
	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)

	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	cParams := pigo.CascadeParams{
		MinSize:     l.opts.MinSize,
		MaxSize:     l.opts.MaxSize,
		ShiftFactor: l.opts.ShiftFactor,
		ScaleFactor: l.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := l.classifier.RunCascade(cParams, 0.0)
	dets = l.classifier.ClusterDetections(dets, l.opts.IoUThreshold)

	return regionsFromDetections(dets, cols, rows, l.opts.QualityThreshold), nil
}

// regionsFromDetections はpigoの検出結果（中心座標とスケール）を
// 画像境界にクランプしたimage.Rectangleに変換する
// 品質しきい値未満の検出は除外する
func regionsFromDetections(dets []pigo.Detection, cols, rows int, qThresh float32) []image.Rectangle {
	regions := make([]image.Rectangle, 0, len(dets))

	for _, det := range dets {
		if det.Q < qThresh {
			continue
		}

		half := det.Scale / 2
		rect := image.Rect(
			clamp(det.Col-half, 0, cols),
			clamp(det.Row-half, 0, rows),
			clamp(det.Col+half, 0, cols),
			clamp(det.Row+half, 0, rows),
		)
		if rect.Empty() {
			continue
		}

		regions = append(regions, rect)
	}

	return regions
}

// clamp は値を[min, max]の範囲に収める
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
