// Package detect 画像内の顔領域の検出を担う
//
// # 責務
// - pigoカスケード分類器の読み込みと保持
// - 1フレームから顔のバウンディングボックスを検出
//
// # 仕様
// - pigo (github.com/esimov/pigo) を使用した純Go実装
// - 検出結果は品質しきい値でフィルタし、image.Rectangleに変換して返す
// - 外部モデルファイル（facefinderバイナリ）が必要
//   https://github.com/esimov/pigo/tree/master/cascade
package detect
