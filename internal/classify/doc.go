// Package classify 顔画像の感情分類を担う
//
// # 責務
// - 切り出した顔画像を外部の分類サービスに送信
// - 感情ラベルとスコア分布の取得
//
// # 仕様
// - DeepFace互換のREST API（POST /analyze）に対するHTTPクライアント
// - 画像はJPEGエンコードしてbase64データURIで送信
// - スコアは各ラベル0〜100のパーセント値
package classify
