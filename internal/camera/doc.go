// Package camera カメラデバイスからのフレーム取得を担う
//
// # 責務
// - カメラデバイスのオープン・クローズのライフサイクル管理
// - 1フレームずつのブロッキング取得
// - デバイスへの排他アクセスの保証
//
// # 仕様
// - GoCV (OpenCV) のVideoCaptureを使用
// - デバイスは並行アクセスに対応していないため、
//   Open/Read/Closeは単一のミューテックスで直列化する
// - Closeは既にクローズ済みでも安全（冪等）
// - デバイスが開いていない状態でのReadはErrNotOpenを返す
//
// # 前提要件
//   - OpenCV 4.x: GoCVの動作に必要
//     https://gocv.io/getting-started/ を参照
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
