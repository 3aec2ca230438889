// Package emotion 感情検出のコアロジックを担う
//
// # 責務
// - 検出結果（Reading）の保持と原子的な更新
// - バックグラウンド検出ループのライフサイクル管理
// - カメラ・顔検出器・感情分類器のオーケストレーション
// - ループ内の障害の封じ込め
//
// # 仕様
// - Engine: Start/Stopによる冪等なライフサイクル制御
// - Store: RWMutexによるスナップショットの保持（読み手は常に完全な値を得る）
// - ループ内の失敗は例外として伝播せず、Reading（no_face / error）として表現する
// - スロットリング: Nフレームに1回のみ処理してCPU負荷を抑える
// - Mock実装を同梱しテストから利用できる
package emotion
