// Package server は、HTTPサーバーとAPIエンドポイントを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// 検出エンジンの制御エンドポイントの提供を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - 検出結果・ステータスの取得エンドポイント
//   - 検出エンジンの開始・停止エンドポイント
//   - ポート使用中時の代替ポートへのフォールバック
//
// 仕様:
//   - ルーティングにgin-gonic/ginを使用
//   - レスポンスは全てJSON
//   - プライマリポートが使用中の場合は代替ポートで起動
//   - グレースフルシャットダウンに対応
package server
