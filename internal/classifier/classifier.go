// Package classifier はディープフェイク判定モデルの呼び出しを提供する。
// モデル本体はサイドカーの推論サーバーが保持し、本パッケージはその
// HTTPクライアントと前処理・判定ルールを実装する。
package classifier

import (
	"context"

	"github.com/hitoshi/deepscan/internal/model"
)

// Classifier は前処理済みテンソルを受け取り、偽物である確率を返す。
type Classifier interface {
	// Classify は確率p（0.0〜1.0）を返す。pが大きいほど偽物の可能性が高い。
	Classify(ctx context.Context, tensor []float32) (float64, error)
	// Ready は推論バックエンドが応答可能かを返す。
	Ready() bool
}

// Verdict はモデル出力の確率pをラベルと確信度（パーセント）に変換する。
// p > 0.5 ならFAKEで確信度はp*100、それ以外はREALで確信度は(1-p)*100。
// 境界値 p = 0.5 はREAL（確信度50%）になる。
func Verdict(p float64) (model.Label, float64) {
	if p > 0.5 {
		return model.LabelFake, p * 100
	}
	return model.LabelReal, (1 - p) * 100
}
