// Package model はドメインモデルを定義する。
package model

import "time"

// Label は分類器の判定結果を表す。
type Label string

const (
	// LabelReal は本物の画像と判定されたことを示す。
	LabelReal Label = "REAL"
	// LabelFake は合成・改ざん画像と判定されたことを示す。
	LabelFake Label = "FAKE"
	// LabelError はデコード失敗または推論失敗の終端状態を示す。
	// このラベルのときConfidenceは常に0.0とする。
	LabelError Label = "ERROR"
)

// Classification は1回の画像判定の監査レコードを表す。
// 書き込み後は不変であり、更新・削除されない。
type Classification struct {
	ID          int64
	ArtifactRef string // 生成されたストレージ名。クライアント指定のファイル名ではない
	Label       Label
	Confidence  float64 // 勝ちラベルに割り当てられた確率（0〜100%）
	SubmittedAt time.Time
	OwnerID     *string // NULL許容。ただし現行のパイプラインは常に所有者を付与する
}

// Stats は管理ダッシュボード向けの集計値を表す。
type Stats struct {
	TotalUploads int64
	FakeCount    int64
	RealCount    int64
	TotalUsers   int64
}
