package classifier

import (
	"testing"

	"github.com/hitoshi/deepscan/internal/model"
)

func TestVerdict(t *testing.T) {
	tests := []struct {
		name           string
		p              float64
		wantLabel      model.Label
		wantConfidence float64
	}{
		{"high fake probability", 0.9, model.LabelFake, 90.0},
		{"low fake probability", 0.2, model.LabelReal, 80.0},
		{"boundary is real", 0.5, model.LabelReal, 50.0},
		{"just above boundary", 0.51, model.LabelFake, 51.0},
		{"certain fake", 1.0, model.LabelFake, 100.0},
		{"certain real", 0.0, model.LabelReal, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, confidence := Verdict(tt.p)
			if label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
			// 浮動小数点の誤差を許容する
			if diff := confidence - tt.wantConfidence; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
		})
	}
}

// 同じ入力に対してVerdictが決定的であることを検証
func TestVerdict_Deterministic(t *testing.T) {
	label1, conf1 := Verdict(0.73)
	label2, conf2 := Verdict(0.73)

	if label1 != label2 || conf1 != conf2 {
		t.Errorf("Verdict is not deterministic: (%q, %v) vs (%q, %v)", label1, conf1, label2, conf2)
	}
}
