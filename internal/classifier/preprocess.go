package classifier

import (
	"bytes"
	"fmt"
	"image"

	// モデル入力として受け付ける画像フォーマットのデコーダを登録する
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// inputSize はモデル入力の一辺のピクセル数。
	inputSize = 128
	// inputChannels はモデル入力のチャンネル数（RGB）。
	inputChannels = 3
)

// TensorLen は前処理後のテンソルの要素数。
const TensorLen = inputSize * inputSize * inputChannels

// Preprocess は画像バイト列をモデル入力テンソルに変換する。
// デコード後に128x128へリサイズし、各チャンネルを0.0〜1.0に正規化する。
// デコード不能なバイト列（拡張子偽装を含む）はエラーを返す。
func Preprocess(raw []byte) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// 128x128へリサイズ。アスペクト比は保持しない（モデルの学習時と同じ扱い）。
	resized := image.NewRGBA(image.Rect(0, 0, inputSize, inputSize))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	tensor := make([]float32, 0, TensorLen)
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			offset := resized.PixOffset(x, y)
			// RGBAのアルファは捨て、RGBのみを使用する
			tensor = append(tensor,
				float32(resized.Pix[offset])/255,
				float32(resized.Pix[offset+1])/255,
				float32(resized.Pix[offset+2])/255,
			)
		}
	}
	return tensor, nil
}
