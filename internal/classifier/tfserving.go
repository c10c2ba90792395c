package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// TFServingClassifier はTensorFlow Serving互換の推論サーバーを呼び出すClassifier実装。
// predict REST API（POST {base}/v1/models/{name}:predict）を使用する。
type TFServingClassifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	modelName  string
	ready      atomic.Bool
}

// NewTFServingClassifier はTFServingClassifierを生成する。
// baseURLは推論サーバーのルート（例: http://localhost:8501）。
func NewTFServingClassifier(httpClient *http.Client, logger *slog.Logger, baseURL, modelName string) *TFServingClassifier {
	return &TFServingClassifier{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		modelName:  modelName,
	}
}

// predictRequest はpredict APIのリクエストボディ。
// instancesは [batch][height][width][channels] 形式。
type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// Classify はテンソルを推論サーバーに送信し、偽物である確率を返す。
func (c *TFServingClassifier) Classify(ctx context.Context, tensor []float32) (float64, error) {
	if len(tensor) != TensorLen {
		return 0, fmt.Errorf("unexpected tensor length: %d", len(tensor))
	}

	body, err := json.Marshal(predictRequest{Instances: [][][][]float32{reshape(tensor)}})
	if err != nil {
		return 0, fmt.Errorf("failed to encode predict request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.ready.Store(false)
		c.logger.Error("推論サーバーの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("model", c.modelName),
		)
		return 0, fmt.Errorf("failed to call inference server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read predict response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("推論サーバーがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("model", c.modelName),
		)
		return 0, fmt.Errorf("inference server returned status %d", resp.StatusCode)
	}

	var result predictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("failed to parse predict response: %w", err)
	}
	if result.Error != "" {
		return 0, fmt.Errorf("inference server error: %s", result.Error)
	}
	if len(result.Predictions) == 0 || len(result.Predictions[0]) == 0 {
		return 0, fmt.Errorf("predict response contains no predictions")
	}

	p := result.Predictions[0][0]
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("prediction out of range: %v", p)
	}

	c.ready.Store(true)
	return p, nil
}

// Ready は最後に確認したバックエンドの状態を返す。
func (c *TFServingClassifier) Ready() bool {
	return c.ready.Load()
}

// Probe は推論サーバーのモデル状態エンドポイントを確認し、readyフラグを更新する。
// 起動時の疎通確認用。失敗してもサービスは起動を継続する
// （到達不能な間の判定はERRORレコードとして記録される）。
func (c *TFServingClassifier) Probe(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.ready.Store(false)
		return fmt.Errorf("failed to probe inference server: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.ready.Store(false)
		return fmt.Errorf("inference server probe returned status %d", resp.StatusCode)
	}

	c.ready.Store(true)
	return nil
}

// reshape はフラットなテンソルを [height][width][channels] に変換する。
func reshape(tensor []float32) [][][]float32 {
	out := make([][][]float32, inputSize)
	for y := 0; y < inputSize; y++ {
		row := make([][]float32, inputSize)
		for x := 0; x < inputSize; x++ {
			offset := (y*inputSize + x) * inputChannels
			row[x] = tensor[offset : offset+inputChannels]
		}
		out[y] = row
	}
	return out
}

// compile-time interface check
var _ Classifier = (*TFServingClassifier)(nil)
