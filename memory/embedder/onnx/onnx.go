//go:build onnx

package onnx

import (
	"context"
	"math"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
)

const (
	defaultDimensions = 384 // all-MiniLM-L6-v2
	defaultMaxLen     = 128
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file.
	TokenizerPath string

	// SharedLibraryPath locates libonnxruntime. Empty uses the runtime's
	// default search.
	SharedLibraryPath string

	// Dimensions is the embedding size. Default: 384.
	Dimensions int

	// MaxLen is the padded sequence length. Default: 128.
	MaxLen int
}

// Embedder runs a BERT-style encoder and mean-pools its last hidden state.
type Embedder struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	tokenizer  *Tokenizer
	dimensions int
	maxLen     int
}

var _ memory.Embedder = (*Embedder)(nil)

// New loads the model and tokenizer.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, goerr.New("model path is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = defaultDimensions
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = defaultMaxLen
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, goerr.Wrap(err, "failed to initialize ONNX runtime")
		}
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ONNX session", goerr.V("model", cfg.ModelPath))
	}

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
		maxLen:     cfg.MaxLen,
	}, nil
}

// Embed returns the unit-length embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ids, mask := e.tokenizer.Encode(text, e.maxLen)
	typeIDs := make([]int64, e.maxLen)
	shape := ort.NewShape(1, int64(e.maxLen))

	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	// order matches the session's input names
	for _, data := range [][]int64{ids, mask, typeIDs} {
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create input tensor")
		}
		inputs = append(inputs, tensor)
	}

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err := e.session.Run(inputs, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, goerr.Wrap(err, "ONNX inference failed")
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, goerr.New("unexpected output tensor type")
	}

	data, shapeOut := out.GetData(), out.GetShape()
	logging.Component(ctx, "embedder").Debug("onnx inference done", "shape", shapeOut.String())

	var embedding []float32
	switch len(shapeOut) {
	case 2:
		if len(data) < e.dimensions {
			return nil, goerr.Wrap(memory.ErrDimensionMismatch, "pooled output too small",
				goerr.V("expected", e.dimensions), goerr.V("actual", len(data)))
		}
		embedding = append([]float32(nil), data[:e.dimensions]...)
	case 3:
		embedding, err = e.meanPool(data, shapeOut, mask)
		if err != nil {
			return nil, err
		}
	default:
		return nil, goerr.New("unexpected output shape", goerr.V("shape", shapeOut.String()))
	}

	return normalize(embedding), nil
}

// meanPool averages hidden states over attended tokens.
func (e *Embedder) meanPool(data []float32, shape ort.Shape, mask []int64) ([]float32, error) {
	if shape[0] != 1 {
		return nil, goerr.New("expected batch size 1", goerr.V("batch", shape[0]))
	}
	seqLen, hidden := int(shape[1]), int(shape[2])
	if hidden != e.dimensions {
		return nil, goerr.Wrap(memory.ErrDimensionMismatch, "hidden size mismatch",
			goerr.V("expected", e.dimensions), goerr.V("actual", hidden))
	}

	embedding := make([]float32, hidden)
	var attended float32
	for i := 0; i < seqLen && i < len(mask); i++ {
		if mask[i] == 0 {
			continue
		}
		attended++
		row := data[i*hidden : (i+1)*hidden]
		for j, v := range row {
			embedding[j] += v
		}
	}
	if attended > 0 {
		for j := range embedding {
			embedding[j] /= attended
		}
	}
	return embedding, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	if err := e.session.Destroy(); err != nil {
		return goerr.Wrap(err, "failed to destroy ONNX session")
	}
	return nil
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
