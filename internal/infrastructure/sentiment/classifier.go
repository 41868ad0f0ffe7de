package sentiment

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"finnews/internal/config"
	"finnews/internal/domain"
	"finnews/internal/ports"
)

// sequenceLength is the fixed token window the exported model expects.
const sequenceLength = 128

// labels index the model's three logits.
var labels = []string{domain.LabelNegative, domain.LabelNeutral, domain.LabelPositive}

var ortInitOnce sync.Once
var ortInitErr error

// Classifier runs the fine-tuned sequence-classification model through ONNX
// Runtime. The model and vocab are loaded once at construction; a load
// failure is fatal to startup, not deferred to the first Classify call.
type Classifier struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	engine    string
}

var _ ports.Classifier = (*Classifier)(nil)

// New loads the tokenizer vocab and the ONNX model artifact.
func New(cfg config.ModelConfig) (*Classifier, error) {
	if err := initializeRuntime(cfg.SharedLib); err != nil {
		return nil, err
	}

	tokenizer, err := LoadTokenizer(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.Path,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.Path, err)
	}

	engine := cfg.Engine
	if engine == "" {
		engine = "finbert_finetuned_v1"
	}

	return &Classifier{session: session, tokenizer: tokenizer, engine: engine}, nil
}

func initializeRuntime(sharedLib string) error {
	ortInitOnce.Do(func() {
		if sharedLib != "" {
			ort.SetSharedLibraryPath(sharedLib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortInitErr = fmt.Errorf("initialize onnx runtime: %w", err)
		}
	})
	return ortInitErr
}

// Engine identifies which model produced the labels.
func (c *Classifier) Engine() string {
	return c.engine
}

// Classify tokenizes the text to the fixed window and runs inference. Same
// text always yields the same label for a fixed model version.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}

	ids, mask := c.tokenizer.Encode(text, sequenceLength)
	shape := ort.Shape{1, sequenceLength}

	inputIDs, err := ort.NewTensor(shape, ids)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()

	attentionMask, err := ort.NewTensor(shape, mask)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer attentionMask.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.Shape{1, int64(len(labels))})
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	if err := c.session.Run([]ort.Value{inputIDs, attentionMask}, []ort.Value{output}); err != nil {
		return domain.Prediction{}, fmt.Errorf("run inference: %w", err)
	}

	logits := output.GetData()
	if len(logits) != len(labels) {
		return domain.Prediction{}, fmt.Errorf("unexpected logits length %d", len(logits))
	}

	idx, score := argmax(softmax(logits))
	return domain.Prediction{Label: labels[idx], Score: score}, nil
}

// Close releases the model session; the process-wide runtime environment
// stays up for the process lifetime.
func (c *Classifier) Close() error {
	if c.session == nil {
		return nil
	}
	return c.session.Destroy()
}

func softmax(logits []float32) []float64 {
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - max))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(probs []float64) (int, float64) {
	idx := 0
	best := probs[0]
	for i, p := range probs[1:] {
		if p > best {
			best = p
			idx = i + 1
		}
	}
	return idx, best
}
