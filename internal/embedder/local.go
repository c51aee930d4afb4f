package embedder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
)

const (
	// DefaultLocalModel is the sentence-transformers model used when
	// EMBEDDING_MODEL is unset for the local backend.
	DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultLocalModelDir is where downloaded models are cached.
	DefaultLocalModelDir = "./models"
	// defaultLocalDimensions is the output dimension of all-MiniLM-L6-v2.
	defaultLocalDimensions = 384
)

// LocalConfig holds the settings for constructing a LocalEmbedder.
type LocalConfig struct {
	// Model is the Hugging Face model name (default: DefaultLocalModel).
	Model string
	// ModelDir is the on-disk model cache (default: DefaultLocalModelDir).
	ModelDir string
}

// LocalEmbedder runs a sentence-transformers model in-process with hugot's
// pure Go backend. The model is loaded at most once per embedder, either by
// an explicit Init at startup or lazily on the first Embed call. Inference is
// serialised; the pipeline is not documented as safe for concurrent runs.
type LocalEmbedder struct {
	model    string
	modelDir string

	once    sync.Once
	initErr error

	mu      sync.Mutex
	run     func(texts []string) ([][]float32, error)
	destroy func() error
}

// NewLocalEmbedder returns an unloaded LocalEmbedder. No I/O happens until
// Init or Embed is called.
func NewLocalEmbedder(cfg *LocalConfig) *LocalEmbedder {
	model := cfg.Model
	if model == "" {
		model = DefaultLocalModel
	}
	dir := cfg.ModelDir
	if dir == "" {
		dir = DefaultLocalModelDir
	}
	return &LocalEmbedder{model: model, modelDir: dir}
}

// Init downloads the model if needed and builds the feature-extraction
// pipeline. Repeated calls return the first call's result.
func (e *LocalEmbedder) Init(_ context.Context) error {
	e.once.Do(func() {
		e.initErr = e.load()
	})
	return e.initErr
}

func (e *LocalEmbedder) load() error {
	modelPath, err := prepareModel(e.model, e.modelDir)
	if err != nil {
		return err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("local embedder: create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "ragqa-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return fmt.Errorf("local embedder: create pipeline: %w (cleanup: %v)", err, destroyErr)
		}
		return fmt.Errorf("local embedder: create pipeline: %w", err)
	}

	e.run = func(texts []string) ([][]float32, error) {
		out, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}
	e.destroy = session.Destroy
	return nil
}

// Embed converts a batch of texts into their corresponding embeddings.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("local embedder: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return nil, errors.New("local embedder: closed")
	}
	vecs, err := e.run(texts)
	if err != nil {
		return nil, fmt.Errorf("local embedder: run pipeline: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("local embedder: expected %d embeddings, got %d", len(texts), len(vecs))
	}
	if err := checkVectors(vecs, 0); err != nil {
		return nil, fmt.Errorf("local embedder: %w", err)
	}
	return vecs, nil
}

// Ping loads the model, which is the only way the local backend can fail.
func (e *LocalEmbedder) Ping(ctx context.Context) error { return e.Init(ctx) }

// Name returns the backend label used by health reports.
func (e *LocalEmbedder) Name() string { return "local" }

// Close releases the hugot session. Closing is optional; the process may
// simply exit.
func (e *LocalEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroy == nil {
		return nil
	}
	err := e.destroy()
	e.run, e.destroy = nil, nil
	return err
}

// modelPath is the directory hugot.DownloadModel produces for name in dir.
func modelPath(name, dir string) string {
	return filepath.Join(dir, strings.ReplaceAll(name, "/", "_"))
}

// prepareModel returns the local path of the model, downloading it first
// when it is not already on disk.
func prepareModel(name, dir string) (string, error) {
	path := modelPath(name, dir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("local embedder: stat model dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("local embedder: create model dir: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(name, dir, opts)
	if err != nil {
		return "", fmt.Errorf("local embedder: download %s: %w", name, err)
	}
	return downloaded, nil
}
