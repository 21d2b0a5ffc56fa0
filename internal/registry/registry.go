// Package registry owns the lifecycle of the model and vectorizer
// artifacts: load once, validate, cache for the process lifetime, and
// hot-swap on explicit reload.
package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
)

// State tracks the registry lifecycle.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// LoadFunc loads the artifact pair from persistent storage. Implementations
// must return a core.ModelLoadError for missing or corrupt artifacts.
type LoadFunc func(ctx context.Context) (core.Vectorizer, core.Model, error)

var errNilArtifact = errors.New("artifact deserialized to an empty object")

// pair bundles the co-versioned artifacts so a reload swaps both with one
// pointer store, never field-by-field.
type pair struct {
	vectorizer core.Vectorizer
	model      core.Model
}

// Info is a point-in-time snapshot of the registry, safe to expose on
// health endpoints.
type Info struct {
	ModelLoaded      bool   `json:"model_loaded"`
	VectorizerLoaded bool   `json:"vectorizer_loaded"`
	ModelPath        string `json:"model_path"`
	VectorizerPath   string `json:"vectorizer_path"`
	Version          string `json:"model_version"`
	Engine           string `json:"engine"`
	State            string `json:"state"`
}

// Registry is the single authoritative holder of the (Model, Vectorizer)
// pair. It is constructed explicitly and injected into the predictor; there
// is no package-level instance. Load attempts are serialized; concurrent
// Get callers during a load observe exactly one attempt.
type Registry struct {
	load           LoadFunc
	logger         *zap.Logger
	modelPath      string
	vectorizerPath string
	version        string
	engine         string

	mu      sync.Mutex
	state   atomic.Int32
	current atomic.Pointer[pair]
}

// Options carries the artifact descriptors reported by Info.
type Options struct {
	ModelPath      string
	VectorizerPath string
	Version        string
	Engine         string
}

// New creates a registry in the Unloaded state.
func New(load LoadFunc, logger *zap.Logger, opts Options) *Registry {
	return &Registry{
		load:           load,
		logger:         logger,
		modelPath:      opts.ModelPath,
		vectorizerPath: opts.VectorizerPath,
		version:        opts.Version,
		engine:         opts.Engine,
	}
}

// Get returns the loaded pair, loading it on first use. It implements
// core.ArtifactProvider.
func (r *Registry) Get(ctx context.Context) (core.Vectorizer, core.Model, error) {
	if p := r.current.Load(); p != nil {
		return p.vectorizer, p.model, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.current.Load(); p != nil {
		return p.vectorizer, p.model, nil
	}
	if err := r.loadLocked(ctx); err != nil {
		return nil, nil, err
	}
	p := r.current.Load()
	return p.vectorizer, p.model, nil
}

// Load forces a synchronous load if the registry is still Unloaded. It is
// called at startup so the first request never pays the load cost.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Load() != nil {
		return nil
	}
	return r.loadLocked(ctx)
}

// loadLocked runs one load attempt. Caller holds r.mu.
func (r *Registry) loadLocked(ctx context.Context) error {
	r.state.Store(int32(StateLoading))
	r.logger.Info("Loading model artifacts",
		zap.String("model_path", r.modelPath),
		zap.String("vectorizer_path", r.vectorizerPath),
		zap.String("engine", r.engine))

	vectorizer, model, err := r.load(ctx)
	if err != nil {
		r.state.Store(int32(StateUnloaded))
		r.logger.Error("Model load failed",
			zap.String("model_path", r.modelPath),
			zap.String("vectorizer_path", r.vectorizerPath),
			zap.Error(err))
		if core.IsModelLoadError(err) {
			return err
		}
		return &core.ModelLoadError{Path: r.modelPath, Cause: err}
	}
	if vectorizer == nil || model == nil {
		r.state.Store(int32(StateUnloaded))
		return &core.ModelLoadError{Path: r.modelPath, Cause: errNilArtifact}
	}

	r.current.Store(&pair{vectorizer: vectorizer, model: model})
	r.state.Store(int32(StateLoaded))
	r.logger.Info("Model artifacts loaded", zap.String("version", r.version))
	return nil
}

// Reload discards the cached pair and re-executes the load. In-flight
// predictions keep whichever pair they already borrowed.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Reloading model artifacts")
	r.current.Store(nil)
	r.state.Store(int32(StateUnloaded))
	return r.loadLocked(ctx)
}

// Close releases the loaded artifacts. Backends that hold native sessions
// or remote connections expose Close; the rest are no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.current.Load()
	r.current.Store(nil)
	r.state.Store(int32(StateUnloaded))
	if p == nil {
		return nil
	}

	var firstErr error
	for _, artifact := range []interface{}{p.model, p.vectorizer} {
		if closer, ok := artifact.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Info reports the registry state without side effects.
func (r *Registry) Info() Info {
	loaded := r.current.Load() != nil
	return Info{
		ModelLoaded:      loaded,
		VectorizerLoaded: loaded,
		ModelPath:        r.modelPath,
		VectorizerPath:   r.vectorizerPath,
		Version:          r.version,
		Engine:           r.engine,
		State:            State(r.state.Load()).String(),
	}
}
