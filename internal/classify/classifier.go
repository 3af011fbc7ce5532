// Package classify maps expense descriptions to categories.
//
// Ordered keyword rules run first; everything they do not claim goes to the
// trained statistical model. The model is loaded from the artifact store on
// first use, or trained from the corpus and saved when no usable artifact
// exists.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spendlens/internal/artifact"
	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/ml"

	"golang.org/x/sync/singleflight"
)

// Sources of a prediction.
const (
	SourceRule    = "rule"
	SourceModel   = "model"
	SourceDefault = "default"
)

// DefaultCategory is returned for empty descriptions and when no model can
// be obtained.
const DefaultCategory = core.CategoryUnknown

// Prediction is a classification with its provenance.
type Prediction struct {
	Category   core.Category `json:"category"`
	Confidence float64       `json:"confidence"`
	Source     string        `json:"source"`
	Rule       string        `json:"rule,omitempty"`
}

// TrainFunc fits a fresh model and reports how many examples it used.
type TrainFunc func(ctx context.Context) (ml.Model, int, error)

// Classifier is safe for concurrent use. Retrain holds the write lock, so it
// never overlaps a prediction.
type Classifier struct {
	rules []Rule
	store artifact.Store
	train TrainFunc
	log   *applog.Logger
	now   func() time.Time

	mu        sync.RWMutex
	model     ml.Model
	loaded    *ml.Artifact
	onRetrain []func()

	group singleflight.Group
}

// Option customises a Classifier.
type Option func(*Classifier)

func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// WithModel installs an already built model, skipping the lazy load.
func WithModel(m ml.Model) Option {
	return func(c *Classifier) { c.model = m }
}

// New builds a classifier backed by store and train. Either may be nil
// when WithModel is supplied.
func New(store artifact.Store, train TrainFunc, opts ...Option) *Classifier {
	c := &Classifier{
		rules: DefaultRules(),
		store: store,
		train: train,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = applog.NewLogger(applog.ComponentClassifier)
	}
	return c
}

// Normalize lowercases and trims a description the way every layer sees it.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify returns the category of description. It never fails.
func (c *Classifier) Classify(ctx context.Context, description string) core.Category {
	return c.Predict(ctx, description).Category
}

// Predict classifies description and reports how the answer was reached.
func (c *Classifier) Predict(ctx context.Context, description string) Prediction {
	text := Normalize(description)
	if text == "" {
		return Prediction{Category: DefaultCategory, Source: SourceDefault}
	}
	if r, ok := firstMatch(c.rules, text); ok {
		return Prediction{Category: r.Category, Confidence: 1, Source: SourceRule, Rule: r.Name}
	}

	cat, conf, err := c.predictModel(ctx, text)
	if err != nil {
		c.log.ErrorContext(ctx, "Statistical model unavailable", applog.FieldError, err)
		return Prediction{Category: DefaultCategory, Source: SourceDefault}
	}
	if !cat.Valid() {
		return Prediction{Category: DefaultCategory, Source: SourceDefault}
	}
	return Prediction{Category: cat, Confidence: conf, Source: SourceModel}
}

func (c *Classifier) predictModel(ctx context.Context, text string) (core.Category, float64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		c.mu.RLock()
		if m := c.model; m != nil {
			cat, conf := m.Predict(text)
			c.mu.RUnlock()
			return cat, conf, nil
		}
		c.mu.RUnlock()
		if err := c.Load(ctx); err != nil {
			return "", 0, err
		}
	}
	return "", 0, errors.New("model not loaded")
}

// Load makes a model available: the stored artifact when it is readable,
// otherwise a freshly trained one which is then saved. Concurrent callers
// share a single load. Loading an already loaded classifier is a no-op.
func (c *Classifier) Load(ctx context.Context) error {
	_, err, _ := c.group.Do("load", func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.model != nil {
			return nil, nil
		}
		return nil, c.loadLocked(ctx)
	})
	return err
}

func (c *Classifier) loadLocked(ctx context.Context) error {
	if c.store != nil {
		a, err := c.store.Load(ctx)
		if err == nil {
			m, merr := a.Model()
			if merr == nil {
				c.model, c.loaded = m, a
				c.log.InfoContext(ctx, "Classifier artifact loaded",
					applog.FieldModelKind, a.Kind,
					applog.FieldExamples, a.Examples)
				return nil
			}
			err = merr
		}
		if errors.Is(err, artifact.ErrNotFound) {
			c.log.InfoContext(ctx, "No classifier artifact, training")
		} else {
			c.log.WarnContext(ctx, "Classifier artifact unreadable, retraining", applog.FieldError, err)
		}
	}
	_, err := c.retrainLocked(ctx)
	return err
}

// Retrain fits a new model, saves it and swaps it in. Predictions wait
// until it finishes.
func (c *Classifier) Retrain(ctx context.Context) (*ml.Artifact, error) {
	c.mu.Lock()
	a, err := c.retrainLocked(ctx)
	hooks := append([]func(){}, c.onRetrain...)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		h()
	}
	return a, nil
}

func (c *Classifier) retrainLocked(ctx context.Context) (*ml.Artifact, error) {
	if c.train == nil {
		return nil, errors.New("classifier has no training function")
	}
	start := c.now()
	m, n, err := c.train(ctx)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}
	a, err := ml.NewArtifact(m, n, c.now())
	if err != nil {
		return nil, fmt.Errorf("snapshot classifier: %w", err)
	}
	if c.store != nil {
		// A model that cannot be saved is still served; the next cold start retrains.
		if err := c.store.Save(ctx, a); err != nil {
			c.log.ErrorContext(ctx, "Failed to save classifier artifact", applog.FieldError, err)
		}
	}
	c.model, c.loaded = m, a
	c.log.InfoContext(ctx, "Classifier trained",
		applog.FieldModelKind, m.Kind(),
		applog.FieldExamples, n,
		"duration", c.now().Sub(start))
	return a, nil
}

// OnRetrain registers fn to run after every successful Retrain.
func (c *Classifier) OnRetrain(fn func()) {
	c.mu.Lock()
	c.onRetrain = append(c.onRetrain, fn)
	c.mu.Unlock()
}

// Info describes the model currently served.
type Info struct {
	Loaded    bool      `json:"loaded"`
	Kind      string    `json:"kind,omitempty"`
	Examples  int       `json:"examples,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

func (c *Classifier) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return Info{}
	}
	info := Info{Loaded: true, Kind: c.model.Kind()}
	if c.loaded != nil {
		info.Examples = c.loaded.Examples
		info.TrainedAt = c.loaded.TrainedAt
	}
	return info
}
