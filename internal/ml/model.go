// Package ml holds the statistical layer of the expense classifier: a
// character n-gram TF-IDF vectorizer, a modified-huber linear model trained
// with SGD, an alternative naive Bayes model, and the serializable artifact
// bundling whichever was trained.
package ml

import (
	"errors"
	"fmt"
	"strings"

	"spendlens/internal/core"
)

// Kinds of statistical model.
const (
	KindSGD      = "sgd"
	KindBayes    = "bayes"
	KindConstant = "constant"
)

// Character n-gram range shared by every model kind.
const (
	MinGram = 2
	MaxGram = 5
)

var (
	ErrNoExamples    = errors.New("no training examples")
	ErrLabelMismatch = errors.New("texts and labels differ in length")
	ErrUnknownKind   = errors.New("unknown model kind")
)

// Model predicts a category for an already lowercased, trimmed description.
type Model interface {
	Predict(text string) (core.Category, float64)
	Kind() string
}

// TrainOptions selects the model kind and tunes SGD.
type TrainOptions struct {
	Kind string
	SGD  SGDOptions
}

// Train fits a model of opts.Kind. A corpus with a single label yields a
// constant model instead of failing.
func Train(texts []string, labels []core.Category, opts TrainOptions) (Model, error) {
	if len(texts) == 0 {
		return nil, ErrNoExamples
	}
	if len(texts) != len(labels) {
		return nil, ErrLabelMismatch
	}
	classes, idx := indexLabels(labels)
	if len(classes) == 1 {
		return &Constant{Category: classes[0]}, nil
	}

	switch strings.ToLower(opts.Kind) {
	case "", KindSGD:
		return trainPipeline(texts, idx, classes, opts.SGD), nil
	case KindBayes:
		return trainBayes(texts, labels, classes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}

// indexLabels returns the distinct labels in first-seen order and the
// class index of each example.
func indexLabels(labels []core.Category) ([]core.Category, []int) {
	pos := make(map[core.Category]int)
	var classes []core.Category
	idx := make([]int, len(labels))
	for i, l := range labels {
		k, ok := pos[l]
		if !ok {
			k = len(classes)
			pos[l] = k
			classes = append(classes, l)
		}
		idx[i] = k
	}
	return classes, idx
}

// Pipeline is the default model: TF-IDF features into a linear classifier.
type Pipeline struct {
	Vectorizer *Vectorizer
	Linear     *Linear
	Classes    []core.Category
}

func trainPipeline(texts []string, idx []int, classes []core.Category, opts SGDOptions) *Pipeline {
	v := NewVectorizer(MinGram, MaxGram)
	v.Fit(texts)
	X := make([]Vector, len(texts))
	for i, t := range texts {
		X[i] = v.Transform(t)
	}
	return &Pipeline{
		Vectorizer: v,
		Linear:     TrainSGD(X, idx, len(classes), v.Dim(), opts),
		Classes:    classes,
	}
}

func (p *Pipeline) Kind() string { return KindSGD }

// Predict returns the highest scoring class and its probability.
func (p *Pipeline) Predict(text string) (core.Category, float64) {
	scores := p.Linear.Decision(p.Vectorizer.Transform(text))
	best := argmax(scores)
	return p.Classes[best], Proba(scores)[best]
}

// Constant always predicts one category. It stands in for degenerate corpora.
type Constant struct {
	Category core.Category
}

func (c *Constant) Kind() string { return KindConstant }

func (c *Constant) Predict(string) (core.Category, float64) { return c.Category, 1 }
