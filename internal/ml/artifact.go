package ml

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"spendlens/internal/core"
)

var ErrCorruptArtifact = errors.New("corrupt model artifact")

// Artifact is the persisted form of a trained model.
type Artifact struct {
	Kind      string
	Pipeline  *Pipeline
	Bayes     []byte
	Constant  core.Category
	Examples  int
	TrainedAt time.Time
}

// NewArtifact snapshots m.
func NewArtifact(m Model, examples int, trainedAt time.Time) (*Artifact, error) {
	a := &Artifact{Kind: m.Kind(), Examples: examples, TrainedAt: trainedAt}
	switch mm := m.(type) {
	case *Pipeline:
		a.Pipeline = mm
	case *Bayes:
		data, err := mm.encode()
		if err != nil {
			return nil, fmt.Errorf("encode bayes model: %w", err)
		}
		a.Bayes = data
	case *Constant:
		a.Constant = mm.Category
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, m)
	}
	return a, nil
}

// Model rebuilds the model held by a.
func (a *Artifact) Model() (Model, error) {
	switch a.Kind {
	case KindSGD:
		p := a.Pipeline
		if p == nil || p.Vectorizer == nil || p.Linear == nil || len(p.Classes) == 0 ||
			len(p.Linear.Weights) != len(p.Classes) {
			return nil, ErrCorruptArtifact
		}
		for _, w := range p.Linear.Weights {
			if len(w) != p.Vectorizer.Dim() {
				return nil, ErrCorruptArtifact
			}
		}
		return p, nil
	case KindBayes:
		m, err := decodeBayes(a.Bayes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
		}
		return m, nil
	case KindConstant:
		if !a.Constant.Valid() {
			return nil, ErrCorruptArtifact
		}
		return &Constant{Category: a.Constant}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}

// Encode serializes a with encoding/gob.
func (a *Artifact) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeArtifact is the inverse of Encode.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return &a, nil
}
