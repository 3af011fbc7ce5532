package ml

import (
	"bytes"
	"fmt"
	"math"

	"spendlens/internal/core"

	"github.com/jbrukh/bayesian"
)

// Bayes is a TF-IDF naive Bayes model over the same character n-grams as
// Pipeline.
type Bayes struct {
	cl      *bayesian.Classifier
	classes []core.Category
}

func trainBayes(texts []string, labels []core.Category, classes []core.Category) (m *Bayes, err error) {
	// The library panics on invalid class sets; surface that as an error.
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("bayes training: %v", r)
		}
	}()
	bc := make([]bayesian.Class, len(classes))
	for i, c := range classes {
		bc[i] = bayesian.Class(c)
	}
	cl := bayesian.NewClassifierTfIdf(bc...)
	for i, t := range texts {
		cl.Learn(CharNGrams(t, MinGram, MaxGram), bayesian.Class(labels[i]))
	}
	cl.ConvertTermsFreqToTfIdf()
	return &Bayes{cl: cl, classes: classes}, nil
}

func (b *Bayes) Kind() string { return KindBayes }

func (b *Bayes) Predict(text string) (core.Category, float64) {
	scores, best, _ := b.cl.LogScores(CharNGrams(text, MinGram, MaxGram))
	// Softmax over log scores for a comparable confidence.
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}
	return core.Category(b.cl.Classes[best]), 1 / sum
}

func (b *Bayes) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.cl.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBayes(data []byte) (*Bayes, error) {
	cl, err := bayesian.NewClassifierFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	classes := make([]core.Category, len(cl.Classes))
	for i, c := range cl.Classes {
		classes[i] = core.Category(c)
	}
	return &Bayes{cl: cl, classes: classes}, nil
}
