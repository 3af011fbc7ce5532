package classify

import (
	"context"

	"spendlens/internal/corpus"
	"spendlens/internal/ml"
)

// CorpusTrainer trains on a fixed set of examples.
func CorpusTrainer(examples []corpus.Example, opts ml.TrainOptions) TrainFunc {
	texts, labels := corpus.Split(examples)
	return func(ctx context.Context) (ml.Model, int, error) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		m, err := ml.Train(texts, labels, opts)
		if err != nil {
			return nil, 0, err
		}
		return m, len(texts), nil
	}
}
