package classify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spendlens/internal/artifact"
	"spendlens/internal/core"
	"spendlens/internal/corpus"
	"spendlens/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel answers every description with one category and counts calls.
type stubModel struct {
	cat   core.Category
	calls atomic.Int64
}

func (s *stubModel) Predict(string) (core.Category, float64) {
	s.calls.Add(1)
	return s.cat, 0.5
}

func (s *stubModel) Kind() string { return "stub" }

func TestOilRulesOverrideModel(t *testing.T) {
	stub := &stubModel{cat: core.CategoryEducation}
	c := New(nil, nil, WithModel(stub))
	ctx := context.Background()

	vehicle := []string{
		"engine oil", "Mobil oil 4L", "car oil", "bike oil", "brake oil",
		"oil change", "oil filter", "Zong oil", "cooking oil for the car",
	}
	for _, d := range vehicle {
		assert.Equal(t, core.CategoryTransport, c.Classify(ctx, d), d)
	}

	food := []string{"oil", "olive oil", "Dalda OIL 5 litre", "mustard oil"}
	for _, d := range food {
		assert.Equal(t, core.CategoryFood, c.Classify(ctx, d), d)
	}
	assert.Zero(t, stub.calls.Load(), "rules must short-circuit the model")

	p := c.Predict(ctx, "cooking oil")
	assert.Equal(t, SourceModel, p.Source)
	assert.Equal(t, core.CategoryEducation, p.Category)
}

func TestEmptyDescriptionDefaults(t *testing.T) {
	stub := &stubModel{cat: core.CategoryShopping}
	c := New(nil, nil, WithModel(stub))
	for _, d := range []string{"", "   ", "\t\n"} {
		p := c.Predict(context.Background(), d)
		assert.Equal(t, DefaultCategory, p.Category)
		assert.Equal(t, SourceDefault, p.Source)
	}
	assert.Zero(t, stub.calls.Load())
}

func TestInvalidModelOutputFallsBack(t *testing.T) {
	c := New(nil, nil, WithModel(&stubModel{cat: "Groceries"}))
	assert.Equal(t, DefaultCategory, c.Classify(context.Background(), "milk"))
}

func TestLazyTrainSavesArtifact(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemoryStore()
	var trainings atomic.Int64
	train := func(ctx context.Context) (ml.Model, int, error) {
		trainings.Add(1)
		return &ml.Constant{Category: core.CategoryHealth}, 1, nil
	}
	c := New(store, train)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, core.CategoryHealth, c.Classify(ctx, "panadol"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), trainings.Load(), "concurrent first use must train once")

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ml.KindConstant, saved.Kind)

	// A second process loads the artifact instead of training.
	c2 := New(store, func(context.Context) (ml.Model, int, error) {
		t.Fatal("must not retrain when an artifact exists")
		return nil, 0, nil
	})
	assert.Equal(t, core.CategoryHealth, c2.Classify(ctx, "panadol"))
	assert.True(t, c2.Info().Loaded)
}

func TestCorruptArtifactRetrains(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemoryStore()
	store.Corrupt([]byte("garbage"))
	c := New(store, func(context.Context) (ml.Model, int, error) {
		return &ml.Constant{Category: core.CategoryGifts}, 1, nil
	})
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, core.CategoryGifts, c.Classify(ctx, "eidi"))
}

func TestTrainingFailureDegradesToDefault(t *testing.T) {
	c := New(artifact.NewMemoryStore(), func(context.Context) (ml.Model, int, error) {
		return nil, 0, errors.New("corpus missing")
	})
	p := c.Predict(context.Background(), "pizza")
	assert.Equal(t, DefaultCategory, p.Category)
	assert.Equal(t, SourceDefault, p.Source)
	assert.Error(t, c.Load(context.Background()))
}

func TestRetrainSwapsModelAndFlushesMemo(t *testing.T) {
	ctx := context.Background()
	next := core.CategoryFood
	c := New(artifact.NewMemoryStore(), func(context.Context) (ml.Model, int, error) {
		return &ml.Constant{Category: next}, 1, nil
	})
	cached := NewCached(c, 16, time.Minute)

	assert.Equal(t, core.CategoryFood, cached.Classify(ctx, "thing"))
	assert.Equal(t, 1, cached.Memo().Size())

	next = core.CategoryEntertainment
	a, err := c.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, ml.KindConstant, a.Kind)
	assert.Equal(t, 0, cached.Memo().Size())
	assert.Equal(t, core.CategoryEntertainment, cached.Classify(ctx, "thing"))
}

func TestCorpusModelEndToEnd(t *testing.T) {
	examples, err := corpus.Default()
	require.NoError(t, err)
	c := New(artifact.NewMemoryStore(), CorpusTrainer(examples, ml.TrainOptions{Kind: ml.KindSGD}))
	ctx := context.Background()

	cases := map[string]core.Category{
		"biryani":          core.CategoryFood,
		"careem":           core.CategoryTransport,
		"electricity bill": core.CategoryHousing,
		"zong package":     core.CategoryMobile,
		"shoes":            core.CategoryShopping,
		"pharmacy":         core.CategoryHealth,
		"school fee":       core.CategoryEducation,
		"netflix":          core.CategoryEntertainment,
		"zakat":            core.CategoryGifts,
		"bank charges":     core.CategoryFinancial,
	}
	for desc, want := range cases {
		assert.Equal(t, want, c.Classify(ctx, desc), desc)
	}
	// every answer is a member of the category set
	for _, d := range []string{"qwerty", "x", "a very long description of nothing"} {
		assert.True(t, c.Classify(ctx, d).Valid(), d)
	}
}

// hookModel runs during before answering, to interleave work with a prediction.
type hookModel struct {
	cat    core.Category
	during func()
}

func (h *hookModel) Predict(string) (core.Category, float64) {
	if h.during != nil {
		h.during()
	}
	return h.cat, 0.5
}

func (h *hookModel) Kind() string { return "hook" }

func TestPredictionStraddlingRetrainIsNotMemoised(t *testing.T) {
	ctx := context.Background()
	m := &hookModel{cat: core.CategoryFood}
	cached := NewCached(New(nil, nil, WithModel(m)), 16, time.Minute)

	// A retrain completes while the old model is still answering.
	m.during = cached.invalidate
	assert.Equal(t, core.CategoryFood, cached.Classify(ctx, "thing"))
	assert.Equal(t, 0, cached.Memo().Size(), "stale prediction must not outlive the retrain")

	m.during = nil
	assert.Equal(t, core.CategoryFood, cached.Classify(ctx, "thing"))
	assert.Equal(t, 1, cached.Memo().Size())
}
