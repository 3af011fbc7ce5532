package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	"spendlens/internal/storage"
)

// keywordClassifier stands in for the trained classifier.
type keywordClassifier struct{}

func (keywordClassifier) Predict(_ context.Context, desc string) classify.Prediction {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "pizza"), strings.Contains(d, "oil"), strings.Contains(d, "burger"), strings.Contains(d, "fries"):
		return classify.Prediction{Category: core.CategoryFood, Source: classify.SourceModel}
	case strings.Contains(d, "uber"), strings.Contains(d, "petrol"):
		return classify.Prediction{Category: core.CategoryTransport, Source: classify.SourceModel}
	default:
		return classify.Prediction{Category: core.CategoryShopping, Source: classify.SourceModel}
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	msgs  []*amqp.ExpenseExportMessage
	queue string
	err   error
}

func (p *recordingPublisher) PublishExpenseExport(_ context.Context, queue string, msg *amqp.ExpenseExportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = queue
	p.msgs = append(p.msgs, msg)
	return p.err
}

var fixedNow = time.Date(2025, 3, 10, 14, 30, 15, 500, time.Local)

func newService(t *testing.T, opts ...Option) (*ExpenseService, *storage.MemoryRepository) {
	t.Helper()
	store := storage.NewMemory()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewExpenseService(store, keywordClassifier{}, opts...), store
}

func TestAddFromText_MultipleItems(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, WithPublisher(pub, "expense_exports"))

	got, err := svc.AddFromText(context.Background(), 1, "pizza 700 cooking oil 700 cigs 150", "")
	if err != nil {
		t.Fatalf("AddFromText: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []struct {
		desc  string
		cents int64
		cat   core.Category
	}{
		{"pizza", 70000, core.CategoryFood},
		{"cooking oil", 70000, core.CategoryFood},
		{"cigs", 15000, core.CategoryShopping},
	}
	for i, w := range want {
		if got[i].Description != w.desc || got[i].Amount.Cents != w.cents || got[i].Category != w.cat {
			t.Errorf("item %d = %+v, want %+v", i, got[i], w)
		}
		if !got[i].SpentAt.Equal(fixedNow.Truncate(time.Second)) {
			t.Errorf("item %d SpentAt = %v", i, got[i].SpentAt)
		}
	}
	if len(pub.msgs) != 3 || pub.queue != "expense_exports" {
		t.Errorf("published %d messages to %q", len(pub.msgs), pub.queue)
	}
	if pub.msgs[0].ID != got[0].ID || pub.msgs[0].UserID != 1 {
		t.Errorf("first message = %+v", pub.msgs[0])
	}
}

func TestAddFromText_Backdate(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.AddFromText(context.Background(), 1, "Uber 500", "2025-01-15")
	if err != nil {
		t.Fatalf("AddFromText: %v", err)
	}
	if ts := core.FormatTimestamp(got[0].SpentAt); ts != "2025-01-15 14:30:15" {
		t.Errorf("SpentAt = %s", ts)
	}

	if _, err := svc.AddFromText(context.Background(), 1, "Uber 500", "15/01/2025"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("bad backdate: err = %v", err)
	}
}

func TestAddFromText_NothingParsed(t *testing.T) {
	svc, store := newService(t)
	for _, raw := range []string{"just text no numbers", "", "   "} {
		if _, err := svc.AddFromText(context.Background(), 1, raw, ""); !errors.Is(err, ErrNothingParsed) {
			t.Errorf("%q: err = %v, want ErrNothingParsed", raw, err)
		}
	}
	all, _ := store.List(context.Background(), 1, "")
	if len(all) != 0 {
		t.Errorf("stored %d expenses", len(all))
	}
}

func TestAddFromText_InvalidUser(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.AddFromText(context.Background(), 0, "Uber 500", ""); !errors.Is(err, core.ErrInvalidUser) {
		t.Errorf("err = %v", err)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(t, WithPublisher(pub, "q"))
	got, err := svc.AddFromText(context.Background(), 1, "Uber 500", "")
	if err != nil || len(got) != 1 {
		t.Fatalf("AddFromText = %v, %v", got, err)
	}
}

func TestAddItem_ExplicitCategory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	e, err := svc.AddItem(ctx, 1, "gym membership", core.Money{Cents: 300000}, "health & fitness", time.Time{})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if e.Category != core.CategoryHealth {
		t.Errorf("Category = %s", e.Category)
	}

	if _, err := svc.AddItem(ctx, 1, "gym", core.Money{Cents: 100}, "Sports", time.Time{}); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("unknown category: err = %v", err)
	}

	long := strings.Repeat("a", 300)
	e, err = svc.AddItem(ctx, 1, long, core.Money{Cents: 100}, "", time.Time{})
	if err != nil {
		t.Fatalf("long description: %v", err)
	}
	if len(e.Description) != core.MaxDescriptionLen {
		t.Errorf("description not truncated: %d", len(e.Description))
	}
}

func TestUpdateReclassifies(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.AddFromText(ctx, 1, "shirt 2000", "")
	if err != nil {
		t.Fatal(err)
	}
	id := created[0].ID

	up, err := svc.Update(ctx, 1, id, "petrol", core.Money{Cents: 500000}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Category != core.CategoryTransport || up.Amount.Cents != 500000 {
		t.Errorf("Update = %+v", up)
	}

	if _, err := svc.Update(ctx, 2, id, "petrol", core.Money{Cents: 1}, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("other user: err = %v", err)
	}
	if _, err := svc.Update(ctx, 1, id, "petrol", core.Money{}, ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero amount: err = %v", err)
	}
}

func TestHistoryGroupsInCategoryOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, in := range []struct{ raw, day string }{
		{"shirt 2000", "2025-03-01"},
		{"uber 300", "2025-03-02"},
		{"pizza 700", "2025-03-01"},
		{"burger 450", "2025-03-05"},
	} {
		if _, err := svc.AddFromText(ctx, 1, in.raw, in.day); err != nil {
			t.Fatal(err)
		}
	}

	h, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h) != 3 {
		t.Fatalf("groups = %d, want 3", len(h))
	}
	if h[0].Category != core.CategoryFood || h[1].Category != core.CategoryTransport || h[2].Category != core.CategoryShopping {
		t.Errorf("group order = %s, %s, %s", h[0].Category, h[1].Category, h[2].Category)
	}
	if h[0].Total.Cents != 115000 {
		t.Errorf("food total = %s", h[0].Total)
	}
	if h[0].Expenses[0].Description != "burger" {
		t.Errorf("food group not newest first: %s", h[0].Expenses[0].Description)
	}
}

func TestResetAccount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.AddFromText(ctx, 1, "pizza 700 uber 300", "")
	svc.AddFromText(ctx, 2, "pizza 700", "")

	n, err := svc.ResetAccount(ctx, 1)
	if err != nil || n != 2 {
		t.Fatalf("ResetAccount = %d, %v", n, err)
	}
	left, _ := svc.List(ctx, 2, "")
	if len(left) != 1 {
		t.Errorf("other user affected: %d left", len(left))
	}
	if _, err := svc.ResetAccount(ctx, 0); !errors.Is(err, core.ErrInvalidUser) {
		t.Errorf("err = %v", err)
	}
}

func TestGetAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, _ := svc.AddFromText(ctx, 1, "pizza 700", "")
	id := created[0].ID

	if _, err := svc.Get(ctx, 1, id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := svc.Delete(ctx, 2, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete other user: %v", err)
	}
	if err := svc.Delete(ctx, 1, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, 1, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}
