// Package services orchestrates the expense workflows: free text and
// receipts go through parsing and classification, land in storage, and are
// announced for export.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"spendlens/internal/amqp"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/segment"
	"spendlens/internal/storage"
)

// ErrNothingParsed means the input held no usable (description, amount) pair.
var ErrNothingParsed = errors.New("could not understand any expense in the input")

// Classifier is the prediction surface the services need.
type Classifier interface {
	Predict(ctx context.Context, description string) classify.Prediction
}

// ExportPublisher announces stored expenses.
type ExportPublisher interface {
	PublishExpenseExport(ctx context.Context, queue string, msg *amqp.ExpenseExportMessage) error
}

// ExpenseService saves first and publishes after; a failed publish never
// fails the request.
type ExpenseService struct {
	store       storage.Store
	classifier  Classifier
	publisher   ExportPublisher
	exportQueue string
	log         *applog.Logger
	now         func() time.Time
}

type Option func(*ExpenseService)

// WithPublisher enables export events on queue.
func WithPublisher(p ExportPublisher, queue string) Option {
	return func(s *ExpenseService) {
		s.publisher = p
		s.exportQueue = queue
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.log = l }
}

func NewExpenseService(store storage.Store, classifier Classifier, opts ...Option) *ExpenseService {
	s := &ExpenseService{store: store, classifier: classifier, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = applog.NewLogger(applog.ComponentExpense)
	}
	return s
}

// AddFromText segments raw, classifies every item and stores them all with
// the same timestamp. backdate ("YYYY-MM-DD", optional) moves the day.
func (s *ExpenseService) AddFromText(ctx context.Context, userID int64, raw, backdate string) ([]core.Expense, error) {
	if userID <= 0 {
		return nil, core.ErrInvalidUser
	}
	spentAt, err := core.ResolveSpentAt(s.now(), backdate)
	if err != nil {
		return nil, err
	}

	items := segment.Parse(raw)
	created := make([]core.Expense, 0, len(items))
	for _, it := range items {
		e, err := s.add(ctx, userID, it.Description, it.Amount, "", spentAt)
		if err != nil {
			if isInputError(err) {
				s.log.DebugContext(ctx, "Skipping unusable item",
					applog.FieldUserID, userID, applog.FieldError, err)
				continue
			}
			return created, err
		}
		created = append(created, e)
	}
	if len(created) == 0 {
		return nil, ErrNothingParsed
	}

	s.log.Op(ctx, applog.OpParse, "Expenses added from text",
		applog.NewFields().WithUser(userID).With(applog.FieldItems, len(created)), nil)
	return created, nil
}

// AddItem stores one expense. An empty category is classified from the
// description.
func (s *ExpenseService) AddItem(ctx context.Context, userID int64, description string, amount core.Money, category string, when time.Time) (core.Expense, error) {
	if when.IsZero() {
		when = s.now()
	}
	return s.add(ctx, userID, description, amount, category, when.Truncate(time.Second))
}

func (s *ExpenseService) add(ctx context.Context, userID int64, description string, amount core.Money, category string, when time.Time) (core.Expense, error) {
	description = truncate(strings.TrimSpace(description), core.MaxDescriptionLen)
	cat, err := s.resolveCategory(ctx, description, category)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		UserID:      userID,
		Description: description,
		Amount:      amount,
		Category:    cat,
		SpentAt:     when,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publishExport(ctx, saved)
	return saved, nil
}

func (s *ExpenseService) resolveCategory(ctx context.Context, description, category string) (core.Category, error) {
	if strings.TrimSpace(category) != "" {
		return core.ParseCategory(category)
	}
	if description == "" {
		return core.CategoryUnknown, nil
	}
	return s.classifier.Predict(ctx, description).Category, nil
}

func (s *ExpenseService) publishExport(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseExport(ctx, s.exportQueue, amqp.NewExpenseExportMessage(e.ID, e.UserID)); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish export event",
			applog.FieldExpenseID, e.ID, applog.FieldError, err)
	}
}

// Update rewrites description, amount and category of an owned expense.
// An empty category is classified again from the new description.
func (s *ExpenseService) Update(ctx context.Context, userID, id int64, description string, amount core.Money, category string) (core.Expense, error) {
	description = strings.TrimSpace(description)
	cat, err := s.resolveCategory(ctx, description, category)
	if err != nil {
		return core.Expense{}, err
	}
	updated, err := s.store.Update(ctx, core.Expense{
		ID:          id,
		UserID:      userID,
		Description: description,
		Amount:      amount,
		Category:    cat,
	})
	if err != nil {
		return core.Expense{}, err
	}
	s.log.Op(ctx, applog.OpUpdate, "Expense updated",
		applog.NewFields().WithUser(userID).WithExpense(description, amount.Cents, cat.String()), nil)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.Delete(ctx, id, userID)
}

func (s *ExpenseService) Get(ctx context.Context, userID, id int64) (core.Expense, error) {
	return s.store.Get(ctx, id, userID)
}

// List returns the user's expenses, newest first. An empty month lists all.
func (s *ExpenseService) List(ctx context.Context, userID int64, month string) ([]core.Expense, error) {
	return s.store.List(ctx, userID, month)
}

// ResetAccount deletes every expense of the user.
func (s *ExpenseService) ResetAccount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, core.ErrInvalidUser
	}
	n, err := s.store.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Op(ctx, applog.OpReset, "Account reset",
		applog.NewFields().WithUser(userID).With("deleted", n), nil)
	return n, nil
}

// CategoryHistory is one category's records and their sum.
type CategoryHistory struct {
	Category core.Category  `json:"category"`
	Total    core.Money     `json:"total"`
	Expenses []core.Expense `json:"expenses"`
}

// History groups all of the user's records by category in category order,
// each group newest first.
func (s *ExpenseService) History(ctx context.Context, userID int64) ([]CategoryHistory, error) {
	all, err := s.store.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	groups := make(map[core.Category]*CategoryHistory)
	for _, e := range all {
		g, ok := groups[e.Category]
		if !ok {
			g = &CategoryHistory{Category: e.Category}
			groups[e.Category] = g
		}
		g.Total = g.Total.Add(e.Amount)
		g.Expenses = append(g.Expenses, e)
	}

	out := make([]CategoryHistory, 0, len(groups))
	for _, cat := range core.AllCategories() {
		g, ok := groups[cat]
		if !ok {
			continue
		}
		sort.Slice(g.Expenses, func(i, j int) bool {
			a, b := g.Expenses[i], g.Expenses[j]
			if !a.SpentAt.Equal(b.SpentAt) {
				return a.SpentAt.After(b.SpentAt)
			}
			return a.ID > b.ID
		})
		out = append(out, *g)
	}
	return out, nil
}

func isInputError(err error) bool {
	return errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrDescriptionTooLong)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return strings.TrimSpace(s[:max])
}
