// Package assistant answers chat messages about a user's spending with
// canned replies. Intents are picked by keyword membership, checked in a
// fixed order; the first matching intent answers.
package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

// Intent names.
const (
	IntentGreeting      = "greeting"
	IntentThanks        = "thanks"
	IntentTotal         = "total"
	IntentCategoryTotal = "category_total"
	IntentForecast      = "forecast"
	IntentAnomaly       = "anomaly"
	IntentAnalysis      = "analysis"
	IntentHelp          = "help"
)

// Insights is the analytics surface the assistant reads.
type Insights interface {
	MonthlyTotal(ctx context.Context, userID int64) (core.Money, error)
	CategoryBreakdown(ctx context.Context, userID int64) (map[core.Category]core.Money, error)
	DailySpending(ctx context.Context, userID int64) ([]analytics.DailyAmount, error)
	Anomalies(ctx context.Context, userID int64) ([]core.Expense, error)
}

// Reply is the assistant's answer and the intent that produced it.
type Reply struct {
	Intent string `json:"intent"`
	Text   string `json:"reply"`
}

var (
	greetingWords   = []string{"hi", "hello", "hey", "salam"}
	thanksPhrases   = []string{"thank", "thanks", "good job"}
	totalPhrases    = []string{"total", "spent", "spending", "how much", "cost"}
	categoryTrigger = []string{"food", "transport", "travel", "utility", "bills", "shopping", "health", "education", "gift", "donation"}
	forecastPhrases = []string{"predict", "next month", "forecast"}
	anomalyPhrases  = []string{"weird", "anomaly", "strange"}
	analysisPhrases = []string{"analyze", "advice", "audit", "save", "review", "report", "suggestion"}
)

// categoryKeywords resolve a category query; the first key found wins.
var categoryKeywords = []struct {
	key string
	cat core.Category
}{
	{"food", core.CategoryFood},
	{"mess", core.CategoryFood},
	{"transport", core.CategoryTransport},
	{"travel", core.CategoryTransport},
	{"careem", core.CategoryTransport},
	{"fuel", core.CategoryTransport},
	{"bill", core.CategoryHousing},
	{"util", core.CategoryHousing},
	{"shop", core.CategoryShopping},
	{"health", core.CategoryHealth},
	{"edu", core.CategoryEducation},
	{"book", core.CategoryEducation},
	{"gift", core.CategoryGifts},
	{"donation", core.CategoryGifts},
}

const helpText = "I am your budget assistant. Ask me things like:\n" +
	"- 'How much did I spend on food?'\n" +
	"- 'Predict my spending'\n" +
	"- 'Analyze my budget'"

// Router dispatches messages to intents.
type Router struct {
	insights Insights
	currency string
}

func NewRouter(insights Insights, currency string) *Router {
	if currency == "" {
		currency = "PKR"
	}
	return &Router{insights: insights, currency: currency}
}

// Classify returns the intent of message without answering it.
func Classify(message string) string {
	text := strings.ToLower(message)
	switch {
	case hasWord(text, greetingWords):
		return IntentGreeting
	case containsAny(text, thanksPhrases):
		return IntentThanks
	case containsAny(text, totalPhrases):
		if containsAny(text, categoryTrigger) {
			return IntentCategoryTotal
		}
		return IntentTotal
	case containsAny(text, forecastPhrases):
		return IntentForecast
	case containsAny(text, anomalyPhrases):
		return IntentAnomaly
	case containsAny(text, analysisPhrases):
		return IntentAnalysis
	default:
		return IntentHelp
	}
}

// Reply answers message for the given user.
func (r *Router) Reply(ctx context.Context, userID int64, username, message string) (Reply, error) {
	if username == "" {
		username = "there"
	}
	intent := Classify(message)
	var (
		text string
		err  error
	)
	switch intent {
	case IntentGreeting:
		text = fmt.Sprintf("Hello %s! How can I help you manage your budget today?", username)
	case IntentThanks:
		text = "You're welcome! Happy to help."
	case IntentTotal:
		text, err = r.total(ctx, userID)
	case IntentCategoryTotal:
		text, err = r.categoryTotal(ctx, userID, strings.ToLower(message))
	case IntentForecast:
		text, err = r.forecast(ctx, userID)
	case IntentAnomaly:
		text, err = r.anomalies(ctx, userID)
	case IntentAnalysis:
		text, err = r.analysis(ctx, userID, username)
	default:
		text = helpText
	}
	if err != nil {
		return Reply{}, fmt.Errorf("assistant %s: %w", intent, err)
	}
	return Reply{Intent: intent, Text: text}, nil
}

func (r *Router) total(ctx context.Context, userID int64) (string, error) {
	total, err := r.insights.MonthlyTotal(ctx, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You have spent a total of **%s %s** this month.", r.currency, total), nil
}

func (r *Router) categoryTotal(ctx context.Context, userID int64, text string) (string, error) {
	var target core.Category
	for _, k := range categoryKeywords {
		if strings.Contains(text, k.key) {
			target = k.cat
			break
		}
	}
	if target == "" {
		return "I couldn't identify the category. Try checking your dashboard.", nil
	}
	breakdown, err := r.insights.CategoryBreakdown(ctx, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You have spent **%s %s** on %s.", r.currency, breakdown[target], target), nil
}

func (r *Router) projected(ctx context.Context, userID int64) (core.Money, error) {
	daily, err := r.insights.DailySpending(ctx, userID)
	if err != nil {
		return core.Money{}, err
	}
	return analytics.Forecast(daily), nil
}

func (r *Router) forecast(ctx context.Context, userID int64) (string, error) {
	p, err := r.projected(ctx, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Based on your current trend, I predict you will spend around **%s %s** next month.", r.currency, p), nil
}

func (r *Router) anomalies(ctx context.Context, userID int64) (string, error) {
	found, err := r.insights.Anomalies(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "Everything looks normal! No anomalies detected.", nil
	}
	lines := []string{"I found these unusual transactions:"}
	for _, e := range found {
		lines = append(lines, analytics.AnomalyMessage(e, r.currency))
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) analysis(ctx context.Context, userID int64, username string) (string, error) {
	breakdown, err := r.insights.CategoryBreakdown(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(breakdown) == 0 {
		return "I need more data to analyze your spending habits! Start adding expenses.", nil
	}
	total, err := r.insights.MonthlyTotal(ctx, userID)
	if err != nil {
		return "", err
	}
	forecast, err := r.projected(ctx, userID)
	if err != nil {
		return "", err
	}
	anomalies, err := r.insights.Anomalies(ctx, userID)
	if err != nil {
		return "", err
	}

	top, topAmount := topCategory(breakdown)
	pct := 0
	if total.Cents > 0 {
		pct = int(topAmount.Cents * 100 / total.Cents)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Financial Health Report for %s**\n\n", username)
	fmt.Fprintf(&b, "You have spent **%s %s** so far. Based on your current pace, I forecast you'll hit **%s %s** by next month.\n\n",
		r.currency, total, r.currency, forecast)
	fmt.Fprintf(&b, "**Key Insight:** Your biggest expense is **%s** (%d%% of total). ", top, pct)
	switch {
	case top == core.CategoryFood && pct > 40:
		b.WriteString("You are spending a lot on eating out. Try cooking at home to save ~15%.\n")
	case top == core.CategoryTransport && pct > 30:
		b.WriteString("Transport costs are high. Consider carpooling or using public transport?\n")
	default:
		b.WriteString("Consider setting a strict budget for this category.\n")
	}
	if len(anomalies) > 0 {
		fmt.Fprintf(&b, "\n**Watch Out:** I found %d unusual transactions. Check the dashboard.", len(anomalies))
	}
	b.WriteString("\n\n**Recommendation:** Try the '50-30-20 Rule'. Allocate 50% to Needs, 30% to Wants, and 20% to Savings.")
	return b.String(), nil
}

// topCategory picks the largest spend; ties go to the earlier category.
func topCategory(breakdown map[core.Category]core.Money) (core.Category, core.Money) {
	cats := make([]core.Category, 0, len(breakdown))
	for c := range breakdown {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if breakdown[cats[i]].Cents != breakdown[cats[j]].Cents {
			return breakdown[cats[i]].Cents > breakdown[cats[j]].Cents
		}
		return cats[i].Position() < cats[j].Position()
	})
	return cats[0], breakdown[cats[0]]
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// hasWord matches whole words only, so "this" is not a greeting.
func hasWord(text string, words []string) bool {
	tokens := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}
