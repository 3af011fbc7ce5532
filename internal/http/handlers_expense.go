package http

import (
	"net/http"
	"strings"

	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/segment"
)

type textRequest struct {
	Text string `json:"text"`
}

// handleParse previews how free text would be split into items.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := segment.Parse(sanitizeInput(req.Text))
	if items == nil {
		items = []core.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type classifyRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	desc := sanitizeInput(req.Description)
	if desc == "" {
		writeError(w, http.StatusBadRequest, core.ErrEmptyDescription.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Classifier.Predict(r.Context(), desc))
}

type createExpensesRequest struct {
	RawInput    string `json:"raw_input"`
	ExpenseDate string `json:"expense_date,omitempty"`
}

func (s *Server) handleCreateExpenses(w http.ResponseWriter, r *http.Request) {
	var req createExpensesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.deps.Expenses.AddFromText(r.Context(), userFrom(r.Context()), sanitizeInput(req.RawInput), strings.TrimSpace(req.ExpenseDate))
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expenses": created})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if err := core.ValidateMonth(month); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.deps.Expenses.List(r.Context(), userFrom(r.Context()), month)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	if list == nil {
		list = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": month, "expenses": list})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Expenses.History(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": groups})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.deps.Expenses.Get(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type updateExpenseRequest struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category,omitempty"`
}

// handleUpdateExpense replaces description, amount and category; an empty
// category is re-predicted from the description.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.deps.Expenses.Update(r.Context(), userFrom(r.Context()), id,
		sanitizeInput(req.Description), req.Amount, strings.TrimSpace(req.Category))
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Expenses.Delete(r.Context(), userFrom(r.Context()), id); err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetAccount(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Expenses.ResetAccount(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpReset, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
