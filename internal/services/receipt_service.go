package services

import (
	"context"

	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/receipt"
)

// ReceiptResult is what one receipt produced.
type ReceiptResult struct {
	Expenses []core.Expense `json:"expenses"`
	// Fallback is true when no line item was recognised and the receipt was
	// recorded as a single total.
	Fallback bool `json:"fallback"`
}

// ReceiptService records receipts as expenses.
type ReceiptService struct {
	expenses *ExpenseService
	ocr      receipt.TextExtractor
	log      *applog.Logger
}

func NewReceiptService(expenses *ExpenseService, ocr receipt.TextExtractor) *ReceiptService {
	return &ReceiptService{
		expenses: expenses,
		ocr:      ocr,
		log:      applog.NewLogger(applog.ComponentReceipt),
	}
}

// ProcessImage runs OCR on image and records the text. OCR failures yield
// empty text, which ends in ErrNothingParsed.
func (s *ReceiptService) ProcessImage(ctx context.Context, userID int64, image []byte) (ReceiptResult, error) {
	text := s.ocr.ExtractText(ctx, image)
	return s.ProcessText(ctx, userID, text)
}

// ProcessText stores every recognised line item. Without any, the largest
// amount becomes one expense named by the receipt's first line; a receipt
// without a positive amount stores nothing.
func (s *ReceiptService) ProcessText(ctx context.Context, userID int64, text string) (ReceiptResult, error) {
	if userID <= 0 {
		return ReceiptResult{}, core.ErrInvalidUser
	}
	now := s.expenses.now()

	var res ReceiptResult
	for _, it := range receipt.ExtractItems(text) {
		e, err := s.expenses.AddItem(ctx, userID, it.Description, it.Amount, "", now)
		if err != nil {
			if isInputError(err) {
				continue
			}
			return res, err
		}
		res.Expenses = append(res.Expenses, e)
	}

	if len(res.Expenses) == 0 {
		desc, total := receipt.ExtractTotal(text)
		if total.Cents <= 0 {
			return ReceiptResult{}, ErrNothingParsed
		}
		e, err := s.expenses.AddItem(ctx, userID, desc, total, "", now)
		if err != nil {
			return ReceiptResult{}, err
		}
		res = ReceiptResult{Expenses: []core.Expense{e}, Fallback: true}
	}

	s.log.Op(ctx, applog.OpExtract, "Receipt recorded",
		applog.NewFields().WithUser(userID).
			With(applog.FieldItems, len(res.Expenses)).
			With("fallback", res.Fallback), nil)
	return res, nil
}
