package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReceiptScanMessage asks a worker to OCR an uploaded receipt image and
// record what it finds for the user.
type ReceiptScanMessage struct {
	JobID     string    `json:"job_id"`
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename,omitempty"`
	Image     []byte    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReceiptScanMessage creates a scan job with a fresh job ID.
func NewReceiptScanMessage(userID int64, filename string, image []byte) *ReceiptScanMessage {
	return &ReceiptScanMessage{
		JobID:     uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		Image:     image,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptScanMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptScanMessageFromJSON(data []byte) (*ReceiptScanMessage, error) {
	var msg ReceiptScanMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExpenseExportMessage announces a stored expense to mirror elsewhere.
// It carries only the key; the consumer reads the record from storage.
type ExpenseExportMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseExportMessage(id, userID int64) *ExpenseExportMessage {
	return &ExpenseExportMessage{ID: id, UserID: userID, Timestamp: time.Now()}
}

func (m *ExpenseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseExportMessageFromJSON(data []byte) (*ExpenseExportMessage, error) {
	var msg ExpenseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
