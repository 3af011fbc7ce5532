package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendlens/internal/core"

	goption "google.golang.org/api/option"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "abc"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = New(context.Background(), Options{SpreadsheetID: "abc", CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppend_RejectsInvalidExpense(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"}
	if _, err := c.Append(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAppend_WritesRow(t *testing.T) {
	var (
		gotPath string
		gotBody struct {
			Values [][]any `json:"values"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Expenses!A7:F7","updatedRows":1}}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e := core.Expense{
		ID:          3,
		UserID:      9,
		Description: "petrol",
		Amount:      core.Money{Cents: 250050},
		Category:    core.CategoryTransport,
		SpentAt:     time.Date(2025, 3, 4, 18, 5, 0, 0, time.Local),
	}
	ref, err := c.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "Expenses!A7:F7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "sheet-1") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 6 {
		t.Fatalf("unexpected values %v", gotBody.Values)
	}
	row := gotBody.Values[0]
	if row[0] != "2025-03-04" || row[1] != "18:05:00" || row[3] != "petrol" || row[4] != 2500.5 || row[5] != "Transportation" {
		t.Errorf("row = %v", row)
	}
}
