package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"spendlens/internal/config"
	"spendlens/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{StorageBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{StorageBackend: "postgres", DatabaseURL: "postgres://db/x"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != "postgres://db/x" {
		t.Errorf("got %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr string
	}{
		{Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{Config{Type: PostgresBackend}, "database URL is required"},
		{Config{Type: "mongo"}, "invalid backend type"},
		{Config{Type: MemoryBackend}, ""},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.cfg.Type, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: err = %v, want %q", tt.cfg.Type, err, tt.wantErr)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.Store.(*storage.MemoryRepository); !ok {
		t.Errorf("memory backend returned %T", mem.Store)
	}

	sqlite, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer sqlite.Cleanup()
	if _, ok := sqlite.Store.(*storage.SQLRepository); !ok {
		t.Errorf("sqlite backend returned %T", sqlite.Store)
	}
}
