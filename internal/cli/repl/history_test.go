package repl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("", 3)

	for _, line := range []string{"connect", "next", "next", "prev", "status"} {
		h.Add(line)
	}

	want := []string{"next", "prev", "status"}
	if got := h.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("", 0)
	h.Add("first")
	h.Add("second")

	tests := []struct {
		index int
		want  string
	}{
		{0, "second"},
		{1, "first"},
		{2, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(path, 0)
	h.Add("connect ws://tv.local")
	h.Add("next")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded := NewHistory(path, 0)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.Entries(), h.Entries()) {
		t.Errorf("loaded = %v, want %v", loaded.Entries(), h.Entries())
	}
}

func TestHistory_Load_Missing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"), 0)
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("", 0)
	h.Add("next")

	if err := h.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}
