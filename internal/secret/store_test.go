package secret

import "testing"

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get("k")
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}
	s.Delete("k")
	got, _ = s.Get("k")
	if len(got) != 0 {
		t.Errorf("Get after delete = %q", got)
	}
}

func TestResolveAPIKey(t *testing.T) {
	s := NewMemoryStore()
	s.Set(BackendAPIKey, []byte("stored"))

	if got := ResolveAPIKey("explicit", s); got != "explicit" {
		t.Errorf("configured key should win, got %q", got)
	}
	if got := ResolveAPIKey("", s); got != "stored" {
		t.Errorf("fallback = %q, want stored", got)
	}
	if got := ResolveAPIKey("", nil); got != "" {
		t.Errorf("nil store = %q", got)
	}
}
