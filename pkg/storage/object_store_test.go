package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDocumentKey(t *testing.T) {
	key := DocumentKey(7, `C:\Users\me\report.pdf`)
	if !strings.HasPrefix(key, "documents/7/") || !strings.HasSuffix(key, "-report.pdf") {
		t.Fatalf("unexpected key: %q", key)
	}
	if DocumentKey(7, "a.txt") == DocumentKey(7, "a.txt") {
		t.Fatalf("expected keys to be unique per upload")
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://files.local/")
	if err := s.Put(ctx, "documents/1/x-a.txt", strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if data, ok := s.Get("documents/1/x-a.txt"); !ok || string(data) != "hello" {
		t.Fatalf("unexpected stored object: %q ok=%v", data, ok)
	}
	link, err := s.PresignGet(ctx, "documents/1/x-a.txt", "a.txt", time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(link, "http://files.local/documents/1/x-a.txt") {
		t.Fatalf("unexpected link: %q", link)
	}
	if err := s.Delete(ctx, "documents/1/x-a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.PresignGet(ctx, "documents/1/x-a.txt", "a.txt", time.Minute); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestContentDispositionEscapes(t *testing.T) {
	got := contentDisposition("my notes.pdf")
	if got != "attachment; filename*=UTF-8''my%20notes.pdf" {
		t.Fatalf("unexpected disposition: %q", got)
	}
}
