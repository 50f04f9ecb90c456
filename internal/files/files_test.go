package files

import (
	"bytes"
	"testing"
	"time"
)

func TestSaveAndGet(t *testing.T) {
	manager, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	name, err := manager.Save("proof.PNG", "123456", []byte("image-bytes"), now)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if name != "2024-3-7_123456.png" {
		t.Fatalf("unexpected filename %q", name)
	}

	data, err := manager.Get(name)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(data, []byte("image-bytes")) {
		t.Fatalf("got %q", data)
	}

	if err := manager.Delete(name); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := manager.Get(name); err == nil {
		t.Fatalf("expected error after delete")
	}
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	manager, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now()
	for _, name := range []string{"proof.gif", "proof.pdf", "proof", "proof."} {
		if _, err := manager.Save(name, "1", []byte("x"), now); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	manager, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := manager.Save("proof.png", "1", make([]byte, maxScreenshotBytes), time.Now()); err == nil {
		t.Fatalf("expected error for oversized file")
	}
}
