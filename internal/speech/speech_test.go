package speech

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func fakeVoice(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("fake speech command needs a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "espeak-ng")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		if name == "espeak-ng" {
			return path, nil
		}
		return "", exec.ErrNotFound
	}
	return dir
}

func TestSpeakFeedsStdin(t *testing.T) {
	dir := fakeVoice(t, "cat > \"$(dirname \"$0\")/spoken.txt\"\n")
	if err := Speak(context.Background(), "  Cells divide.  "); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "spoken.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Cells divide." {
		t.Errorf("expected trimmed text on stdin, got %q", got)
	}
}

func TestSpeakCancel(t *testing.T) {
	fakeVoice(t, "exec sleep 10\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := Speak(ctx, "long answer"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestSpeakEmptyAndMissing(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	if err := Speak(context.Background(), "   "); err != nil {
		t.Errorf("empty text should be a no-op, got %v", err)
	}
	if runtime.GOOS == "linux" {
		if err := Speak(context.Background(), "hi"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	}
}
