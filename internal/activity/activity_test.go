package activity

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	var content strings.Builder
	var all []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		want     []string
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"partial", 3, all[7:]},
		{"exactly all", 10, all},
		{"more than exists", 20, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tail(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Tail returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tail(%d) = %v, want %v", tt.maxLines, got, tt.want)
			}
		})
	}
}

func TestTail_HugeLimitOnSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.log")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := Tail(path, 1_000_000_000)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Tail = %v, want [a b]", got)
	}
	if cap(got) > 8 {
		t.Fatalf("Tail allocated cap %d for 2 lines", cap(got))
	}
}

func TestTail_WrapsRing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrap.log")
	if err := os.WriteFile(path, []byte("1\n2\n3\n4\n5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"4", "5"}) {
		t.Fatalf("Tail = %v, want [4 5]", got)
	}
}

func TestTail_MissingFile(t *testing.T) {
	got, err := Tail(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Tail(missing) = %v, %v, want nil, nil", got, err)
	}
}

func TestOpen_AppendsAndMirrors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	var mirror bytes.Buffer

	logger, closer, err := Open(dir, &mirror)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	logger.Printf("like failed: %s", "timeout")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	logger, closer, err = Open(dir, nil)
	if err != nil {
		t.Fatalf("second Open returned error: %v", err)
	}
	logger.Printf("second run")
	_ = closer.Close()

	lines, err := Tail(Path(dir), 10)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(lines) != 2 || !strings.Contains(lines[0], "like failed: timeout") || !strings.Contains(lines[1], "second run") {
		t.Fatalf("log lines = %q", lines)
	}
	if !strings.Contains(mirror.String(), "overflow: ") || strings.Contains(mirror.String(), "second run") {
		t.Fatalf("mirror = %q", mirror.String())
	}
}

func TestOpen_RejectsEmptyDir(t *testing.T) {
	if _, _, err := Open("  ", nil); err == nil {
		t.Fatalf("Open(empty) returned nil error")
	}
}
