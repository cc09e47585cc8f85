package activity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the activity log kept in the state directory.
const FileName = "overflow.log"

// Path returns the activity log path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Open appends to the activity log in dir and returns a logger writing to it
// and, when mirror is non-nil, to mirror as well. Close the returned closer
// when done.
func Open(dir string, mirror io.Writer) (*log.Logger, io.Closer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil, fmt.Errorf("activity log dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(Path(dir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open activity log: %w", err)
	}
	var out io.Writer = file
	if mirror != nil {
		out = io.MultiWriter(file, mirror)
	}
	return log.New(out, "overflow: ", log.LstdFlags), file, nil
}

// Tail returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	// ring grows lazily up to maxLines.
	var ring []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	next := 0
	for scanner.Scan() {
		if len(ring) < maxLines {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	if next == 0 {
		return ring, nil
	}
	lines := make([]string, 0, len(ring))
	lines = append(lines, ring[next:]...)
	return append(lines, ring[:next]...), nil
}
