// Package output writes the artifacts of a fit run: a dated run directory,
// the log.txt summary, figures and an optional gnuplot preview.
package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunDir returns root/<date>/<time>: <note>, the directory a run writes to.
func RunDir(
	root, note string,
	now time.Time,
) (
	string,
) {
	name := now.Format("15:04:05")
	if note != "" {
		name += ": " + note
	}
	return filepath.Join(root, now.Format("2006-Jan-02"), name)
}

// RunLog accumulates the lines of log.txt.
type RunLog struct {
	lines []string
}

func (l *RunLog) Addf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...)+"\n")
}

func (l *RunLog) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Write creates dir if needed and writes the log to dir/log.txt.
func (l *RunLog) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "log.txt")
	txt, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer txt.Close()

	w := bufio.NewWriter(txt)
	for _, line := range l.lines {
		if _, err := w.WriteString(line); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, txt.Close()
}
