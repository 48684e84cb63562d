// Package windows lists the titles of the open desktop windows.
package windows

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Source enumerates window titles in the order the window manager reports
// them.
type Source interface {
	Titles(ctx context.Context) ([]string, error)
}

// Option configures a Command source.
type Option func(*Command)

// WithCommand overrides the enumeration command. The first element is the
// binary, the rest its arguments.
func WithCommand(argv []string) Option {
	return func(c *Command) {
		if len(argv) > 0 && argv[0] != "" {
			c.argv = append([]string(nil), argv...)
		}
	}
}

// Command lists windows by running an external program. Output of wmctrl
// -l is reduced to the title column; any other program is expected to
// print one title per line.
type Command struct {
	argv []string
}

// NewCommand returns a Command that runs "wmctrl -l" unless overridden.
func NewCommand(opts ...Option) *Command {
	c := &Command{argv: []string{"wmctrl", "-l"}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Titles runs the command and parses its output.
func (c *Command) Titles(ctx context.Context) ([]string, error) {
	cmd := commandContext(ctx, c.argv[0], c.argv[1:]...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("windows: %s: %w: %s", c.argv[0], err, msg)
		}
		return nil, fmt.Errorf("windows: %s: %w", c.argv[0], err)
	}
	if filepath.Base(c.argv[0]) == "wmctrl" {
		return ParseWmctrl(out), nil
	}
	return parseLines(out), nil
}

// ParseWmctrl extracts titles from "wmctrl -l" output, whose lines are
// "<id> <desktop> <host> <title>". Windows without a title are skipped.
func ParseWmctrl(out []byte) []string {
	var titles []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		rest := line
		for range 3 {
			rest = strings.TrimLeft(rest, " \t")
			i := strings.IndexAny(rest, " \t")
			if i < 0 {
				rest = ""
				break
			}
			rest = rest[i:]
		}
		if title := strings.TrimSpace(rest); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

func parseLines(out []byte) []string {
	var titles []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if title := strings.TrimSpace(sc.Text()); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// Static always reports the same titles.
type Static []string

// Titles returns a copy of s.
func (s Static) Titles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s...), nil
}
