package internal

import (
	"io"

	"github.com/starford/fubuki/internal/windows"
)

// Mode selects the surface the daemon exposes.
type Mode int

// Run modes.
const (
	// ModeServe serves the HTTP API and SSE events.
	ModeServe Mode = iota
	// ModeMCP serves MCP tools over stdin/stdout.
	ModeMCP
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    Mode
	version string
	logOut  io.Writer
	windows windows.Source
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode selects the exposed surface. The default is ModeServe.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects the JSON log. It defaults to stdout, or stderr in
// ModeMCP where stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithWindows replaces the window title source built from the config.
func WithWindows(src windows.Source) Option {
	return func(a *application) {
		a.windows = src
	}
}
