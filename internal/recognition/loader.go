package recognition

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML pattern file with top-level anime and manga lists.
// Patterns are taken verbatim; no environment expansion is done since "$"
// is meaningful in a regular expression.
func LoadFile(path string) (Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Patterns{}, fmt.Errorf("recognition: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML pattern data.
func Parse(data []byte) (Patterns, error) {
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patterns{}, fmt.Errorf("recognition: parse patterns: %w", err)
	}
	return p, nil
}

// Source names the pattern files consulted at startup and on reload.
type Source struct {
	// Default is the required pattern file.
	Default string
	// Custom is an optional user file whose patterns run after the defaults.
	Custom string
}

// Paths returns the configured file paths.
func (s Source) Paths() []string {
	if s.Custom == "" {
		return []string{s.Default}
	}
	return []string{s.Default, s.Custom}
}

// Load reads the default file and appends the custom file's patterns. A
// missing or malformed custom file is logged and skipped.
func (s Source) Load(logger *slog.Logger) (Patterns, error) {
	p, err := LoadFile(s.Default)
	if err != nil {
		return Patterns{}, err
	}
	if s.Custom == "" {
		return p, nil
	}
	custom, err := LoadFile(s.Custom)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("patterns: custom file not found", slog.String("path", s.Custom))
		return p, nil
	case err != nil:
		logger.Warn("patterns: custom file skipped", slog.String("path", s.Custom), slog.String("error", err.Error()))
		return p, nil
	}
	return p.Merge(custom), nil
}

// Build loads and compiles the patterns into a Recognizer.
func (s Source) Build(logger *slog.Logger) (*Recognizer, error) {
	p, err := s.Load(logger)
	if err != nil {
		return nil, err
	}
	c, err := Compile(p)
	if err != nil {
		return nil, err
	}
	return NewRecognizer(c, logger), nil
}

// fingerprint digests the current contents of paths. Missing files
// contribute an empty marker so their appearance changes the digest.
func fingerprint(paths []string) string {
	h := sha256.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			data = nil
		}
		sum := sha256.Sum256(data)
		h.Write([]byte(path))
		h.Write(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
