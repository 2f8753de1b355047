package export

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/observability"
)

const (
	filePrefix    = "报价单"
	timeLayout    = "20060102150405"
	suffixBytes   = 4
	dirPerm       = 0o750
	filePerm      = 0o640
	maxNameLength = 64
)

// ErrFileNotFound indicates an unknown or unsafe export filename.
var ErrFileNotFound = errors.New("export file not found")

// Renderer turns a quote document into file bytes.
type Renderer interface {
	Render(doc *domain.QuoteDocument) ([]byte, error)
	Extension() string
	ContentType() string
}

// FileSink renders documents and writes them into a directory.
type FileSink struct {
	dir      string
	renderer Renderer
	now      func() time.Time
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, renderer Renderer) *FileSink {
	return &FileSink{
		dir:      dir,
		renderer: renderer,
		now:      time.Now,
	}
}

// WithClock replaces the time source used in filenames.
func (s *FileSink) WithClock(now func() time.Time) *FileSink {
	s.now = now
	return s
}

// Submit renders the document and stores it under a unique filename.
func (s *FileSink) Submit(ctx context.Context, doc *domain.QuoteDocument) (*domain.ExportResult, error) {
	logger := observability.FromContext(ctx)

	data, err := s.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	if err = os.MkdirAll(s.dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	name, err := s.filename(doc.Header.CustomerName)
	if err != nil {
		return nil, err
	}

	if err = os.WriteFile(filepath.Join(s.dir, name), data, filePerm); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	logger.Info("quote exported",
		observability.String("filename", name),
		observability.Int("size_bytes", len(data)),
		observability.Int("lines", doc.LineCount))

	return &domain.ExportResult{Success: true, Filename: name}, nil
}

// Open returns the path and content type of a previously exported file.
func (s *FileSink) Open(filename string) (string, string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", "", fmt.Errorf("%q: %w", filename, ErrFileNotFound)
	}

	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", "", fmt.Errorf("%q: %w", filename, ErrFileNotFound)
	}

	return path, s.renderer.ContentType(), nil
}

func (s *FileSink) filename(customer string) (string, error) {
	suffix := make([]byte, suffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate file suffix: %w", err)
	}

	return fmt.Sprintf("%s_%s_%s_%s%s",
		filePrefix,
		sanitize(customer),
		s.now().Format(timeLayout),
		hex.EncodeToString(suffix),
		s.renderer.Extension(),
	), nil
}

// sanitize keeps customer names usable as a single path element.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < ' ', strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, name)

	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	return name
}
