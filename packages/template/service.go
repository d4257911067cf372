package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Error reports a template that could not be loaded or rendered.
type Error struct {
	Name   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("template %q: %s", e.Name, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Service renders request payload templates. Templates are plain files
// containing {{placeholder}} markers; placeholders resolve from the
// render context, then from registered functions, then from the OS
// environment via the {{$VAR}} form. Unresolved placeholders are left
// intact and logged so a malformed payload is visible in the request
// rather than silently blanked.
//
// File contents are cached after first load. A Service is safe for
// concurrent use.
type Service struct {
	searchPaths []string
	funcs       *Registry
	logger      *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report unresolved placeholders.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFunctions replaces the default function registry.
func WithFunctions(funcs *Registry) Option {
	return func(s *Service) { s.funcs = funcs }
}

// New creates a Service that looks up template files in searchPaths,
// in order.
func New(searchPaths []string, opts ...Option) *Service {
	s := &Service{
		searchPaths: searchPaths,
		funcs:       NewRegistry(),
		logger:      zap.NewNop(),
		cache:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render loads the named template file and substitutes placeholders
// from context.
func (s *Service) Render(name string, context map[string]any) (string, error) {
	raw, err := s.load(name)
	if err != nil {
		return "", err
	}
	return s.RenderString(raw, context), nil
}

// RenderWithCSV renders the named template against the CSV data row at
// the given index. Values in extra override CSV columns of the same
// name.
func (s *Service) RenderWithCSV(name, csvPath string, row int, extra map[string]any) (string, error) {
	record, err := LoadCSVRow(csvPath, row)
	if err != nil {
		return "", err
	}
	context := make(map[string]any, len(record)+len(extra))
	for k, v := range record {
		context[k] = v
	}
	for k, v := range extra {
		context[k] = v
	}
	return s.Render(name, context)
}

// RenderString substitutes placeholders in tmpl from context without
// touching the filesystem.
func (s *Service) RenderString(tmpl string, context map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if strings.HasPrefix(expr, "$") {
			if val := os.Getenv(expr[1:]); val != "" {
				return val
			}
			s.logger.Warn("unresolved environment variable in template", zap.String("name", expr[1:]))
			return match
		}

		if val, ok := context[expr]; ok {
			return fmt.Sprintf("%v", val)
		}

		if strings.Contains(expr, "(") {
			if result, ok := s.funcs.Call(expr); ok {
				return fmt.Sprintf("%v", result)
			}
			s.logger.Warn("unresolved function call in template", zap.String("expr", expr))
			return match
		}

		s.logger.Warn("unresolved template placeholder", zap.String("name", expr))
		return match
	})
}

// load returns the raw template content, reading and caching the file
// on first use.
func (s *Service) load(name string) (string, error) {
	s.mu.RLock()
	raw, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return raw, nil
	}

	path, err := s.find(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Name: name, Reason: "cannot read template file", Err: err}
	}

	s.mu.Lock()
	s.cache[name] = string(data)
	s.mu.Unlock()
	return string(data), nil
}

func (s *Service) find(name string) (string, error) {
	for _, dir := range s.searchPaths {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &Error{
		Name:   name,
		Reason: fmt.Sprintf("not found in search paths %v", s.searchPaths),
	}
}
