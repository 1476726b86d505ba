package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the input formats the loader understands.
var DefaultExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}

// Manager enforces filesystem allow-list and path validation guardrails.
// It resolves and stores canonical absolute directory paths and validates
// that requested file paths are within these roots and have supported extensions.
type Manager struct {
	allowedDirs []string
	allowedExts map[string]struct{}
}

// ErrNotAllowed indicates the requested path is outside the allow-list roots.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// NewManager constructs a security manager given an allow-list of directories
// and a list of allowed file extensions (case-insensitive, with leading dot).
// Directories are canonicalized (absolute + EvalSymlinks) and validated.
func NewManager(allowDirs []string, allowedExtensions []string) (*Manager, error) {
	if len(allowedExtensions) == 0 {
		allowedExtensions = DefaultExtensions
	}

	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, e := range allowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.HasPrefix(e, ".") {
			return nil, fmt.Errorf("security: invalid extension: %q", e)
		}
		exts[e] = struct{}{}
	}

	canonical := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		real, err := canonicalDir(d)
		if err != nil {
			return nil, err
		}
		canonical = append(canonical, real)
	}

	return &Manager{allowedDirs: canonical, allowedExts: exts}, nil
}

// canonicalDir resolves d to an absolute, symlink-free directory path.
func canonicalDir(d string) (string, error) {
	abs, err := filepath.Abs(d)
	if err != nil {
		return "", fmt.Errorf("security: resolve abs for %q: %w", d, err)
	}
	// EvalSymlinks so that symlinked roots cannot be used to escape later.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("security: stat %q: %w", real, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("security: allow-list entry is not a directory: %q", real)
	}
	return filepath.Clean(real), nil
}

// AllowedDirectories returns the canonical allow-list roots.
func (m *Manager) AllowedDirectories() []string {
	out := make([]string, len(m.allowedDirs))
	copy(out, m.allowedDirs)
	return out
}

// ValidateConfig returns an error when no allow-list entries are configured.
// File operations stay disabled until explicit directories are provided.
func (m *Manager) ValidateConfig() error {
	if len(m.allowedDirs) == 0 {
		return errors.New("security: no allowed directories configured")
	}
	return nil
}

// ValidateOpenPath ensures the input path refers to an existing file with an
// allowed extension inside one of the configured allow-list directories.
// It returns the canonical absolute path suitable for opening.
func (m *Manager) ValidateOpenPath(input string) (string, error) {
	if input == "" {
		return "", ErrNotAllowed
	}
	ext := strings.ToLower(filepath.Ext(input))
	if _, ok := m.allowedExts[ext]; !ok {
		return "", ErrUnsupportedExtension
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}

	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}
	if !m.contains(real) {
		return "", ErrNotAllowed
	}
	return real, nil
}

// ValidateWritePath checks a report destination: an .xlsx name whose parent
// directory exists inside the allow-list. The file itself may not exist yet.
func (m *Manager) ValidateWritePath(output string) (string, error) {
	if output == "" {
		return "", ErrNotAllowed
	}
	if strings.ToLower(filepath.Ext(output)) != ".xlsx" {
		return "", ErrUnsupportedExtension
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(abs))
	if info, err := os.Lstat(target); err == nil && (info.IsDir() || info.Mode()&os.ModeSymlink != 0) {
		return "", ErrNotAllowed
	}
	if !m.contains(target) {
		return "", ErrNotAllowed
	}
	return target, nil
}

// contains reports whether real lies strictly inside one of the allow-list roots.
func (m *Manager) contains(real string) bool {
	for _, root := range m.allowedDirs {
		rel, err := filepath.Rel(root, real)
		if err != nil || rel == "." || rel == "" {
			continue
		}
		if !strings.HasPrefix(filepath.Clean(rel), "..") {
			return true
		}
	}
	return false
}
