package gen

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Operation is what saving a code file does to the file on disk
type Operation string

const (
	OpCreate    Operation = "create"
	OpOverwrite Operation = "overwrite"
	OpSkip      Operation = "skip"
)

// textExtensions are the file types that support preview and diff
var textExtensions = map[string]bool{
	".go":   true,
	".sql":  true,
	".md":   true,
	".txt":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".html": true,
	".tmpl": true,
	".mod":  true,
}

// CodeFile is one generated file
type CodeFile struct {
	// ID is derived from Path and stays stable while the attributes do not change
	ID        string
	Path      string
	Content   []byte
	Operation Operation

	existing []byte
	exists   bool
	fs       afero.Fs
	root     string
}

// NewCodeFile creates a code file for relPath under root, comparing content
// with whatever already exists on fs to decide the operation.
func NewCodeFile(fs afero.Fs, root, relPath string, content []byte) *CodeFile {
	relPath = path.Clean(filepath.ToSlash(relPath))
	sum := md5.Sum([]byte(relPath))
	f := &CodeFile{
		ID:        hex.EncodeToString(sum[:]),
		Path:      relPath,
		Content:   content,
		Operation: OpCreate,
		fs:        fs,
		root:      root,
	}

	existing, err := afero.ReadFile(fs, f.AbsolutePath())
	if err == nil {
		f.existing = existing
		f.exists = true
		if bytes.Equal(existing, content) {
			f.Operation = OpSkip
		} else {
			f.Operation = OpOverwrite
		}
	}
	return f
}

// AbsolutePath is the location the file is written to
func (f *CodeFile) AbsolutePath() string {
	return filepath.Join(f.root, filepath.FromSlash(f.Path))
}

func (f *CodeFile) Type() string {
	return strings.ToLower(path.Ext(f.Path))
}

// Preview returns the HTML-escaped content, or false when the file type
// cannot be previewed.
func (f *CodeFile) Preview() (string, bool) {
	if !textExtensions[f.Type()] {
		return "", false
	}
	return html.EscapeString(string(f.Content)), true
}

// Diff compares the generated content against the file on disk. It returns
// false when the file type does not support diffs. A file that does not exist
// yet, or is unchanged, yields an empty diff.
func (f *CodeFile) Diff() (*FileDiff, bool) {
	if !textExtensions[f.Type()] {
		return nil, false
	}
	if f.Operation != OpOverwrite {
		return &FileDiff{Path: f.Path, Operation: f.Operation}, true
	}
	return computeDiff(f.Path, f.existing, f.Content), true
}

// Save writes the content, creating parent directories as needed
func (f *CodeFile) Save() error {
	target := f.AbsolutePath()
	if err := f.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("unable to create directory %s: %w", filepath.Dir(target), err)
	}
	if err := afero.WriteFile(f.fs, target, f.Content, 0o644); err != nil {
		return fmt.Errorf("unable to write file %s: %w", f.Path, err)
	}
	return nil
}

// Exists reports whether the file was already on disk when generated
func (f *CodeFile) Exists() bool {
	return f.exists
}
