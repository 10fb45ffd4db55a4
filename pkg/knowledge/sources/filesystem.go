package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/knowledge"
)

// LocalDirLoader reads <dir>/<category>.md and <dir>/<category>.txt write-ups.
type LocalDirLoader struct {
	dir        string
	extensions []string
	maxSize    int64
	logger     *zap.Logger
}

// LocalDirOption configures a LocalDirLoader.
type LocalDirOption func(*LocalDirLoader)

// WithExtensions sets which file extensions to read.
func WithExtensions(exts ...string) LocalDirOption {
	return func(l *LocalDirLoader) {
		l.extensions = exts
	}
}

// WithMaxSize sets the maximum file size to read.
func WithMaxSize(max int64) LocalDirOption {
	return func(l *LocalDirLoader) {
		l.maxSize = max
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) LocalDirOption {
	return func(l *LocalDirLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocalDirLoader creates a loader for dir.
func NewLocalDirLoader(dir string, opts ...LocalDirOption) *LocalDirLoader {
	l := &LocalDirLoader{
		dir:        dir,
		extensions: []string{".md", ".txt"},
		maxSize:    1024 * 1024, // 1MB
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the loader identifier.
func (l *LocalDirLoader) Name() string {
	return "local:" + l.dir
}

// Load reads every matching file. Files that cannot be read are skipped.
func (l *LocalDirLoader) Load(ctx context.Context) ([]knowledge.Entry, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge dir: %w", err)
	}
	sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

	var out []knowledge.Entry
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		ext := filepath.Ext(d.Name())
		if !l.hasExtension(ext) {
			continue
		}

		path := filepath.Join(l.dir, d.Name())
		info, err := d.Info()
		if err != nil {
			l.logger.Warn("skipping unreadable knowledge file", zap.String("path", path), zap.Error(err))
			continue
		}
		if info.Size() > l.maxSize {
			l.logger.Warn("skipping oversized knowledge file", zap.String("path", path), zap.Int64("size", info.Size()))
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable knowledge file", zap.String("path", path), zap.Error(err))
			continue
		}

		category := strings.TrimSuffix(d.Name(), ext)
		out = append(out, knowledge.Entry{
			Category:   category,
			SourceType: knowledge.SourceLocalText,
			Content:    string(content),
			OriginID:   d.Name(),
			Title:      category,
		})
	}
	return out, nil
}

func (l *LocalDirLoader) hasExtension(ext string) bool {
	for _, e := range l.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
