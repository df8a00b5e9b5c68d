package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// File label styles for diagnostic locations.
const (
	LabelRelative = "relative"
	LabelBase     = "base"
)

// LoadOptions controls which files Load reads and how they are labeled.
type LoadOptions struct {
	// Languages restricts the parsed languages; empty means all supported.
	Languages []Language
	// ExcludeDirs are directory names skipped anywhere in the tree.
	ExcludeDirs []string
	// FileLabel is LabelRelative (default) or LabelBase.
	FileLabel string
	// Workers bounds concurrent parses; values below one mean one per file.
	Workers int
	Logger  *zap.Logger
}

// Project is a loaded source tree.
type Project struct {
	Root     string
	Files    []*ParseResult
	Universe *merge.Universe
}

// Load parses every supported file under root and links the results into a
// Universe. root may also be a single file. Files are visited in lexical
// order so contribution discovery order is stable. Unreadable or unparseable
// files are logged and skipped.
func Load(ctx context.Context, parser Parser, root string, opts LoadOptions) (*Project, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[Language]bool)
	langs := opts.Languages
	if len(langs) == 0 {
		langs = parser.SupportedLanguages()
	}
	for _, l := range langs {
		allowed[l] = true
	}
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	base := root
	if !info.IsDir() {
		base = filepath.Dir(root)
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == ".git" || excluded[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if lang, ok := LanguageForPath(path); ok && allowed[lang] {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk: %w", walkErr)
	}

	results := make([]*ParseResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			src, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			lang, _ := LanguageForPath(path)
			res, err := parser.Parse(gctx, rel, src, lang)
			if err != nil {
				logger.Warn("skipping unparseable file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	files := make([]*ParseResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			files = append(files, r)
		}
	}

	label := func(p string) string { return p }
	if opts.FileLabel == LabelBase {
		label = func(p string) string { return filepath.Base(filepath.FromSlash(p)) }
	}

	u := Link(files, label)
	logger.Debug("project loaded",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("contributions", len(u.Contributions)),
		zap.Int("requests", len(u.Requests)),
	)
	return &Project{Root: root, Files: files, Universe: u}, nil
}
