// Package scanner walks a project root, applies include/exclude globs
// (exclude wins), guards against symlink cycles, and content-hashes the
// files it discovers (spec §4.C).
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codegraph/internal/diag"
)

// maxInFlight bounds concurrent file reads during hashing (spec §5: "~20 in
// flight" to hide I/O latency without unbounded goroutine growth).
const maxInFlight = 20

// File is one discovered, hashed source file.
type File struct {
	// Path is root-relative, POSIX-style (spec §4.C).
	Path        string
	AbsPath     string
	Size        int64
	ModifiedAt  int64
	ContentHash string
	Binary      bool
}

// Options configures a scan.
type Options struct {
	Include        []string
	Exclude        []string
	FollowSymlinks bool
	MaxFileSize    int64
}

// Scanner walks a project root under Options.
type Scanner struct {
	root string
	opts Options
	log  *diag.Logger
}

// New returns a Scanner rooted at root.
func New(root string, opts Options, log *diag.Logger) *Scanner {
	if log == nil {
		log = diag.Quiet()
	}
	return &Scanner{root: root, opts: opts, log: log}
}

// Scan walks the tree and returns each matching, readable file exactly
// once, hashed with SHA-256. It terminates in the presence of symlink
// cycles (testable property 8) and is safe to cancel via ctx.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	paths, err := s.walk()
	if err != nil {
		return nil, err
	}

	files := make([]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxInFlight)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			abs := filepath.Join(s.root, filepath.FromSlash(rel))
			f, err := s.hashFile(abs, rel)
			if err != nil {
				// Unreadable files are skipped, not fatal (spec §4.C);
				// the caller sees an empty slot which is filtered below.
				s.log.Printf("scan: skipping unreadable file %s: %v", rel, err)
				return nil
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := files[:0]
	for _, f := range files {
		if f.Path != "" {
			result = append(result, f)
		}
	}
	return result, nil
}

// hashFile stats and content-hashes one file, classifying binary content by
// extension and magic-number sniffing so the extractor never attempts to
// parse it as source.
func (s *Scanner) hashFile(abs, rel string) (File, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, err
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		return File{Path: rel, AbsPath: abs, Size: info.Size(), ModifiedAt: info.ModTime().UnixMilli()}, nil
	}

	f, err := os.Open(abs)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	h := sha256.New()
	head := make([]byte, 0, 512)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if len(head) < 512 {
				take := 512 - len(head)
				if take > n {
					take = n
				}
				head = append(head, buf[:take]...)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return File{}, rerr
		}
	}

	return File{
		Path:        rel,
		AbsPath:     abs,
		Size:        info.Size(),
		ModifiedAt:  info.ModTime().UnixMilli(),
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		Binary:      isBinary(rel, head),
	}, nil
}

// walk performs the synchronous directory traversal: glob filtering,
// symlink-cycle detection, and de-duplication of files reached by more
// than one symlink path.
func (s *Scanner) walk() ([]string, error) {
	visitedDirs := make(map[string]bool) // real path -> visited
	seenFiles := make(map[string]bool)   // real path -> reported
	var out []string
	var mu sync.Mutex

	var walkDir func(dir, relDir string) error
	walkDir = func(dir, relDir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			// Broken symlink or unreadable target: skip silently.
			return nil
		}
		if visitedDirs[real] {
			return nil
		}
		visitedDirs[real] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.log.Printf("scan: skipping unreadable directory %s: %v", dir, err)
			return nil
		}

		for _, entry := range entries {
			name := entry.Name()
			childAbs := filepath.Join(dir, name)
			childRel := path(relDir, name)

			if entry.IsDir() {
				if err := walkDir(childAbs, childRel); err != nil {
					return err
				}
				continue
			}

			if entry.Type()&os.ModeSymlink != 0 {
				if !s.opts.FollowSymlinks {
					continue
				}
				target, err := filepath.EvalSymlinks(childAbs)
				if err != nil {
					continue // broken symlink
				}
				info, err := os.Stat(target)
				if err != nil {
					continue
				}
				if info.IsDir() {
					if err := walkDir(childAbs, childRel); err != nil {
						return err
					}
					continue
				}
				childAbs = target
			}

			real, err := filepath.EvalSymlinks(childAbs)
			if err != nil {
				continue
			}
			mu.Lock()
			already := seenFiles[real]
			if !already {
				seenFiles[real] = true
			}
			mu.Unlock()
			if already {
				continue
			}

			if !s.matches(childRel) {
				continue
			}
			out = append(out, childRel)
		}
		return nil
	}

	if err := walkDir(s.root, ""); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// matches applies include globs then exclude globs; exclude wins (spec §4.C).
func (s *Scanner) matches(rel string) bool {
	included := len(s.opts.Include) == 0
	for _, pattern := range s.opts.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	return true
}

// path joins a POSIX-style relative directory and name.
func path(relDir, name string) string {
	if relDir == "" {
		return name
	}
	return strings.TrimSuffix(relDir, "/") + "/" + name
}
