package git

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	gitlib "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
	ignore "github.com/sabhiram/go-gitignore"
)

// Location tells which logical diff produced a status entry: Index entries
// reflect HEAD-tree-to-index differences (staged), WorkingTree entries
// reflect index-to-working-tree differences (unstaged). The same path may
// produce one entry per location.
type Location int

const (
	Index Location = iota
	WorkingTree
)

func (l Location) String() string {
	if l == Index {
		return "index"
	}
	return "worktree"
}

type ChangeKind int

const (
	Unknown ChangeKind = iota
	New
	Modified
	Renamed
	Deleted
	TypeChanged
)

func (c ChangeKind) String() string {
	switch c {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	case Deleted:
		return "deleted"
	case TypeChanged:
		return "typechange"
	default:
		return "unknown"
	}
}

// StatusEntry is one classified change. From is set only for renames and
// names the path the content came from.
type StatusEntry struct {
	Path     string
	From     string
	Location Location
	Change   ChangeKind
}

type ClassifyOptions struct {
	IncludeIgnored    bool
	IncludeUntracked  bool
	ExcludeSubmodules bool

	// RenameThreshold is the minimum content similarity (0..1) for a
	// deleted/new pair to collapse into a single rename.
	RenameThreshold float64
}

func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		IncludeUntracked:  true,
		ExcludeSubmodules: true,
		RenameThreshold:   0.5,
	}
}

// Classify performs the two logical diffs (HEAD tree to index, index to
// working tree) and returns one entry per changed path per diff, with
// similarity-based rename detection applied independently to each side.
// Entries are grouped staged-then-unstaged and sorted by path within each
// group; re-running against an unchanged repository yields identical output.
func (s *Store) Classify(opts ClassifyOptions) ([]StatusEntry, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	var submodules map[string]bool
	if opts.ExcludeSubmodules {
		submodules, err = s.submodulePaths()
		if err != nil {
			return nil, err
		}
	}

	var staged, unstaged []StatusEntry
	for path, st := range status {
		if !utf8.ValidString(path) {
			return nil, fmt.Errorf("path %q: %w", path, ErrInvalidPath)
		}
		if submodules[path] {
			continue
		}
		if kind, ok := stagedKind(st.Staging); ok {
			staged = append(staged, StatusEntry{Path: path, Location: Index, Change: kind})
		}
		if kind, ok := unstagedKind(st.Worktree, opts.IncludeUntracked); ok {
			unstaged = append(unstaged, StatusEntry{Path: path, Location: WorkingTree, Change: kind})
		}
	}

	if opts.IncludeIgnored {
		ignored, err := s.ignoredEntries(status)
		if err != nil {
			return nil, err
		}
		unstaged = append(unstaged, ignored...)
	}

	if err := s.refineTypeChanges(staged, unstaged); err != nil {
		return nil, err
	}

	staged, err = s.detectRenames(staged, Index, opts.RenameThreshold)
	if err != nil {
		return nil, err
	}
	unstaged, err = s.detectRenames(unstaged, WorkingTree, opts.RenameThreshold)
	if err != nil {
		return nil, err
	}

	sortEntries(staged)
	sortEntries(unstaged)
	slog.Debug("classified working copy",
		slog.Int("staged", len(staged)),
		slog.Int("unstaged", len(unstaged)),
	)
	return append(staged, unstaged...), nil
}

func stagedKind(code gitlib.StatusCode) (ChangeKind, bool) {
	switch code {
	case gitlib.Unmodified, gitlib.Untracked:
		return Unknown, false
	case gitlib.Added:
		return New, true
	case gitlib.Modified:
		return Modified, true
	case gitlib.Deleted:
		return Deleted, true
	case gitlib.Renamed:
		return Renamed, true
	case gitlib.Copied:
		return New, true
	default:
		return Unknown, true
	}
}

func unstagedKind(code gitlib.StatusCode, includeUntracked bool) (ChangeKind, bool) {
	switch code {
	case gitlib.Unmodified:
		return Unknown, false
	case gitlib.Untracked:
		if !includeUntracked {
			return Unknown, false
		}
		return New, true
	case gitlib.Modified:
		return Modified, true
	case gitlib.Deleted:
		return Deleted, true
	case gitlib.Renamed:
		return Renamed, true
	default:
		return Unknown, true
	}
}

func (s *Store) submodulePaths() (map[string]bool, error) {
	idx, err := s.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	paths := map[string]bool{}
	for _, entry := range idx.Entries {
		if entry.Mode == filemode.Submodule {
			paths[entry.Name] = true
		}
	}
	return paths, nil
}

// ignoreScope is one compiled ignore file together with the directory its
// patterns are anchored to. An empty prefix anchors at the repository root,
// which is where info/exclude and core.excludesFile rules apply.
type ignoreScope struct {
	prefix  string
	matcher *ignore.GitIgnore
}

func (sc ignoreScope) matches(rel string) bool {
	sub := rel
	if sc.prefix != "" {
		var ok bool
		sub, ok = strings.CutPrefix(rel, sc.prefix+"/")
		if !ok {
			return false
		}
	}
	return sc.matcher.MatchesPath(sub)
}

// ignoredEntries walks the working tree for files the ignore rules match,
// which the underlying status computation never reports. Rules come from
// info/exclude, core.excludesFile and every .gitignore down the tree,
// each anchored to the directory holding it.
func (s *Store) ignoredEntries(status gitlib.Status) ([]StatusEntry, error) {
	if s.path == "" {
		return nil, nil
	}
	scopes, err := s.baseIgnoreScopes()
	if err != nil {
		return nil, err
	}
	var entries []StatusEntry
	err = filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(s.path, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == gitlib.GitDirName {
				return filepath.SkipDir
			}
			prefix := rel
			if prefix == "." {
				prefix = ""
			}
			scope, scopeErr := ignoreScopeFor(filepath.Join(path, ".gitignore"), prefix)
			if scopeErr != nil {
				return scopeErr
			}
			if scope != nil {
				scopes = append(scopes, *scope)
			}
			return nil
		}
		matched := false
		for _, scope := range scopes {
			if scope.matches(rel) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
		if !utf8.ValidString(rel) {
			return fmt.Errorf("path %q: %w", rel, ErrInvalidPath)
		}
		if st, ok := status[rel]; ok && (st.Staging != gitlib.Unmodified || st.Worktree != gitlib.Unmodified) {
			return nil
		}
		entries = append(entries, StatusEntry{Path: rel, Location: WorkingTree, Change: New})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk ignored files: %w", err)
	}
	return entries, nil
}

// baseIgnoreScopes compiles the repository-wide ignore sources that live
// outside the working tree.
func (s *Store) baseIgnoreScopes() ([]ignoreScope, error) {
	var scopes []ignoreScope
	if s.gitDir != "" {
		scope, err := ignoreScopeFor(filepath.Join(s.gitDir, "info", "exclude"), "")
		if err != nil {
			return nil, err
		}
		if scope != nil {
			scopes = append(scopes, *scope)
		}
	}
	excludes, err := s.globalExcludesFile()
	if err != nil {
		return nil, err
	}
	if excludes != "" {
		scope, err := ignoreScopeFor(excludes, "")
		if err != nil {
			return nil, err
		}
		if scope != nil {
			scopes = append(scopes, *scope)
		}
	}
	return scopes, nil
}

func (s *Store) globalExcludesFile() (string, error) {
	cfg, err := s.repo.ConfigScoped(gitconfig.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("read git config: %w", err)
	}
	path := cfg.Raw.Section("core").Option("excludesfile")
	if path == "" {
		return "", nil
	}
	if after, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		path = filepath.Join(home, after)
	}
	return path, nil
}

// ignoreScopeFor compiles one ignore file; nil when the file is absent.
func ignoreScopeFor(file, prefix string) (*ignoreScope, error) {
	matcher, err := ignore.CompileIgnoreFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return &ignoreScope{prefix: prefix, matcher: matcher}, nil
}

// refineTypeChanges upgrades Modified entries to TypeChanged when the file
// kind itself flipped between the two sides of the diff, e.g. a regular
// file replaced by a symlink.
func (s *Store) refineTypeChanges(staged, unstaged []StatusEntry) error {
	for i, e := range staged {
		if e.Change != Modified {
			continue
		}
		from, err := s.fileFromHead(e.Path)
		if err != nil {
			return err
		}
		to, err := s.fileFromIndex(e.Path)
		if err != nil {
			return err
		}
		if from != nil && to != nil && modeClass(from.Mode) != modeClass(to.Mode) {
			staged[i].Change = TypeChanged
		}
	}
	for i, e := range unstaged {
		if e.Change != Modified {
			continue
		}
		from, err := s.fileFromIndex(e.Path)
		if err != nil {
			return err
		}
		to, err := s.fileFromDisk(e.Path)
		if err != nil {
			return err
		}
		if from != nil && to != nil && modeClass(from.Mode) != modeClass(to.Mode) {
			unstaged[i].Change = TypeChanged
		}
	}
	return nil
}

func modeClass(mode filemode.FileMode) filemode.FileMode {
	if mode == filemode.Executable || mode == filemode.Deprecated {
		return filemode.Regular
	}
	return mode
}

// detectRenames collapses deleted/new pairs whose content similarity meets
// the threshold into single Renamed entries. It runs after the raw
// add/delete pairing, so Renamed subsumes both; a rename that also changed
// content still classifies as Renamed.
func (s *Store) detectRenames(entries []StatusEntry, loc Location, threshold float64) ([]StatusEntry, error) {
	if threshold <= 0 {
		return entries, nil
	}
	var deleted, added []int
	for i, e := range entries {
		switch e.Change {
		case Deleted:
			deleted = append(deleted, i)
		case New:
			added = append(added, i)
		}
	}
	if len(deleted) == 0 || len(added) == 0 {
		return entries, nil
	}

	oldContent := make(map[int][]string, len(deleted))
	for _, i := range deleted {
		content, err := s.sourceContents(entries[i].Path, loc, true)
		if err != nil {
			return nil, err
		}
		oldContent[i] = difflib.SplitLines(content)
	}

	consumed := map[int]bool{}
	for _, ai := range added {
		content, err := s.sourceContents(entries[ai].Path, loc, false)
		if err != nil {
			return nil, err
		}
		newLines := difflib.SplitLines(content)
		best, bestRatio := -1, threshold
		for _, di := range deleted {
			if consumed[di] {
				continue
			}
			ratio := difflib.NewMatcher(oldContent[di], newLines).Ratio()
			if ratio >= bestRatio {
				best, bestRatio = di, ratio
			}
		}
		if best == -1 {
			continue
		}
		consumed[best] = true
		entries[ai].Change = Renamed
		entries[ai].From = entries[best].Path
	}
	if len(consumed) == 0 {
		return entries, nil
	}
	kept := entries[:0]
	for i, e := range entries {
		if consumed[i] {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// sourceContents reads the "from" or "to" snapshot of a path for the given
// diff side: staged diffs read HEAD tree vs index, unstaged read index vs
// disk.
func (s *Store) sourceContents(path string, loc Location, from bool) (string, error) {
	var (
		f   *object.File
		err error
	)
	switch {
	case loc == Index && from:
		f, err = s.fileFromHead(path)
	case loc == Index:
		f, err = s.fileFromIndex(path)
	case from:
		f, err = s.fileFromIndex(path)
	default:
		f, err = s.fileFromDisk(path)
	}
	if err != nil {
		return "", err
	}
	return fileContents(f)
}

func sortEntries(entries []StatusEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return strings.Compare(entries[i].From, entries[j].From) < 0
	})
}
