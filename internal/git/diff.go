package git

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// PatchOrigin tags each emitted patch line.
type PatchOrigin byte

const (
	OriginContext    PatchOrigin = ' '
	OriginAddition   PatchOrigin = '+'
	OriginDeletion   PatchOrigin = '-'
	OriginFileHeader PatchOrigin = 'F'
	OriginHunkHeader PatchOrigin = 'H'
)

type PatchLine struct {
	Origin PatchOrigin
	Text   string
}

type DiffOptions struct {
	// Pathspec restricts the diff to paths equal to, under, or glob-matching
	// the given spec. Empty matches everything.
	Pathspec string

	// IgnoreWhitespace compares lines with all whitespace stripped; emitted
	// text is still the original.
	IgnoreWhitespace bool

	// Context is the number of context lines per hunk. Zero means 3.
	Context int

	// RenameScore is the similarity percentage for tree-diff rename and
	// copy detection. Zero means 50.
	RenameScore int
}

func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Context: 3, RenameScore: 50}
}

type FileDelta struct {
	Path       string
	From       string
	Insertions int
	Deletions  int
}

// DiffStats aggregates insertion/deletion counts across all hunks of a
// diff. Derived on demand, never persisted.
type DiffStats struct {
	Insertions int
	Deletions  int
	Files      []FileDelta
}

type filePair struct {
	fromPath string
	toPath   string
	from     *object.File
	to       *object.File
}

// Patch is a lazy, forward-only, single-pass patch line sequence over a set
// of file pairs. Next computes one file at a time so large diffs stream
// without full materialization; restart only by re-invoking the diff.
// Stats runs its own text-free pass and does not disturb iteration.
type Patch struct {
	pairs []filePair
	opts  DiffOptions

	idx int
	buf []PatchLine
}

// Diff compares the trees of two commits and returns the patch sequence,
// with rename/copy detection applied at the configured similarity score.
func (s *Store) Diff(base, target plumbing.Hash, opts DiffOptions) (*Patch, error) {
	fromTree, err := s.ReadTree(base)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", base, err)
	}
	toTree, err := s.ReadTree(target)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", target, err)
	}
	return s.diffTrees(fromTree, toTree, opts)
}

func (s *Store) diffTrees(from, to *object.Tree, opts DiffOptions) (*Patch, error) {
	score := opts.RenameScore
	if score <= 0 {
		score = 50
	}
	changes, err := object.DiffTreeWithOptions(context.Background(), from, to, &object.DiffTreeOptions{
		DetectRenames: true,
		RenameScore:   uint(score),
	})
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	var pairs []filePair
	for _, change := range changes {
		fromFile, toFile, err := change.Files()
		if err != nil {
			return nil, fmt.Errorf("resolve change files: %w", err)
		}
		pair := filePair{
			fromPath: change.From.Name,
			toPath:   change.To.Name,
			from:     fromFile,
			to:       toFile,
		}
		if !matchPathspec(opts.Pathspec, pair.fromPath) && !matchPathspec(opts.Pathspec, pair.toPath) {
			continue
		}
		pairs = append(pairs, pair)
	}
	return &Patch{pairs: pairs, opts: opts}, nil
}

// WorktreeDiff diffs the working copy: HEAD tree against the index when
// staged is set, the index against the working tree otherwise. Untracked
// files appear as whole-file additions.
func (s *Store) WorktreeDiff(staged bool, opts DiffOptions) (*Patch, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	var paths []string
	for p, st := range status {
		include := false
		if staged {
			include = st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked
		} else {
			include = st.Worktree != gitlib.Unmodified
		}
		if include && matchPathspec(opts.Pathspec, p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	var pairs []filePair
	for _, p := range paths {
		var from, to *object.File
		if staged {
			from, err = s.fileFromHead(p)
			if err == nil {
				to, err = s.fileFromIndex(p)
			}
		} else {
			from, err = s.fileFromIndex(p)
			if err == nil {
				to, err = s.fileFromDisk(p)
			}
		}
		if err != nil {
			return nil, err
		}
		if from == nil && to == nil {
			continue
		}
		pairs = append(pairs, filePair{fromPath: p, toPath: p, from: from, to: to})
	}
	return &Patch{pairs: pairs, opts: opts}, nil
}

// Next returns the next patch line, or io.EOF when the sequence ends.
func (p *Patch) Next() (PatchLine, error) {
	for len(p.buf) == 0 {
		if p.idx >= len(p.pairs) {
			return PatchLine{}, io.EOF
		}
		_, lines, err := diffFilePair(p.pairs[p.idx], p.opts, true)
		if err != nil {
			return PatchLine{}, err
		}
		p.idx++
		p.buf = lines
	}
	line := p.buf[0]
	p.buf = p.buf[1:]
	return line, nil
}

// Stats aggregates counts across all file pairs without assembling patch
// text. Idempotent for fixed inputs.
func (p *Patch) Stats() (DiffStats, error) {
	var stats DiffStats
	for _, pair := range p.pairs {
		delta, _, err := diffFilePair(pair, p.opts, false)
		if err != nil {
			return DiffStats{}, err
		}
		if delta.Path == "" {
			continue
		}
		stats.Insertions += delta.Insertions
		stats.Deletions += delta.Deletions
		stats.Files = append(stats.Files, delta)
	}
	return stats, nil
}

// diffFilePair produces the per-file delta and, when emit is set, the
// tagged patch lines for one pair.
func diffFilePair(pair filePair, opts DiffOptions, emit bool) (FileDelta, []PatchLine, error) {
	fromName, toName := pair.fromPath, pair.toPath
	if fromName == "" {
		fromName = toName
	}
	if toName == "" {
		toName = fromName
	}
	delta := FileDelta{Path: toName}
	if pair.fromPath != "" && pair.toPath != "" && pair.fromPath != pair.toPath {
		delta.From = pair.fromPath
	}

	binary, err := binaryPair(pair)
	if err != nil {
		return FileDelta{}, nil, err
	}
	if binary {
		if !emit {
			return delta, nil, nil
		}
		lines := fileHeaderLines(pair, fromName, toName)
		lines = append(lines, PatchLine{Origin: OriginContext, Text: "Binary files differ"})
		return delta, lines, nil
	}

	fromContent, err := fileContents(pair.from)
	if err != nil {
		return FileDelta{}, nil, err
	}
	toContent, err := fileContents(pair.to)
	if err != nil {
		return FileDelta{}, nil, err
	}
	fromLines := difflib.SplitLines(fromContent)
	toLines := difflib.SplitLines(toContent)

	context := opts.Context
	if context <= 0 {
		context = 3
	}
	matcher := difflib.NewMatcher(
		comparisonLines(fromLines, opts.IgnoreWhitespace),
		comparisonLines(toLines, opts.IgnoreWhitespace),
	)
	groups := matcher.GetGroupedOpCodes(context)
	if len(groups) == 0 && delta.From == "" {
		return FileDelta{}, nil, nil
	}

	var lines []PatchLine
	if emit {
		lines = fileHeaderLines(pair, fromName, toName)
	}
	for _, group := range groups {
		if emit {
			first, last := group[0], group[len(group)-1]
			lines = append(lines, PatchLine{
				Origin: OriginHunkHeader,
				Text: fmt.Sprintf("@@ -%s +%s @@",
					hunkRange(first.I1, last.I2),
					hunkRange(first.J1, last.J2)),
			})
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				if emit {
					for _, l := range fromLines[op.I1:op.I2] {
						lines = append(lines, PatchLine{Origin: OriginContext, Text: chomp(l)})
					}
				}
			case 'd', 'r', 'i':
				if op.Tag != 'i' {
					delta.Deletions += op.I2 - op.I1
					if emit {
						for _, l := range fromLines[op.I1:op.I2] {
							lines = append(lines, PatchLine{Origin: OriginDeletion, Text: chomp(l)})
						}
					}
				}
				if op.Tag != 'd' {
					delta.Insertions += op.J2 - op.J1
					if emit {
						for _, l := range toLines[op.J1:op.J2] {
							lines = append(lines, PatchLine{Origin: OriginAddition, Text: chomp(l)})
						}
					}
				}
			}
		}
	}
	return delta, lines, nil
}

func fileHeaderLines(pair filePair, fromName, toName string) []PatchLine {
	lines := []PatchLine{{
		Origin: OriginFileHeader,
		Text:   fmt.Sprintf("diff --git a/%s b/%s", fromName, toName),
	}}
	if pair.fromPath != "" && pair.toPath != "" && pair.fromPath != pair.toPath {
		lines = append(lines,
			PatchLine{Origin: OriginFileHeader, Text: "rename from " + pair.fromPath},
			PatchLine{Origin: OriginFileHeader, Text: "rename to " + pair.toPath},
		)
	}
	fromLabel, toLabel := "a/"+fromName, "b/"+toName
	if pair.from == nil {
		fromLabel = "/dev/null"
	}
	if pair.to == nil {
		toLabel = "/dev/null"
	}
	lines = append(lines,
		PatchLine{Origin: OriginFileHeader, Text: "--- " + fromLabel},
		PatchLine{Origin: OriginFileHeader, Text: "+++ " + toLabel},
	)
	return lines
}

// hunkRange renders one side of a @@ header in the unified-diff "ed"
// convention: the count is omitted when it is 1, and a zero-length range
// is anchored to the preceding line.
func hunkRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return strconv.Itoa(beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}

func binaryPair(pair filePair) (bool, error) {
	for _, f := range []*object.File{pair.from, pair.to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func comparisonLines(lines []string, ignoreWhitespace bool) []string {
	if !ignoreWhitespace {
		return lines
	}
	stripped := make([]string, len(lines))
	for i, l := range lines {
		stripped[i] = strings.Join(strings.Fields(l), "")
	}
	return stripped
}

func chomp(l string) string {
	return strings.TrimSuffix(l, "\n")
}

func matchPathspec(spec, p string) bool {
	if spec == "" {
		return p != ""
	}
	if p == spec || strings.HasPrefix(p, spec+"/") {
		return true
	}
	ok, err := path.Match(spec, p)
	return err == nil && ok
}

