package term

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightLine runs the code portion of a context line through the
// syntax highlighter for the file the diff is currently inside of.
// Returns the input unchanged when no lexer matches or color is off.
func (t Theme) HighlightLine(path, code string) string {
	if !t.Color || path == "" {
		return code
	}
	lexer := lexerForPath(path)
	if lexer == nil {
		return code
	}
	style := styles.Get(t.palette.chromaStyle)
	if style == nil {
		return code
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	if err := formatters.TTY256.Format(&b, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func lexerForPath(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// DiffPath extracts the target path from a "diff --git a/x b/y" header so
// the caller can switch lexers as the patch stream crosses file
// boundaries. Returns false for any other line.
func DiffPath(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", false
	}
	return strings.TrimPrefix(fields[len(fields)-1], "b/"), true
}
