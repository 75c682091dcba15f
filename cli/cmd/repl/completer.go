package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/scfg/lang"
)

// isWordBoundary reports whether r delimits a completion word: whitespace,
// the member-access dot, and script punctuation.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '@',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '=', ',', ':', ';', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor position and its byte
// boundaries within input. It returns an empty word when the cursor sits on
// a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For input "x + server.http.ho" with the word "ho", the parent
// path is "server.http". A leading "@" is kept. It returns "" for words that
// are not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			if r == '@' {
				pos -= size
			}

			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// candidates returns the names that complete a word under parent: the names
// visible from the global scope for an empty parent, otherwise the members of
// the struct that parent names.
func candidates(tree *lang.Tree, parent string) []string {
	if parent == "" {
		return tree.Root().Names()
	}

	e, ok := tree.Lookup(parent)
	if !ok {
		return nil
	}

	s, ok := e.Struct()
	if !ok {
		return nil
	}

	return s.Names()
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best first. An empty word at the top level has no matches; an empty
// word after a dot matches every member.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, ws, we := wordBounds(input, m.input.Position())

	if strings.HasPrefix(strings.TrimSpace(input), ":") && ws <= 1 {
		if word == "" {
			return nil, ws, we
		}

		return fuzzy.Find(word, commandNames()), ws, we
	}

	parent := parentPath(input, ws)
	cands := candidates(m.tree, parent)

	if len(cands) == 0 {
		return nil, ws, we
	}

	if word == "" {
		if parent == "" {
			return nil, ws, we
		}

		matches = make(fuzzy.Matches, len(cands))
		for i, c := range cands {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, ws, we
	}

	return fuzzy.Find(word, cands), ws, we
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate (when tabbing) uses the selected
// style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
