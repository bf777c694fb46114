package sqlexec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrEmptyStatement     = errors.New("statement is empty")
	ErrMultipleStatements = errors.New("multiple statements are not allowed")
	ErrNotReadOnly        = errors.New("only read-only statements are allowed")
)

// writeKeywords may not appear anywhere in a read-only statement, which
// catches data-modifying CTEs and EXPLAIN ANALYZE of a write.
var writeKeywords = map[string]struct{}{
	"insert":   {},
	"update":   {},
	"delete":   {},
	"merge":    {},
	"upsert":   {},
	"into":     {},
	"drop":     {},
	"create":   {},
	"alter":    {},
	"truncate": {},
	"grant":    {},
	"revoke":   {},
	"attach":   {},
	"detach":   {},
	"copy":     {},
	"vacuum":   {},
	"pragma":   {},
	"call":     {},
	"lock":     {},
}

var readOnlyKeywords = map[string]struct{}{
	"select":   {},
	"with":     {},
	"show":     {},
	"describe": {},
	"desc":     {},
	"explain":  {},
	"values":   {},
	"table":    {},
}

// Guard screens generated SQL before it reaches the database. It is a
// lexical check, not a parser.
type Guard struct {
	ReadOnly bool
}

// Check returns the statement with trailing semicolons removed, or an error
// explaining why it must not run.
func (g Guard) Check(sqlText string) (string, error) {
	statement := stripTrailingSemicolons(sqlText)
	if strings.TrimSpace(stripLiteralsAndComments(statement)) == "" {
		return "", ErrEmptyStatement
	}
	if hasMultipleStatements(statement) {
		return "", ErrMultipleStatements
	}
	if g.ReadOnly {
		keyword := leadingKeyword(statement)
		if _, ok := readOnlyKeywords[keyword]; !ok {
			return "", fmt.Errorf("%w: got %q", ErrNotReadOnly, strings.ToUpper(keyword))
		}
		if word, found := firstWriteKeyword(statement); found {
			return "", fmt.Errorf("%w: contains %q", ErrNotReadOnly, strings.ToUpper(word))
		}
	}
	return statement, nil
}

// stripTrailingSemicolons drops the semicolons at the end of the statement
// together with any comments mixed in with them.
func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	end, trailing := 0, false
	scan(trimmed, func(i int) {
		switch c := trimmed[i]; {
		case c == ';':
			trailing = true
		case !unicode.IsSpace(rune(c)):
			end, trailing = i+1, false
		}
	})
	if !trailing {
		return trimmed
	}
	return strings.TrimSpace(trimmed[:end])
}

// scan walks sqlText and calls visit for every byte outside comments and the
// contents of string literals and quoted identifiers. The quote characters
// themselves are visited.
func scan(sqlText string, visit func(i int)) {
	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			visit(i)
			i = skipQuoted(sqlText, i, c)
			if i < len(sqlText) {
				visit(i)
			}
		case c == '-' && i+1 < len(sqlText) && sqlText[i+1] == '-':
			i = skipLine(sqlText, i)
		case c == '/' && i+1 < len(sqlText) && sqlText[i+1] == '*':
			end := strings.Index(sqlText[i+2:], "*/")
			if end < 0 {
				return
			}
			i += end + 3
		default:
			visit(i)
		}
	}
}

func skipQuoted(sqlText string, start int, quote byte) int {
	for i := start + 1; i < len(sqlText); i++ {
		switch sqlText[i] {
		case '\\':
			if quote == '\'' {
				i++
			}
		case quote:
			if i+1 < len(sqlText) && sqlText[i+1] == quote {
				i++
				continue
			}
			return i
		}
	}
	return len(sqlText)
}

func skipLine(sqlText string, start int) int {
	end := strings.IndexByte(sqlText[start:], '\n')
	if end < 0 {
		return len(sqlText)
	}
	return start + end
}

// hasMultipleStatements reports whether a semicolon outside literals and
// comments is followed by more statement text.
func hasMultipleStatements(sqlText string) bool {
	separated, found := false, false
	scan(sqlText, func(i int) {
		switch c := sqlText[i]; {
		case c == ';':
			separated = true
		case separated && !unicode.IsSpace(rune(c)):
			found = true
		}
	})
	return found
}

func stripLiteralsAndComments(sqlText string) string {
	var b strings.Builder
	scan(sqlText, func(i int) {
		b.WriteByte(sqlText[i])
	})
	return b.String()
}

// leadingKeyword returns the first word of the statement in lower case,
// ignoring comments and opening parentheses.
func leadingKeyword(sqlText string) string {
	var b strings.Builder
	done := false
	scan(sqlText, func(i int) {
		if done {
			return
		}
		r := rune(sqlText[i])
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case b.Len() > 0:
			done = true
		}
	})
	return b.String()
}

// firstWriteKeyword returns the first bare word of sqlText that names a
// data-modifying command.
func firstWriteKeyword(sqlText string) (string, bool) {
	var (
		b     strings.Builder
		found string
	)
	flush := func() {
		if found == "" && b.Len() > 0 {
			if _, ok := writeKeywords[b.String()]; ok {
				found = b.String()
			}
		}
		b.Reset()
	}
	prev := -1
	scan(sqlText, func(i int) {
		if i != prev+1 {
			flush()
		}
		prev = i
		r := rune(sqlText[i])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			b.WriteRune(unicode.ToLower(r))
			return
		}
		flush()
	})
	flush()
	return found, found != ""
}
