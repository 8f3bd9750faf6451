package query

import (
	"regexp"
	"strings"
)

// likeToRegex translates a SQL-style LIKE pattern ('%' matches any run of
// characters, '_' matches exactly one, '\' escapes the following wildcard)
// into an equivalent Go regexp, anchored at both ends. This is the
// in-process analog of the teacher's Op = "like"/"glob" SQL passthrough
// (atomicbase api/data/query_json.go buildFilterClause): there the
// wildcard is handed to the database engine verbatim; here there is no
// database to hand it to, so the same wildcard syntax is compiled to a
// Go regexp instead.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// compileLike compiles a LIKE pattern to a Go regexp.
func compileLike(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(likeToRegex(pattern))
}

// compileRegex compiles a $regex pattern. Go's RE2 engine (regexp) stands
// in for the POSIX-extended regular expressions the relational substrate
// would otherwise hand to the database's own regex support.
func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}
