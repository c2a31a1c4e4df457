// Package keywords compiles user-authored keyword configuration strings
// into structured, immutable rule sets.
//
// The rule language is a comma-separated list of tokens:
//
//	golang              plain optional term
//	develop*            wildcard (prefix match; *term suffix, *term* substring)
//	[relocation]        required term
//	[remote/online]     OR-group, at least one member required
//	python+django       AND-group, all members required
//	product manager     phrase, words must appear consecutively
//
// Compilation is total: malformed fragments degrade to literal optional
// terms and never produce an error. Keyword strings are untrusted user
// input and must not be able to crash the engine.
package keywords

import (
	"strings"
	"unicode"
)

// ParsedKeywords is the compiled form of one user's keyword configuration.
// Every sub-list is non-empty when present; a blank configuration compiles
// to the zero value, which never matches anything.
type ParsedKeywords struct {
	Required   []string   // terms that must all be present
	RequiredOr [][]string // OR-groups; each group needs at least one member
	Optional   []string   // plain terms; gate only when no mandatory category exists
	Wildcards  []string   // patterns containing *
	Phrases    [][]string // ordered token sequences, matched consecutively
	AndGroups  [][]string // groups where all members must be present
}

// IsEmpty reports whether the rule set contains no terms at all.
func (p *ParsedKeywords) IsEmpty() bool {
	return len(p.Required) == 0 && len(p.RequiredOr) == 0 && len(p.Optional) == 0 &&
		len(p.Wildcards) == 0 && len(p.Phrases) == 0 && len(p.AndGroups) == 0
}

// HasMandatory reports whether any mandatory category (required, OR-groups,
// AND-groups, phrases) is present. When none is, optional terms and
// wildcards gate matching on their own.
func (p *ParsedKeywords) HasMandatory() bool {
	return len(p.Required) > 0 || len(p.RequiredOr) > 0 ||
		len(p.Phrases) > 0 || len(p.AndGroups) > 0
}

// IgnoreList is the compiled block list. If any entry matches a message the
// message is rejected for that user regardless of keyword matches.
type IgnoreList struct {
	Terms     []string
	Wildcards []string
	Phrases   [][]string
}

// IsEmpty reports whether the ignore list contains no entries.
func (l *IgnoreList) IsEmpty() bool {
	return len(l.Terms) == 0 && len(l.Wildcards) == 0 && len(l.Phrases) == 0
}

// Compile parses a raw comma-separated keyword configuration string into a
// ParsedKeywords. It never fails: fragments that do not parse as special
// syntax are kept as literal optional terms, and a blank input compiles to
// the empty rule set.
func Compile(raw string) ParsedKeywords {
	var parsed ParsedKeywords

	for _, token := range splitTokens(raw) {
		switch {
		case isBracketGroup(token):
			members := cleanWords(strings.Split(token[1:len(token)-1], "/"))
			if len(members) == 1 {
				parsed.Required = append(parsed.Required, members[0])
			} else if len(members) > 1 {
				parsed.RequiredOr = append(parsed.RequiredOr, members)
			}

		case strings.Contains(token, "+"):
			members := cleanPatterns(strings.Split(token, "+"))
			if len(members) == 1 {
				parsed.addSimple(members[0])
			} else if len(members) > 1 {
				parsed.AndGroups = append(parsed.AndGroups, members)
			}

		case strings.ContainsAny(token, " \t"):
			words := cleanPatterns(strings.Fields(token))
			if len(words) == 1 {
				parsed.addSimple(words[0])
			} else if len(words) > 1 {
				parsed.Phrases = append(parsed.Phrases, words)
			}

		default:
			if term := cleanPattern(token); term != "" {
				parsed.addSimple(term)
			}
		}
	}

	return parsed
}

// addSimple files a single cleaned term as a wildcard or an optional term.
func (p *ParsedKeywords) addSimple(term string) {
	if strings.Contains(term, "*") {
		p.Wildcards = append(p.Wildcards, term)
	} else {
		p.Optional = append(p.Optional, term)
	}
}

// CompileIgnore parses a raw comma-separated ignore configuration string
// into an IgnoreList. Like Compile, it is total and never fails.
func CompileIgnore(raw string) IgnoreList {
	var list IgnoreList

	for _, token := range splitTokens(raw) {
		if strings.ContainsAny(token, " \t") {
			words := cleanPatterns(strings.Fields(token))
			if len(words) == 1 {
				list.addSimple(words[0])
			} else if len(words) > 1 {
				list.Phrases = append(list.Phrases, words)
			}
			continue
		}
		if term := cleanPattern(token); term != "" {
			list.addSimple(term)
		}
	}

	return list
}

func (l *IgnoreList) addSimple(term string) {
	if strings.Contains(term, "*") {
		l.Wildcards = append(l.Wildcards, term)
	} else {
		l.Terms = append(l.Terms, term)
	}
}

// Tokenize normalizes free-form message text into lowercase word tokens.
// Every rune that is not a Unicode letter or number acts as a separator,
// so punctuation never interferes with matching. The same normalization is
// applied to keyword terms at compile time.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// splitTokens splits a raw configuration string on commas, lowercases each
// fragment, and drops blanks.
func splitTokens(raw string) []string {
	var tokens []string
	for _, fragment := range strings.Split(raw, ",") {
		token := strings.ToLower(strings.TrimSpace(fragment))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// isBracketGroup reports whether a token is wrapped in a single matched
// pair of square brackets.
func isBracketGroup(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]")
}

// cleanWord strips every rune that is not a Unicode letter or number.
func cleanWord(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, s)
}

// cleanPattern strips every rune that is not a Unicode letter, number, or
// wildcard marker. A pattern reduced to nothing but markers is dropped.
func cleanPattern(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '*' {
			return r
		}
		return -1
	}, s)
	if strings.Trim(cleaned, "*") == "" {
		return ""
	}
	return cleaned
}

func cleanWords(parts []string) []string {
	var out []string
	for _, part := range parts {
		if w := cleanWord(part); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func cleanPatterns(parts []string) []string {
	var out []string
	for _, part := range parts {
		if p := cleanPattern(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
