// Package matcher evaluates normalized channel messages against compiled
// keyword rule sets. Evaluation is pure and stateless, so it is safe for
// unlimited concurrent use across pipeline workers.
package matcher

import (
	"strings"

	"notifier/internal/keywords"
)

// MatchResult is the outcome of evaluating one message against one user's
// rules. It is produced and consumed within a single pipeline pass.
type MatchResult struct {
	IsMatch         bool
	MatchedKeywords []string
	BlockedByIgnore bool
	IgnoredKeywords []string
}

// Evaluate checks a message against a compiled rule set and ignore list.
//
// The ignore list always wins: if any ignore entry matches, the result is
// blocked regardless of keyword satisfaction. Otherwise every mandatory
// category present (required terms, OR-groups, AND-groups, phrases) must be
// satisfied. When no mandatory category exists, at least one optional term
// or wildcard must match. An empty rule set never matches.
func Evaluate(text string, rules *keywords.ParsedKeywords, ignore *keywords.IgnoreList) MatchResult {
	tokens := keywords.Tokenize(text)

	if blocked := matchIgnore(tokens, ignore); len(blocked) > 0 {
		return MatchResult{BlockedByIgnore: true, IgnoredKeywords: blocked}
	}

	if rules.IsEmpty() {
		return MatchResult{}
	}

	var matched []string

	for _, term := range rules.Required {
		if !termMatches(tokens, term) {
			return MatchResult{}
		}
		matched = append(matched, term)
	}

	for _, group := range rules.RequiredOr {
		hit := ""
		for _, term := range group {
			if termMatches(tokens, term) {
				hit = term
				break
			}
		}
		if hit == "" {
			return MatchResult{}
		}
		matched = append(matched, hit)
	}

	for _, group := range rules.AndGroups {
		for _, term := range group {
			if !termMatches(tokens, term) {
				return MatchResult{}
			}
		}
		matched = append(matched, strings.Join(group, "+"))
	}

	if len(rules.Phrases) > 0 {
		hit := false
		for _, phrase := range rules.Phrases {
			if phraseMatches(tokens, phrase) {
				matched = append(matched, strings.Join(phrase, " "))
				hit = true
			}
		}
		if !hit {
			return MatchResult{}
		}
	}

	// Optional terms and wildcards gate only when no mandatory category is
	// configured; otherwise they contribute to matched keywords as bonus
	// signal for observability.
	optionalHits := matchSimple(tokens, rules.Optional, rules.Wildcards)
	matched = append(matched, optionalHits...)

	if !rules.HasMandatory() && len(optionalHits) == 0 {
		return MatchResult{}
	}

	return MatchResult{IsMatch: true, MatchedKeywords: matched}
}

// matchIgnore returns every ignore entry that matches the token stream.
func matchIgnore(tokens []string, ignore *keywords.IgnoreList) []string {
	if ignore == nil || ignore.IsEmpty() {
		return nil
	}

	var blocked []string
	for _, term := range ignore.Terms {
		if termMatches(tokens, term) {
			blocked = append(blocked, term)
		}
	}
	for _, pattern := range ignore.Wildcards {
		if termMatches(tokens, pattern) {
			blocked = append(blocked, pattern)
		}
	}
	for _, phrase := range ignore.Phrases {
		if phraseMatches(tokens, phrase) {
			blocked = append(blocked, strings.Join(phrase, " "))
		}
	}
	return blocked
}

// matchSimple collects the optional terms and wildcard patterns that match.
func matchSimple(tokens []string, optional, wildcards []string) []string {
	var hits []string
	for _, term := range optional {
		if termMatches(tokens, term) {
			hits = append(hits, term)
		}
	}
	for _, pattern := range wildcards {
		if termMatches(tokens, pattern) {
			hits = append(hits, pattern)
		}
	}
	return hits
}

// termMatches reports whether a term matches any token. Plain terms require
// whole-token equality. Patterns with wildcard markers match by position:
// "term*" is a prefix match, "*term" a suffix match, "*term*" substring
// containment. Patterns with interior markers match the fixed parts in
// order within a single token.
func termMatches(tokens []string, term string) bool {
	for _, token := range tokens {
		if tokenMatches(token, term) {
			return true
		}
	}
	return false
}

func tokenMatches(token, term string) bool {
	if !strings.Contains(term, "*") {
		return token == term
	}

	parts := strings.Split(term, "*")
	first, last := parts[0], parts[len(parts)-1]

	if first != "" {
		if !strings.HasPrefix(token, first) {
			return false
		}
		token = token[len(first):]
	}
	if last != "" {
		if !strings.HasSuffix(token, last) {
			return false
		}
		token = token[:len(token)-len(last)]
	}
	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		idx := strings.Index(token, mid)
		if idx < 0 {
			return false
		}
		token = token[idx+len(mid):]
	}
	return true
}

// phraseMatches reports whether the phrase words appear as consecutive
// tokens in the message.
func phraseMatches(tokens []string, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for start := 0; start+len(phrase) <= len(tokens); start++ {
		ok := true
		for i, word := range phrase {
			if !tokenMatches(tokens[start+i], word) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
