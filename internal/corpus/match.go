package corpus

import (
	"regexp"
	"strings"

	"sentiment-lens/internal/domain"
)

// Matcher reports which of symbols text mentions, each at most once, in the
// order symbols were given.
type Matcher interface {
	Match(text string, symbols []string) []string
}

// SubstringMatcher treats a symbol as mentioned when its uppercase form
// occurs anywhere in the uppercased text. "SOL" matches "SOLD" and "ETH"
// matches "METHOD".
type SubstringMatcher struct{}

func (SubstringMatcher) Match(text string, symbols []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	upper := strings.ToUpper(text)
	var out []string
	for _, s := range uniqueSymbols(symbols) {
		if strings.Contains(upper, s) {
			out = append(out, s)
		}
	}
	return out
}

var tokenRx = regexp.MustCompile(`\$?[A-Za-z0-9]{2,12}`)

// WordMatcher matches whole tokens only, with an optional leading "$", and
// also accepts each symbol's aliases (e.g. "bitcoin" for BTC).
type WordMatcher struct {
	Aliases map[string][]string
}

// NewWordMatcher uses each asset's name as an alias for its symbol.
func NewWordMatcher(assets []domain.Asset) WordMatcher {
	aliases := make(map[string][]string, len(assets))
	for _, a := range assets {
		symbol := domain.NormalizeSymbol(a.Symbol)
		if name := strings.ToUpper(strings.TrimSpace(a.Name)); name != "" && name != symbol {
			aliases[symbol] = append(aliases[symbol], name)
		}
	}
	return WordMatcher{Aliases: aliases}
}

func (m WordMatcher) Match(text string, symbols []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tokens := make(map[string]struct{})
	for _, raw := range tokenRx.FindAllString(text, -1) {
		tokens[strings.ToUpper(strings.TrimPrefix(raw, "$"))] = struct{}{}
	}
	upper := strings.ToUpper(text)

	var out []string
	for _, s := range uniqueSymbols(symbols) {
		if _, ok := tokens[s]; ok {
			out = append(out, s)
			continue
		}
		for _, alias := range m.Aliases[s] {
			if containsWord(upper, strings.ToUpper(alias)) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// containsWord reports whether word occurs in text bounded by non-alphanumerics.
func containsWord(text, word string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if (i == 0 || !isAlnum(text[i-1])) && (end == len(text) || !isAlnum(text[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isAlnum(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = domain.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// NewMatcher returns the matcher for a MATCH_MODE value; anything but "word"
// selects substring matching.
func NewMatcher(mode string, assets []domain.Asset) Matcher {
	if strings.EqualFold(strings.TrimSpace(mode), "word") {
		return NewWordMatcher(assets)
	}
	return SubstringMatcher{}
}
