package sentiment

import (
	"regexp"
	"strings"
)

// Entry is a word's prior polarity and subjectivity.
type Entry struct {
	Polarity     float64
	Subjectivity float64
}

// Lexicon scores text by averaging the entries of the words it contains.
// A preceding intensifier scales a word's polarity and subjectivity; a
// negation within the previous three tokens flips its polarity at half
// strength ("not good" is mildly negative, not the opposite of good).
type Lexicon struct {
	words        map[string]Entry
	intensifiers map[string]float64
	negations    map[string]struct{}
}

const (
	negationWindow = 3
	negationFactor = -0.5
)

var wordRx = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?|[!?]`)

// NewLexicon builds a lexicon from explicit tables.
func NewLexicon(words map[string]Entry, intensifiers map[string]float64, negations []string) *Lexicon {
	l := &Lexicon{
		words:        make(map[string]Entry, len(words)),
		intensifiers: make(map[string]float64, len(intensifiers)),
		negations:    make(map[string]struct{}, len(negations)),
	}
	for w, e := range words {
		l.words[strings.ToLower(w)] = e
	}
	for w, f := range intensifiers {
		l.intensifiers[strings.ToLower(w)] = f
	}
	for _, w := range negations {
		l.negations[strings.ToLower(w)] = struct{}{}
	}
	return l
}

// DefaultLexicon is a general English opinion lexicon with common market and
// internet slang. It carries no asset-specific entries.
func DefaultLexicon() *Lexicon {
	return NewLexicon(defaultWords, defaultIntensifiers, defaultNegations)
}

func (l *Lexicon) Score(text string) Score {
	tokens := wordRx.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return Score{}
	}

	var (
		polarity, subjectivity float64
		hits                   int
		exclaim                bool
	)
	for i, tok := range tokens {
		if tok == "!" {
			exclaim = true
			continue
		}
		e, ok := l.words[tok]
		if !ok {
			continue
		}
		p, s := e.Polarity, e.Subjectivity
		if i > 0 {
			if f, ok := l.intensifiers[tokens[i-1]]; ok {
				p *= f
				s *= f
			}
		}
		if l.negated(tokens, i) {
			p *= negationFactor
		}
		polarity += clamp(p, -1, 1)
		subjectivity += clamp(s, 0, 1)
		hits++
	}
	if hits == 0 {
		return Score{}
	}

	out := Score{
		Polarity:     polarity / float64(hits),
		Subjectivity: subjectivity / float64(hits),
	}
	if exclaim {
		out.Polarity *= 1.1
	}
	return out.clamped()
}

func (l *Lexicon) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		tok := tokens[j]
		if _, ok := l.negations[tok]; ok || strings.HasSuffix(tok, "n't") {
			return true
		}
	}
	return false
}

var defaultNegations = []string{"not", "no", "never", "none", "nobody", "nothing", "neither", "nor", "without", "cannot", "cant", "dont", "wont", "isnt", "aint"}

var defaultIntensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.2,
	"so":         1.2,
	"super":      1.3,
	"extremely":  1.5,
	"incredibly": 1.5,
	"absolutely": 1.4,
	"totally":    1.3,
	"mega":       1.3,
	"quite":      1.1,
	"pretty":     1.1,
	"somewhat":   0.7,
	"slightly":   0.5,
	"barely":     0.4,
	"kinda":      0.7,
}

var defaultWords = map[string]Entry{
	// positive
	"good":        {0.7, 0.6},
	"great":       {0.8, 0.75},
	"excellent":   {1.0, 1.0},
	"amazing":     {0.6, 0.9},
	"awesome":     {1.0, 1.0},
	"best":        {1.0, 0.3},
	"better":      {0.5, 0.5},
	"nice":        {0.6, 1.0},
	"love":        {0.5, 0.6},
	"happy":       {0.8, 1.0},
	"glad":        {0.5, 1.0},
	"excited":     {0.4, 0.75},
	"exciting":    {0.3, 0.8},
	"strong":      {0.4, 0.7},
	"solid":       {0.3, 0.6},
	"win":         {0.8, 0.4},
	"winning":     {0.5, 0.5},
	"profit":      {0.5, 0.3},
	"profitable":  {0.5, 0.5},
	"gain":        {0.4, 0.3},
	"gains":       {0.4, 0.3},
	"growth":      {0.4, 0.3},
	"up":          {0.1, 0.1},
	"rise":        {0.3, 0.3},
	"rising":      {0.3, 0.3},
	"rally":       {0.6, 0.5},
	"surge":       {0.6, 0.5},
	"soar":        {0.7, 0.6},
	"soaring":     {0.7, 0.6},
	"pump":        {0.4, 0.6},
	"pumping":     {0.4, 0.6},
	"moon":        {0.6, 0.7},
	"mooning":     {0.7, 0.8},
	"bullish":     {0.7, 0.7},
	"breakout":    {0.6, 0.5},
	"recover":     {0.4, 0.4},
	"recovery":    {0.4, 0.4},
	"optimistic":  {0.6, 0.8},
	"confident":   {0.5, 0.8},
	"safe":        {0.5, 0.5},
	"undervalued": {0.4, 0.6},
	"adoption":    {0.3, 0.3},
	"hodl":        {0.3, 0.6},
	"lambo":       {0.5, 0.8},
	"success":     {0.6, 0.5},
	"successful":  {0.7, 0.9},
	"wonderful":   {1.0, 1.0},
	"fantastic":   {0.4, 0.9},
	"perfect":     {1.0, 1.0},
	"fun":         {0.3, 0.2},

	// negative
	"bad":        {-0.7, 0.67},
	"worse":      {-0.4, 0.6},
	"worst":      {-1.0, 1.0},
	"terrible":   {-1.0, 1.0},
	"awful":      {-1.0, 1.0},
	"horrible":   {-1.0, 1.0},
	"hate":       {-0.8, 0.9},
	"sad":        {-0.5, 1.0},
	"angry":      {-0.5, 1.0},
	"afraid":     {-0.6, 0.9},
	"fear":       {-0.5, 0.7},
	"scared":     {-0.6, 0.9},
	"panic":      {-0.7, 0.8},
	"worried":    {-0.5, 0.8},
	"weak":       {-0.4, 0.6},
	"lose":       {-0.5, 0.4},
	"losing":     {-0.5, 0.4},
	"loss":       {-0.5, 0.3},
	"losses":     {-0.5, 0.3},
	"lost":       {-0.4, 0.3},
	"down":       {-0.15, 0.2},
	"drop":       {-0.4, 0.3},
	"dropping":   {-0.4, 0.4},
	"fall":       {-0.4, 0.3},
	"falling":    {-0.4, 0.4},
	"crash":      {-0.8, 0.6},
	"crashing":   {-0.8, 0.7},
	"plunge":     {-0.7, 0.5},
	"dump":       {-0.6, 0.6},
	"dumping":    {-0.6, 0.6},
	"bearish":    {-0.7, 0.7},
	"rekt":       {-0.8, 0.9},
	"scam":       {-0.9, 0.9},
	"fraud":      {-0.9, 0.8},
	"hack":       {-0.6, 0.4},
	"hacked":     {-0.7, 0.5},
	"rug":        {-0.7, 0.6},
	"risky":      {-0.3, 0.7},
	"overvalued": {-0.4, 0.6},
	"bubble":     {-0.4, 0.6},
	"dead":       {-0.6, 0.6},
	"broke":      {-0.5, 0.5},
	"fail":       {-0.5, 0.4},
	"failed":     {-0.5, 0.4},
	"failure":    {-0.6, 0.5},
	"stupid":     {-0.8, 1.0},
	"boring":     {-1.0, 1.0},
	"ugly":       {-0.7, 1.0},
}
