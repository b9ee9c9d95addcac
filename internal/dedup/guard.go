package dedup

// Verdict is the outcome of offering a candidate to a Guard.
type Verdict int

const (
	Accepted Verdict = iota
	Duplicate
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Guard holds the corpus of known normalized questions for one run.
// It is not safe for concurrent use.
type Guard struct {
	corpus     []string
	duplicates int
	invalid    int
}

func NewGuard() *Guard {
	return &Guard{}
}

// Seed adds existing raw question texts to the corpus. Texts that normalize
// to nothing are ignored.
func (g *Guard) Seed(texts []string) {
	for _, t := range texts {
		if n := Normalize(t); n != "" {
			g.corpus = append(g.corpus, n)
		}
	}
}

// Accept checks a raw candidate text against the corpus. Accepted texts are
// added to the corpus so later candidates in the same run see them.
func (g *Guard) Accept(text string) Verdict {
	n := Normalize(text)
	if n == "" {
		g.invalid++
		return Invalid
	}
	for _, known := range g.corpus {
		if IsSimilar(known, n) {
			g.duplicates++
			return Duplicate
		}
	}
	g.corpus = append(g.corpus, n)
	return Accepted
}

// Duplicates is the number of candidates rejected as near-duplicates.
func (g *Guard) Duplicates() int { return g.duplicates }

// Invalid is the number of candidates rejected for empty text.
func (g *Guard) Invalid() int { return g.invalid }

// Size is the number of texts in the corpus.
func (g *Guard) Size() int { return len(g.corpus) }
