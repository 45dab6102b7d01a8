package payroll

import (
	"sort"
	"strings"
)

// DirectoryEntry is one employee or region fetched from the external payroll
// system.
type DirectoryEntry struct {
	ID   string
	Name string
}

// Directory is the read-only snapshot of external identities for one run.
// It is fetched once and never refreshed mid-run.
type Directory struct {
	Employees []DirectoryEntry
	Regions   []DirectoryEntry
}

// DirectorySource supplies the directory snapshot at the start of a run.
type DirectorySource interface {
	Fetch() (Directory, error)
}

// ResolverOptions tunes the fuzzy matcher. Scores are in [0,1].
type ResolverOptions struct {
	// AutoMatchThreshold is the score above which a single strong candidate
	// resolves automatically (regions) or becomes the surfaced suggestion
	// (employees).
	AutoMatchThreshold float64
	// SuggestionThreshold is the minimum score for a candidate to be kept.
	SuggestionThreshold float64
	// MatchMargin is the minimum lead the top candidate needs over the
	// runner-up to count as unambiguous.
	MatchMargin float64
	// Overrides maps a raw employee name to a confirmed external ID, or to
	// "" when the suggestion was explicitly rejected.
	Overrides map[string]string
}

// DefaultResolverOptions mirrors the matcher tuning the payroll team has been
// running with.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		AutoMatchThreshold:  0.925,
		SuggestionThreshold: 0.60,
		MatchMargin:         0.05,
	}
}

// Resolver matches raw names against a directory snapshot. It holds no
// mutable state and never touches the network.
type Resolver struct {
	dir  Directory
	opts ResolverOptions
}

func NewResolver(dir Directory, opts ResolverOptions) *Resolver {
	if opts.AutoMatchThreshold == 0 {
		opts = DefaultResolverOptions()
	}
	return &Resolver{dir: dir, opts: opts}
}

// ResolveEmployee resolves a raw employee name. Exact (case-insensitive)
// matches resolve immediately. A strong fuzzy match is surfaced as a
// suggestion but stays Ambiguous until confirmed through an override; a
// rejected override or the absence of candidates yields Unresolved, which is
// a hard stop for that employee's real submission.
func (r *Resolver) ResolveEmployee(rawName string) Identity {
	name := strings.TrimSpace(rawName)
	id := Identity{RawName: rawName, State: StateUnresolved}
	if name == "" {
		return id
	}

	if override, ok := r.opts.Overrides[name]; ok {
		if override == "" {
			return id
		}
		if entry := r.lookupByID(r.dir.Employees, override); entry != nil {
			id.State = StateResolved
			id.ResolvedID = entry.ID
			id.Candidates = []Candidate{{ExternalID: entry.ID, DisplayName: entry.Name, Score: 1.0}}
			return id
		}
		return id
	}

	if entry := exactMatch(r.dir.Employees, name); entry != nil {
		id.State = StateResolved
		id.ResolvedID = entry.ID
		id.Candidates = []Candidate{{ExternalID: entry.ID, DisplayName: entry.Name, Score: 1.0}}
		return id
	}

	candidates := r.fuzzyCandidates(r.dir.Employees, name)
	if len(candidates) == 0 {
		return id
	}

	// The top candidate is a suggestion only: employees always need explicit
	// confirmation before resolving.
	id.State = StateAmbiguous
	id.Candidates = candidates
	return id
}

// ResolveRegion resolves a raw region name. Unlike employees, a single strong
// fuzzy match auto-resolves, and anything weaker is classified Unknown rather
// than Unresolved.
func (r *Resolver) ResolveRegion(rawName string) Identity {
	name := strings.TrimSpace(rawName)
	id := Identity{RawName: rawName, State: StateUnknown}
	if name == "" {
		return id
	}

	if entry := exactMatch(r.dir.Regions, name); entry != nil {
		id.State = StateResolved
		id.ResolvedID = entry.ID
		id.Candidates = []Candidate{{ExternalID: entry.ID, DisplayName: entry.Name, Score: 1.0}}
		return id
	}

	candidates := r.fuzzyCandidates(r.dir.Regions, name)
	if len(candidates) == 0 {
		return id
	}

	top := candidates[0]
	clearLead := len(candidates) == 1 || top.Score-candidates[1].Score >= r.opts.MatchMargin
	if top.Score >= r.opts.AutoMatchThreshold && clearLead {
		id.State = StateResolved
		id.ResolvedID = top.ExternalID
	}
	id.Candidates = candidates
	return id
}

func (r *Resolver) lookupByID(entries []DirectoryEntry, id string) *DirectoryEntry {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
	}
	return nil
}

func exactMatch(entries []DirectoryEntry, name string) *DirectoryEntry {
	for i := range entries {
		if strings.EqualFold(strings.TrimSpace(entries[i].Name), name) {
			return &entries[i]
		}
	}
	return nil
}

func (r *Resolver) fuzzyCandidates(entries []DirectoryEntry, name string) []Candidate {
	nameNorm := strings.ToLower(name)
	nameTokens := strings.Fields(nameNorm)
	inputLast := ""
	if len(nameTokens) >= 2 {
		inputLast = nameTokens[len(nameTokens)-1]
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.Name == "" || entry.ID == "" {
			continue
		}
		entryNorm := strings.ToLower(strings.TrimSpace(entry.Name))

		ratioScore := ratio(nameNorm, entryNorm)
		tokenSort := tokenSortRatio(nameNorm, entryNorm)
		tokenSet := tokenSetRatio(nameNorm, entryNorm)
		best := max3(ratioScore, tokenSort, tokenSet)
		if best < r.opts.SuggestionThreshold {
			continue
		}

		// Guard against false positives on short first names: require either
		// a strong token-based score or a similar last name.
		entryTokens := strings.Fields(entryNorm)
		entryLast := ""
		if len(entryTokens) >= 2 {
			entryLast = entryTokens[len(entryTokens)-1]
		}
		tokenStrong := tokenSort >= r.opts.SuggestionThreshold || tokenSet >= r.opts.SuggestionThreshold
		lastNameSimilar := inputLast != "" && entryLast != "" && ratio(inputLast, entryLast) >= 0.6
		if !tokenStrong && !lastNameSimilar {
			continue
		}

		candidates = append(candidates, Candidate{
			ExternalID:  entry.ID,
			DisplayName: entry.Name,
			Score:       best,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].DisplayName < candidates[j].DisplayName
	})
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return candidates
}

// ratio is a normalized Levenshtein similarity in [0,1].
func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	dist := levenshtein(ra, rb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(dist)/float64(longest)
}

// tokenSortRatio compares the two strings with their tokens sorted, so
// "Kelly Patrick" and "Patrick Kelly" score 1.0.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

// tokenSetRatio compares the shared-token core of the two strings against
// each full token set, which tolerates extra tokens such as middle names.
func tokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)

	var inter, diffA, diffB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	core := strings.Join(inter, " ")
	full1 := strings.TrimSpace(core + " " + strings.Join(diffA, " "))
	full2 := strings.TrimSpace(core + " " + strings.Join(diffB, " "))
	if core == "" {
		return ratio(full1, full2)
	}
	return max3(ratio(core, full1), ratio(core, full2), ratio(full1, full2))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
