package catalog

import (
	"strings"

	"github.com/Veraticus/duecard/internal/model"
)

// DefaultSimilarityThreshold is the minimum name similarity for a fuzzy match.
const DefaultSimilarityThreshold = 0.8

// MatchKind names the rule that paired a scraped offer with a stored one.
type MatchKind string

// Match rules in priority order.
const (
	MatchExactName MatchKind = "exact_name"
	MatchSubstring MatchKind = "bank_substring"
	MatchSimilar   MatchKind = "similar_name"
)

// Match is the stored offer a scraped offer resolved to.
type Match struct {
	Offer model.Offer
	Kind  MatchKind
	Score float64
}

type indexedOffer struct {
	name string
	bank string
	pos  int
}

// Matcher resolves scraped offers against a snapshot of the stored catalog.
type Matcher struct {
	byName    map[string]int
	byID      map[string]int
	stored    []model.Offer
	indexed   []indexedOffer
	threshold float64
}

// NewMatcher indexes stored by normalized name and by ID. When two stored offers share
// a normalized name the earlier one wins. A threshold <= 0 selects DefaultSimilarityThreshold.
func NewMatcher(stored []model.Offer, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	m := &Matcher{
		byName:    make(map[string]int, len(stored)),
		byID:      make(map[string]int, len(stored)),
		stored:    stored,
		indexed:   make([]indexedOffer, 0, len(stored)),
		threshold: threshold,
	}

	for i, offer := range stored {
		if offer.ID != "" {
			if _, ok := m.byID[offer.ID]; !ok {
				m.byID[offer.ID] = i
			}
		}

		name := Normalize(offer.Name)
		if name == "" {
			continue
		}
		if _, ok := m.byName[name]; !ok {
			m.byName[name] = i
		}
		m.indexed = append(m.indexed, indexedOffer{name: name, bank: Normalize(offer.Bank), pos: i})
	}

	return m
}

// Threshold returns the similarity threshold in effect.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// ByID returns the stored offer with the given ID.
func (m *Matcher) ByID(id string) (model.Offer, bool) {
	i, ok := m.byID[id]
	if !ok {
		return model.Offer{}, false
	}
	return m.stored[i], true
}

// Match finds the stored offer for scraped, trying exact normalized name, then same bank
// with one name containing the other, then the most similar name at or above the threshold.
// Ties at any stage go to the earliest stored offer.
func (m *Matcher) Match(scraped model.ScrapedOffer) (Match, bool) {
	name := Normalize(scraped.Name)
	if name == "" {
		return Match{}, false
	}

	if i, ok := m.byName[name]; ok {
		return Match{Offer: m.stored[i], Kind: MatchExactName, Score: 1}, true
	}

	bank := Normalize(scraped.Bank)
	for _, candidate := range m.indexed {
		if candidate.bank != bank {
			continue
		}
		if strings.Contains(candidate.name, name) || strings.Contains(name, candidate.name) {
			return Match{
				Offer: m.stored[candidate.pos],
				Kind:  MatchSubstring,
				Score: Similarity(name, candidate.name),
			}, true
		}
	}

	best, bestScore := -1, 0.0
	for _, candidate := range m.indexed {
		score := Similarity(name, candidate.name)
		if score >= m.threshold && score > bestScore {
			best, bestScore = candidate.pos, score
		}
	}
	if best < 0 {
		return Match{}, false
	}

	return Match{Offer: m.stored[best], Kind: MatchSimilar, Score: bestScore}, true
}
