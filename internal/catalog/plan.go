package catalog

import (
	"github.com/Veraticus/duecard/internal/model"
	"github.com/shopspring/decimal"
)

// Document field names written by the sync.
const (
	FieldCashbackRate      = "cashbackRate"
	FieldDescription       = "description"
	FieldAnnualFee         = "annualFee"
	FieldMinIncome         = "minIncome"
	FieldUpdatedAt         = "updatedAt"
	FieldLastSyncedAt      = "lastSyncedAt"
	FieldProtectionEnabled = "protection.enabled"
	FieldProtectionReason  = "protection.reason"
	FieldManuallyModified  = "manuallyModified"
)

// FieldChange is one differing field of an update. Old and New hold a string or a
// decimal.NullDecimal depending on the field.
type FieldChange struct {
	Old   any
	New   any
	Field string
}

// PlanEntry pairs a scraped offer with the stored offer it matched.
type PlanEntry struct {
	Stored  model.Offer
	Scraped model.ScrapedOffer
	Match   MatchKind
	Changes []FieldChange
	Score   float64
}

// SyncPlan partitions a scrape into what to write and what to leave alone.
// Each stored offer appears in at most one of ToUpdate, Protected and Unchanged;
// scraped offers that lost that slot to a stronger match are listed in Collapsed.
type SyncPlan struct {
	ToAdd     []model.ScrapedOffer
	ToUpdate  []PlanEntry
	Protected []PlanEntry
	Unchanged []PlanEntry
	Collapsed []PlanEntry
}

// PlanCounts summarizes a plan.
type PlanCounts struct {
	Add       int
	Update    int
	Protected int
	Unchanged int
	Collapsed int
}

// Total returns the number of scraped offers the plan accounts for.
func (c PlanCounts) Total() int {
	return c.Add + c.Update + c.Protected + c.Unchanged + c.Collapsed
}

// Counts returns the size of each partition.
func (p *SyncPlan) Counts() PlanCounts {
	return PlanCounts{
		Add:       len(p.ToAdd),
		Update:    len(p.ToUpdate),
		Protected: len(p.Protected),
		Unchanged: len(p.Unchanged),
		Collapsed: len(p.Collapsed),
	}
}

// Empty reports whether the plan contains no entries at all.
func (p *SyncPlan) Empty() bool {
	return p.Counts().Total() == 0
}

// HasWrites reports whether applying the plan would write anything.
func (p *SyncPlan) HasWrites() bool {
	return len(p.ToAdd) > 0 || len(p.ToUpdate) > 0
}

// PlanOptions tunes plan construction.
type PlanOptions struct {
	Threshold float64
}

// DefaultPlanOptions returns the standard plan options.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{Threshold: DefaultSimilarityThreshold}
}

// BuildSyncPlan dedupes scraped and classifies each remaining offer against stored.
// It performs no I/O. When several scraped offers resolve to the same stored offer only
// the strongest match is planned: exact name beats bank substring beats similarity,
// a higher score beats a lower one, and otherwise the earlier scraped offer wins.
func BuildSyncPlan(scraped []model.ScrapedOffer, stored []model.Offer, opts PlanOptions) *SyncPlan {
	plan := &SyncPlan{}
	matcher := NewMatcher(stored, opts.Threshold)

	var entries []PlanEntry
	winners := make(map[string]int)
	for _, offer := range Dedupe(scraped) {
		match, ok := matcher.Match(offer)
		if !ok {
			plan.ToAdd = append(plan.ToAdd, offer)
			continue
		}

		entry := PlanEntry{
			Stored:  match.Offer,
			Scraped: offer,
			Match:   match.Kind,
			Score:   match.Score,
		}

		target := targetKey(match.Offer)
		prev, seen := winners[target]
		switch {
		case !seen:
			winners[target] = len(entries)
			entries = append(entries, entry)
		case entry.outranks(entries[prev]):
			plan.Collapsed = append(plan.Collapsed, entries[prev])
			entries[prev] = entry
		default:
			plan.Collapsed = append(plan.Collapsed, entry)
		}
	}

	for _, entry := range entries {
		if entry.Stored.IsProtected() {
			plan.Protected = append(plan.Protected, entry)
			continue
		}

		entry.Changes = Diff(entry.Stored, entry.Scraped)
		if len(entry.Changes) == 0 {
			plan.Unchanged = append(plan.Unchanged, entry)
			continue
		}
		plan.ToUpdate = append(plan.ToUpdate, entry)
	}

	return plan
}

// targetKey identifies the stored offer a match landed on.
func targetKey(offer model.Offer) string {
	if offer.ID != "" {
		return offer.ID
	}
	return "name:" + Normalize(offer.Name)
}

func matchRank(kind MatchKind) int {
	switch kind {
	case MatchExactName:
		return 0
	case MatchSubstring:
		return 1
	default:
		return 2
	}
}

// outranks reports whether e is a strictly stronger match than other.
func (e PlanEntry) outranks(other PlanEntry) bool {
	if a, b := matchRank(e.Match), matchRank(other.Match); a != b {
		return a < b
	}
	return e.Score > other.Score
}

// Diff compares the synced field set of stored against scraped. Blank scraped text and
// missing scraped numbers count as not provided and never produce a change.
func Diff(stored model.Offer, scraped model.ScrapedOffer) []FieldChange {
	var changes []FieldChange

	if text := normalizeText(scraped.Rate); text != "" && text != normalizeText(stored.CashbackRate) {
		changes = append(changes, FieldChange{Field: FieldCashbackRate, Old: stored.CashbackRate, New: text})
	}
	if text := normalizeText(scraped.Description); text != "" && text != normalizeText(stored.Description) {
		changes = append(changes, FieldChange{Field: FieldDescription, Old: stored.Description, New: text})
	}
	if scraped.AnnualFee.Valid && !decimalEqual(stored.AnnualFee, scraped.AnnualFee) {
		changes = append(changes, FieldChange{Field: FieldAnnualFee, Old: stored.AnnualFee, New: scraped.AnnualFee})
	}
	if scraped.MinIncome.Valid && !decimalEqual(stored.MinIncome, scraped.MinIncome) {
		changes = append(changes, FieldChange{Field: FieldMinIncome, Old: stored.MinIncome, New: scraped.MinIncome})
	}

	return changes
}

func decimalEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
