package fleet

import (
	"sort"
	"time"
)

// Aggregate rolls terminal records up into one summary per region. The total
// is the region's record count and each record increments exactly one status
// counter, so counts always sum to the total. Summaries are sorted by region
// code; the same records in any order produce identical output.
func Aggregate(records []TerminalRecord, retrievedAt time.Time) ([]RegionalSummary, error) {
	if retrievedAt.IsZero() {
		return nil, ErrInvalidRetrievedAt
	}

	byRegion := make(map[string]*RegionalSummary)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		sum, ok := byRegion[rec.RegionCode]
		if !ok {
			sum = &RegionalSummary{RegionCode: rec.RegionCode, RetrievedAt: retrievedAt}
			byRegion[rec.RegionCode] = sum
		}
		switch rec.NormalizedStatus {
		case StatusAvailable:
			sum.CountAvailable++
		case StatusWarning:
			sum.CountWarning++
		case StatusWounded:
			sum.CountWounded++
		case StatusZombie:
			sum.CountZombie++
		case StatusOutOfService:
			sum.CountOutOfService++
		}
		sum.TotalATMs++
	}

	out := make([]RegionalSummary, 0, len(byRegion))
	for _, sum := range byRegion {
		sum.derivePercentages()
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionCode < out[j].RegionCode })
	return out, nil
}
