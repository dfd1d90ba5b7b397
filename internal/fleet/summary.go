package fleet

import "time"

// RegionalSummary is the per-region roll-up of one retrieval run.
// The persistence unique key is region code + retrieved_at.
type RegionalSummary struct {
	RegionCode        string
	CountAvailable    int
	CountWarning      int
	CountWounded      int
	CountZombie       int
	CountOutOfService int
	TotalATMs         int

	PctAvailable    float64
	PctWarning      float64
	PctWounded      float64
	PctZombie       float64
	PctOutOfService float64

	RetrievedAt time.Time
}

// Validate ensures the count-sum invariant and basic field invariants.
func (s RegionalSummary) Validate() error {
	if s.RegionCode == "" {
		return ErrEmptyRegionCode
	}
	if s.RetrievedAt.IsZero() {
		return ErrInvalidRetrievedAt
	}
	counts := [5]int{s.CountAvailable, s.CountWarning, s.CountWounded, s.CountZombie, s.CountOutOfService}
	sum := 0
	for _, c := range counts {
		if c < 0 {
			return ErrNegativeCount
		}
		sum += c
	}
	if sum != s.TotalATMs {
		return ErrCountMismatch
	}
	return nil
}

// Count returns the stored count for a canonical status.
func (s RegionalSummary) Count(st Status) int {
	switch st {
	case StatusAvailable:
		return s.CountAvailable
	case StatusWarning:
		return s.CountWarning
	case StatusWounded:
		return s.CountWounded
	case StatusZombie:
		return s.CountZombie
	case StatusOutOfService:
		return s.CountOutOfService
	default:
		return 0
	}
}

// derivePercentages fills the percentage fields from the counts. A region
// with zero terminals reports zero across the board rather than NaN.
func (s *RegionalSummary) derivePercentages() {
	if s.TotalATMs == 0 {
		s.PctAvailable, s.PctWarning, s.PctWounded, s.PctZombie, s.PctOutOfService = 0, 0, 0, 0, 0
		return
	}
	total := float64(s.TotalATMs)
	s.PctAvailable = float64(s.CountAvailable) / total * 100
	s.PctWarning = float64(s.CountWarning) / total * 100
	s.PctWounded = float64(s.CountWounded) / total * 100
	s.PctZombie = float64(s.CountZombie) / total * 100
	s.PctOutOfService = float64(s.CountOutOfService) / total * 100
}
