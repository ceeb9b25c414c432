package services

import "time"

// StalenessPolicy decides whether a previously harvested resource is due for a
// re-fetch. It has no side effects; Now is injectable for tests.
type StalenessPolicy struct {
	// MinAge is how old a record must be before it is fetched again.
	// Zero means always refresh.
	MinAge time.Duration
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// NewStalenessPolicy creates a policy using the wall clock.
func NewStalenessPolicy(minAge time.Duration) StalenessPolicy {
	return StalenessPolicy{MinAge: minAge, Now: time.Now}
}

// NeedsRefresh reports whether a resource last recorded at lastSeen should be
// fetched again. A zero lastSeen means the resource was never recorded, and the
// answer is missingMeansStale. Otherwise it is true iff now-lastSeen >= MinAge.
func (p StalenessPolicy) NeedsRefresh(lastSeen time.Time, missingMeansStale bool) bool {
	if lastSeen.IsZero() {
		return missingMeansStale
	}
	return p.now().Sub(lastSeen) >= p.MinAge
}

func (p StalenessPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
