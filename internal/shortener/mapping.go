package shortener

import "time"

// BuildType tags which generation strategy produced a mapping.
type BuildType int

const (
	// BuildTypeHash marks codes derived from the URL hash.
	BuildTypeHash BuildType = iota
	// BuildTypeToken marks randomly generated codes.
	BuildTypeToken
)

// Mapping is the durable, authoritative record of a short code.
// A (ShortCode, LongURL) pair is append-only: once created it is never
// repointed at a different URL.
type Mapping struct {
	ID         int64
	ShortCode  string
	LongURL    string
	BuildType  BuildType
	ExpireTime *time.Time // nil means default retention
	CreateTime time.Time
	UpdateTime time.Time
}

// Expired reports whether the mapping is delete-eligible at the given instant.
func (m *Mapping) Expired(now time.Time) bool {
	return m.ExpireTime != nil && m.ExpireTime.Before(now)
}
