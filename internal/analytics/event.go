package analytics

import "time"

const (
	// TopicLinkCreated carries events for newly generated short links.
	TopicLinkCreated = "link.created"
	// TopicLinkVisited carries events for resolved short links.
	TopicLinkVisited = "link.visited"
)

// LinkCreatedEvent is emitted when a short link is generated.
type LinkCreatedEvent struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	BuildType int       `json:"buildType"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkVisitedEvent is emitted when a short link is resolved for redirection.
type LinkVisitedEvent struct {
	Code      string    `json:"code"`
	VisitorID string    `json:"visitorId"`
	VisitedAt time.Time `json:"visitedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
}
