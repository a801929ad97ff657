package handlers

import "time"

// CreateLinkRequest is the request body for generating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL        string `doc:"The URL to shorten"                                example:"https://example.com/very/long/path" json:"url"`
		Strategy   string `doc:"Build strategy: hash (default) or token"           enum:"hash,token,"                           json:"strategy,omitempty"`
		ExpireDays int    `doc:"Retention in days; 0 means the default retention"  example:"30"                                 json:"expireDays,omitempty" minimum:"0" maximum:"3650"`
	}
}

// CreateLinkResponse is the response for a successfully generated short link.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short link location" header:"Location"`
	}
	Body struct {
		Code     string `doc:"The short code"      example:"49AZyK"                             json:"code"`
		ShortURL string `doc:"The full short link" example:"http://localhost:8888/49AZyK"       json:"shortUrl"`
		LongURL  string `doc:"The original URL"    example:"https://example.com/very/long/path" json:"longUrl"`
	}
}

// RedirectRequest is the request for resolving a short link.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"49AZyK" path:"code"`
}

// RedirectResponse issues the redirect to the long URL, or to the fallback
// page for unknown codes.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"Redirect target" header:"Location"`
	}
}

// StatsRequest asks for daily traffic of a short link.
type StatsRequest struct {
	Code string `doc:"The short code"            example:"49AZyK" path:"code"`
	Days int    `doc:"How many days to include"  example:"7"      maximum:"90" minimum:"1" query:"days"`
}

// StatsResponse carries the daily traffic rows.
type StatsResponse struct {
	Body struct {
		Code  string      `json:"code"`
		Stats []DailyStat `json:"stats"`
	}
}

// DailyStat is one day of traffic.
type DailyStat struct {
	Date time.Time `json:"date"`
	PV   int64     `doc:"Page views"         json:"pv"`
	UV   int64     `doc:"Distinct visitors"  json:"uv"`
}
