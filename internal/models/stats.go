package models

type PlatformStats struct {
	TotalUsers       int     `json:"total_users"`
	TotalPsychics    int     `json:"total_psychics"`
	VerifiedPsychics int     `json:"verified_psychics"`
	TotalSessions    int     `json:"total_sessions"`
	ActiveSessions   int     `json:"active_sessions"`
	PendingRequests  int     `json:"pending_requests"`
	GrossRevenue     Credits `json:"gross_revenue"`
	PsychicEarnings  Credits `json:"psychic_earnings"`
	PlatformEarnings Credits `json:"platform_earnings"`
	TotalPaidOut     Credits `json:"total_paid_out"`
}

type VisitorDay struct {
	Date           string `json:"date"`
	UniqueVisitors int64  `json:"unique_visitors"`
	PageViews      int64  `json:"page_views"`
}

type VisitorStats struct {
	Days           []VisitorDay `json:"days"`
	UniqueVisitors int64        `json:"unique_visitors"`
	PageViews      int64        `json:"page_views"`
}

type TrackVisitRequest struct {
	VisitorID string `json:"visitorId"`
	Path      string `json:"path"`
}
