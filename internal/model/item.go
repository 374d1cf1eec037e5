package model

import "time"

// SourceType classifies where an item was aggregated from.
type SourceType string

const (
	SourceNews   SourceType = "news"
	SourceSocial SourceType = "social"
)

// EngagementMetrics holds optional engagement counters for social items.
type EngagementMetrics struct {
	Score       *int `json:"score,omitempty"`
	NumComments *int `json:"num_comments,omitempty"`
}

// Item is one aggregated content item as returned by the data service.
// Items are immutable once fetched within a view's lifetime.
type Item struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	URL               string             `json:"url"`
	Summary           *string            `json:"summary,omitempty"`
	SourceName        string             `json:"source_name"`
	SourceType        SourceType         `json:"source_type"`
	Country           string             `json:"country"`
	Timestamp         *time.Time         `json:"timestamp,omitempty"`
	EngagementMetrics *EngagementMetrics `json:"engagement_metrics,omitempty"`
	FinalScore        float64            `json:"final_score"`
	ControversyScore  float64            `json:"controversy_score"`
	UsedForContent    bool               `json:"used_for_content"`
	EnrichmentStatus  *string            `json:"enrichment_status,omitempty"`
	IsUnavailable     bool               `json:"is_unavailable"`
}

// SummaryText returns the summary or an empty string.
func (it Item) SummaryText() string {
	if it.Summary == nil {
		return ""
	}
	return *it.Summary
}

// Source is a configured upstream stream on the data service.
type Source struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Country  string `json:"country"`
	IsActive bool   `json:"is_active"`
}

// Angle is one editorial angle proposed for a topic cluster.
type Angle struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// AngleSet is the angles payload for a topic cluster.
type AngleSet struct {
	Angles             []Angle `json:"angles"`
	StrongestAngleHTML string  `json:"strongest_angle_html"`
}
