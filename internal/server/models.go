package server

import "github.com/yoyo-gitroi/GTM-Newsletter/internal/store"

// MessageResponse is a generic acknowledgement payload.
type MessageResponse struct {
	Message      string `json:"message"`
	NewsletterID string `json:"newsletter_id,omitempty"`
}

// PipelineStatusResponse combines persisted state with the live in-process
// pipeline view for polling clients.
type PipelineStatusResponse struct {
	NewsletterStatus string           `json:"newsletter_status"`
	CurrentAgent     *string          `json:"current_agent"`
	Runs             []store.AgentRun `json:"runs"`
}

// SettingsUpdateRequest carries partial settings updates.
type SettingsUpdateRequest struct {
	MonitoredTools *string `json:"monitored_tools"`
}

// SearchResponse is the payload for newsletter search queries.
type SearchResponse struct {
	Query string             `json:"query"`
	Hits  []SearchHit        `json:"hits"`
	Items []store.Newsletter `json:"items"`
}

// SearchHit mirrors an index match.
type SearchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
