package model

import "time"

// Rider represents a professional cyclist. Name is the practical natural
// key: ingestion creates a rider the first time a name is referenced.
type Rider struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id,omitempty"` // upstream data-source id, if any
	Name       string    `json:"name"`
	Team       string    `json:"team,omitempty"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
