// internal/handlers/capability/models.go
package capability

import "capability-explorer/internal/models"

// TaxonomyResponse is the GET body.
type TaxonomyResponse struct {
	Status              string   `json:"status"`
	Deterministic       bool     `json:"deterministic"`
	ConfidenceThreshold float64  `json:"confidenceThreshold"`
	Industries          []string `json:"industries"`
	Roles               []string `json:"roles"`
	PainPoints          []string `json:"painPoints"`
}

// MatchResponse is the POST body on success.
type MatchResponse struct {
	Status              string                 `json:"status"`
	ConfidenceThreshold float64                `json:"confidenceThreshold"`
	Input               models.ExplorerInput   `json:"input"`
	Result              *models.ExplorerResult `json:"result"`
}
