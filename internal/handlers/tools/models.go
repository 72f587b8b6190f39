// internal/handlers/tools/models.go
package tools

import toolkit "capability-explorer/pkg/tools"

// ListResponse is the GET /tools body.
type ListResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Tools   []toolkit.Summary `json:"tools"`
}

// ItemResponse is the GET /tools/{id} body.
type ItemResponse struct {
	Success bool          `json:"success"`
	Tool    *toolkit.Tool `json:"tool"`
}

type ExecuteRequest struct {
	Inputs map[string]interface{} `json:"inputs"`
}

// ExecuteResponse is the POST /tools/{id}/execute body on success.
type ExecuteResponse struct {
	Success  bool            `json:"success"`
	ToolID   string          `json:"toolId"`
	ToolName string          `json:"toolName"`
	Result   *toolkit.Result `json:"result"`
}
