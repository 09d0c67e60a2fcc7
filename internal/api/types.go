// Package api defines the JSON protocol spoken between the calculator
// client and the evaluator/history service.
package api

// Endpoint paths.
const (
	PathEval         = "/api/eval"
	PathHistory      = "/api/history"
	PathHistoryClear = "/api/history/clear"
	PathStats        = "/api/stats"
	PathHealth       = "/health"
	PathEvents       = "/ws"
)

// EvalRequest is the body of POST /api/eval.
type EvalRequest struct {
	Expression string `json:"expression"`
	Mode       string `json:"mode"`
}

// EvalResponse is returned by POST /api/eval. Result is set when OK is
// true, Error otherwise.
type EvalResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HistoryEntry is one stored evaluation. CreatedAt is formatted by the
// service and treated as an opaque display string by clients.
type HistoryEntry struct {
	ID         int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Expression string `json:"expression" yaml:"expression"`
	Result     string `json:"result" yaml:"result"`
	Mode       string `json:"mode" yaml:"mode"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
}

// HistoryResponse is returned by GET /api/history, newest entry first.
type HistoryResponse struct {
	OK    bool           `json:"ok"`
	Items []HistoryEntry `json:"items"`
	Error string         `json:"error,omitempty"`
}

// StatsResponse is returned by GET /api/stats. Last is nil when there is
// no history.
type StatsResponse struct {
	OK    bool    `json:"ok"`
	Total int     `json:"total"`
	Last  *string `json:"last"`
	Error string  `json:"error,omitempty"`
}

// StatsSnapshot is the client side view of StatsResponse.
type StatsSnapshot struct {
	Total int     `json:"total" yaml:"total"`
	Last  *string `json:"last" yaml:"last"`
}

// AckResponse is returned by mutations without a payload.
type AckResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Event types pushed over the websocket.
const (
	EventHistoryUpdated = "history_updated"
)

// Event is a notification pushed to subscribed clients.
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// CreatedAtLayout is the format of HistoryEntry.CreatedAt.
const CreatedAtLayout = "2006-01-02 15:04:05"
