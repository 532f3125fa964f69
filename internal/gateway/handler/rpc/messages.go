package rpc

import (
	"codecraft/internal/history"
	"codecraft/internal/refactor"
)

type RefactorRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	// Focus is a label ("Bug Fixing") or name ("BugFixing"). Empty means Readability.
	Focus string `json:"focus"`
}

type RefactorResponse struct {
	refactor.Result
	// HistoryID is set when the result was recorded.
	HistoryID string `json:"historyId,omitempty"`
}

type ListHistoryRequest struct {
	Limit int `json:"limit"`
}

type ListHistoryResponse struct {
	Items []history.Item `json:"items"`
}

type GetHistoryRequest struct {
	ID string `json:"id"`
}

type GetArchiveRequest struct {
	ID string `json:"id"`
}

// ArchiveFile is one stored file of a request (prompt, response or error).
type ArchiveFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type GetArchiveResponse struct {
	ID    string        `json:"id"`
	Files []ArchiveFile `json:"files"`
}

type ListOptionsRequest struct{}

type FocusOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type ListOptionsResponse struct {
	Languages       []string      `json:"languages"`
	Focuses         []FocusOption `json:"focuses"`
	DefaultLanguage string        `json:"defaultLanguage"`
	Placeholder     string        `json:"placeholder"`
}
