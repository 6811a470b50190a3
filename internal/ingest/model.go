package ingest

import (
	"time"

	"testdesk/internal/questiondoc"
)

const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// DefaultCategories are the test categories offered by the admin panel.
var DefaultCategories = []string{"Coding", "Math", "Behavioral", "Aptitude"}

// ImportRecord is one attempt to create a test from a question document.
type ImportRecord struct {
	ID             string             `json:"id"`
	TestName       string             `json:"test_name"`
	CategoryName   string             `json:"category_name"`
	SourceName     string             `json:"source_name"`
	SourceFormat   string             `json:"source_format"`
	ParsedCount    int                `json:"parsed_count"`
	SkippedCount   int                `json:"skipped_count"`
	SubmittedCount int                `json:"submitted_count"`
	QuestionsText  string             `json:"questions_text"`
	Skipped        []questiondoc.Skip `json:"skipped"`
	Status         string             `json:"status"`
	RemoteResponse string             `json:"remote_response,omitempty"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ImportInput carries either pasted text or an uploaded file.
type ImportInput struct {
	Text     string
	FileName string
	FileData []byte
}

func (in ImportInput) hasFile() bool {
	return in.FileName != "" || len(in.FileData) > 0
}

type CreateTestInput struct {
	TestName     string
	CategoryName string
	ImportInput
}

// Preview is the parse result of a document before anything is submitted.
type Preview struct {
	SourceName    string `json:"source_name"`
	SourceFormat  string `json:"source_format"`
	AcceptedCount int    `json:"accepted_count"`
	SkippedCount  int    `json:"skipped_count"`
	questiondoc.Outcome
}
