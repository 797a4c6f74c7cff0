package domain

// ReportRenderer produces a downloadable document for a stored analysis.
// The text renderer in internal/report is the default implementation; a
// PDF backend would implement the same interface.
type ReportRenderer interface {
	// Render produces the report bytes and their content type.
	Render(analysis *Analysis, ownerName string, ownerEmail string) ([]byte, string, error)
}
