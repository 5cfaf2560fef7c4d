// Package document holds the document aggregate: the commands, events and
// state fold behind the approval workflow.
package document

// AggregateType is the stream type documents are journaled under.
const AggregateType = "document"

// Document is the payload under approval.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
