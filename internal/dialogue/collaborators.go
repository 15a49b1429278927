package dialogue

import (
	"context"
	"encoding/json"
)

// The session depends on its external collaborators through these small
// interfaces. Concrete clients live under internal/clients.

// EstimateRequest is one message to the remote estimation service. The
// service is stateless at the request boundary: a follow-up carries the
// original query plus every answer in presentation order so the service
// can reconstruct context from scratch.
type EstimateRequest struct {
	Text    string   `json:"text"`
	Answers []Answer `json:"answers,omitempty"`
	Mode    string   `json:"mode"`
}

// EstimateResponse is the subset of the service reply the dialogue
// consumes. Raw always holds the unparsed body for the lossy fallback
// path and for the artifact's raw estimate object.
type EstimateResponse struct {
	Questions []string
	Completed bool
	Summary   string
	Estimate  map[string]interface{}
	TotalCost float64
	HasTotal  bool
	Document  string // opaque base64-like document payload
	Raw       json.RawMessage
}

// EstimatorService is the remote estimation/NLP collaborator.
type EstimatorService interface {
	SendMessage(ctx context.Context, req EstimateRequest) (*EstimateResponse, error)
}

// ArtifactRequest asks the document service to render a downloadable
// artifact from a completed estimate.
type ArtifactRequest struct {
	DocumentPayload string                 `json:"documentPayload"`
	Estimate        map[string]interface{} `json:"estimate"`
	Title           string                 `json:"title"`
}

// DocumentService is the external document-rendering collaborator.
type DocumentService interface {
	CreateArtifact(ctx context.Context, req ArtifactRequest) (downloadURL string, err error)
}

// Lead is one delivery to the lead-tracking sink.
type Lead struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Message         string    `json:"message"`
	DocumentPayload string    `json:"documentPayload,omitempty"`
	Transcript      []Message `json:"transcript"`
}

// LeadSink is the external lead-CRM collaborator.
type LeadSink interface {
	SendLead(ctx context.Context, lead Lead) error
}

// TranscriptStore is the external chat-storage collaborator used by the
// autosave scheduler.
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, title string, transcript []Message) error
}

// SharePackager bundles the transcript and last-known document payload
// into a downloadable package.
type SharePackager interface {
	Package(ctx context.Context, title string, transcript []Message, documentPayload string) ([]byte, error)
}

// FileSaver performs the client-side save-as action for share bundles.
type FileSaver interface {
	Save(name string, data []byte) error
}

// CompletionPayload is the completion result of a dialogue, buffered in
// the session's single deferred slot while contact info is incomplete.
type CompletionPayload struct {
	Summary   string
	Estimate  map[string]interface{}
	TotalCost float64
	HasTotal  bool
	Document  string
	Raw       json.RawMessage
}

func completionFromResponse(resp *EstimateResponse) CompletionPayload {
	return CompletionPayload{
		Summary:   resp.Summary,
		Estimate:  resp.Estimate,
		TotalCost: resp.TotalCost,
		HasTotal:  resp.HasTotal,
		Document:  resp.Document,
		Raw:       resp.Raw,
	}
}
