package dto

type CreateTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type TicketStatusRequest struct {
	Status string `json:"status"`
}

type TicketPriorityRequest struct {
	Priority string `json:"priority"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

// AttachmentRequest registers metadata for a blob already uploaded through
// a presigned URL.
type AttachmentRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	StorageKey  string `json:"storage_key"`
}

type UploadURLRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type UploadURLResponse struct {
	URL        string `json:"url"`
	StorageKey string `json:"storage_key"`
}

type SuggestionResponse struct {
	Available         bool   `json:"available"`
	SuggestedSolution string `json:"suggested_solution,omitempty"`
	Warning           string `json:"warning,omitempty"`
	Stale             bool   `json:"stale,omitempty"`
	DescriptionDigest string `json:"description_digest"`
}
