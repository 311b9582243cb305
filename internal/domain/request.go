package domain

// Locale identifies a supported user language.
type Locale string

const (
	LocaleDutch   Locale = "Dutch"
	LocaleEnglish Locale = "English"
)

// RequestKind is the intent classification of a user request.
type RequestKind string

const (
	KindQuestion       RequestKind = "question"
	KindServiceRequest RequestKind = "request"
	KindIncident       RequestKind = "incident"
)

// Confidence grades how a classification or answer was produced. Low
// signals that a fallback path was used.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Screenshot is a user-supplied image accompanying a request. Data is
// base64 encoded as received from the client.
type Screenshot struct {
	FileName    string `json:"name"`
	ContentType string `json:"type"`
	Data        string `json:"base64"`
	SizeBytes   int64  `json:"size"`
}

// Request is a free-text user request. Immutable once classification starts.
type Request struct {
	Text        string
	Language    Locale
	Screenshots []Screenshot
}

// Classification is produced once per request.
type Classification struct {
	Kind             RequestKind `json:"type"`
	Confidence       Confidence  `json:"confidence"`
	IsServiceRequest bool        `json:"is_service_request"`
}

// ResourceKind names a searchable resource pool.
type ResourceKind string

const (
	ResourceKnowledge ResourceKind = "knowledge"
	ResourceCatalog   ResourceKind = "catalog"
)

// SearchPlan is the search order decided for a classified request.
// Consumed once, not persisted.
type SearchPlan struct {
	Order     []ResourceKind
	Reasoning string
}
