package domain

// SearchStrategy identifies which branch of the routing state machine
// handles a query.
type SearchStrategy string

const (
	StrategyTargetedDocument SearchStrategy = "targeted_document"
	StrategyTargetedTabular  SearchStrategy = "targeted_tabular"
	StrategySequential       SearchStrategy = "sequential"
)

// ResultSource names where the final answer came from.
type ResultSource string

const (
	SourceDocument ResultSource = "document"
	SourceTabular  ResultSource = "tabular"
	SourceNone     ResultSource = "none"
)

// StrategyDecision is computed once per query from the optional target
// document and the uploaded file inventory.
type StrategyDecision struct {
	Strategy       SearchStrategy `json:"strategy"`
	TargetDocument string         `json:"target_document,omitempty"`
	TabularTargets []string       `json:"tabular_targets,omitempty"`
	Description    string         `json:"description"`
}

// Verdict is the meaningfulness classification of a candidate answer.
type Verdict struct {
	Meaningful bool   `json:"meaningful"`
	Reason     string `json:"reason"`
}

// DataSummary is the lightweight shape report for one tabular dataset.
type DataSummary struct {
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// TabularResult is the per-file outcome of a tabular agent query. A
// failed file carries Err instead of aborting the whole search.
type TabularResult struct {
	Filename string      `json:"filename"`
	FileType string      `json:"file_type"`
	Answer   string      `json:"answer"`
	Summary  DataSummary `json:"data_summary"`
	Err      string      `json:"error,omitempty"`
}

// SearchDiagnostics is attached to results when debug mode is on. It
// never changes routing, only reports what was examined.
type SearchDiagnostics struct {
	Query          string           `json:"query"`
	SourceFilter   string           `json:"source_filter"`
	Strategy       SearchStrategy   `json:"strategy"`
	Description    string           `json:"description"`
	DocumentsFound int              `json:"documents_found"`
	Documents      []RetrievedChunk `json:"documents,omitempty"`
	DocumentError  string           `json:"document_error,omitempty"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
}

// SearchResult is the terminal output of the routing state machine.
type SearchResult struct {
	Query       string             `json:"query"`
	Answer      string             `json:"answer"`
	Source      ResultSource       `json:"source"`
	Strategy    SearchStrategy     `json:"strategy"`
	Fallback    bool               `json:"fallback,omitempty"`
	Tabular     []TabularResult    `json:"tabular_results,omitempty"`
	Chunks      []RetrievedChunk   `json:"sources,omitempty"`
	Diagnostics *SearchDiagnostics `json:"diagnostics,omitempty"`
}

// IngestOutcome is the result surface of one ingestion request.
type IngestOutcome struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Indexed bool   `json:"indexed"`
	Chunks  int    `json:"chunks,omitempty"`
}
