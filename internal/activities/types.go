package activities

type ListSourceFilesInput struct {
	CollectionID string `json:"collection_id"`
}

type ListSourceFilesOutput struct {
	Files []string `json:"files"`
}

type ComputeDocumentIDInput struct {
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
}

type ComputeDocumentIDOutput struct {
	DocumentID string `json:"document_id"`
}

type ExtractTextInput struct {
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
}

type ExtractTextOutput struct {
	Text      string `json:"text"`
	FirstPage string `json:"first_page"`
	Pages     int    `json:"pages"`
}

type WriteTextInput struct {
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
	Text         string `json:"text"`
}

type WriteTextOutput struct {
	TextURL string `json:"text_url"`
}

type EnsureDocumentMetadataInput struct {
	CollectionID string `json:"collection_id"`
	DocumentID   string `json:"document_id"`
	FileName     string `json:"file_name"`
	FirstPage    string `json:"first_page"`
}

type EnsureDocumentMetadataOutput struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Created    bool   `json:"created"`
}

type ChunkTextInput struct {
	DocumentID   string `json:"document_id"`
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
	TextURL      string `json:"text_url"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Version      string `json:"version"`
}

type ChunkItem struct {
	ChunkID      string `json:"chunk_id"`
	DocumentID   string `json:"document_id"`
	CollectionID string `json:"collection_id"`
	ChunkIndex   int    `json:"chunk_index"`
	FileName     string `json:"file_name"`
	TextURL      string `json:"text_url,omitempty"`
	Text         string `json:"text"`
}

type ChunkTextOutput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type UpsertChunksInput struct {
	DocumentID       string      `json:"document_id"`
	CollectionID     string      `json:"collection_id"`
	Chunks           []ChunkItem `json:"chunks"`
	Vectors          [][]float32 `json:"vectors,omitempty"`
	EmbeddingVersion string      `json:"embedding_version"`
}

type UpdateDocumentStatusInput struct {
	DocumentID   string `json:"document_id"`
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	FailReason   string `json:"fail_reason"`
	ChunkCount   int    `json:"chunk_count"`
}

type EmbedChunksInput struct {
	Operation     string      `json:"operation"`
	CollectionID  string      `json:"collection_id"`
	DocumentID    string      `json:"document_id"`
	ProviderIndex int         `json:"provider_index"`
	Input         []ChunkItem `json:"input"`
}

type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	CollectionID string `json:"collection_id"`
	DocumentID   string `json:"document_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}

type StartIndexRunInput struct {
	CollectionID string `json:"collection_id"`
	WorkflowID   string `json:"workflow_id"`
	Total        int    `json:"total"`
}

type StartIndexRunOutput struct {
	RunID string `json:"run_id"`
}

type FinishIndexRunInput struct {
	RunID  string `json:"run_id"`
	Done   int    `json:"done"`
	Failed int    `json:"failed"`
}

type WriteIndexManifestInput struct {
	CollectionID string         `json:"collection_id"`
	Manifest     map[string]any `json:"manifest"`
}

type WriteIndexManifestOutput struct {
	Path string `json:"path"`
}
