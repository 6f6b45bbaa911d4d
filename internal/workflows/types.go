package workflows

type IndexCollectionInput struct {
	CollectionID          string `json:"collection_id"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
	EmbedProviders        int    `json:"embed_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
	ChunkSize             int    `json:"chunk_size"`
	ChunkOverlap          int    `json:"chunk_overlap"`
	ChunkVersion          string `json:"chunk_version"`
	EmbedVersion          string `json:"embed_version"`
}

type IndexDocumentInput struct {
	CollectionID                string `json:"collection_id"`
	FileName                    string `json:"file_name"`
	ChunkSize                   int    `json:"chunk_size"`
	ChunkOverlap                int    `json:"chunk_overlap"`
	ChunkVersion                string `json:"chunk_version"`
	EmbedVersion                string `json:"embed_version"`
	EmbedProviders              int    `json:"embed_providers"`
	PreferredEmbedProviderIndex int    `json:"preferred_embed_provider_index"`
	StrictEmbedProvider         bool   `json:"strict_embed_provider"`
	CooldownSeconds             int    `json:"cooldown_seconds"`
}

type DocumentStatus struct {
	DocumentID  string            `json:"document_id"`
	FileName    string            `json:"file_name"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	ChunkCount  int               `json:"chunk_count"`
	Providers   []string          `json:"providers_used"`
	RetryCounts map[string]int    `json:"retry_counts"`
	Steps       map[string]string `json:"steps"`
}

type IndexProgress struct {
	CollectionID  string            `json:"collection_id"`
	RunID         string            `json:"run_id,omitempty"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerFile       map[string]string `json:"per_file_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
