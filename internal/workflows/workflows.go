package workflows

import (
	"fmt"
	"strings"
	"time"

	"legalqa/internal/activities"
	"legalqa/internal/providers"
	"legalqa/internal/storage"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetDocumentStatus = "GetDocumentStatus"
	QueryGetProgress       = "GetProgress"
)

const (
	StatusIndexed = "indexed"
	StatusFailed  = "failed"

	embedBatchSize = 64
)

type providerState struct {
	disabledUntil map[int]time.Time
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}}
}

// IndexCollectionWorkflow indexes every source file of a collection through
// IndexDocumentWorkflow children, at most MaxConcurrentChildren at a time.
func IndexCollectionWorkflow(ctx workflow.Context, input IndexCollectionInput) (string, error) {
	progress := IndexProgress{
		CollectionID:  input.CollectionID,
		PerFile:       map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (IndexProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var listOut activities.ListSourceFilesOutput
	if err := workflow.ExecuteActivity(ctx, "ListSourceFilesActivity", activities.ListSourceFilesInput{CollectionID: input.CollectionID}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	files := listOut.Files
	progress.Total = len(files)

	var runOut activities.StartIndexRunOutput
	if err := workflow.ExecuteActivity(ctx, "StartIndexRunActivity", activities.StartIndexRunInput{
		CollectionID: input.CollectionID,
		WorkflowID:   workflow.GetInfo(ctx).WorkflowExecution.ID,
		Total:        len(files),
	}).Get(ctx, &runOut); err != nil {
		logger.Warn("index run not recorded", "error", err)
	}
	progress.RunID = runOut.RunID

	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}
	for i := 0; i < len(files); i += maxChildren {
		end := i + maxChildren
		if end > len(files) {
			end = len(files)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childFiles := make([]string, 0, end-i)
		for _, name := range files[i:end] {
			progress.PerFile[name] = "processing"
			workflowID := "index-" + sanitizeID(input.CollectionID) + "-" + sanitizeID(name)
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			f := workflow.ExecuteChildWorkflow(childCtx, IndexDocumentWorkflow, IndexDocumentInput{
				CollectionID:                input.CollectionID,
				FileName:                    name,
				ChunkSize:                   input.ChunkSize,
				ChunkOverlap:                input.ChunkOverlap,
				ChunkVersion:                defaultChunkVersion(input.ChunkVersion),
				EmbedVersion:                defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:              input.EmbedProviders,
				PreferredEmbedProviderIndex: -1,
				CooldownSeconds:             input.CooldownSeconds,
			})
			futures = append(futures, f)
			childFiles = append(childFiles, name)
			progress.ChildWorkflow[name] = workflowID
		}

		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			name := childFiles[idx]
			if err != nil {
				progress.Failed++
				progress.PerFile[name] = StatusFailed
				continue
			}
			if childStatus == StatusFailed {
				progress.Failed++
			} else {
				progress.Done++
			}
			progress.PerFile[name] = childStatus
		}
	}

	_ = workflow.ExecuteActivity(ctx, "WriteIndexManifestActivity", activities.WriteIndexManifestInput{
		CollectionID: input.CollectionID,
		Manifest: map[string]any{
			"collection_id":   input.CollectionID,
			"run_id":          progress.RunID,
			"total":           progress.Total,
			"done":            progress.Done,
			"failed":          progress.Failed,
			"per_file_status": progress.PerFile,
			"versions":        map[string]any{"chunk": defaultChunkVersion(input.ChunkVersion), "embed": defaultEmbedVersion(input.EmbedVersion)},
			"generated_at":    workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	if progress.RunID != "" {
		_ = workflow.ExecuteActivity(ctx, "FinishIndexRunActivity", activities.FinishIndexRunInput{
			RunID:  progress.RunID,
			Done:   progress.Done,
			Failed: progress.Failed,
		}).Get(ctx, nil)
	}
	if progress.Failed > 0 {
		return "partial", nil
	}
	return "completed", nil
}

// IndexDocumentWorkflow extracts, chunks, embeds and stores one source file.
// Unreadable documents end with status "failed" rather than a workflow error.
func IndexDocumentWorkflow(ctx workflow.Context, input IndexDocumentInput) (string, error) {
	status := DocumentStatus{
		FileName:    input.FileName,
		CurrentStep: "init",
		Status:      "processing",
		RetryCounts: map[string]int{},
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	providerCount := input.EmbedProviders
	if providerCount <= 0 {
		providerCount = 1
	}
	state := newProviderState()

	begin := func(step string) {
		status.CurrentStep = step
		status.Steps[step] = "processing"
	}
	fail := func(docID, reason string) (string, error) {
		status.Status = StatusFailed
		status.FailReason = reason
		status.Steps[status.CurrentStep] = StatusFailed
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocumentID:   docID,
			CollectionID: input.CollectionID,
			FileName:     input.FileName,
			Status:       storage.DocumentStatusFailed,
			FailReason:   reason,
		}).Get(ctx, nil)
		return status.Status, nil
	}

	begin("compute_document_id")
	var idOut activities.ComputeDocumentIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeDocumentIDActivity", activities.ComputeDocumentIDInput{CollectionID: input.CollectionID, FileName: input.FileName}).Get(ctx, &idOut); err != nil {
		return "", err
	}
	docID := idOut.DocumentID
	status.DocumentID = docID
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{DocumentID: docID, CollectionID: input.CollectionID, FileName: input.FileName, Status: storage.DocumentStatusPending}).Get(ctx, nil)

	begin("extract_text")
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{CollectionID: input.CollectionID, FileName: input.FileName}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			return fail(docID, "no extractable text found (OCR not enabled)")
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	begin("write_text")
	var writeOut activities.WriteTextOutput
	if err := workflow.ExecuteActivity(ctx, "WriteTextActivity", activities.WriteTextInput{CollectionID: input.CollectionID, FileName: input.FileName, Text: textOut.Text}).Get(ctx, &writeOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	begin("ensure_metadata")
	var metaOut activities.EnsureDocumentMetadataOutput
	if err := workflow.ExecuteActivity(ctx, "EnsureDocumentMetadataActivity", activities.EnsureDocumentMetadataInput{CollectionID: input.CollectionID, DocumentID: docID, FileName: input.FileName, FirstPage: textOut.FirstPage}).Get(ctx, &metaOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	begin("chunk_text")
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{
		DocumentID:   docID,
		CollectionID: input.CollectionID,
		FileName:     input.FileName,
		TextURL:      writeOut.TextURL,
		Text:         textOut.Text,
		ChunkSize:    input.ChunkSize,
		ChunkOverlap: input.ChunkOverlap,
		Version:      defaultChunkVersion(input.ChunkVersion),
	}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	status.ChunkCount = len(chunkOut.Chunks)
	status.Steps[status.CurrentStep] = "done"

	begin("embed_chunks")
	vectors := make([][]float32, 0, len(chunkOut.Chunks))
	for i := 0; i < len(chunkOut.Chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunkOut.Chunks) {
			end = len(chunkOut.Chunks)
		}
		embedOut, err := callEmbedWithFailover(ctx, &state, providerCount, cooldown, activities.EmbedChunksInput{
			Operation:    "embed",
			CollectionID: input.CollectionID,
			DocumentID:   docID,
			Input:        chunkOut.Chunks[i:end],
		}, status.RetryCounts, input.PreferredEmbedProviderIndex, input.StrictEmbedProvider)
		if err != nil {
			return "", err
		}
		vectors = append(vectors, embedOut.Vectors...)
		if !containsString(status.Providers, embedOut.ProviderName) {
			status.Providers = append(status.Providers, embedOut.ProviderName)
		}
	}
	status.Steps[status.CurrentStep] = "done"

	begin("upsert_chunks")
	if err := workflow.ExecuteActivity(ctx, "UpsertChunksActivity", activities.UpsertChunksInput{
		DocumentID:       docID,
		CollectionID:     input.CollectionID,
		Chunks:           chunkOut.Chunks,
		Vectors:          vectors,
		EmbeddingVersion: defaultEmbedVersion(input.EmbedVersion),
	}).Get(ctx, nil); err != nil {
		if isInvalidTextEncodingError(err) {
			return fail(docID, "document contains invalid text encoding after extraction")
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	begin("mark_indexed")
	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID:   docID,
		CollectionID: input.CollectionID,
		FileName:     input.FileName,
		Title:        metaOut.Title,
		Status:       storage.DocumentStatusIndexed,
		ChunkCount:   len(chunkOut.Chunks),
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = StatusIndexed
	return status.Status, nil
}

func callEmbedWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedChunksInput, retryCounts map[string]int, preferredIdx int, strict bool) (activities.EmbedChunksOutput, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	maxAttempts := providerCount * 4
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	if strict && preferredIdx >= 0 {
		maxAttempts = 4
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := 0
		if strict && preferredIdx >= 0 {
			idx = preferredIdx
		} else if preferredIdx >= 0 {
			idx = (preferredIdx + attempt) % providerCount
		} else {
			idx = attempt % providerCount
		}
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedChunksOutput
		err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CollectionID: input.CollectionID, DocumentID: input.DocumentID, ProviderName: out.ProviderName, Model: out.Model, RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok"}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CollectionID: input.CollectionID, DocumentID: input.DocumentID, ProviderName: fmt.Sprintf("provider-%d", idx), RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType)}).Get(ctx, nil)
		key := fmt.Sprintf("embed-%d", idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				_ = workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				if !strict {
					attempt--
				}
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				_ = workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				if !strict {
					attempt--
				}
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed providers exhausted")
	}
	return activities.EmbedChunksOutput{}, lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func defaultChunkVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func defaultEmbedVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isInvalidTextEncodingError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "invalid byte sequence") || strings.Contains(e, "sqlstate 22021")
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
