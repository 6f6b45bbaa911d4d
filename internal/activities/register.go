package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListSourceFilesActivity)
	w.RegisterActivity(a.ComputeDocumentIDActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.WriteTextActivity)
	w.RegisterActivity(a.EnsureDocumentMetadataActivity)
	w.RegisterActivity(a.ChunkTextActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.UpsertChunksActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
	w.RegisterActivity(a.StartIndexRunActivity)
	w.RegisterActivity(a.FinishIndexRunActivity)
	w.RegisterActivity(a.WriteIndexManifestActivity)
}
