package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"legalqa/internal/models"
	"legalqa/internal/storage"
	"legalqa/internal/util"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [document-id]",
		Short: "Show indexing progress, or the chunks of one document",
		Long: `Without arguments status prints the latest index run of the collection and
the indexing state of every document. With a document id it prints that
document's chunks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.DB == nil {
				return fmt.Errorf("status needs a postgres url")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			docs := storage.NewDocumentRepo(rt.DB)

			if len(args) == 1 {
				doc, err := docs.GetDocument(ctx, args[0])
				if err != nil {
					return err
				}
				chunks, err := storage.NewChunkRepo(rt.DB).ListChunksByDocument(ctx, doc.CollectionID, doc.DocumentID)
				if err != nil {
					return err
				}
				printChunks(out, doc, chunks)
				return nil
			}

			run, err := storage.NewIndexRunRepo(rt.DB).LatestRun(ctx, rt.Cfg.CollectionID)
			switch {
			case errors.Is(err, storage.ErrIndexRunNotFound):
				fmt.Fprintln(out, "no index runs yet")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "run %s %s: %d/%d done, %d failed (started %s)\n",
					run.RunID, run.Status, run.Done, run.Total, run.Failed, run.CreatedAt.Format("2006-01-02 15:04"))
			}
			list, err := docs.ListDocuments(ctx, rt.Cfg.CollectionID)
			if err != nil {
				return err
			}
			printDocuments(out, list)
			return nil
		},
	}
}

func printDocuments(w io.Writer, docs []models.IndexedDocument) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tFILE\tSTATUS\tCHUNKS")
	for _, d := range docs {
		status := d.Status
		if d.FailReason != "" {
			status += " (" + d.FailReason + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.DocumentID, d.FileName, status, d.ChunkCount)
	}
	_ = tw.Flush()
}

func printChunks(w io.Writer, doc models.IndexedDocument, chunks []models.Chunk) {
	fmt.Fprintf(w, "%s %q [%s] %d chunks\n", doc.DocumentID, doc.Title, doc.Status, len(chunks))
	for _, c := range chunks {
		fmt.Fprintf(w, "  #%d %s: %s\n", c.ChunkIndex, c.EmbeddingVersion, util.PassageSnippet(c.Text, "", 80))
	}
}
