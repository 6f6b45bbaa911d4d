package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"legalqa/internal/collection"
	"legalqa/internal/legal"
	"legalqa/internal/providers"
	"legalqa/internal/util"
	"legalqa/internal/workflows"

	"github.com/spf13/cobra"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.DB == nil {
				return fmt.Errorf("no postgres url configured")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>...",
		Short: "Upload source files into the collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("read %s: %w", p, err)
				}
				name := filepath.Base(p)
				if err := rt.Collection.WriteFile(cmd.Context(), name, collection.FormatOriginal, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", name, len(data))
			}
			return nil
		},
	}
}

func indexCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Start indexing the collection's source files",
		Long: `Index starts the collection indexing workflow on the Temporal worker.
Each source file is extracted, chunked, embedded and stored for passage search.

Example:
  legalctl index --collection karnataka-acts --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
			if err != nil {
				return fmt.Errorf("dial temporal: %w", err)
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(cmd.Context(), tclient.StartWorkflowOptions{
				ID:                                       "index-" + cfg.CollectionID,
				TaskQueue:                                cfg.TemporalTaskQueue,
				WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
				WorkflowExecutionErrorWhenAlreadyStarted: true,
			}, workflows.IndexCollectionWorkflow, workflows.IndexCollectionInput{
				CollectionID:          cfg.CollectionID,
				MaxConcurrentChildren: cfg.IndexMaxChildren,
				EmbedProviders:        len(providers.ParseProviderList(cfg.EmbedProviders)),
				CooldownSeconds:       cfg.ProviderCooldownSecs,
				ChunkSize:             cfg.ChunkSize,
				ChunkOverlap:          cfg.ChunkOverlap,
				EmbedVersion:          cfg.EmbedVersion,
			})
			if err != nil {
				return fmt.Errorf("start indexing: %w", err)
			}
			log.Info().Str("workflow_id", run.GetID()).Str("run_id", run.GetRunID()).Msg("indexing started")
			if !wait {
				return nil
			}
			var result string
			if err := run.Get(cmd.Context(), &result); err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexing %s\n", result)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the workflow to finish")
	return cmd
}

func actsCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "acts",
		Short: "List the acts of the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			catalog, err := rt.Library.ActCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := util.WriteJSONAtomic(outPath, catalog.Acts()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d acts to %s\n", catalog.Len(), outPath)
				return nil
			}
			printActs(cmd.OutOrStdout(), catalog.Acts())
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the catalog as JSON to this file")
	return cmd
}

func printActs(w io.Writer, acts []legal.ActMetadata) {
	for _, a := range acts {
		fmt.Fprintf(w, "%-24s %s (%d documents)\n", a.ID, a.Title, len(a.Documents))
	}
}

func titlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "titles <query>",
		Short: "Find the documents whose titles best match the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			docs, err := rt.Library.SearchTitles(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for i, d := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s [%s]\n", i+1, d.Title, d.ID)
			}
			return nil
		},
	}
}

func sectionsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sections <query>",
		Short: "Locate a section in an act and its related documents",
		Long: `Sections finds the act named in the query and returns where the section
appears in the act and in its amendments and rules.

Example:
  legalctl sections "section 12A of the Karnataka Stamp Act"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			sections, err := rt.Library.SearchSections(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sections)
			}
			for _, s := range sections {
				if !s.Found {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: section %s not present\n", s.Metadata.Title, s.Number)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (page %d)\n", s.Metadata.Title, s.SectionID, s.StartPage)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the sections as JSON")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		email   string
		history bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed passages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if history && email == "" {
				return fmt.Errorf("--history needs --email")
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			answer, err := rt.Library.GeneralSearch(cmd.Context(), strings.Join(args, " "), email, history)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "User email for the conversation log")
	cmd.Flags().BoolVar(&history, "history", false, "Replay earlier exchanges of --email")
	return cmd
}

func retrieverTestCmd() *cobra.Command {
	var inPath, outPath string
	cmd := &cobra.Command{
		Use:   "retriever-test",
		Short: "Run a batch of queries through the retriever test answer path",
		Long: `Retriever-test reads one query per line and writes one JSON object per
query with the answer or the error.

Example:
  legalctl retriever-test --in queries.txt --out results.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPath == "" || outPath == "" {
				return fmt.Errorf("--in and --out are required")
			}
			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("open queries: %w", err)
			}
			defer f.Close()
			queries, err := readQueries(f)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			rows := runRetrieverBatch(cmd.Context(), rt.Library, queries)
			if err := util.WriteJSONLinesAtomic(outPath, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d results to %s\n", len(rows), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "File with one query per line")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "JSON lines output file")
	return cmd
}

type retrieverResult struct {
	Query  string `json:"query"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// readQueries returns the non-blank lines of r. Lines starting with # are
// comments.
func readQueries(r io.Reader) ([]string, error) {
	var out []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

func runRetrieverBatch(ctx context.Context, lib *legal.Library, queries []string) []retrieverResult {
	rows := make([]retrieverResult, 0, len(queries))
	for _, q := range queries {
		res := retrieverResult{Query: q}
		answer, err := lib.RetrieverTest(ctx, q)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Answer = answer
		}
		rows = append(rows, res)
	}
	return rows
}
