package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/config"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/sqlitestore"
)

// NewDocsCmd manages the documents handoff and general answers are grounded on.
func NewDocsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage the incentive documents used to ground answers",
	}
	cmd.AddCommand(newDocsAddCmd(flags))
	cmd.AddCommand(newDocsSearchCmd(flags))
	return cmd
}

func newDocsAddCmd(flags *globalFlags) *cobra.Command {
	var corpusID string
	cmd := &cobra.Command{
		Use:   "add FILE...",
		Short: "Add or replace text documents in a corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, docs, closeFn, err := openDocuments(flags)
			if err != nil {
				return err
			}
			defer closeFn()
			corpus, err := corpusOrDefault(corpusID, conf)
			if err != nil {
				return err
			}

			batch := make([]*schema.Document, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(path)
				if err != nil {
					return err
				}
				batch = append(batch, doc)
			}
			ids, err := docs.Store(cmd.Context(), batch, sqlitestore.WithCorpus(corpus))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d documents in corpus %s\n", len(ids), corpus)
			if conf.Retriever.Driver != config.RetrieverSQLite {
				slog.Warn("Documents are stored but retriever.driver is not sqlite", "driver", conf.Retriever.Driver)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusID, "corpus", "", "corpus id (defaults to server.corpus_id)")
	return cmd
}

func newDocsSearchCmd(flags *globalFlags) *cobra.Command {
	var (
		corpusID string
		topK     int
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Show the documents a query retrieves",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, docs, closeFn, err := openDocuments(flags)
			if err != nil {
				return err
			}
			defer closeFn()
			if corpusID == "" {
				corpusID = conf.Server.CorpusID
			}
			if topK <= 0 {
				topK = conf.LLM.TopK
			}

			opts := []retriever.Option{retriever.WithTopK(topK)}
			if corpusID != "" {
				opts = append(opts, retriever.WithIndex(corpusID))
			}
			found, err := docs.Retrieve(cmd.Context(), strings.Join(args, " "), opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No documents found.")
				return nil
			}
			for _, doc := range found {
				title, _ := doc.MetaData["title"].(string)
				fmt.Fprintf(out, "%.2f  %s  %s\n", doc.Score(), doc.ID, title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusID, "corpus", "", "corpus id (defaults to server.corpus_id, empty searches all)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of documents (defaults to llm.top_k)")
	return cmd
}

func openDocuments(flags *globalFlags) (*config.Config, *sqlitestore.DocumentStore, func(), error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := sqlitestore.Open(conf.Retriever.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open document database: %w", err)
	}
	return conf, s.Documents(), func() { _ = s.Close() }, nil
}

func corpusOrDefault(corpusID string, conf *config.Config) (string, error) {
	if corpusID != "" {
		return corpusID, nil
	}
	if conf.Server.CorpusID != "" {
		return conf.Server.CorpusID, nil
	}
	return "", errors.New("no corpus given: pass --corpus or set server.corpus_id")
}

// readDocument uses the file name as id and the first markdown heading, if
// any, as title.
func readDocument(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	title := id
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			title = strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		break
	}
	return &schema.Document{
		ID:       id,
		Content:  string(data),
		MetaData: map[string]any{"title": title, "uri": path},
	}, nil
}
