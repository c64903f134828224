package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/normalize"
)

const defaultDocumentTopK = 5

// minTermLength drops suffix-like fragments ("da", "ve") from queries.
const minTermLength = 3

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DocumentStore keeps the incentive documents answers are grounded on. It is
// an eino retriever (the index is the corpus id) and an eino indexer.
type DocumentStore struct {
	db  *sql.DB
	now func() int64
}

var (
	_ retriever.Retriever = (*DocumentStore)(nil)
	_ indexer.Indexer     = (*DocumentStore)(nil)
)

// Documents returns the document store sharing the session database.
func (s *Store) Documents() *DocumentStore {
	return &DocumentStore{db: s.db, now: func() int64 { return s.now().UnixMilli() }}
}

type indexerOptions struct {
	corpusID string
}

// WithCorpus names the corpus Store writes documents into.
func WithCorpus(corpusID string) indexer.Option {
	return indexer.WrapImplSpecificOptFn(func(o *indexerOptions) {
		o.corpusID = corpusID
	})
}

// Store upserts docs into the corpus given by WithCorpus. Documents without
// an id get a new one. Title and URI are read from the "title" and "uri"
// metadata keys.
func (d *DocumentStore) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	options := indexer.GetImplSpecificOptions(&indexerOptions{}, opts...)
	if strings.TrimSpace(options.corpusID) == "" {
		return nil, errors.New("corpus id is required")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		title, uri := metaString(doc, "title"), metaString(doc, "uri")
		_, err := tx.ExecContext(ctx, `
			INSERT INTO incentive_documents (id, corpus_id, title, uri, content, search_text, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				corpus_id = excluded.corpus_id,
				title = excluded.title,
				uri = excluded.uri,
				content = excluded.content,
				search_text = excluded.search_text`,
			id, options.corpusID, title, uri, doc.Content, normalize.Fold(title+"\n"+doc.Content), d.now())
		if err != nil {
			return nil, fmt.Errorf("failed to store document %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit documents: %w", err)
	}
	slog.Debug("Stored documents", "corpus", options.corpusID, "count", len(ids))
	return ids, nil
}

// Retrieve returns the documents of the corpus named by retriever.WithIndex
// (all corpora when unset) that share terms with query. The score is the
// share of query terms a document contains.
func (d *DocumentStore) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := defaultDocumentTopK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []any
	if options.Index != nil && *options.Index != "" {
		conditions = append(conditions, "corpus_id = ?")
		args = append(args, *options.Index)
	}
	likes := make([]string, 0, len(terms))
	for _, term := range terms {
		likes = append(likes, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
	}
	conditions = append(conditions, "("+strings.Join(likes, " OR ")+")")

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, title, uri, content, search_text FROM incentive_documents WHERE "+strings.Join(conditions, " AND "),
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*schema.Document
	for rows.Next() {
		var id, title, uri, content, searchText string
		if err := rows.Scan(&id, &title, &uri, &content, &searchText); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		matched := 0
		for _, term := range terms {
			if strings.Contains(searchText, term) {
				matched++
			}
		}
		score := float64(matched) / float64(len(terms))
		if options.ScoreThreshold != nil && score < *options.ScoreThreshold {
			continue
		}
		doc := &schema.Document{
			ID:       id,
			Content:  content,
			MetaData: map[string]any{"title": title, "uri": uri},
		}
		docs = append(docs, doc.WithScore(score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score() != docs[j].Score() {
			return docs[i].Score() > docs[j].Score()
		}
		return docs[i].ID < docs[j].ID
	})
	if options.TopK != nil && *options.TopK > 0 && len(docs) > *options.TopK {
		docs = docs[:*options.TopK]
	}
	return docs, nil
}

// queryTerms folds query and keeps distinct words long enough to search for.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.FieldsFunc(normalize.Fold(query), isSeparator) {
		if utf8.RuneCountInString(w) < minTermLength || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ',', '.', '?', '!', ';', ':', '(', ')', '"', '\'':
		return true
	}
	return false
}

func metaString(doc *schema.Document, key string) string {
	if v, ok := doc.MetaData[key].(string); ok {
		return v
	}
	return ""
}
