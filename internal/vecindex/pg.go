package vecindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PG implements Querier on a pgx connection pool.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// DeleteDataset removes all entries of one dataset and reports how many
// rows went away.
func (p *PG) DeleteDataset(ctx context.Context, datasetID string) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM index_entries WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return 0, fmt.Errorf("delete dataset: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertEntries writes one batch with a single multi-row INSERT. Existing ids
// are overwritten, which is what lets re-ingestion rewrite a dataset in place.
func (p *PG) UpsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO index_entries (id, dataset_id, embedding, content, title, description) VALUES `)

	args := make([]any, 0, len(entries)*6)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, e.ID, e.DatasetID, pgvector.NewVector(e.Embedding),
			e.Content, e.Title, e.Description)
	}

	sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
		dataset_id = EXCLUDED.dataset_id,
		embedding = EXCLUDED.embedding,
		content = EXCLUDED.content,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		created_at = now()`)

	if _, err := p.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert batch of %d: %w", len(entries), err)
	}
	return nil
}

// SearchDataset runs a cosine top-k query restricted to one dataset.
// <=> is pgvector's cosine distance operator; similarity = 1 - distance.
func (p *PG) SearchDataset(ctx context.Context, embedding []float32, datasetID string, limit int) ([]Match, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, content, title, description,
		       1 - (embedding <=> $1) AS similarity
		FROM index_entries
		WHERE dataset_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("search dataset: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Content, &m.Title, &m.Description, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return matches, nil
}

// CountDataset returns the number of entries in one dataset.
func (p *PG) CountDataset(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM index_entries WHERE dataset_id = $1`, datasetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dataset: %w", err)
	}
	return n, nil
}
