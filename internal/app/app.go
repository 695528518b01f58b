// Package app wires configuration, storage, the model provider, and the
// retrieval stack into a runnable application. Setup builds everything in
// dependency order and Close releases it; entry points only decide which
// surface to run.
package app

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docent-ai/docent/internal/agent"
	"github.com/docent-ai/docent/internal/config"
	"github.com/docent-ai/docent/internal/corpus"
	"github.com/docent-ai/docent/internal/ingest"
	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/prompt"
	"github.com/docent-ai/docent/internal/retrieval"
	"github.com/docent-ai/docent/internal/session"
	"github.com/docent-ai/docent/internal/tools"
	"github.com/docent-ai/docent/internal/vecindex"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Index     *vecindex.Index
	Retrieval *retrieval.Client
	Template  *prompt.Template
	Agent     *agent.Agent

	registry *tools.Registry
}

// Close releases held resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}
	return nil
}

// NewSession creates a conversation seeded from the prompt template.
func (a *App) NewSession(clientKind string) *session.Session {
	return session.New(clientKind, a.Template)
}

// NewPipeline creates an ingestion pipeline over the configured index.
func (a *App) NewPipeline() *ingest.Pipeline {
	return ingest.New(
		corpus.NewReader(a.Logger),
		a.Retrieval,
		a.Index,
		a.Logger,
		ingest.WithRateLimit(a.Config.EmbedRatePerSec),
	)
}

// Sources returns the configured corpus directories paired with their
// dataset partitions, in rebuild order.
func (a *App) Sources() ([]ingest.Source, error) {
	if a.Config.DocsDir == "" || a.Config.CookbooksDir == "" {
		return nil, fmt.Errorf("docs_dir and cookbooks_dir must be configured for ingestion")
	}
	return []ingest.Source{
		{Dir: a.Config.DocsDir, DatasetID: corpus.DatasetDocumentation},
		{Dir: a.Config.CookbooksDir, DatasetID: corpus.DatasetCookbooks},
	}, nil
}
