package main

import (
	"context"

	"github.com/santapalabra/scripture/internal/api"
	"github.com/santapalabra/scripture/internal/logging"
)

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Addr      string `short:"a" help:"Listen address (default from config)"`
	CorpusDir string `name:"corpus-dir" help:"Directory ingestion jobs may read from" type:"path"`
	Migrate   bool   `help:"Apply schema migrations before serving"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	st, cfg, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Migrate {
		v, err := st.Migrate()
		if err != nil {
			return err
		}
		logging.Info("schema migrated", "driver", cfg.Database.Driver, "version", v)
	}
	if err := st.CheckSchema(ctx); err != nil {
		// The server still answers resolver requests without a corpus.
		logging.Warn("corpus store not ready", "error", err)
	}

	scfg := api.FromConfig(cfg)
	if c.Addr != "" {
		scfg.Addr = c.Addr
	}
	if c.CorpusDir != "" {
		scfg.CorpusDir = c.CorpusDir
	}

	srv, err := api.New(scfg, st,
		api.WithVersion(version),
		api.WithLogger(logging.GetLogger()),
	)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	g.printf("scripture version %s\n", version)
	return nil
}
