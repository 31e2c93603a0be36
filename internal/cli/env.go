package cli

import (
	"fmt"

	"github.com/templatefall/templatefall/internal/catalog"
	"github.com/templatefall/templatefall/internal/config"
	"github.com/templatefall/templatefall/internal/store"
)

// env bundles the opened collaborators a command runs against.
type env struct {
	cfg     *config.Config
	store   *store.Store
	catalog *catalog.Catalog // nil unless requested
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// openEnv loads configuration, opens the store, and, when asked,
// loads the site catalog. Flag values override the config file.
func openEnv(opts *RootOptions, needCatalog bool) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.CatalogPath != "" {
		cfg.Catalog = opts.CatalogPath
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	e := &env{cfg: cfg, store: st}
	if needCatalog {
		if cfg.Catalog == "" {
			st.Close()
			return nil, &ExitError{
				Code:    ExitCommandError,
				Message: "a site catalog is required: set --catalog or the catalog config field",
			}
		}
		c, err := catalog.Load(cfg.Catalog)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("load catalog %s", cfg.Catalog), err)
		}
		e.catalog = c
	}

	return e, nil
}
