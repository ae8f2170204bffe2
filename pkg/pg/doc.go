// Package pg bootstraps PostgreSQL access on pgx/v5: a retrying pool
// constructor, goose migrations read from an fs.FS, a health check closure and
// helpers for classifying driver errors.
//
//	cfg := config.MustLoad[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil {
//	    return err
//	}
package pg
