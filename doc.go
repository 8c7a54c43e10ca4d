// Package monoflux runs build, test, clean and release tasks across every
// service unit of a monorepo workspace.
//
// Service units are discovered under root collections (apps, services,
// packages), grouped by priority and executed by a bounded worker pool.
// Every unit ends with exactly one result and a failing unit never stops
// its siblings.  The run ends with a console report, a JSON artifact and
// an exit code.
//
//	srv := monoflux.New(monoflux.WithConfig(config))
//	result := srv.Build(ctx)
//	os.Exit(result.ExitCode)
//
// Configuration is read from monoflux.yaml at the workspace root, see
// LoadConfig.
package monoflux
