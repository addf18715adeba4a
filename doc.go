// Package dvenv manages named Dataverse environment profiles behind one
// connection pool. Each profile describes a backend environment (base URL,
// auth mode, timeout, cache policy); the pool lazily constructs at most one
// client per environment — even under concurrent acquisition — and gives
// every environment an isolated on-disk metadata cache derived from its
// base URL, so concurrently used environments never corrupt each other's
// cached state.
//
// # Basic Usage
//
//	settings, err := dvenv.LoadSettings("environments.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pool := dvenv.New(settings,
//	    dvenv.WithCredentialResolver(myResolver),
//	)
//	defer pool.Close()
//
//	client, err := pool.Acquire(ctx, "production")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Release()
//
//	cfg, err := client.Config()
//	// cfg.BaseURL, cfg.CacheDir, ...
//
// # Profile fallback
//
// Acquiring an unknown profile name falls back to the default profile
// instead of failing, matching how the settings shape is resolved
// everywhere else. The fallback is detectable: compare Client.Name with the
// requested name, or check Client.UsedFallback.
//
// # Concurrency
//
// All Pool methods are safe for concurrent use. Concurrent acquisitions of
// the same profile share one in-flight construction; acquisitions of
// different profiles never block each other. A failed construction is not
// cached — the next acquisition retries from scratch.
package dvenv
