package search

// Package search translates skill search parameters into the hosted search
// engine's filter/sort/facet grammar and normalizes the engine's hit/facet
// response back into the application's result type.
//
// The service degrades gracefully: when the engine is not configured (no
// host or API key), Search returns an empty, well-formed result instead of
// failing, so an unconfigured deployment still renders. Callers that want to
// distinguish "backend unavailable" from "zero matches" can check Available.
//
// The package also provides ParseSearchParams, the shared HTTP query
// parameter parsing used by the API server.
