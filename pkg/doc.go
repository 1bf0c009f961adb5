// Package pkg provides the core libraries for the depscope dependency checker.
//
// # Overview
//
// Depscope watches a set of package repositories, partitioned by release and
// architecture, and reports packages whose declared dependencies cannot be
// satisfied by any repository in the partition. The pkg directory is organized
// into four main areas:
//
//  1. [rpm], [analyzer] - Domain logic (version comparison, capability matching)
//  2. [repoquery], [maintainers] - Data acquisition (repository metadata, ownership)
//  3. [snapshot], [overrides] - Orchestration (refresh cycles, false-positive filtering)
//  4. [server], [storage] - Serving and persistence
//
// # Architecture
//
// The typical data flow through depscope:
//
//	Repository Metadata (dnf repoquery)
//	         ↓
//	    [repoquery] package (fetch + parse per partition)
//	         ↓
//	    [analyzer] package (capability index + satisfiability)
//	         ↓
//	    [snapshot] package (override filtering, aggregation, publication)
//	         ↓
//	    [server] package (HTTP API) / [storage] package (warm-start cache)
//
// Supporting packages: [config] parses the TOML service configuration and
// derives the partition matrix, [overrides] loads and matches the known
// false-positive rules, [maintainers] resolves package ownership, [httputil]
// provides the retrying HTTP client, and [observability] carries the hook
// interfaces used for instrumentation.
package pkg
