// Package pkg provides the libraries behind the pedigree tools.
//
// # Overview
//
// A family is stored as two artifacts: a graph document describing the
// family tree (a JSON object whose GG list holds the nodes) and the SVG that
// was rendered from it. Nodes link to patient records through the
// phenotipsId property; image regions link through data-patient-id. The pkg
// directory is organized into three areas:
//
//  1. [pedigree] - Domain logic (document model, link extraction and removal)
//  2. [family] - Application layer (locking, persistence, caching, checks)
//  3. Infrastructure - [store], [patients], [lock], [cache], [config]
//
// # Architecture
//
// The typical data flow when a patient link is removed:
//
//	store.Record (document bytes + SVG)
//	         ↓
//	    [pedigree.New] (aggregate owning both)
//	         ↓
//	    [markup.RemoveLink] then [pedigree.RemoveLink]
//	         ↓
//	    store.Record saved, cached viewer images dropped
//
// # Quick Start
//
// Remove every link to a patient from a family:
//
//	st, _ := store.NewFileStore(dir)
//	svc := family.NewService(st, nil, nil, nil, logger, family.Options{})
//	removed, err := svc.UnlinkPatient(ctx, "FAM1", "P0000001")
//
// Work with a document directly:
//
//	doc, _ := pedigree.ParseDocument(data)
//	p, _ := pedigree.New(doc, svg)
//	ids, _ := p.ExtractIDs()
//	highlighted, _ := p.Image("P0000001")
//
// # Main Packages
//
// ## Domain
//
// [pedigree] - Graph document model, the link extractor and mutator, and the
// Pedigree aggregate keeping document and image consistent.
//
// [markup] - SVG editing through a DOM: viewer highlighting and removal of
// patient link annotations.
//
// [preview] - Graphviz layout of a document into an annotated SVG, for
// families imported without an image.
//
// ## Application
//
// [family] - Service combining store, patient repository, lock and cache.
// Every edit of a family runs under its lock.
//
// ## Infrastructure
//
// [store] - Family records in a directory or a MongoDB collection.
//
// [patients] - Patient lookups from a JSON file or a MongoDB collection.
//
// [lock] - Per-family edit locks, in-process or in Redis.
//
// [cache] - Highlighted image cache (file, Redis, none) and retry helpers.
//
// [config] - TOML configuration and XDG paths.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for load, unlink, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/pedigree  # Examples only
//	go test -tags integration ./pkg/...  # Include MongoDB and Redis tests
//
// [pedigree]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/pedigree
// [pedigree.New]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/pedigree#New
// [pedigree.RemoveLink]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/pedigree#RemoveLink
// [markup]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/pedigree/markup
// [markup.RemoveLink]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/pedigree/markup#RemoveLink
// [preview]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/preview
// [family]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/family
// [store]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/store
// [patients]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/patients
// [lock]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/lock
// [cache]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pedigree/pkg/observability
package pkg
