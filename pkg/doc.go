// Package pkg holds the archmap libraries.
//
// # Overview
//
// archmap takes the result of an architecture analysis (a service
// dependency graph plus the anti-patterns detected on it) and keeps a
// rendered graph and its overlays in sync: every node and edge is annotated
// with the detections that implicate it, flagged nodes get a severity halo
// that follows them through layouts and drags, and kind badges mark what
// was found where.
//
// The typical data flow:
//
//	analysis JSON
//	     ↓
//	[graph] (decode, normalize)
//	     ↓
//	[annotate] (per-element flags, severities, colors from [palette])
//	     ↓
//	[view] session on a [surface] renderer
//	     ↓
//	[overlay] halos, badges, tooltips
//
// # Main Packages
//
//   - [graph]: analysis wire types and decoding
//   - [palette]: stable detection kind colors
//   - [annotate]: element model and statistics
//   - [layout]: layout names and renderer configuration
//   - [surface]: renderer contract, guarded handle and event loop
//   - [surface/headless]: in-memory renderer used by the CLI, the server and tests
//   - [overlay]: halo synchronization, badges, tooltips
//   - [view]: one session tying an analysis to a surface
//   - [export]: YAML, DOT, SVG and JSON exports
//
// # Infrastructure
//
//   - [cache]: null, file, LRU and Redis caches
//   - [storage]: memory, file and MongoDB analysis stores
//   - [config]: TOML, .env and environment configuration
//   - [metrics] and [observability]: Prometheus metrics behind hook interfaces
//   - [watch]: file reloads
//   - [server]: HTTP API and live sessions over WebSocket
//   - [errors]: coded errors
//   - [buildinfo]: version stamping
package pkg
