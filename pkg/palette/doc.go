// Package palette assigns display colors to detection kinds.
//
// Known anti-pattern kinds (cycles, god services, shared database writes...)
// have curated colors. Kinds the curated table does not know receive a color
// from a bounded fallback palette, chosen by hashing the normalized kind and
// probing for a color no other kind uses yet.
//
// # Session Scope
//
// A [Registry] is owned by one view session and injected wherever colors are
// needed (the mapper, the halo decorator, exports). Assignments are
// append-only for the registry's lifetime: once a kind has a color it keeps
// it, regardless of which kinds are looked up later.
//
//	reg := palette.New()
//	reg.ColorFor("shared_db_writes") // curated
//	reg.ColorFor("Foo-Bar ")         // fallback, same as reg.ColorFor("foo_bar")
//
// When every fallback color is taken, new kinds collide on the color at their
// hash index instead of failing.
package palette
