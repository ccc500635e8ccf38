// Package view runs one rendering session: it owns the surface handle, the
// session-scoped color registry and the overlays, loads analyses onto the
// surface and tears everything down on Close.
//
// # Usage
//
//	loop := surface.NewLoop()
//	r := headless.New(loop)
//	s := view.Open(r, loop, view.Options{Layout: "dagre"})
//	defer s.Close()
//
//	if err := s.Load(analysis); err != nil {
//	    return err
//	}
//	loop.RunPending() // layout completes, halos sync
//
// All Session methods must be called on the loop passed to Open.
package view
