package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/surface"
	"github.com/matzehuels/archmap/pkg/view"
)

// Live session timing.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// outboxSize bounds queued ops; a client that falls further behind is
	// disconnected.
	outboxSize = 1024
)

// Command names sent by live clients.
const (
	CmdLoad     = "load"
	CmdResize   = "resize"
	CmdDetach   = "detach"
	CmdDrag     = "drag"
	CmdViewport = "viewport"
	CmdLayout   = "layout"
	CmdDismiss  = "dismiss"
	CmdFit      = "fit"
	CmdHover    = "hover"
	CmdStats    = "stats"
)

// Command is one client-to-server message of a live session.
type Command struct {
	Type     string            `json:"type"`
	Analysis json.RawMessage   `json:"analysis,omitempty"`
	Width    float64           `json:"width,omitempty"`
	Height   float64           `json:"height,omitempty"`
	ID       string            `json:"id,omitempty"`
	Position *surface.Point    `json:"position,omitempty"`
	Viewport *surface.Viewport `json:"viewport,omitempty"`
	Layout   string            `json:"layout,omitempty"`
	Index    int               `json:"index,omitempty"`
}

// handleLive upgrades to a WebSocket and runs a live session. Under
// /api/analyses/{id}/live the stored analysis is loaded first.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	var initial *graph.Analysis
	if s.hasIDParam(r) {
		rec, err := s.record(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		initial = rec.Analysis
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	conn.SetReadLimit(s.opts.Server.MaxBodyBytes)

	ls := s.newLive(conn)
	ls.run(r.Context(), initial)
}

func (s *Server) hasIDParam(r *http.Request) bool {
	return routeParam(r, "id") != ""
}

type live struct {
	conn   *websocket.Conn
	loop   *surface.Loop
	remote *Remote
	sess   *view.Session
	logger *log.Logger

	out    chan Op
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Server) newLive(conn *websocket.Conn) *live {
	ls := &live{
		conn: conn,
		loop: surface.NewLoop(),
		out:  make(chan Op, outboxSize),
	}
	ls.remote = NewRemote(ls.loop, ls.send)
	ls.sess = view.Open(ls.remote, ls.loop, view.Options{
		Layout:   s.opts.View.Layout,
		Padding:  float64(s.opts.View.Padding),
		Colors:   s.opts.Palette(),
		Logger:   s.opts.Logger,
		OnBadges: func(b []overlay.Badge) { ls.send(Op{Op: OpBadges, Badges: b}) },
	})
	ls.logger = s.logger.With("live", ls.sess.ID()[:8])
	return ls
}

// send queues op for the writer. It never blocks the loop; overflow ends
// the session.
func (ls *live) send(op Op) {
	select {
	case ls.out <- op:
	default:
		ls.once.Do(func() {
			ls.logger.Warn("client too slow, disconnecting")
			if ls.cancel != nil {
				ls.cancel()
			}
		})
	}
}

func (ls *live) run(parent context.Context, initial *graph.Analysis) {
	ctx, cancel := context.WithCancel(parent)
	ls.cancel = cancel
	defer cancel()

	ls.send(Op{Op: OpHello, Session: ls.sess.ID(), Layout: ls.sess.Layout(), Layouts: layout.Names()})
	if initial != nil {
		ls.loop.Post(func() { ls.load(initial) })
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = ls.loop.Run(ctx)
	}()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ls.write(ctx)
	}()

	ls.logger.Info("live session started")
	ls.read(ctx)

	// The loop goroutine has exited once loopDone is closed, so teardown
	// can touch the session from here.
	cancel()
	<-loopDone
	ls.sess.Close()
	ls.remote.Destroy()
	ls.loop.Close()
	<-writerDone
	_ = ls.conn.Close()
	ls.logger.Info("live session ended")
}

func (ls *live) read(ctx context.Context) {
	_ = ls.conn.SetReadDeadline(time.Now().Add(pongWait))
	ls.conn.SetPongHandler(func(string) error {
		return ls.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var cmd Command
		if err := ls.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ls.logger.Debug("read", "err", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		// One command in flight; the next read waits for the loop.
		if err := ls.loop.Do(ctx, func() { ls.handle(cmd) }); err != nil {
			return
		}
	}
}

func (ls *live) write(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ls.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// Unblocks read when the session ends from this side.
			_ = ls.conn.Close()
			return
		case op := <-ls.out:
			_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ls.conn.WriteJSON(op); err != nil {
				ls.logger.Debug("write", "err", err)
				ls.cancel()
				_ = ls.conn.Close()
				return
			}
		case <-ticker.C:
			_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ls.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ls.cancel()
				_ = ls.conn.Close()
				return
			}
		}
	}
}

// handle runs on the loop.
func (ls *live) handle(cmd Command) {
	if ls.sess.Closed() {
		return
	}
	var err error
	switch cmd.Type {
	case CmdLoad:
		var a *graph.Analysis
		if a, err = graph.UnmarshalAnalysis(cmd.Analysis); err == nil {
			ls.load(a)
		}
	case CmdResize:
		err = ls.remote.ClientResize(surface.Size{Width: cmd.Width, Height: cmd.Height})
	case CmdDetach:
		ls.remote.ClientDetach()
	case CmdDrag:
		if cmd.Position == nil {
			err = errors.New(errors.ErrCodeInvalidInput, "drag needs a position")
		} else {
			ls.remote.ClientDrag(cmd.ID, *cmd.Position)
		}
	case CmdViewport:
		if cmd.Viewport == nil {
			err = errors.New(errors.ErrCodeInvalidInput, "viewport command needs a viewport")
		} else {
			err = ls.remote.ClientViewport(*cmd.Viewport)
		}
	case CmdLayout:
		err = ls.sess.SetLayout(cmd.Layout)
	case CmdDismiss:
		err = ls.sess.Dismiss(cmd.Index)
		if err == nil {
			ls.sendStats()
		}
	case CmdFit:
		ls.sess.Fit()
	case CmdHover:
		if tip, ok := ls.sess.Tooltip(cmd.ID); ok {
			ls.send(Op{Op: OpTooltip, Tooltip: &tip})
		}
	case CmdStats:
		ls.sendStats()
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown command %q", cmd.Type)
	}
	if err != nil {
		ls.send(Op{Op: OpError, Error: errors.UserMessage(err)})
	}
}

func (ls *live) load(a *graph.Analysis) {
	if err := ls.sess.Load(a); err != nil {
		ls.send(Op{Op: OpError, Error: errors.UserMessage(err)})
		return
	}
	ls.sendStats()
}

func (ls *live) sendStats() {
	st := ls.sess.Stats()
	ls.send(Op{Op: OpStats, Stats: &st})
}
