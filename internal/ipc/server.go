package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/cliphist/internal/engine"
	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/hub"
	"go.klb.dev/cliphist/internal/message"
	"go.klb.dev/cliphist/internal/wire"
)

// requestTimeout bounds how long a client may take to send its request.
const requestTimeout = 5 * time.Second

// watchBuffer is the per-watcher event backlog before events are dropped.
const watchBuffer = 64

// Engine is the part of the history engine the control channel drives.
type Engine interface {
	List() ([]history.Snapshot, error)
	Entry(i int) (history.Snapshot, error)
	Select(content string) error
	Copy(content string) error
	Remove(content string) (bool, error)
	Clear() (int, error)
	Status() engine.Status
	Events() *hub.Hub
}

// Server answers control requests on behalf of an engine.
type Server struct {
	eng     Engine
	version string
	nextID  atomic.Uint64
}

// NewServer returns a server for eng. version is reported in STATUS.
func NewServer(eng Engine, version string) *Server {
	return &Server{eng: eng, version: version}
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// listener and waits for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ipc accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	wc := wire.New(conn)
	defer wc.Close()
	// Unblock a pending read or write when the daemon shuts down.
	stop := context.AfterFunc(ctx, func() { _ = wc.Close() })
	defer stop()

	wc.SetReadDeadline(requestTimeout)
	req, err := wc.ReadMsg()
	if err != nil {
		slog.Debug("ipc: read request failed", "err", err)
		return
	}
	wc.SetReadDeadline(0)
	slog.Debug("ipc: request", "type", req.Type)

	if req.Type == message.TypeWatch {
		s.watch(ctx, wc)
		return
	}
	if err := wc.WriteMsg(s.Handle(req)); err != nil {
		slog.Debug("ipc: write response failed", "err", err)
	}
}

// Handle answers a single non-streaming request.
func (s *Server) Handle(req *message.Message) *message.Message {
	switch req.Type {
	case message.TypeList:
		entries, err := s.eng.List()
		if err != nil {
			return message.Errorf("%v", err)
		}
		if req.Limit > 0 && req.Limit < len(entries) {
			entries = entries[:req.Limit]
		}
		return &message.Message{Type: message.TypeEntries, Entries: toEntries(entries)}

	case message.TypeSelect:
		content, err := s.resolve(req)
		if err != nil {
			return message.Errorf("%v", err)
		}
		if err := s.eng.Select(content); err != nil {
			return message.Errorf("%v", err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeCopy:
		if err := s.eng.Copy(req.Content); err != nil {
			return message.Errorf("%v", err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeRemove:
		content, err := s.resolve(req)
		if err != nil {
			return message.Errorf("%v", err)
		}
		removed, err := s.eng.Remove(content)
		if err != nil {
			return message.Errorf("%v", err)
		}
		if !removed {
			return message.Errorf("%v", engine.ErrUnknownEntry)
		}
		return &message.Message{Type: message.TypeOK, Removed: 1}

	case message.TypeClear:
		n, err := s.eng.Clear()
		if err != nil {
			return message.Errorf("%v", err)
		}
		return &message.Message{Type: message.TypeOK, Removed: n}

	case message.TypeStatus:
		return &message.Message{Type: message.TypeStatusResponse, Status: s.status()}

	default:
		return message.Errorf("unexpected message type %q", req.Type)
	}
}

// resolve turns an index-or-content address into content.
func (s *Server) resolve(req *message.Message) (string, error) {
	if req.Index != nil {
		snap, err := s.eng.Entry(*req.Index)
		if err != nil {
			return "", err
		}
		return snap.Content, nil
	}
	if req.Content == "" {
		return "", errors.New("request needs an index or content")
	}
	return req.Content, nil
}

func (s *Server) status() *message.Status {
	st := s.eng.Status()
	return &message.Status{
		Version:      s.version,
		PID:          os.Getpid(),
		State:        st.State.String(),
		Backend:      st.Backend,
		HistoryFile:  st.HistoryFile,
		Entries:      st.Entries,
		Capacity:     st.Capacity,
		PollInterval: st.PollInterval.String(),
		SaveDebounce: st.SaveDebounce.String(),
		StartedAt:    st.StartedAt,
		LastSave:     st.LastSave,
		LastSaveErr:  st.LastSaveErr,
		Subscribers:  st.Subscribers,
	}
}

// watch streams history events to the client until it disconnects or the
// daemon shuts down. The OK goes out after registration so no event that
// follows it can be missed.
func (s *Server) watch(ctx context.Context, wc *wire.Conn) {
	sub := hub.NewChanSubscriber(fmt.Sprintf("ipc:watch:%d", s.nextID.Add(1)), watchBuffer)
	events := s.eng.Events()
	events.Register(sub)
	defer events.Unregister(sub)

	if err := wc.WriteMsg(&message.Message{Type: message.TypeOK}); err != nil {
		return
	}

	// The client sends nothing after WATCH; a read returning means it hung up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := wc.ReadMsg(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = wc.Close()
			<-gone
			return
		case <-gone:
			return
		case ev := <-sub.C:
			msg := &message.Message{Type: message.TypeEvent, Event: &message.Event{
				Kind:       string(ev.Kind),
				Content:    ev.Content,
				CapturedAt: ev.CapturedAt,
			}}
			if err := wc.WriteMsg(msg); err != nil {
				slog.Debug("ipc: watch write failed", "id", sub.ID(), "err", err)
				_ = wc.Close()
				<-gone
				return
			}
		}
	}
}

func toEntries(snaps []history.Snapshot) []message.Entry {
	out := make([]message.Entry, len(snaps))
	for i, s := range snaps {
		out[i] = message.Entry{Index: i, Content: s.Content, CapturedAt: s.CapturedAt}
	}
	return out
}
