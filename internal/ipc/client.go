package ipc

import (
	"context"
	"fmt"

	"go.klb.dev/cliphist/internal/message"
	"go.klb.dev/cliphist/internal/wire"
)

// Call sends req to the daemon at path and returns its response. An ERROR
// response is returned as a *message.RemoteError.
func Call(path string, req *message.Message) (*message.Message, error) {
	conn, err := Dial(path)
	if err != nil {
		return nil, err
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Type, err)
	}
	wc.SetReadDeadline(requestTimeout)
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Type, err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Watch subscribes to history events and calls fn for each until ctx is
// cancelled, fn returns an error, or the daemon goes away. Cancellation is
// not an error.
func Watch(ctx context.Context, path string, fn func(*message.Event) error) error {
	conn, err := Dial(path)
	if err != nil {
		return err
	}
	wc := wire.New(conn)
	defer wc.Close()
	stop := context.AfterFunc(ctx, func() { _ = wc.Close() })
	defer stop()

	if err := wc.WriteMsg(&message.Message{Type: message.TypeWatch}); err != nil {
		return fmt.Errorf("send WATCH: %w", err)
	}
	for {
		msg, err := wc.ReadMsg()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		switch msg.Type {
		case message.TypeOK:
		case message.TypeEvent:
			if msg.Event == nil {
				continue
			}
			if err := fn(msg.Event); err != nil {
				return err
			}
		default:
			if err := msg.Err(); err != nil {
				return err
			}
		}
	}
}
