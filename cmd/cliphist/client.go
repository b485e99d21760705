package main

import (
	"context"

	"go.klb.dev/cliphist/internal/ipc"
	"go.klb.dev/cliphist/internal/message"
)

// daemonClient wraps the control protocol for the CLI sub-commands. It also
// satisfies picker.Client.
type daemonClient struct {
	path string
}

func (c *daemonClient) call(req *message.Message) (*message.Message, error) {
	return ipc.Call(c.path, req)
}

func (c *daemonClient) List() ([]message.Entry, error) {
	return c.ListN(0)
}

func (c *daemonClient) ListN(limit int) ([]message.Entry, error) {
	resp, err := c.call(&message.Message{Type: message.TypeList, Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Entry fetches the entry at index i.
func (c *daemonClient) Entry(i int) (message.Entry, error) {
	entries, err := c.ListN(i + 1)
	if err != nil {
		return message.Entry{}, err
	}
	if i < 0 || i >= len(entries) {
		return message.Entry{}, errIndex(i, len(entries))
	}
	return entries[i], nil
}

func (c *daemonClient) Select(content string) error {
	_, err := c.call(&message.Message{Type: message.TypeSelect, Content: content})
	return err
}

func (c *daemonClient) SelectIndex(i int) error {
	_, err := c.call(&message.Message{Type: message.TypeSelect, Index: message.IndexPtr(i)})
	return err
}

func (c *daemonClient) Copy(content string) error {
	_, err := c.call(&message.Message{Type: message.TypeCopy, Content: content})
	return err
}

func (c *daemonClient) Remove(content string) error {
	_, err := c.call(&message.Message{Type: message.TypeRemove, Content: content})
	return err
}

func (c *daemonClient) RemoveIndex(i int) error {
	_, err := c.call(&message.Message{Type: message.TypeRemove, Index: message.IndexPtr(i)})
	return err
}

func (c *daemonClient) Clear() (int, error) {
	resp, err := c.call(&message.Message{Type: message.TypeClear})
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *daemonClient) Status() (*message.Status, error) {
	resp, err := c.call(&message.Message{Type: message.TypeStatus})
	if err != nil {
		return nil, err
	}
	return resp.Status, nil
}

func (c *daemonClient) Watch(ctx context.Context, fn func(*message.Event) error) error {
	return ipc.Watch(ctx, c.path, fn)
}
