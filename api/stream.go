package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brewsignal/brewsignal/log"
)

const (
	streamMinBackoff = time.Second
	streamMaxBackoff = time.Minute
)

// Stream is the live raw reading stream of the backend. A single Stream
// serves every device, readings are routed by their DeviceID.
type Stream struct {
	c    *Client
	ch   chan Reading
	stop context.CancelFunc
	done chan struct{}
}

// Stream opens the live reading stream, reconnecting with capped backoff
// until ctx is canceled or [Stream.Stop] is called.
func (c *Client) Stream(ctx context.Context) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		c:    c,
		ch:   make(chan Reading, 16),
		stop: cancel,
		done: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// URL returns the WebSocket endpoint derived from the backend base URL.
func (s *Stream) URL() string {
	u := s.c.BaseURL()
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + s.c.cfg.StreamPath
}

// Readings returns the channel readings arrive on. The channel is closed
// once the stream stops.
func (s *Stream) Readings() <-chan Reading {
	return s.ch
}

// Stop closes the stream and blocks until the reading channel is closed.
func (s *Stream) Stop() {
	s.stop()
	<-s.done
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.ch)
	backoff := streamMinBackoff
	for {
		err := s.read(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("Reading stream disconnected", "error", err, "retry_in", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

func (s *Stream) read(ctx context.Context) error {
	var hdr http.Header
	if s.c.cfg.Token != "" {
		hdr = http.Header{"Authorization": {"Bearer " + s.c.cfg.Token}}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.URL(), hdr)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("Reading stream connected", "url", s.URL())

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		var r Reading
		if err = conn.ReadJSON(&r); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = nil
			}
			break
		}
		select {
		case s.ch <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
