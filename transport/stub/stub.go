// Package stub provides an in-memory transport that answers sessions
// with queued replies and records what was sent.
package stub

import (
	"context"
	"sync"

	"http-message/application/http/client"
	"http-message/lib/ds/queue"

	"github.com/pkg/errors"
)

var ErrNoReply = errors.New("no reply queued")

// Reply is what one session answers with.
type Reply struct {
	StatusCode int
	Raw        []byte
	// Err is returned by Send instead of a result.
	Err error
}

type Transport struct {
	replies  *queue.Queue[Reply]
	requests []client.Params

	openErr error
	opened  int
	closed  int

	mu sync.Mutex
}

var _ client.Transport = (*Transport)(nil)

func New(replies ...Reply) *Transport {
	t := &Transport{replies: queue.New[Reply](uint(len(replies)))}
	for _, r := range replies {
		t.replies.Enqueue(r)
	}
	return t
}

// Enqueue adds a reply for a later session.
func (t *Transport) Enqueue(r Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies.Enqueue(r)
}

// FailOpen makes Open return err until it is called with nil.
func (t *Transport) FailOpen(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr = err
}

func (t *Transport) Open(ctx context.Context) (client.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openErr != nil {
		return nil, t.openErr
	}
	if err := ctx.Err(); err != nil {
		code := client.CodeTimeout
		if errors.Is(err, context.Canceled) {
			code = client.CodeCanceled
		}
		return nil, client.NewTransportError(code, err)
	}

	t.opened++
	return &session{t: t}, nil
}

// Requests returns the params of every Send so far.
func (t *Transport) Requests() []client.Params {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]client.Params, len(t.requests))
	copy(out, t.requests)
	return out
}

// OpenSessions returns the number of sessions not closed yet.
func (t *Transport) OpenSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened - t.closed
}

type session struct {
	t      *Transport
	closed bool
}

var _ client.Session = (*session)(nil)

func (s *session) Send(ctx context.Context, params client.Params) (client.Result, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if s.closed {
		return client.Result{}, client.NewTransportError(client.CodeConnectionClosed, errors.New("session is closed"))
	}

	params.Headers = append([]string(nil), params.Headers...)
	params.Body = append([]byte(nil), params.Body...)
	s.t.requests = append(s.t.requests, params)

	reply, err := s.t.replies.Dequeue()
	if err != nil {
		return client.Result{}, client.NewTransportError(client.CodeReadFailure, ErrNoReply)
	}
	if reply.Err != nil {
		return client.Result{}, reply.Err
	}

	return client.Result{StatusCode: reply.StatusCode, Raw: reply.Raw}, nil
}

func (s *session) Close() error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if s.closed {
		return errors.New("session is already closed")
	}
	s.closed = true
	s.t.closed++

	return nil
}
