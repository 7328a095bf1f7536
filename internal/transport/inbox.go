package transport

import (
	"context"
	"sync"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/logging"
)

// ErrInboxClosed is returned by Send after Close.
var ErrInboxClosed = errors.New("inbox closed")

// DefaultInboxBuffer is used when NewInbox is given a non-positive size.
const DefaultInboxBuffer = 16

// Inbox is a buffered channel of challenge requests. Any number of
// goroutines may Send; one Run loop consumes.
type Inbox struct {
	requests chan Request
	done     chan struct{}
	once     sync.Once
	logger   *logging.Logger
}

// NewInbox creates an inbox holding up to buffer unconsumed requests.
func NewInbox(buffer int, logger *logging.Logger) *Inbox {
	if buffer <= 0 {
		buffer = DefaultInboxBuffer
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Inbox{
		requests: make(chan Request, buffer),
		done:     make(chan struct{}),
		logger:   logger.WithComponent("transport_inbox"),
	}
}

// Send queues req, blocking while the buffer is full.
func (i *Inbox) Send(ctx context.Context, req Request) error {
	select {
	case <-i.done:
		return ErrInboxClosed
	default:
	}
	select {
	case <-i.done:
		return ErrInboxClosed
	case <-ctx.Done():
		return ctx.Err()
	case i.requests <- req:
		return nil
	}
}

// Close stops accepting requests. Requests already buffered are still
// delivered by Run. Close is idempotent.
func (i *Inbox) Close() {
	i.once.Do(func() { close(i.done) })
}

// Len returns the number of buffered requests.
func (i *Inbox) Len() int { return len(i.requests) }

// Run hands every request to a in arrival order until ctx is cancelled or
// the inbox is closed and drained. Invalid requests are logged and skipped;
// a closed coordinator ends the loop.
func (i *Inbox) Run(ctx context.Context, a Announcer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-i.requests:
			if err := i.deliver(a, req); err != nil {
				return err
			}
		case <-i.done:
			for {
				select {
				case req := <-i.requests:
					if err := i.deliver(a, req); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

func (i *Inbox) deliver(a Announcer, req Request) error {
	ann, err := a.OnChallenge(req.Questions, req.Publication, req.Target)
	if errors.Is(err, errors.ErrCoordinatorClosed) {
		return err
	}
	if err != nil {
		i.logger.Warn("dropping invalid challenge request", "error", err.Error())
		return nil
	}
	i.logger.Debug("challenge request delivered", "announcement_id", ann.ID())
	if req.Delivered != nil {
		req.Delivered(ann)
	}
	return nil
}
