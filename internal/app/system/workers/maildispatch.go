package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/mailer"
	"go.uber.org/zap"
)

// MailDispatch sends queued email on a single background goroutine so
// request handlers never wait on SMTP.
type MailDispatch struct {
	sender  mailer.Sender
	log     *zap.Logger
	timeout time.Duration
	queue   chan mailer.Email
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewMailDispatch creates a dispatcher with a queue of the given size. Each
// send gets its own timeout.
func NewMailDispatch(sender mailer.Sender, logger *zap.Logger, queueSize int, timeout time.Duration) *MailDispatch {
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MailDispatch{
		sender:  sender,
		log:     logger,
		timeout: timeout,
		queue:   make(chan mailer.Email, queueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the send loop.
func (d *MailDispatch) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("mail dispatcher started", zap.Int("queue_size", cap(d.queue)))
}

// Stop drains what is already queued, then waits for the loop to exit.
func (d *MailDispatch) Stop() {
	d.once.Do(func() { close(d.stopCh) })
	d.wg.Wait()
	d.log.Info("mail dispatcher stopped")
}

// Enqueue queues e without blocking. It reports false and logs when the queue
// is full or the dispatcher is stopping.
func (d *MailDispatch) Enqueue(e mailer.Email) bool {
	select {
	case <-d.stopCh:
		d.log.Warn("mail dispatcher stopped; email dropped", zap.String("to", e.To), zap.String("subject", e.Subject))
		return false
	default:
	}
	select {
	case d.queue <- e:
		return true
	default:
		d.log.Warn("mail queue full; email dropped", zap.String("to", e.To), zap.String("subject", e.Subject))
		return false
	}
}

func (d *MailDispatch) run() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.queue:
			d.send(e)
		case <-d.stopCh:
			for {
				select {
				case e := <-d.queue:
					d.send(e)
				default:
					return
				}
			}
		}
	}
}

func (d *MailDispatch) send(e mailer.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, e); err != nil {
		d.log.Error("send email failed", zap.String("to", e.To), zap.String("subject", e.Subject), zap.Error(err))
	}
}
