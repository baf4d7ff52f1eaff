package face

import "log"

// Loop serializes events from multiple sources onto one controller in strict
// arrival order. Post blocks instead of dropping: the draw-count sequence is
// part of the contract, so events are never shed.
type Loop struct {
	ctrl   *Controller
	events chan Event
	quit   chan struct{}
	done   chan struct{}
	logger *log.Logger
}

// NewLoop builds an event loop with the given queue depth.
func NewLoop(ctrl *Controller, depth int, logger *log.Logger) *Loop {
	if ctrl == nil {
		return nil
	}
	if depth <= 0 {
		depth = 64
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		ctrl:   ctrl,
		events: make(chan Event, depth),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Controller returns the controller the loop drives.
func (l *Loop) Controller() *Controller {
	if l == nil {
		return nil
	}
	return l.ctrl
}

// Start begins draining events. Nil receivers are safe.
func (l *Loop) Start() {
	if l == nil {
		return
	}
	go l.run()
}

// Stop ends event processing. Events already queued are applied before the
// loop exits; later Posts are refused.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	close(l.quit)
	<-l.done
}

// Post delivers one event, blocking while the queue is full to preserve FIFO
// order. It reports false once the loop has stopped.
func (l *Loop) Post(ev Event) bool {
	if l == nil {
		return false
	}
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- ev:
		return true
	case <-l.quit:
		return false
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case ev := <-l.events:
			l.apply(ev)
		case <-l.quit:
			// Drain whatever was queued before the stop signal.
			for {
				select {
				case ev := <-l.events:
					l.apply(ev)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) apply(ev Event) {
	if _, err := l.ctrl.Apply(ev); err != nil {
		l.logger.Printf("Display: rejected %s event: %v", ev.Kind, err)
	}
}
