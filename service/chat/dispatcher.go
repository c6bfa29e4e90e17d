package chat

import (
	"PulseChat/logger"
)

// Dispatcher routes inbound envelopes to the handler registered for their
// event type. Registration happens once at boot; Dispatch is then read-only
// and safe for concurrent read loops.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds a handler to its event type, replacing any previous binding.
func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.EventType()] = h
}

// Dispatch routes one envelope. An unknown event type or a handler error is
// reported to the originating connection only; it never propagates to other
// members and never tears the connection down.
func (d *Dispatcher) Dispatch(sess *Session, env *Envelope) {
	h, ok := d.handlers[env.EventType]
	if !ok {
		sess.Server.Bcast().SendToClient(sess.Client, NewErrorEnvelope("Unknown event type: "+env.EventType))
		return
	}
	if err := h.Handle(sess, env); err != nil {
		logger.Warnf("handle %s for user=%s failed: %v", env.EventType, sess.UserID, err)
		sess.Server.Bcast().SendToClient(sess.Client, NewErrorEnvelope(err.Error()))
	}
}
