package chat

import (
	"PulseChat/logger"
)

// Broadcaster fans envelopes out to live connections. The envelope is
// marshaled once per call; sends happen outside the registry lock against a
// snapshot, so a slow socket never blocks admissions or other fanouts.
//
// Connections whose send fails are retired on the spot (lazy pruning). A
// prune-retirement emits no membership notifications: delivery errors are
// recovered silently, so an identity fully retired by a prune simply stops
// appearing in member sets.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// SendToClient delivers to exactly one connection. Used for error replies
// where fanning out to the user's other devices would be wrong.
func (b *Broadcaster) SendToClient(c *Client, env *Envelope) {
	data, err := env.Marshal()
	if err != nil {
		logger.Errorf("marshal %s envelope failed: %v", env.EventType, err)
		return
	}
	if err := c.Transport.WriteMessage(data); err != nil {
		logger.Warnf("send %s to user=%s conn=%s failed, retiring: %v",
			env.EventType, c.UserID, c.ConnID, err)
		b.reg.Retire(c.UserID, c.ConnID)
	}
}

// SendTo delivers to every live connection of one user.
func (b *Broadcaster) SendTo(user UserID, env *Envelope) {
	data, err := env.Marshal()
	if err != nil {
		logger.Errorf("marshal %s envelope failed: %v", env.EventType, err)
		return
	}
	b.sendRaw(user, env.EventType, data)
}

// BroadcastToConversation delivers to every live member of the conversation,
// all of their connections, skipping exclude (typically the sender). Pass ""
// to exclude nobody.
func (b *Broadcaster) BroadcastToConversation(conv ConversationID, env *Envelope, exclude UserID) {
	data, err := env.Marshal()
	if err != nil {
		logger.Errorf("marshal %s envelope failed: %v", env.EventType, err)
		return
	}
	for _, user := range b.reg.MembersOf(conv) {
		if user == exclude {
			continue
		}
		b.sendRaw(user, env.EventType, data)
	}
}

func (b *Broadcaster) sendRaw(user UserID, eventType string, data []byte) {
	for _, c := range b.reg.ConnectionsOf(user) {
		if err := c.Transport.WriteMessage(data); err != nil {
			logger.Warnf("send %s to user=%s conn=%s failed, retiring: %v",
				eventType, user, c.ConnID, err)
			b.reg.Retire(user, c.ConnID)
		}
	}
}
