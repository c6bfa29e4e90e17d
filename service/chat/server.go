package chat

import "time"

// Server bundles the live-connection core: registry, broadcaster, presence
// tracker and event dispatcher, plus the optional collaborators the websocket
// entrypoint and the handlers use.
type Server struct {
	nodeID string

	reg      *Registry
	disp     *Dispatcher
	bcast    *Broadcaster
	presence *Presence

	verify TokenVerifier

	sink        MessageSink
	membership  MembershipChecker
	mirror      PresenceMirror
	mirrorRenew time.Duration
}

func NewServer(nodeID string, verify TokenVerifier) *Server {
	reg := NewRegistry()
	return &Server{
		nodeID:   nodeID,
		reg:      reg,
		disp:     NewDispatcher(),
		bcast:    NewBroadcaster(reg),
		presence: NewPresence(reg),
		verify:   verify,
	}
}

func (s *Server) Reg() *Registry      { return s.reg }
func (s *Server) Disp() *Dispatcher   { return s.disp }
func (s *Server) Bcast() *Broadcaster { return s.bcast }
func (s *Server) Presence() *Presence { return s.presence }

// SetMessageSink wires message persistence. Optional.
func (s *Server) SetMessageSink(sink MessageSink) { s.sink = sink }

// SetMembershipChecker wires join authorization. Optional; without it the
// client's join request is trusted.
func (s *Server) SetMembershipChecker(m MembershipChecker) { s.membership = m }

// SetPresenceMirror wires the external presence store. Optional. renewEvery
// must undercut the store's key TTL so live connections never expire out of
// the mirror.
func (s *Server) SetPresenceMirror(m PresenceMirror, renewEvery time.Duration) {
	s.mirror = m
	if renewEvery <= 0 {
		renewEvery = time.Minute
	}
	s.mirrorRenew = renewEvery
}

func (s *Server) Sink() MessageSink             { return s.sink }
func (s *Server) Membership() MembershipChecker { return s.membership }

// Shutdown closes every live connection and clears the registry.
func (s *Server) Shutdown() {
	s.reg.Close()
}
