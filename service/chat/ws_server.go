package chat

import (
	"context"
	"net/http"
	"time"

	"PulseChat/logger"
	"PulseChat/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin is enforced by the CORS middleware in front of the router
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS is the websocket entrypoint: GET /ws?token=<access token>.
//
// Authentication happens after the upgrade so the client gets a proper close
// frame instead of a bare HTTP error: policy violation (1008) with reason
// "Token required" or "Invalid token".
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	token := c.Query("token")
	if token == "" {
		closeWithPolicy(ws, "Token required")
		return
	}
	user, err := s.verify(token)
	if err != nil {
		logger.Warnf("websocket token rejected: %v", err)
		closeWithPolicy(ws, "Invalid token")
		return
	}

	client := s.reg.Admit(user, NewWSTransport(ws))
	logger.Infof("user=%s connected conn=%s", user, client.ConnID)

	sess := &Session{Server: s, UserID: user, Client: client}
	// retirement must fire on every exit path, including a handler panic
	// unwinding through the read loop
	defer s.teardown(sess)

	if s.mirror != nil {
		if err := s.mirror.Online(context.Background(), string(user)); err != nil {
			logger.Warnf("presence mirror online user=%s: %v", user, err)
		}
		stopRenew := make(chan struct{})
		defer close(stopRenew)
		safe.SafeGo(func() { s.renewPresence(user, stopRenew) })
	}

	s.readLoop(sess, ws)
}

// teardown retires the connection, announces the departures a full retirement
// vacated, and closes the transport last so late frames from this client
// cannot interleave with its own left notifications. Retire is idempotent, so
// running after a broadcast-side prune is a harmless no-op.
func (s *Server) teardown(sess *Session) {
	vacated, retired := s.reg.Retire(sess.UserID, sess.Client.ConnID)
	for _, conv := range vacated {
		s.bcast.BroadcastToConversation(conv, NewMembershipEnvelope(EventUserLeft, conv, sess.UserID), sess.UserID)
	}
	if retired {
		logger.Infof("user=%s offline", sess.UserID)
		if s.mirror != nil {
			if err := s.mirror.Offline(context.Background(), string(sess.UserID)); err != nil {
				logger.Warnf("presence mirror offline user=%s: %v", sess.UserID, err)
			}
		}
	}
	_ = sess.Client.Transport.Close()
}

// renewPresence keeps the mirror key alive for the duration of the
// connection; without renewal its TTL would mark long idle connections
// offline.
func (s *Server) renewPresence(user UserID, stop <-chan struct{}) {
	t := time.NewTicker(s.mirrorRenew)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := s.mirror.Online(context.Background(), string(user)); err != nil {
				logger.Debugf("presence renew user=%s: %v", user, err)
			}
		}
	}
}

func (s *Server) readLoop(sess *Session, ws *websocket.Conn) {
	for {
		msgType, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warnf("user=%s conn=%s read error: %v", sess.UserID, sess.Client.ConnID, err)
			} else {
				logger.Debugf("user=%s conn=%s closed: %v", sess.UserID, sess.Client.ConnID, err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		env, err := ParseEnvelope(raw)
		if err != nil {
			// malformed frames are reported to the sender and the connection
			// stays up
			s.bcast.SendToClient(sess.Client, NewErrorEnvelope("Invalid message format"))
			continue
		}
		s.disp.Dispatch(sess, env)
	}
}

func closeWithPolicy(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = ws.Close()
}

// HandleOnlineMembers answers GET /presence/conversations/:id/online.
func (s *Server) HandleOnlineMembers(c *gin.Context) {
	conv := ConversationID(c.Param("id"))
	members := s.presence.OnlineMembersOf(conv)
	out := make([]string, 0, len(members))
	for _, u := range members {
		out = append(out, string(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": string(conv),
		"online_user_ids": out,
	})
}

// HandleStats answers GET /presence/stats.
func (s *Server) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.presence.Stats())
}

// HandleUserPresence answers GET /presence/users/:id. With a mirror wired it
// also reports which node last registered the user.
func (s *Server) HandleUserPresence(c *gin.Context) {
	user := UserID(c.Param("id"))
	resp := gin.H{
		"user_id":          string(user),
		"online":           s.presence.IsOnline(user),
		"connection_count": s.presence.ConnectionCount(user),
	}
	if s.mirror != nil {
		if node, ok, err := s.mirror.Lookup(c.Request.Context(), string(user)); err == nil && ok {
			resp["node_id"] = node
		}
	}
	c.JSON(http.StatusOK, resp)
}
