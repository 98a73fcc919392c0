package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lvthome/lvtbridge/internal/protocol"
)

const probeTimeout = 5 * time.Second

// Probe checks that an LVT server is reachable and accepts the credential:
// open the transport, send Authorize, and wait up to five seconds for one
// reply. Only an Authorize reply with status code 0 counts as success.
func Probe(ctx context.Context, server string, port int, password string, sslMode int) bool {
	url := fmt.Sprintf("%s://%s:%d/api", wsScheme(sslMode), server, port)
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  tlsConfig(sslMode),
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false
	}
	defer conn.Close()

	if password != "" {
		env, err := protocol.NewEnvelope(protocol.MsgAuthorize, 0, "", password)
		if err != nil {
			return false
		}
		if err := conn.WriteJSON(env); err != nil {
			return false
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(probeTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return false
	}
	in, err := protocol.Decode(frame)
	if err != nil {
		return false
	}
	return in.Message == protocol.MsgAuthorize && in.StatusCode == 0
}
