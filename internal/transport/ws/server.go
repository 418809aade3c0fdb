// Package ws bridges browser clients to the village loop: one websocket
// per client, HELLO/WELCOME handshake, CMD messages forwarded to the
// sim inbox, STATE/RESULT messages pumped back out.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"hamletcraft.dev/internal/protocol"
	"hamletcraft.dev/internal/sim/village"
)

const outQueue = 32

type Server struct {
	village *village.Village
	log     *log.Logger

	// Compiled CMD schema; when nil, structural validation falls back to
	// the JSON decoder alone.
	cmdSchema *jsonschema.Schema

	upgrader websocket.Upgrader
}

func NewServer(v *village.Village, logger *log.Logger, cmdSchema *jsonschema.Schema) *Server {
	return &Server{
		village:   v,
		log:       logger,
		cmdSchema: cmdSchema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		done := make(chan struct{})

		// Writer goroutine: drains the per-client queue.
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: forward well-formed commands to the sim.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				continue
			}
			if s.cmdSchema != nil {
				var v any
				if json.Unmarshal(msg, &v) != nil || s.cmdSchema.Validate(v) != nil {
					continue
				}
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			s.village.Inbox() <- village.CmdEnvelope{ClientID: clientID, Cmd: cmd}
		}

		close(done)
		s.village.Leave() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "player"
	}

	out = make(chan []byte, outQueue)

	respCh := make(chan village.JoinResponse, 1)
	s.village.Join() <- village.JoinRequest{
		Name: hello.ClientName,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh

	// The client is registered once Join is answered; a failed WELCOME or
	// CATALOG write must unregister it or the loop keeps broadcasting to a
	// dead connection.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.village.Leave() <- resp.Welcome.ClientID
		return "", nil
	}
	if err := writeJSON(conn, resp.Catalog); err != nil {
		s.village.Leave() <- resp.Welcome.ClientID
		return "", nil
	}
	return resp.Welcome.ClientID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
