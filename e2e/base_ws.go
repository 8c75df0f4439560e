package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"meet-lab/infrastructure/ws"
)

const eventWait = 5 * time.Second

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("MEET_SERVER_ADDR not set, skipping e2e suite")
	}
}

// Peer is one websocket participant in a scenario, identified by the
// connection id the server assigned in its greeting.
type Peer struct {
	suite *BaseWsSuite
	t     *testing.T
	conn  *websocket.Conn

	Name         string
	ConnectionID string
}

// Connect dials the coordinator, waits for the connected greeting, and
// returns the peer with its server-assigned connection id.
func (s *BaseWsSuite) Connect(t *testing.T, name string) *Peer {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to dial %s", url)

	peer := &Peer{suite: s, t: t, conn: conn, Name: name}
	greeting := peer.Expect(ws.TypeConnected)

	var payload ws.ConnectedPayload
	s.Require().NoError(json.Unmarshal(greeting.Payload, &payload))
	s.Require().NotEmpty(payload.ConnectionID)
	peer.ConnectionID = payload.ConnectionID
	return peer
}

func (p *Peer) Close() {
	_ = p.conn.Close()
}

// Send marshals and writes one envelope.
func (p *Peer) Send(messageType string, meetingID string, payload any) {
	raw, err := json.Marshal(payload)
	p.suite.Require().NoError(err)
	envelope := ws.Envelope{Type: messageType, Payload: raw, MeetingID: meetingID}
	p.log("SEND", envelope)
	p.suite.Require().NoError(p.conn.WriteJSON(envelope))
}

// Expect reads envelopes until one of the wanted type arrives, failing the
// test on timeout or an interleaved error event.
func (p *Peer) Expect(messageType string) ws.Envelope {
	deadline := time.Now().Add(eventWait)
	for {
		p.suite.Require().NoError(p.conn.SetReadDeadline(deadline))
		var envelope ws.Envelope
		err := p.conn.ReadJSON(&envelope)
		p.suite.Require().NoError(err, "%s waiting for %q", p.Name, messageType)
		p.log("RECV", envelope)

		if envelope.Type == messageType {
			return envelope
		}
		if envelope.Type == ws.TypeError {
			p.suite.Require().Failf("unexpected error event",
				"%s got %s while waiting for %q", p.Name, envelope.Payload, messageType)
		}
		// Unrelated broadcast (e.g. another peer joining), keep reading.
	}
}

func (p *Peer) log(direction string, envelope ws.Envelope) {
	if !p.suite.Config.DebugJSON {
		p.t.Logf("%s %s %s", p.Name, direction, envelope.Type)
		return
	}
	raw, _ := json.Marshal(envelope)
	p.t.Logf("%s %s %s", p.Name, direction, raw)
}

// PostJSON calls a management endpoint and decodes the response body.
func (s *BaseWsSuite) PostJSON(path string, body any, out any) {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	url := fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Less(resp.StatusCode, 300, "POST %s", path)

	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}
