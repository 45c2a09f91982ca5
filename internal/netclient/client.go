// Package netclient wires the wire codec, window engine, session
// state machine, and loop driver into the single facade a game loop
// actually drives, grounded on the original Client struct in
// net/client.rs: one non-blocking UDP socket, pumped once per frame.
package netclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/rs/xid"

	"netdoom/internal/clock"
	"netdoom/internal/metrics"
	"netdoom/internal/protocol"
	"netdoom/internal/session"
	"netdoom/internal/wire"
	"netdoom/internal/window"
)

const connectGameDescription = "netdoom 0.1"

// Client is one peer's end of a lock-step game connection. A Client is
// not safe for concurrent use.
type Client struct {
	log *slog.Logger
	id  xid.ID

	conn       *net.UDPConn
	serverAddr *net.UDPAddr

	sess     *session.Session
	reliable session.ReliableOutbox
	pid      *clock.PIDController

	sendQueue  window.SendQueue
	recvWindow *window.RecvWindow
	recvBases  [protocol.NetMaxPlayers]protocol.TicCmd

	playerName  string
	drone       bool
	playerClass int32
	gameMode    int32
	gameMission int32
	lowResTurn  int32
	maxPlayers  int32
	isFreedoom  int32
	wadSHA1     [20]byte
	dehSHA1     [20]byte

	protocol protocol.Protocol
	settings *protocol.GameSettings
	waitData protocol.WaitData

	lastTicCmd      protocol.TicCmd
	lastLatency     int32
	lastSendTime    time.Time
	gameDataRecvAt  time.Time
	localInGame     [protocol.NetMaxPlayers]bool
	deliveredCmds   [protocol.NetMaxPlayers]protocol.TicCmd
	lastDeliveredAt time.Time

	metrics *metrics.Collector
}

var (
	// ErrNoCommonProtocol is returned by Connect when the server's SYN
	// reply names no protocol this client understands.
	ErrNoCommonProtocol = errors.New("netclient: no common protocol")
	// ErrConnectTimedOut is returned by Connect once the 30-second
	// overall connection deadline elapses.
	ErrConnectTimedOut = errors.New("netclient: connection timed out")
	// ErrConnectRetriesExhausted is returned by Connect once 10 SYN
	// attempts have gone unanswered.
	ErrConnectRetriesExhausted = errors.New("netclient: connection failed, retries exhausted")
)

// New creates a Client bound to an ephemeral local UDP port. The
// socket is put in non-blocking-equivalent mode via a zero read
// deadline check in receivePackets, matching set_nonblocking in the
// original.
func New(playerName string, drone bool, log *slog.Logger) (*Client, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("netclient: bind local socket: %w", err)
	}

	c := &Client{
		log:        log,
		id:         xid.New(),
		conn:       conn,
		sess:       session.New(),
		pid:        clock.NewPIDController(),
		recvWindow: window.NewRecvWindow(),
		playerName: playerName,
		drone:      drone,
		metrics:    metrics.NewCollector(playerName),
	}
	return c, nil
}

// Init resets per-connection state ahead of a fresh Connect call.
func (c *Client) Init() {
	c.sess = session.New()
	c.protocol = protocol.ProtocolUnknown
	c.recvWindow.Reset()
	c.sendQueue = window.SendQueue{}
	c.log.Debug("client initialized", "correlation_id", c.id.String(), "player", c.playerName, "drone", c.drone)
}

// Close releases the local UDP socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// IsConnected reports whether the session has an established peer.
func (c *Client) IsConnected() bool { return c.sess.Connected }

// IsDrone reports whether this client is a spectator with no console
// player slot.
func (c *Client) IsDrone() bool { return c.drone }

// RejectReason returns the reason the last connection attempt was
// rejected, if any.
func (c *Client) RejectReason() string { return c.sess.RejectReason }

// Settings returns the game settings handed down at GameStart, if the
// session has reached InGame.
func (c *Client) Settings() (protocol.GameSettings, bool) {
	if c.sess.State != session.InGame || c.settings == nil {
		return protocol.GameSettings{}, false
	}
	return *c.settings, true
}

// WaitData returns the most recently received lobby snapshot.
func (c *Client) WaitData() protocol.WaitData { return c.waitData }

// RecvTic reports the lowest absolute tic sequence number this client
// has not yet fully delivered — the receive window's lead edge.
func (c *Client) RecvTic() int32 { return int32(c.recvWindow.Start) }

// LocalPlayerInGame reports the in-game flags from the most recently
// delivered tic.
func (c *Client) LocalPlayerInGame() [protocol.NetMaxPlayers]bool { return c.localInGame }

func (c *Client) sendPacket(b *wire.Buffer) {
	if c.serverAddr == nil {
		return
	}
	if _, err := c.conn.WriteToUDP(b.Bytes(), c.serverAddr); err != nil {
		c.log.Warn("failed to send packet", "err", err)
	}
}

// Connect resolves addr and drives the SYN handshake to completion,
// blocking until the session reaches WaitingLaunch or a terminal
// failure. Grounded on Client::connect.
func (c *Client) Connect(addr string, cd protocol.ConnectData) error {
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("netclient: resolve %s: %w", addr, err)
	}
	c.serverAddr = resolved

	c.wadSHA1 = cd.WadSHA1Sum
	c.dehSHA1 = cd.DehSHA1Sum
	c.isFreedoom = cd.IsFreedoom
	c.gameMode = cd.GameMode
	c.gameMission = cd.GameMission
	c.lowResTurn = cd.LowResTurn
	c.maxPlayers = cd.MaxPlayers
	c.playerClass = cd.PlayerClass

	now := time.Now()
	c.sess.BeginConnecting(now)

	for c.sess.State == session.Connecting {
		if c.sess.ConnectTimedOut(time.Now()) {
			return ErrConnectTimedOut
		}
		if c.sess.RetriesExhausted() {
			return ErrConnectRetriesExhausted
		}

		c.log.Info("sending SYN", "attempt", c.sess.NumRetries+1)
		c.sendSyn(cd)
		c.sess.RecordRetry()

		for i := 0; i < 10; i++ {
			c.Run()
			if c.sess.State == session.Connected {
				break
			}
			if c.sess.RejectReason != "" && c.sess.State == session.Disconnected {
				switch c.sess.RejectReason {
				case "no common protocol":
					return ErrNoCommonProtocol
				case "connection attempt timed out":
					return ErrConnectTimedOut
				}
				return fmt.Errorf("netclient: connection rejected: %s", c.sess.RejectReason)
			}
			time.Sleep(session.RetryCycle)
		}

		if c.sess.State == session.Connected {
			c.sess.RejectReason = ""
			c.sess.BeginWaitingLaunch()
			c.drone = cd.Drone != 0
			return nil
		}

		c.log.Info("connection attempt failed, retrying", "attempt", c.sess.NumRetries)
		time.Sleep(session.RetryBackoff)
	}

	return fmt.Errorf("netclient: connection failed: %s", c.sess.RejectReason)
}

func (c *Client) sendSyn(cd protocol.ConnectData) {
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketSyn, false, 0)
	b.WriteU32(uint32(xid.New().Counter()))
	b.WriteString(connectGameDescription)
	b.WriteProtocolList()
	b.WriteConnectData(cd)
	c.sendPacket(b)
}

// Run pumps one iteration of receive-and-react: drain inbound
// datagrams, advance the session's state-dependent behavior, send a
// keepalive if due, and check for resend-worthy gaps. Grounded on
// Client::run.
func (c *Client) Run() {
	c.receivePackets()
	c.handleState()
	c.sendKeepAlive()
	c.checkResends()
}

func (c *Client) receivePackets() {
	buf := make([]byte, 4096)
	for {
		if err := c.conn.SetReadDeadline(time.Now()); err != nil {
			return
		}
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		c.handlePacket(wire.NewBuffer(append([]byte(nil), buf[:n]...)))
	}
}

func (c *Client) handleState() {
	switch c.sess.State {
	case session.Connecting:
		if c.sess.ConnectTimedOut(time.Now()) {
			c.sess.Reject("connection attempt timed out")
		}
	case session.Disconnecting:
		if c.sess.DisconnectTimedOut(time.Now()) {
			c.sess.Shutdown()
		}
	}

	for _, p := range c.reliable.DueForResend(time.Now()) {
		b := wire.NewBuffer(append([]byte(nil), p.Payload...))
		c.sendPacket(b)
	}
}

func (c *Client) sendKeepAlive() {
	if !c.sess.DueForKeepAlive(time.Now()) {
		return
	}
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketKeepAlive, false, 0)
	c.sendPacket(b)
	c.sess.LastSendTime = time.Now()
}

func (c *Client) checkResends() {
	maybeDeadlocked := time.Since(c.gameDataRecvAt) > window.StallThreshold
	now := time.Now()
	for _, r := range c.recvWindow.CheckResends(now, maybeDeadlocked) {
		c.sendResendRequest(r.Start, r.End)
	}
	if c.sess.DueForAck(now, window.AckIdleThreshold) {
		c.sendGameDataAck()
	}
}

func (c *Client) sendResendRequest(start, end uint32) {
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketGameDataResend, false, 0)
	b.WriteI32(int32(start))
	b.WriteU8(uint8(end - start + 1))
	c.sendPacket(b)
	c.recvWindow.MarkResendSent(start, end, time.Now())
}

func (c *Client) sendGameDataAck() {
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketGameDataAck, false, 0)
	b.WriteU8(uint8(c.recvWindow.Start & 0xff))
	c.sendPacket(b)
	c.sess.NeedAcknowledge = false
}

// advanceWindow drains every contiguous run of filled tics at the
// front of the receive window and returns them still diffed; DrainTics
// undiffs them against the per-player baselines.
func (c *Client) advanceWindow() []protocol.FullTicCmd {
	return c.recvWindow.Drain()
}

// DrainTics is the public hook a Loop driver calls once per TryRunTics
// pass: it drains available tics, undiffs each against the per-player
// baselines, and reports the reconstructed per-player commands and
// in-game flags for the caller to feed into Loop.StoreReceivedTic.
func (c *Client) DrainTics(consolePlayer int32) []DeliveredTic {
	cmds := c.advanceWindow()
	out := make([]DeliveredTic, 0, len(cmds))
	seq := c.recvWindow.Start - uint32(len(cmds))
	for _, fc := range cmds {
		expanded := window.ExpandFullTicCmd(&c.recvBases, fc, int(consolePlayer), !c.drone)
		out = append(out, DeliveredTic{Seq: int32(seq), Cmds: expanded, InGame: fc.PlayerInGame})
		c.localInGame = fc.PlayerInGame
		seq++
	}
	return out
}

// DeliveredTic is one fully-undiffed tic ready to hand to the game
// loop's TicRunner.
type DeliveredTic struct {
	Seq    int32
	Cmds   [protocol.NetMaxPlayers]protocol.TicCmd
	InGame [protocol.NetMaxPlayers]bool
}

// SendTicCmd diffs ticcmd against the last command sent and transmits
// it along with Extratics worth of history, matching send_ticcmd.
func (c *Client) SendTicCmd(ticcmd protocol.TicCmd, maketic int32) {
	d := window.CalculateDiff(c.lastTicCmd, ticcmd)
	c.lastTicCmd = ticcmd
	c.sendQueue.Put(uint32(maketic), d)

	extratics := int32(0)
	if c.settings != nil {
		extratics = c.settings.Extratics
	}
	start := int32(0)
	if maketic >= extratics {
		start = maketic - extratics
	}
	c.sendTics(uint32(start), uint32(maketic))
}

func (c *Client) sendTics(start, end uint32) {
	if !c.sess.Connected {
		return
	}

	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketGameData, false, 0)
	b.WriteU8(uint8(c.recvWindow.Start & 0xff))
	b.WriteU8(uint8(start & 0xff))
	b.WriteU8(uint8(end - start + 1))

	lowresTurn := c.settings != nil && c.settings.LowResTurn != 0
	for seq := start; seq <= end; seq++ {
		slot, ok := c.sendQueue.Get(seq)
		if !ok {
			continue
		}
		b.WriteI16(int16(c.lastLatency))
		b.WriteTicDiff(slot.Cmd, lowresTurn)
	}

	c.sendPacket(b)
	c.sess.NeedAcknowledge = false
}

// RequestLaunch sends a reliable Launch packet, resent on a timer
// until the server's ack arrives or the attempt is abandoned.
func (c *Client) RequestLaunch() {
	if c.sess.State != session.WaitingLaunch {
		return
	}
	seq := c.reliable.SendSeq
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketLaunch, true, seq)
	c.reliable.Send(time.Now(), append([]byte(nil), b.Bytes()...))
	c.sendPacket(b)
}

// StartGame is the server-role counterpart used by a listen-server
// demo: it sends GameStart with the given settings, reliably.
func (c *Client) StartGame(settings protocol.GameSettings) {
	c.lastTicCmd = protocol.TicCmd{}
	seq := c.reliable.SendSeq
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketGameStart, true, seq)
	b.WriteSettings(settings)
	c.reliable.Send(time.Now(), append([]byte(nil), b.Bytes()...))
	c.sendPacket(b)
}

// Disconnect sends five Disconnect packets and returns to
// Disconnected, matching Client::disconnect's fire-and-forget
// teardown (the protocol has no guaranteed-delivery disconnect; the
// repetition is the only redundancy it gets).
func (c *Client) Disconnect() {
	if !c.sess.Connected {
		return
	}
	c.sess.BeginDisconnecting(time.Now())
	for i := 0; i < session.DisconnectPackets; i++ {
		b := wire.NewWriteBuffer()
		b.WriteHeader(protocol.PacketDisconnect, false, 0)
		c.sendPacket(b)
	}
	c.sess.Shutdown()
}

// Snapshot reports current client state for metrics publication.
func (c *Client) Snapshot() metrics.Snapshot {
	return metrics.Snapshot{
		State:           c.sess.State.String(),
		Connected:       c.sess.Connected,
		Drone:           c.drone,
		LatencyMs:       c.lastLatency,
		ClockOffsetMs:   c.pid.Offset(),
		SendWindowDepth: c.sendQueue.Depth(),
		RecvWindowDepth: c.recvWindow.Depth(),
		ReliablePending: c.reliable.Pending(),
		Retries:         c.sess.NumRetries,
	}
}

// PublishMetrics pushes the current Snapshot to the client's
// Collector, for a caller that registers it with a Prometheus registry.
func (c *Client) PublishMetrics() {
	c.metrics.Publish(c.Snapshot())
}

// Collector returns the Prometheus collector tracking this client.
func (c *Client) Collector() *metrics.Collector { return c.metrics }
