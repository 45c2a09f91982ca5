package netclient

import (
	"time"

	"netdoom/internal/protocol"
	"netdoom/internal/session"
	"netdoom/internal/wire"
	"netdoom/internal/window"
)

// handlePacket decodes a frame header and dispatches to the matching
// parser. An unrecognized type is logged and dropped, matching
// parse_packet's fallthrough — a malformed or foreign datagram must
// never be treated as a protocol violation worth tearing the
// connection down over.
func (c *Client) handlePacket(b *wire.Buffer) {
	h, ok, err := b.ReadHeader()
	if err != nil {
		c.log.Debug("short packet dropped", "err", err)
		return
	}
	if !ok {
		c.log.Debug("unknown packet type dropped")
		return
	}

	if h.Reliable {
		c.sendReliableAck(h.ReliableSeq)
	}

	switch h.Type {
	case protocol.PacketSyn:
		c.parseSyn(b)
	case protocol.PacketAck:
		// No action required: an Ack in response to one of our own
		// Acks is just protocol noise from a peer that also acks acks.
	case protocol.PacketRejected:
		c.parseReject(b)
	case protocol.PacketWaitingData:
		c.parseWaitingData(b)
	case protocol.PacketLaunch:
		c.parseLaunch(b)
	case protocol.PacketGameStart:
		c.parseGameStart(b)
	case protocol.PacketGameData:
		c.parseGameData(b)
	case protocol.PacketGameDataResend:
		c.parseResendRequest(b)
	case protocol.PacketConsoleMessage:
		c.parseConsoleMessage(b)
	case protocol.PacketDisconnect:
		c.parseDisconnect(b)
	case protocol.PacketDisconnectAck:
		c.parseDisconnectAck()
	case protocol.PacketReliableAck:
		c.parseReliableAck(b)
	case protocol.PacketKeepAlive:
		// nothing to do
	default:
		c.log.Debug("unhandled packet type", "type", h.Type.String())
	}
}

func (c *Client) sendAck() {
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketAck, false, 0)
	b.WriteProtocolTag()
	c.sendPacket(b)
}

func (c *Client) sendReliableAck(seq uint8) {
	b := wire.NewWriteBuffer()
	b.WriteHeader(protocol.PacketReliableAck, false, 0)
	b.WriteU8(seq)
	c.sendPacket(b)
}

func (c *Client) parseReliableAck(b *wire.Buffer) {
	seq, err := b.ReadU8()
	if err != nil {
		return
	}
	if c.reliable.Ack(seq) {
		c.log.Debug("reliable packet acked", "seq", seq)
	}
}

func (c *Client) parseSyn(b *wire.Buffer) {
	serverVersion, _ := b.ReadSafeString()
	proto, ok := b.NegotiateProtocol()
	if !ok {
		c.sess.Reject("no common protocol")
		c.log.Error("no common protocol with server")
		return
	}

	c.protocol = proto
	c.sess.BeginConnected()
	c.sendAck()
	c.log.Info("connected to server", "server_version", serverVersion)
}

func (c *Client) parseReject(b *wire.Buffer) {
	if c.sess.State != session.Connecting {
		return
	}
	msg, err := b.ReadSafeString()
	if err != nil {
		return
	}
	c.log.Warn("connection rejected", "reason", msg)
	c.sess.Reject(msg)
}

func (c *Client) parseWaitingData(b *wire.Buffer) {
	wd, err := b.ReadWaitData()
	if err != nil {
		return
	}
	if !session.ValidWaitData(wd, c.drone) {
		c.log.Warn("rejecting inconsistent wait data")
		return
	}
	c.waitData = wd
	c.maxPlayers = wd.MaxPlayers
	c.isFreedoom = wd.IsFreedoom
	c.sendAck()
}

func (c *Client) parseLaunch(b *wire.Buffer) {
	if c.sess.State != session.WaitingLaunch {
		c.log.Warn("launch packet in wrong state", "state", c.sess.State.String())
		return
	}
	numPlayers, err := b.ReadU8()
	if err != nil {
		return
	}
	c.waitData.NumPlayers = int32(numPlayers)
	c.sess.BeginWaitingStart()
	c.log.Info("waiting to start the game")
}

func (c *Client) parseGameStart(b *wire.Buffer) {
	settings, err := b.ReadSettings()
	if err != nil {
		return
	}
	if !session.ValidGameSettings(settings, c.drone) {
		c.log.Warn("rejecting inconsistent game settings")
		return
	}

	c.settings = &settings
	c.sess.BeginInGame()
	c.recvWindow.Reset()
	c.sendQueue = window.SendQueue{}
	c.recvBases = [protocol.NetMaxPlayers]protocol.TicCmd{}
	c.lowResTurn = settings.LowResTurn
	if settings.ConsolePlayer >= 0 && settings.ConsolePlayer < protocol.NetMaxPlayers {
		c.playerClass = settings.PlayerClasses[settings.ConsolePlayer]
	}
	c.sendAck()
	c.log.Info("game started", "map", settings.Map, "num_players", settings.NumPlayers)
}

func (c *Client) parseGameData(b *wire.Buffer) {
	seqByte, err := b.ReadU8()
	if err != nil {
		return
	}
	numTics, err := b.ReadU8()
	if err != nil {
		return
	}

	seq := window.ExpandSeq(c.recvWindow.Start, seqByte)
	lowresTurn := c.settings != nil && c.settings.LowResTurn != 0

	for i := uint8(0); i < numTics; i++ {
		cmd, err := b.ReadFullTicCmd(lowresTurn)
		if err != nil {
			break
		}
		if c.recvWindow.Store(seq+uint32(i), cmd) {
			c.updateClockSync(seq+uint32(i), cmd.Latency)
		}
	}

	c.sess.NeedAcknowledge = true
	c.gameDataRecvAt = time.Now()
	c.sess.GameDataRecvTime = c.gameDataRecvAt

	if start, end, ok := c.recvWindow.MissingRange(seq); ok {
		c.sendResendRequest(start, end)
	}

	c.sendGameDataAck()
}

func (c *Client) updateClockSync(seq uint32, remoteLatency int32) {
	sentAt, ok := c.sendQueue.SentAt(seq)
	if !ok {
		return
	}
	latency := int32(time.Since(sentAt).Milliseconds())
	errSample := latency - remoteLatency
	c.pid.Update(errSample)
	c.lastLatency = latency
}

func (c *Client) parseResendRequest(b *wire.Buffer) {
	if c.drone {
		c.log.Warn("resend request received while acting as a drone")
		return
	}
	start, err := b.ReadI32()
	if err != nil {
		return
	}
	numTics, err := b.ReadU8()
	if err != nil {
		return
	}
	end := start + int32(numTics) - 1

	resendStart, resendEnd, ok := c.sendQueue.ClampResendRange(uint32(start), uint32(end))
	if !ok {
		c.log.Warn("cannot satisfy resend request, tics no longer on hand")
		return
	}
	c.sendTics(resendStart, resendEnd)
}

func (c *Client) parseConsoleMessage(b *wire.Buffer) {
	msg, err := b.ReadString()
	if err != nil {
		return
	}
	c.log.Info("message from server", "message", msg)
}

func (c *Client) parseDisconnect(b *wire.Buffer) {
	c.log.Info("server requested disconnect")
	ack := wire.NewWriteBuffer()
	ack.WriteHeader(protocol.PacketDisconnectAck, false, 0)
	c.sendPacket(ack)
	c.sess.Shutdown()
}

func (c *Client) parseDisconnectAck() {
	if c.sess.State == session.Disconnecting {
		c.log.Info("disconnect acknowledged")
		c.sess.Shutdown()
	}
}
