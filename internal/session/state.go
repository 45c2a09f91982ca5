// Package session implements the connection state machine: the
// Disconnected → Connecting → Connected → WaitingLaunch → WaitingStart
// → InGame → Disconnecting lifecycle, its retry/timeout policy, and
// the reliable-packet resend tracker for handshake acks. It owns no
// socket and no clock of its own — callers drive it with wall-clock
// time and packet events.
package session

import "time"

// State names one stage of the connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	WaitingLaunch
	WaitingStart
	InGame
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case WaitingLaunch:
		return "WaitingLaunch"
	case WaitingStart:
		return "WaitingStart"
	case InGame:
		return "InGame"
	case Disconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// Timing constants, fixed by the protocol.
const (
	MaxRetries          = 10
	RetryCycle          = 200 * time.Millisecond
	RetryBackoff        = 2 * time.Second
	ConnectionTimeout   = 30 * time.Second
	DisconnectPackets   = 5
	DisconnectTimeout   = 5 * time.Second
	KeepAlivePeriod     = 1 * time.Second
)

// Session tracks connection lifecycle state and the timers that drive
// its transitions. It holds no network or game data of its own; the
// caller (internal/netclient) reads State to decide what to send and
// calls the Begin*, RecordRetry, Reject and Shutdown methods to report
// what happened.
type Session struct {
	State            State
	StartTime        time.Time
	LastSendTime     time.Time
	NumRetries       int
	RejectReason     string
	Connected        bool
	Drone            bool
	ReceivedWaitData bool
	WaitingForLaunch bool
	GameDataRecvTime time.Time
	NeedAcknowledge  bool
}

// New returns a Session in the Disconnected state.
func New() *Session {
	return &Session{State: Disconnected}
}

// BeginConnecting starts (or restarts) a connection attempt.
func (s *Session) BeginConnecting(now time.Time) {
	s.State = Connecting
	s.StartTime = now
	s.LastSendTime = now.Add(-KeepAlivePeriod)
	s.NumRetries = 0
	s.RejectReason = "unknown reason"
	s.Connected = false
	s.ReceivedWaitData = false
}

// ConnectTimedOut reports whether the overall connection deadline has
// elapsed while still in Connecting.
func (s *Session) ConnectTimedOut(now time.Time) bool {
	return s.State == Connecting && now.Sub(s.StartTime) > ConnectionTimeout
}

// RetriesExhausted reports whether the retry cap has been reached, so
// that no further SYN attempt is allowed.
func (s *Session) RetriesExhausted() bool {
	return s.NumRetries >= MaxRetries
}

// RecordRetry increments the retry counter, called once per SYN sent.
func (s *Session) RecordRetry() {
	s.NumRetries++
}

// Reject moves the session to Disconnected with a reason, mirroring a
// Rejected packet or a connection timeout.
func (s *Session) Reject(reason string) {
	s.RejectReason = reason
	s.State = Disconnected
	s.Connected = false
}

// BeginConnected marks a successful SYN/ACK exchange.
func (s *Session) BeginConnected() {
	s.State = Connected
	s.RejectReason = ""
}

// BeginWaitingLaunch moves from Connected into the lobby once the
// handshake confirms the peer, per connect()'s post-loop transition.
func (s *Session) BeginWaitingLaunch() {
	s.State = WaitingLaunch
	s.Connected = true
}

// BeginWaitingStart records a Launch packet received while in the
// lobby.
func (s *Session) BeginWaitingStart() {
	s.State = WaitingStart
}

// BeginInGame records a validated GameStart.
func (s *Session) BeginInGame() {
	s.State = InGame
}

// BeginDisconnecting starts the disconnect handshake.
func (s *Session) BeginDisconnecting(now time.Time) {
	s.State = Disconnecting
	s.StartTime = now
}

// DisconnectTimedOut reports whether the disconnect deadline has
// elapsed without a DisconnectAck.
func (s *Session) DisconnectTimedOut(now time.Time) bool {
	return s.State == Disconnecting && now.Sub(s.StartTime) > DisconnectTimeout
}

// Shutdown returns the session to Disconnected unconditionally, used
// both on a clean DisconnectAck and on either timeout path.
func (s *Session) Shutdown() {
	s.State = Disconnected
	s.Connected = false
}

// DueForKeepAlive reports whether a keep-alive/ack should be sent,
// gated to the Connected and InGame states per send_keepalive.
func (s *Session) DueForKeepAlive(now time.Time) bool {
	return (s.State == Connected || s.State == InGame) && now.Sub(s.LastSendTime) > KeepAlivePeriod
}

// DueForAck reports whether an ack is owed and has gone unsent long
// enough that the sender should be nudged rather than waiting for the
// next natural ack opportunity.
func (s *Session) DueForAck(now time.Time, idleThreshold time.Duration) bool {
	return s.NeedAcknowledge && now.Sub(s.GameDataRecvTime) > idleThreshold
}
