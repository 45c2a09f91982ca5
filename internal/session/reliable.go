package session

import "time"

// ReliableResendInterval and ReliableMaxAttempts bound the resend
// schedule for reliable handshake packets (Launch, GameStart): a
// lock-step session has no higher level above WaitingStart/InGame to
// retry from, so an unacknowledged reliable packet is resent on its
// own schedule instead of being silently dropped on packet loss.
const (
	ReliableResendInterval = 500 * time.Millisecond
	ReliableMaxAttempts    = 10
)

// ReliablePacket is one outstanding reliable send awaiting the peer's
// ReliableAck for its sequence number.
type ReliablePacket struct {
	Seq          uint8
	Payload      []byte
	LastSendTime time.Time
	Attempts     int
}

// ReliableOutbox tracks reliable packets sent but not yet acked, and
// the next sequence number to assign.
type ReliableOutbox struct {
	SendSeq uint8
	RecvSeq uint8
	pending []ReliablePacket
}

// Send records payload as newly sent under the next sequence number
// and returns that packet, ready for the caller to put on the wire.
func (o *ReliableOutbox) Send(now time.Time, payload []byte) ReliablePacket {
	p := ReliablePacket{
		Seq:          o.SendSeq,
		Payload:      payload,
		LastSendTime: now,
		Attempts:     1,
	}
	o.pending = append(o.pending, p)
	o.SendSeq++
	return p
}

// Ack removes the pending packet with the given sequence number, if
// any, reporting whether one was found.
func (o *ReliableOutbox) Ack(seq uint8) bool {
	for i, p := range o.pending {
		if p.Seq == seq {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return true
		}
	}
	return false
}

// DueForResend returns the pending packets whose resend interval has
// elapsed, bumping their attempt counters and resend time as it goes.
// A packet that has hit ReliableMaxAttempts is dropped from the outbox
// and omitted from the result; the drop is not reported to the caller.
func (o *ReliableOutbox) DueForResend(now time.Time) []ReliablePacket {
	var due []ReliablePacket
	kept := o.pending[:0]
	for _, p := range o.pending {
		if now.Sub(p.LastSendTime) < ReliableResendInterval {
			kept = append(kept, p)
			continue
		}
		if p.Attempts >= ReliableMaxAttempts {
			continue
		}
		p.Attempts++
		p.LastSendTime = now
		due = append(due, p)
		kept = append(kept, p)
	}
	o.pending = kept
	return due
}

// Pending reports how many reliable packets are still awaiting an ack.
func (o *ReliableOutbox) Pending() int {
	return len(o.pending)
}
