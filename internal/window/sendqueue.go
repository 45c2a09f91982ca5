package window

import (
	"time"

	"netdoom/internal/protocol"
)

// SendSlot is one entry in the send queue ring: the diffed command
// this side transmitted for a given absolute tic, and when it was
// first sent (used both for resend-range lookups and round-trip
// latency measurement against the remote's ack).
type SendSlot struct {
	Active bool
	Seq    uint32
	Time   time.Time
	Cmd    protocol.TicDiff
}

// SendQueue is the BackupTics-sized ring of outbound tics a peer keeps
// around so a GameDataResend request can be answered without
// recomputing anything.
type SendQueue struct {
	slots [protocol.BackupTics]SendSlot
}

// Put records the diffed command sent for seq.
func (q *SendQueue) Put(seq uint32, d protocol.TicDiff) {
	s := &q.slots[seq%protocol.BackupTics]
	s.Active = true
	s.Seq = seq
	s.Time = time.Now()
	s.Cmd = d
}

// Get returns the slot for seq if it is still active and its sequence
// number matches (i.e. the ring has not wrapped past it since).
func (q *SendQueue) Get(seq uint32) (SendSlot, bool) {
	s := q.slots[seq%protocol.BackupTics]
	if !s.Active || s.Seq != seq {
		return SendSlot{}, false
	}
	return s, true
}

// SentAt reports when seq was transmitted, for latency measurement.
func (q *SendQueue) SentAt(seq uint32) (time.Time, bool) {
	s, ok := q.Get(seq)
	if !ok {
		return time.Time{}, false
	}
	return s.Time, true
}

// Depth reports how many slots currently hold an unexpired command.
func (q *SendQueue) Depth() int {
	n := 0
	for i := range q.slots {
		if q.slots[i].Active {
			n++
		}
	}
	return n
}

// ClampResendRange narrows [start, end] to the subrange this queue can
// actually answer, scanning inward from both ends. Grounded on
// calculate_resend_range: a peer drops tics that fall off its own
// history window, and a resend request spanning them can only be
// serviced for the portion still on hand.
func (q *SendQueue) ClampResendRange(start, end uint32) (uint32, uint32, bool) {
	for start <= end {
		if _, ok := q.Get(start); ok {
			break
		}
		start++
	}
	for start <= end {
		if _, ok := q.Get(end); ok {
			break
		}
		end--
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}
