package window

import (
	"time"

	"netdoom/internal/protocol"
)

// RecvSlot is one entry in the receive window ring.
type RecvSlot struct {
	Active     bool
	Cmd        protocol.FullTicCmd
	ResendTime time.Time
}

// ResendThreshold is how long a still-empty slot waits before it is
// folded into a resend request.
const ResendThreshold = 300 * time.Millisecond

// StallThreshold is how long the client can go without any game data
// before it considers itself possibly deadlocked, and how often
// CheckResends then forces a resend of the empty lead slot.
const StallThreshold = 1 * time.Second

// AckIdleThreshold is how long to wait, after the last game data
// arrived with an ack still owed, before sending one anyway so the
// sender doesn't stall waiting on a reply that was never going to come
// on its own (the sender only advances on an explicit ack of progress).
const AckIdleThreshold = 200 * time.Millisecond

// RecvWindow is the BackupTics-sized ring of inbound tics a peer has
// received but not yet delivered to the game loop, plus the absolute
// sequence number of its lead slot.
type RecvWindow struct {
	Start uint32
	slots [protocol.BackupTics]RecvSlot
}

// NewRecvWindow returns a window starting at sequence 0 with all slots
// empty, matching init_game_state.
func NewRecvWindow() *RecvWindow {
	return &RecvWindow{}
}

// Reset clears the window back to sequence 0, for a fresh game start.
func (w *RecvWindow) Reset() {
	*w = RecvWindow{}
}

func (w *RecvWindow) index(seq uint32) (int, bool) {
	if seq < w.Start {
		return 0, false
	}
	idx := seq - w.Start
	if idx >= protocol.BackupTics {
		return 0, false
	}
	return int(idx), true
}

// Store records cmd at absolute sequence seq if it still falls inside
// the window; sequences that have already scrolled out, or sit beyond
// the far edge, are silently dropped.
func (w *RecvWindow) Store(seq uint32, cmd protocol.FullTicCmd) bool {
	idx, ok := w.index(seq)
	if !ok {
		return false
	}
	w.slots[idx].Active = true
	w.slots[idx].Cmd = cmd
	return true
}

// MissingRange reports the gap immediately preceding seq that is still
// unfilled, if any — the range of absolute sequence numbers between
// the first unfilled slot below seq and seq-1. Grounded on
// check_for_missing_tics: when a contiguous burst of tics lands, any
// hole left below it means the peer skipped ahead without those tics
// ever being delivered, so a resend for exactly that hole is requested
// once, at arrival time, rather than waiting for the slower recurring
// scan in CheckResends.
func (w *RecvWindow) MissingRange(seq uint32) (start, end uint32, ok bool) {
	resendEnd, inWindow := w.index(seq)
	if !inWindow || resendEnd == 0 {
		return 0, 0, false
	}
	resendStart := resendEnd - 1
	for resendStart >= 0 && !w.slots[resendStart].Active && w.slots[resendStart].ResendTime.IsZero() {
		resendStart--
	}
	if resendStart >= resendEnd-1 {
		return 0, 0, false
	}
	return w.Start + uint32(resendStart+1), w.Start + uint32(resendEnd-1), true
}

// Drain delivers every contiguous filled run starting at the window's
// lead slot, rotating the window forward one tic per delivery, and
// returns the delivered commands in order. Grounded on advance_window.
func (w *RecvWindow) Drain() []protocol.FullTicCmd {
	var out []protocol.FullTicCmd
	for w.slots[0].Active {
		out = append(out, w.slots[0].Cmd)
		copy(w.slots[:protocol.BackupTics-1], w.slots[1:])
		w.slots[protocol.BackupTics-1] = RecvSlot{}
		w.Start++
	}
	return out
}

// Depth reports how many slots are currently holding a received tic
// that has not yet been drained to the game loop.
func (w *RecvWindow) Depth() int {
	n := 0
	for i := range w.slots {
		if w.slots[i].Active {
			n++
		}
	}
	return n
}

// ResendRange is an absolute [Start, End] inclusive span the caller
// should request a resend for.
type ResendRange struct {
	Start, End uint32
}

// CheckResends scans the whole window for empty slots whose last resend
// request (stamped by MarkResendSent) is older than ResendThreshold and
// coalesces adjacent ones into resend ranges, mirroring check_resends.
// A slot that has never been requested is not resent by this rule.
// maybeDeadlocked additionally forces the lead slot alone out when it
// is empty and has not been requested within StallThreshold, so a peer
// that has gone fully quiet is nudged even if no gap was ever detected.
func (w *RecvWindow) CheckResends(now time.Time, maybeDeadlocked bool) []ResendRange {
	var ranges []ResendRange
	start := -1

	flush := func(end int) {
		if start >= 0 {
			ranges = append(ranges, ResendRange{
				Start: w.Start + uint32(start),
				End:   w.Start + uint32(end),
			})
			start = -1
		}
	}

	for i := 0; i < protocol.BackupTics; i++ {
		s := &w.slots[i]
		needResend := !s.Active && !s.ResendTime.IsZero() && now.Sub(s.ResendTime) > ResendThreshold
		if i == 0 && maybeDeadlocked && !s.Active && now.Sub(s.ResendTime) > StallThreshold {
			// A never-requested slot has a zero ResendTime, so the lead
			// slot is forced out here even when no gap was detected;
			// once stamped it is forced again at most once per
			// StallThreshold.
			needResend = true
		}
		if needResend {
			if start < 0 {
				start = i
			}
		} else {
			flush(i - 1)
		}
	}
	flush(protocol.BackupTics - 1)

	return ranges
}

// MarkResendSent stamps the resend-time of every slot in [start, end]
// so CheckResends and MissingRange don't immediately re-trigger for
// the same gap on the next tick.
func (w *RecvWindow) MarkResendSent(start, end uint32, now time.Time) {
	for seq := start; seq <= end; seq++ {
		if idx, ok := w.index(seq); ok {
			w.slots[idx].ResendTime = now
		}
	}
}
