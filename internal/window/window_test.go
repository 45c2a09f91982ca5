package window

import (
	"testing"
	"time"

	"netdoom/internal/protocol"
)

func TestExpandSeqNoWrap(t *testing.T) {
	if got := ExpandSeq(0x1234, 0x50); got != 0x1250 {
		t.Fatalf("ExpandSeq = %#x, want 0x1250", got)
	}
}

func TestExpandSeqWrapsForward(t *testing.T) {
	// window start low byte is near the top (0xf0), wire byte is small
	// (0x05): the real sequence has rolled into the next 0x100 block.
	got := ExpandSeq(0x12f0, 0x05)
	if got != 0x1305 {
		t.Fatalf("ExpandSeq = %#x, want 0x1305", got)
	}
}

func TestExpandSeqWrapsBackward(t *testing.T) {
	got := ExpandSeq(0x1205, 0xf8)
	if got != 0x11f8 {
		t.Fatalf("ExpandSeq = %#x, want 0x11f8", got)
	}
}

func TestCalculateDiffAndApplyRoundTrip(t *testing.T) {
	last := protocol.TicCmd{ForwardMove: 10, AngleTurn: 100}
	next := protocol.TicCmd{ForwardMove: 10, AngleTurn: 200, ChatChar: 'h'}

	d := CalculateDiff(last, next)
	if d.Diff&protocol.DiffForward != 0 {
		t.Fatal("forward should not be marked, value unchanged")
	}
	if d.Diff&protocol.DiffTurn == 0 {
		t.Fatal("turn should be marked, value changed")
	}
	if d.Diff&protocol.DiffChatChar == 0 {
		t.Fatal("chatchar should be marked, nonzero event")
	}

	base := last
	got := ApplyDiff(&base, d)
	if got.AngleTurn != 200 || got.ChatChar != 'h' || got.ForwardMove != 10 {
		t.Fatalf("got %+v", got)
	}
	if base != got {
		t.Fatal("ApplyDiff must advance the caller's baseline")
	}
}

func TestApplyDiffZeroesAbsentEventFields(t *testing.T) {
	base := protocol.TicCmd{ChatChar: 'x', Arti: 3, Inventory: 7}
	quiet := protocol.TicDiff{} // no bits set at all

	got := ApplyDiff(&base, quiet)
	if got.ChatChar != 0 || got.Arti != 0 || got.Inventory != 0 {
		t.Fatalf("event fields must zero when absent, got %+v", got)
	}
}

func TestExpandFullTicCmdSkipsConsolePlayer(t *testing.T) {
	var bases [protocol.NetMaxPlayers]protocol.TicCmd
	var cmd protocol.FullTicCmd
	cmd.PlayerInGame[0] = true
	cmd.PlayerInGame[1] = true
	cmd.Cmds[0] = protocol.TicDiff{Diff: protocol.DiffForward, Cmd: protocol.TicCmd{ForwardMove: 99}}
	cmd.Cmds[1] = protocol.TicDiff{Diff: protocol.DiffForward, Cmd: protocol.TicCmd{ForwardMove: 5}}

	out := ExpandFullTicCmd(&bases, cmd, 0, true)
	if out[0].ForwardMove != 0 {
		t.Fatalf("skipped console player slot should stay zero, got %+v", out[0])
	}
	if out[1].ForwardMove != 5 {
		t.Fatalf("player 1 ForwardMove = %d, want 5", out[1].ForwardMove)
	}
}

func TestSendQueuePutGetAndClamp(t *testing.T) {
	var q SendQueue
	for seq := uint32(10); seq <= 15; seq++ {
		q.Put(seq, protocol.TicDiff{})
	}

	if _, ok := q.Get(9); ok {
		t.Fatal("seq 9 was never put")
	}
	if _, ok := q.Get(12); !ok {
		t.Fatal("seq 12 should be present")
	}

	start, end, ok := q.ClampResendRange(8, 13)
	if !ok || start != 10 || end != 13 {
		t.Fatalf("ClampResendRange = (%d, %d, %v), want (10, 13, true)", start, end, ok)
	}
}

func TestSendQueueClampRangeEmpty(t *testing.T) {
	var q SendQueue
	if _, _, ok := q.ClampResendRange(0, 5); ok {
		t.Fatal("expected no resendable range on an empty queue")
	}
}

func TestRecvWindowStoreAndDrain(t *testing.T) {
	w := NewRecvWindow()
	w.Store(0, protocol.FullTicCmd{Latency: 1})
	w.Store(1, protocol.FullTicCmd{Latency: 2})
	// seq 2 missing
	w.Store(3, protocol.FullTicCmd{Latency: 4})

	delivered := w.Drain()
	if len(delivered) != 2 {
		t.Fatalf("Drain delivered %d tics, want 2 (stops at the gap)", len(delivered))
	}
	if w.Start != 2 {
		t.Fatalf("window Start = %d, want 2", w.Start)
	}

	w.Store(2, protocol.FullTicCmd{Latency: 3})
	delivered = w.Drain()
	if len(delivered) != 2 {
		t.Fatalf("Drain delivered %d tics, want 2 once the gap fills", len(delivered))
	}
	if w.Start != 4 {
		t.Fatalf("window Start = %d, want 4", w.Start)
	}
}

func TestRecvWindowMissingRange(t *testing.T) {
	w := NewRecvWindow()
	w.Store(0, protocol.FullTicCmd{})
	// seq 1, 2 missing
	w.Store(3, protocol.FullTicCmd{})

	start, end, ok := w.MissingRange(3)
	if !ok || start != 1 || end != 2 {
		t.Fatalf("MissingRange = (%d, %d, %v), want (1, 2, true)", start, end, ok)
	}
}

func TestRecvWindowMissingRangeNoneWhenContiguous(t *testing.T) {
	w := NewRecvWindow()
	w.Store(0, protocol.FullTicCmd{})
	w.Store(1, protocol.FullTicCmd{})

	if _, _, ok := w.MissingRange(1); ok {
		t.Fatal("no gap precedes a contiguous arrival")
	}
}

func TestRecvWindowCheckResendsCoalesces(t *testing.T) {
	w := NewRecvWindow()
	stale := time.Now().Add(-ResendThreshold - time.Millisecond)
	w.slots[2].ResendTime = stale
	w.slots[3].ResendTime = stale
	w.slots[5].ResendTime = stale

	ranges := w.CheckResends(time.Now(), false)
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2 (a coalesced run plus a lone slot): %+v", len(ranges), ranges)
	}
	if ranges[0].Start != 2 || ranges[0].End != 3 {
		t.Fatalf("first range = %+v, want {2 3}", ranges[0])
	}
	if ranges[1].Start != 5 || ranges[1].End != 5 {
		t.Fatalf("second range = %+v, want {5 5}", ranges[1])
	}
}

func TestRecvWindowMarkResendSent(t *testing.T) {
	w := NewRecvWindow()
	now := time.Now()
	w.MarkResendSent(2, 4, now)

	for _, idx := range []int{2, 3, 4} {
		if !w.slots[idx].ResendTime.Equal(now) {
			t.Fatalf("slot %d ResendTime not stamped", idx)
		}
	}
}
