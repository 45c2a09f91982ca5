package wire

import (
	"testing"

	"netdoom/internal/protocol"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteU8(0xAB)
	b.WriteI8(-5)
	b.WriteU16(0xBEEF)
	b.WriteI16(-1000)
	b.WriteU32(0xDEADBEEF)
	b.WriteI32(-123456)

	r := NewBuffer(b.Bytes())
	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadI8(); err != nil || v != -5 {
		t.Fatalf("ReadI8 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0xBEEF {
		t.Fatalf("ReadU16 = %v, %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -1000 {
		t.Fatalf("ReadI16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != -123456 {
		t.Fatalf("ReadI32 = %v, %v", v, err)
	}
}

// TestLittleEndianBothDirections pins down that writes AND reads are
// little-endian, not just writes.
func TestLittleEndianBothDirections(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteU16(0x0102)
	if got, want := b.Bytes(), []byte{0x02, 0x01}; got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("WriteU16 wire bytes = %x, want %x", got, want)
	}

	r := NewBuffer([]byte{0x02, 0x01})
	v, err := r.ReadU16()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0102 {
		t.Fatalf("ReadU16 = %#x, want 0x0102 (little-endian read)", v)
	}
}

func TestStringRoundTrip(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteString("hello")
	b.WriteString("world")

	r := NewBuffer(b.Bytes())
	s1, err := r.ReadString()
	if err != nil || s1 != "hello" {
		t.Fatalf("ReadString = %q, %v", s1, err)
	}
	s2, err := r.ReadString()
	if err != nil || s2 != "world" {
		t.Fatalf("ReadString = %q, %v", s2, err)
	}
}

func TestReadSafeStringFiltersControlChars(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteString("hi\x01\x02 there\x7f")

	r := NewBuffer(b.Bytes())
	s, err := r.ReadSafeString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hi there" {
		t.Fatalf("ReadSafeString = %q, want %q", s, "hi there")
	}
}

func TestShortReadIsError(t *testing.T) {
	r := NewBuffer([]byte{0x01})
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected short-read error")
	}
}

func TestTicDiffRoundTrip(t *testing.T) {
	last := protocol.TicCmd{ForwardMove: 10, AngleTurn: 0, Buttons: 0}
	newCmd := protocol.TicCmd{ForwardMove: 10, AngleTurn: 256, Buttons: 0, ChatChar: 65}

	diff := protocol.TicDiff{Cmd: newCmd}
	if last.ForwardMove != newCmd.ForwardMove {
		diff.Diff |= protocol.DiffForward
	}
	if last.AngleTurn != newCmd.AngleTurn {
		diff.Diff |= protocol.DiffTurn
	}
	if newCmd.ChatChar != 0 {
		diff.Diff |= protocol.DiffChatChar
	} else {
		diff.Cmd.ChatChar = 0
	}

	wantMask := protocol.DiffTurn | protocol.DiffChatChar
	if diff.Diff != wantMask {
		t.Fatalf("diff mask = %#x, want %#x", diff.Diff, wantMask)
	}

	b := NewWriteBuffer()
	b.WriteTicDiff(diff, false)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadTicDiff(false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Diff != diff.Diff {
		t.Fatalf("decoded mask = %#x, want %#x", got.Diff, diff.Diff)
	}
	if got.Cmd.AngleTurn != 256 {
		t.Fatalf("decoded AngleTurn = %d, want 256", got.Cmd.AngleTurn)
	}
	if got.Cmd.ChatChar != 65 {
		t.Fatalf("decoded ChatChar = %d, want 65", got.Cmd.ChatChar)
	}

	// A follow-up diff with chatchar=0 must decode with ChatChar zeroed,
	// not sticky-persisted from the previous tic.
	quiet := protocol.TicDiff{Cmd: protocol.TicCmd{ForwardMove: 10, AngleTurn: 256}}
	b2 := NewWriteBuffer()
	b2.WriteTicDiff(quiet, false)
	r2 := NewBuffer(b2.Bytes())
	got2, err := r2.ReadTicDiff(false)
	if err != nil {
		t.Fatal(err)
	}
	if got2.Cmd.ChatChar != 0 {
		t.Fatalf("decoded ChatChar = %d, want 0 (event field must not sticky-persist)", got2.Cmd.ChatChar)
	}
}

func TestTicDiffLowResTurn(t *testing.T) {
	d := protocol.TicDiff{Diff: protocol.DiffTurn, Cmd: protocol.TicCmd{AngleTurn: 512}}
	b := NewWriteBuffer()
	b.WriteTicDiff(d, true)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadTicDiff(true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmd.AngleTurn != 512 {
		t.Fatalf("lowres AngleTurn round trip = %d, want 512", got.Cmd.AngleTurn)
	}
}

func TestFullTicCmdRoundTrip(t *testing.T) {
	var f protocol.FullTicCmd
	f.Latency = 42
	f.PlayerInGame[0] = true
	f.PlayerInGame[2] = true
	f.Cmds[0] = protocol.TicDiff{Diff: protocol.DiffForward, Cmd: protocol.TicCmd{ForwardMove: 5}}
	f.Cmds[2] = protocol.TicDiff{Diff: protocol.DiffSide, Cmd: protocol.TicCmd{SideMove: -5}}

	b := NewWriteBuffer()
	b.WriteFullTicCmd(f, false)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadFullTicCmd(false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Latency != f.Latency {
		t.Fatalf("Latency = %d, want %d", got.Latency, f.Latency)
	}
	if got.PlayerInGame != f.PlayerInGame {
		t.Fatalf("PlayerInGame = %v, want %v", got.PlayerInGame, f.PlayerInGame)
	}
	if got.Cmds[0].Cmd.ForwardMove != 5 {
		t.Fatalf("Cmds[0].ForwardMove = %d, want 5", got.Cmds[0].Cmd.ForwardMove)
	}
	if got.Cmds[2].Cmd.SideMove != -5 {
		t.Fatalf("Cmds[2].SideMove = %d, want -5", got.Cmds[2].Cmd.SideMove)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := protocol.GameSettings{
		Ticdup:        2,
		Extratics:     1,
		Episode:       1,
		Map:           5,
		Skill:         3,
		GameVersion:   9,
		TimeLimit:     600,
		NumPlayers:    3,
		ConsolePlayer: 1,
	}
	s.PlayerClasses[0] = 1
	s.PlayerClasses[1] = 0
	s.PlayerClasses[2] = 2

	b := NewWriteBuffer()
	b.WriteSettings(s)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("settings round trip mismatch:\ngot  %+v\nwant %+v", got, s)
	}
}

func TestConnectDataRoundTrip(t *testing.T) {
	c := protocol.ConnectData{
		GameMode:    2,
		GameMission: 1,
		MaxPlayers:  4,
		PlayerClass: 1,
		PlayerName:  "doomguy",
	}
	for i := range c.WadSHA1Sum {
		c.WadSHA1Sum[i] = byte(i)
	}

	b := NewWriteBuffer()
	b.WriteConnectData(c)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadConnectData()
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Fatalf("connect data round trip mismatch:\ngot  %+v\nwant %+v", got, c)
	}
}

func TestWaitDataRoundTrip(t *testing.T) {
	w := protocol.WaitData{
		NumPlayers:    2,
		MaxPlayers:    4,
		ReadyPlayers:  1,
		ConsolePlayer: -1,
	}
	w.PlayerNames[0] = "alice"
	w.PlayerAddrs[0] = "10.0.0.1"
	w.PlayerNames[1] = "bob"
	w.PlayerAddrs[1] = "10.0.0.2"

	b := NewWriteBuffer()
	b.WriteWaitData(w)

	r := NewBuffer(b.Bytes())
	got, err := r.ReadWaitData()
	if err != nil {
		t.Fatal(err)
	}
	if got != w {
		t.Fatalf("wait data round trip mismatch:\ngot  %+v\nwant %+v", got, w)
	}
}

func TestProtocolTagUnknown(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteString("SOME_OTHER_PROTOCOL")

	r := NewBuffer(b.Bytes())
	p, err := r.ReadProtocolTag()
	if err != nil {
		t.Fatal(err)
	}
	if p != protocol.ProtocolUnknown {
		t.Fatalf("got %v, want Unknown", p)
	}
}

func TestHeaderReliableFraming(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteHeader(protocol.PacketLaunch, true, 7)

	r := NewBuffer(b.Bytes())
	h, ok, err := r.ReadHeader()
	if err != nil || !ok {
		t.Fatalf("ReadHeader ok=%v err=%v", ok, err)
	}
	if h.Type != protocol.PacketLaunch || !h.Reliable || h.ReliableSeq != 7 {
		t.Fatalf("got %+v", h)
	}
}

func TestHeaderUnknownTypeDropped(t *testing.T) {
	b := NewWriteBuffer()
	b.WriteU16(0xFFAA)

	r := NewBuffer(b.Bytes())
	_, ok, err := r.ReadHeader()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false for unknown packet type")
	}
}
