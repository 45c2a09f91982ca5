package clock

import (
	"time"

	"netdoom/internal/protocol"
)

// buttonSpecial is the TicCmd.Buttons bit that marks a duplicated tic
// as carrying a menu/special action rather than ordinary gameplay
// input; ticdup squashing clears it on every duplicate but the first.
const buttonSpecial = 0x80

// MaxNetgameStallTics bounds how long TryRunTics will spin waiting for
// network data before giving up and returning control to the caller
// (so a UI loop doesn't hang forever on a stalled peer).
const MaxNetgameStallTics = 2

// TicSet is one slot of the shared tic buffer: one command and
// in-game flag per player for a single absolute tic.
type TicSet struct {
	Cmds   [protocol.NetMaxPlayers]protocol.TicCmd
	InGame [protocol.NetMaxPlayers]bool
}

// TicCmdBuilder produces this peer's local input for a tic about to be
// built, and is given a chance to pump its input source first.
type TicCmdBuilder interface {
	ProcessEvents()
	BuildTicCmd(maketic int32) protocol.TicCmd
}

// TicRunner consumes one fully-assembled tic.
type TicRunner interface {
	RunTic(cmds [protocol.NetMaxPlayers]protocol.TicCmd, inGame [protocol.NetMaxPlayers]bool)
}

// NetPump is the loop driver's view of the network client: enough to
// decide how many tics are safe to build and run, without the loop
// package needing to know anything about sessions or wire framing.
type NetPump interface {
	Run()
	IsConnected() bool
	IsDrone() bool
	SendTicCmd(cmd protocol.TicCmd, maketic int32)
	RecvTic() int32
	LocalPlayerInGame() [protocol.NetMaxPlayers]bool
}

// Loop is the maketic/gametic dual-clock driver: maketic is how far
// ahead local input has been built and sent, gametic is how far the
// simulation has actually been advanced. Grounded on d_loop.rs.
type Loop struct {
	Maketic int32
	Gametic int32
	Ticdup  int32
	NewSync bool
	Drone   bool

	OffsetMs    int32
	LocalPlayer int

	lastTime     int32
	skipTics     int32
	oldEnterTics int32
	frameOn      int32
	oldNetTics   int32
	frameSkip    [4]bool

	ticData [protocol.BackupTics]TicSet
}

// New returns a Loop with Ticdup defaulting to 1 (no duplication) and
// new-sync mode enabled, matching the defaults a fresh session starts
// with before GameSettings arrives.
func New() *Loop {
	return &Loop{Ticdup: 1, NewSync: true}
}

// AdjustedTime converts a wall-clock instant to a tic count, applying
// the clock-sync offset when new-sync mode is active. Grounded on
// get_adjusted_time.
func (l *Loop) AdjustedTime(now time.Time) int32 {
	ms := int32(now.UnixMilli())
	if l.NewSync {
		return int32((int64(ms) + int64(l.OffsetMs)) * int64(protocol.TicRate) / 1000)
	}
	return int32(int64(ms) * int64(protocol.TicRate) / 1000)
}

// BuildNewTic asks builder for this peer's input for the next tic and
// appends it to the shared buffer, refusing when the local peer has
// built too far ahead of where the simulation actually is. Grounded on
// build_new_tic.
func (l *Loop) BuildNewTic(builder TicCmdBuilder, connected bool) bool {
	gameticdiv := l.Gametic / l.Ticdup

	builder.ProcessEvents()

	if l.Drone {
		return false
	}

	if l.NewSync {
		if !connected && l.Maketic-gameticdiv > 2 {
			return false
		}
		if l.Maketic-gameticdiv > 8 {
			return false
		}
	} else if l.Maketic-gameticdiv >= 5 {
		return false
	}

	cmd := builder.BuildTicCmd(l.Maketic)

	l.ticData[l.Maketic%protocol.BackupTics].Cmds[l.LocalPlayer] = cmd
	l.ticData[l.Maketic%protocol.BackupTics].InGame[l.LocalPlayer] = true
	l.Maketic++

	return true
}

// NetUpdate pumps the network client and builds as many new local tics
// as the elapsed wall-clock time and SKIPTICS balance allow. Grounded
// on net_update.
func (l *Loop) NetUpdate(now time.Time, net NetPump, builder TicCmdBuilder, sendOnConnect bool) {
	net.Run()

	nowtic := l.AdjustedTime(now) / l.Ticdup
	newtics := nowtic - l.lastTime
	l.lastTime = nowtic

	if l.skipTics <= newtics {
		newtics -= l.skipTics
		l.skipTics = 0
	} else {
		l.skipTics -= newtics
		newtics = 0
	}

	for i := int32(0); i < newtics; i++ {
		if !l.BuildNewTic(builder, net.IsConnected()) {
			break
		}
		if net.IsConnected() {
			cmd := l.ticData[(l.Maketic-1)%protocol.BackupTics].Cmds[l.LocalPlayer]
			net.SendTicCmd(cmd, l.Maketic-1)
		}
	}
}

// Start records the current adjusted time as the loop's baseline,
// called once before the first NetUpdate. Grounded on
// d_start_game_loop.
func (l *Loop) Start(now time.Time) {
	l.lastTime = l.AdjustedTime(now) / l.Ticdup
}

// getLowTic reports the lowest tic count this peer and its peer agree
// is fully available: the local build clock in a solo game, or the
// minimum of that and the receive clock once connected (and always the
// receive clock for a drone, since a drone never builds its own
// input). Grounded on get_low_tic.
func (l *Loop) getLowTic(net NetPump) int32 {
	lowtic := l.Maketic
	if net.IsConnected() {
		recvtic := net.RecvTic()
		if net.IsDrone() || recvtic < lowtic {
			lowtic = recvtic
		}
	}
	return lowtic
}

// oldNetSync runs the frame-skip heuristic used when new-sync mode is
// off: if the key in-game player isn't this peer, and four consecutive
// frames have all lagged the receive clock, one local tic is skipped
// to let the connection catch up. Grounded on old_net_sync.
func (l *Loop) oldNetSync(net NetPump) {
	l.frameOn++

	keyplayer := 0
	localInGame := net.LocalPlayerInGame()
	for i, v := range localInGame {
		if v {
			keyplayer = i
			break
		}
	}

	if l.LocalPlayer != keyplayer {
		recvtic := net.RecvTic()
		if l.Maketic <= recvtic {
			l.lastTime--
		}

		l.frameSkip[l.frameOn&3] = l.oldNetTics > recvtic
		l.oldNetTics = l.Maketic

		allSkip := true
		for _, v := range l.frameSkip {
			if !v {
				allSkip = false
				break
			}
		}
		if allSkip {
			l.skipTics = 1
		}
	}
}

// playersInGame reports whether there is anyone to run a tic for:
// any locally-known in-game player once connected, or simply whether
// this peer itself isn't a drone when playing solo. Grounded on
// players_in_game.
func (l *Loop) playersInGame(net NetPump) bool {
	if net.IsConnected() {
		for _, v := range net.LocalPlayerInGame() {
			if v {
				return true
			}
		}
		return false
	}
	return !l.Drone
}

func singlePlayerClear(set *TicSet, localPlayer int) {
	for i := range set.InGame {
		if i != localPlayer {
			set.InGame[i] = false
		}
	}
}

// ticdupSquash clears the fields that must not replay across
// duplicated sub-tics: chat input fires once, and a special-menu
// button press must not repeat Ticdup times. Grounded on
// ticdup_squash.
func ticdupSquash(set *TicSet) {
	for i := range set.Cmds {
		set.Cmds[i].ChatChar = 0
		if set.Cmds[i].Buttons&buttonSpecial != 0 {
			set.Cmds[i].Buttons = 0
		}
	}
}

// TryRunTics advances Gametic by as many tics as are safely available,
// handing each to runner, and returns once it has run what it can or
// given up waiting past MaxNetgameStallTics. Grounded on try_run_tics.
func (l *Loop) TryRunTics(now time.Time, net NetPump, builder TicCmdBuilder, runner TicRunner) {
	enterTic := l.AdjustedTime(now) / l.Ticdup

	l.NetUpdate(now, net, builder, true)

	lowtic := l.getLowTic(net)
	availableTics := lowtic - l.Gametic/l.Ticdup
	realTics := enterTic - l.oldEnterTics
	l.oldEnterTics = enterTic

	var counts int32
	if l.NewSync {
		counts = availableTics
	} else {
		switch {
		case realTics < availableTics-1:
			counts = realTics + 1
		case realTics < availableTics:
			counts = realTics
		default:
			counts = availableTics
		}
		if counts < 1 {
			counts = 1
		}
		if net.IsConnected() {
			l.oldNetSync(net)
		}
	}
	if counts < 1 {
		counts = 1
	}

	for !l.playersInGame(net) || lowtic < l.Gametic/l.Ticdup+counts {
		l.NetUpdate(now, net, builder, true)
		lowtic = l.getLowTic(net)

		if lowtic < l.Gametic/l.Ticdup {
			panic("clock: TryRunTics: lowtic < gametic")
		}

		if lowtic < l.Gametic/l.Ticdup+counts {
			if l.AdjustedTime(time.Now())/l.Ticdup-enterTic >= MaxNetgameStallTics {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}

	for counts > 0 {
		if !l.playersInGame(net) {
			return
		}

		set := &l.ticData[(l.Gametic/l.Ticdup)%protocol.BackupTics]
		if !net.IsConnected() {
			singlePlayerClear(set, l.LocalPlayer)
		}

		for i := int32(0); i < l.Ticdup; i++ {
			if l.Gametic/l.Ticdup > lowtic {
				panic("clock: gametic>lowtic")
			}
			runner.RunTic(set.Cmds, set.InGame)
			l.Gametic++
			ticdupSquash(set)
		}

		l.NetUpdate(now, net, builder, true)
		counts--
	}
}

// StoreReceivedTic places an already-undiffed tic (as reconstructed by
// the window engine) into the shared tic buffer at seq, for every
// in-game player except the local one, which BuildNewTic already
// filled in.
func (l *Loop) StoreReceivedTic(seq int32, cmds [protocol.NetMaxPlayers]protocol.TicCmd, inGame [protocol.NetMaxPlayers]bool) {
	set := &l.ticData[seq%protocol.BackupTics]
	for i := 0; i < protocol.NetMaxPlayers; i++ {
		if i == l.LocalPlayer {
			continue
		}
		set.InGame[i] = inGame[i]
		set.Cmds[i] = cmds[i]
	}
}
