package window

import "netdoom/internal/protocol"

// CalculateDiff builds the TicDiff that encodes next relative to last.
// Event fields (chatchar, arti, inventory) are diff-bit-gated on
// whether the event is present in next, not on whether it changed from
// last — a chatchar held at the same nonzero value across tics still
// needs re-sending, while a quiet tic must zero the field outright so
// it does not replay stale input after decode.
func CalculateDiff(last, next protocol.TicCmd) protocol.TicDiff {
	d := protocol.TicDiff{Cmd: next}

	if last.ForwardMove != next.ForwardMove {
		d.Diff |= protocol.DiffForward
	}
	if last.SideMove != next.SideMove {
		d.Diff |= protocol.DiffSide
	}
	if last.AngleTurn != next.AngleTurn {
		d.Diff |= protocol.DiffTurn
	}
	if last.Buttons != next.Buttons {
		d.Diff |= protocol.DiffButtons
	}
	if last.Consistancy != next.Consistancy {
		d.Diff |= protocol.DiffConsistancy
	}
	if next.ChatChar != 0 {
		d.Diff |= protocol.DiffChatChar
	} else {
		d.Cmd.ChatChar = 0
	}
	if last.LookFly != next.LookFly || next.Arti != 0 {
		d.Diff |= protocol.DiffRaven
	} else {
		d.Cmd.Arti = 0
	}
	if last.Buttons2 != next.Buttons2 || next.Inventory != 0 {
		d.Diff |= protocol.DiffStrife
	} else {
		d.Cmd.Inventory = 0
	}

	return d
}

// ApplyDiff undiffs d against base, returns the reconstructed TicCmd,
// and advances base to that result so the next ApplyDiff call in the
// same player's sequence has the right baseline. Event fields are
// zeroed whenever their bit is absent, matching the wire codec's
// read-side behavior — an event never persists past the tic it fired.
func ApplyDiff(base *protocol.TicCmd, d protocol.TicDiff) protocol.TicCmd {
	result := *base

	if d.Diff&protocol.DiffForward != 0 {
		result.ForwardMove = d.Cmd.ForwardMove
	}
	if d.Diff&protocol.DiffSide != 0 {
		result.SideMove = d.Cmd.SideMove
	}
	if d.Diff&protocol.DiffTurn != 0 {
		result.AngleTurn = d.Cmd.AngleTurn
	}
	if d.Diff&protocol.DiffButtons != 0 {
		result.Buttons = d.Cmd.Buttons
	}
	if d.Diff&protocol.DiffConsistancy != 0 {
		result.Consistancy = d.Cmd.Consistancy
	}
	if d.Diff&protocol.DiffChatChar != 0 {
		result.ChatChar = d.Cmd.ChatChar
	} else {
		result.ChatChar = 0
	}
	if d.Diff&protocol.DiffRaven != 0 {
		result.LookFly = d.Cmd.LookFly
		result.Arti = d.Cmd.Arti
	} else {
		result.Arti = 0
	}
	if d.Diff&protocol.DiffStrife != 0 {
		result.Buttons2 = d.Cmd.Buttons2
		result.Inventory = d.Cmd.Inventory
	} else {
		result.Inventory = 0
	}

	*base = result
	return result
}

// ExpandFullTicCmd undiffs every in-game player's slot in cmd against
// the caller-owned per-player baselines, skipping the player at
// skipIndex when skip is true (the console player reconstructs its own
// input locally and never reads its own diff back off the wire).
func ExpandFullTicCmd(bases *[protocol.NetMaxPlayers]protocol.TicCmd, cmd protocol.FullTicCmd, skipIndex int, skip bool) [protocol.NetMaxPlayers]protocol.TicCmd {
	var out [protocol.NetMaxPlayers]protocol.TicCmd
	for i := 0; i < protocol.NetMaxPlayers; i++ {
		if skip && i == skipIndex {
			continue
		}
		if !cmd.PlayerInGame[i] {
			continue
		}
		out[i] = ApplyDiff(&bases[i], cmd.Cmds[i])
	}
	return out
}
