package wire

import "netdoom/internal/protocol"

// WriteTicDiff writes the 8-bit diff mask followed by each field whose
// bit is set, in the fixed order FORWARD, SIDE, TURN, BUTTONS,
// CONSISTANCY, CHATCHAR, RAVEN, STRIFE. TURN is a signed byte scaled
// x256 when lowresTurn is set, otherwise a plain i16. RAVEN emits
// lookfly then arti; STRIFE emits buttons2 then inventory as i16.
func (b *Buffer) WriteTicDiff(d protocol.TicDiff, lowresTurn bool) {
	b.WriteU8(uint8(d.Diff))

	if d.Diff&protocol.DiffForward != 0 {
		b.WriteI8(d.Cmd.ForwardMove)
	}
	if d.Diff&protocol.DiffSide != 0 {
		b.WriteI8(d.Cmd.SideMove)
	}
	if d.Diff&protocol.DiffTurn != 0 {
		if lowresTurn {
			b.WriteI8(int8(d.Cmd.AngleTurn / 256))
		} else {
			b.WriteI16(d.Cmd.AngleTurn)
		}
	}
	if d.Diff&protocol.DiffButtons != 0 {
		b.WriteU8(d.Cmd.Buttons)
	}
	if d.Diff&protocol.DiffConsistancy != 0 {
		b.WriteU8(d.Cmd.Consistancy)
	}
	if d.Diff&protocol.DiffChatChar != 0 {
		b.WriteU8(d.Cmd.ChatChar)
	}
	if d.Diff&protocol.DiffRaven != 0 {
		b.WriteU8(d.Cmd.LookFly)
		b.WriteU8(d.Cmd.Arti)
	}
	if d.Diff&protocol.DiffStrife != 0 {
		b.WriteU8(d.Cmd.Buttons2)
		b.WriteI16(int16(d.Cmd.Inventory))
	}
}

// ReadTicDiff reads a TicDiff written by WriteTicDiff. Fields whose bit
// is absent are zeroed (not left at the caller's previous value) — the
// caller's undiffing pass is what applies baseline inheritance.
func (b *Buffer) ReadTicDiff(lowresTurn bool) (protocol.TicDiff, error) {
	mask, err := b.ReadU8()
	if err != nil {
		return protocol.TicDiff{}, err
	}
	d := protocol.TicDiff{Diff: uint32(mask)}

	if d.Diff&protocol.DiffForward != 0 {
		if d.Cmd.ForwardMove, err = b.ReadI8(); err != nil {
			return protocol.TicDiff{}, err
		}
	}
	if d.Diff&protocol.DiffSide != 0 {
		if d.Cmd.SideMove, err = b.ReadI8(); err != nil {
			return protocol.TicDiff{}, err
		}
	}
	if d.Diff&protocol.DiffTurn != 0 {
		if lowresTurn {
			v, err := b.ReadI8()
			if err != nil {
				return protocol.TicDiff{}, err
			}
			d.Cmd.AngleTurn = int16(v) * 256
		} else {
			if d.Cmd.AngleTurn, err = b.ReadI16(); err != nil {
				return protocol.TicDiff{}, err
			}
		}
	}
	if d.Diff&protocol.DiffButtons != 0 {
		if d.Cmd.Buttons, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
	}
	if d.Diff&protocol.DiffConsistancy != 0 {
		if d.Cmd.Consistancy, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
	}
	if d.Diff&protocol.DiffChatChar != 0 {
		if d.Cmd.ChatChar, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
	} else {
		d.Cmd.ChatChar = 0
	}
	if d.Diff&protocol.DiffRaven != 0 {
		if d.Cmd.LookFly, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
		if d.Cmd.Arti, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
	} else {
		d.Cmd.Arti = 0
	}
	if d.Diff&protocol.DiffStrife != 0 {
		if d.Cmd.Buttons2, err = b.ReadU8(); err != nil {
			return protocol.TicDiff{}, err
		}
		inv, err := b.ReadI16()
		if err != nil {
			return protocol.TicDiff{}, err
		}
		d.Cmd.Inventory = int32(inv)
	} else {
		d.Cmd.Inventory = 0
	}

	return d, nil
}

// WriteFullTicCmd writes latency (i16), the playeringame bitfield
// (u8), then a TicDiff for each in-game player in index order.
func (b *Buffer) WriteFullTicCmd(f protocol.FullTicCmd, lowresTurn bool) {
	b.WriteI16(int16(f.Latency))

	var bitfield uint8
	for i := 0; i < protocol.NetMaxPlayers; i++ {
		if f.PlayerInGame[i] {
			bitfield |= 1 << uint(i)
		}
	}
	b.WriteU8(bitfield)

	for i := 0; i < protocol.NetMaxPlayers; i++ {
		if f.PlayerInGame[i] {
			b.WriteTicDiff(f.Cmds[i], lowresTurn)
		}
	}
}

// ReadFullTicCmd reads a FullTicCmd written by WriteFullTicCmd.
func (b *Buffer) ReadFullTicCmd(lowresTurn bool) (protocol.FullTicCmd, error) {
	var f protocol.FullTicCmd

	latency, err := b.ReadI16()
	if err != nil {
		return protocol.FullTicCmd{}, err
	}
	f.Latency = int32(latency)

	bitfield, err := b.ReadU8()
	if err != nil {
		return protocol.FullTicCmd{}, err
	}
	for i := 0; i < protocol.NetMaxPlayers; i++ {
		f.PlayerInGame[i] = bitfield&(1<<uint(i)) != 0
	}

	for i := 0; i < protocol.NetMaxPlayers; i++ {
		if f.PlayerInGame[i] {
			d, err := b.ReadTicDiff(lowresTurn)
			if err != nil {
				return protocol.FullTicCmd{}, err
			}
			f.Cmds[i] = d
		}
	}

	return f, nil
}
