package session

import "netdoom/internal/protocol"

// ValidWaitData reports whether a received lobby snapshot is
// internally consistent, grounded on validate_wait_data: player counts
// must nest correctly, and the console-player slot must agree with
// whether this peer is a drone.
func ValidWaitData(w protocol.WaitData, drone bool) bool {
	if w.NumPlayers > w.MaxPlayers {
		return false
	}
	if w.ReadyPlayers > w.NumPlayers {
		return false
	}
	if w.MaxPlayers > protocol.NetMaxPlayers {
		return false
	}
	switch {
	case w.ConsolePlayer >= 0 && !drone:
		return true
	case w.ConsolePlayer < 0 && drone:
		return true
	default:
		return false
	}
}

// ValidGameSettings reports whether a received GameStart settings
// record is consistent with this peer's role, grounded on
// validate_game_settings: a drone has no console player slot at all,
// while a regular player's slot must index an existing player.
func ValidGameSettings(s protocol.GameSettings, drone bool) bool {
	if s.NumPlayers > protocol.NetMaxPlayers {
		return false
	}
	if s.Ticdup < 1 {
		return false
	}
	if drone {
		return s.ConsolePlayer < 0
	}
	return s.ConsolePlayer >= 0 && s.ConsolePlayer < s.NumPlayers
}
