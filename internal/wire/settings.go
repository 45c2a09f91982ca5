package wire

import "netdoom/internal/protocol"

// WriteSettings writes a GameSettings record in wire order, which
// differs from the struct's field order in one place: Episode follows
// RespawnMonsters rather than Deathmatch. One player-class byte per
// num_players follows.
func (b *Buffer) WriteSettings(s protocol.GameSettings) {
	b.WriteU8(uint8(s.Ticdup))
	b.WriteU8(uint8(s.Extratics))
	b.WriteU8(uint8(s.Deathmatch))
	b.WriteU8(uint8(s.NoMonsters))
	b.WriteU8(uint8(s.FastMonsters))
	b.WriteU8(uint8(s.RespawnMonsters))
	b.WriteU8(uint8(s.Episode))
	b.WriteU8(uint8(s.Map))
	b.WriteI8(int8(s.Skill))
	b.WriteU8(uint8(s.GameVersion))
	b.WriteU8(uint8(s.LowResTurn))
	b.WriteU8(uint8(s.NewSync))
	b.WriteU32(s.TimeLimit)
	b.WriteI8(int8(s.LoadGame))
	b.WriteU8(uint8(s.Random))
	b.WriteU8(uint8(s.NumPlayers))
	b.WriteI8(int8(s.ConsolePlayer))
	for i := int32(0); i < s.NumPlayers; i++ {
		b.WriteU8(uint8(s.PlayerClasses[i]))
	}
}

// ReadSettings reads a GameSettings record written by WriteSettings.
func (b *Buffer) ReadSettings() (protocol.GameSettings, error) {
	var s protocol.GameSettings
	var err error

	if ticdup, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Ticdup = int32(ticdup)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Extratics = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Deathmatch = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.NoMonsters = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.FastMonsters = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.RespawnMonsters = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Episode = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Map = int32(v)
	}
	if v, e := b.ReadI8(); e != nil {
		return s, e
	} else {
		s.Skill = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.GameVersion = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.LowResTurn = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.NewSync = int32(v)
	}
	if s.TimeLimit, err = b.ReadU32(); err != nil {
		return s, err
	}
	if v, e := b.ReadI8(); e != nil {
		return s, e
	} else {
		s.LoadGame = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.Random = int32(v)
	}
	if v, e := b.ReadU8(); e != nil {
		return s, e
	} else {
		s.NumPlayers = int32(v)
	}
	if v, e := b.ReadI8(); e != nil {
		return s, e
	} else {
		s.ConsolePlayer = int32(v)
	}
	for i := int32(0); i < s.NumPlayers && i < protocol.NetMaxPlayers; i++ {
		v, e := b.ReadU8()
		if e != nil {
			return s, e
		}
		s.PlayerClasses[i] = int32(v)
	}
	return s, nil
}

// WriteConnectData writes a ConnectData record after the caller has
// already written the Syn header and protocol negotiation fields.
func (b *Buffer) WriteConnectData(c protocol.ConnectData) {
	b.WriteU8(uint8(c.GameMode))
	b.WriteU8(uint8(c.GameMission))
	b.WriteU8(uint8(c.LowResTurn))
	b.WriteU8(uint8(c.Drone))
	b.WriteU8(uint8(c.MaxPlayers))
	b.WriteU8(uint8(c.IsFreedoom))
	b.WriteBlob(c.WadSHA1Sum[:])
	b.WriteBlob(c.DehSHA1Sum[:])
	b.WriteU8(uint8(c.PlayerClass))
	b.WriteString(c.PlayerName)
}

// ReadConnectData reads a ConnectData record written by WriteConnectData.
func (b *Buffer) ReadConnectData() (protocol.ConnectData, error) {
	var c protocol.ConnectData

	v, err := b.ReadU8()
	if err != nil {
		return c, err
	}
	c.GameMode = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.GameMission = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.LowResTurn = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.Drone = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.MaxPlayers = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.IsFreedoom = int32(v)

	wad, err := b.ReadBlob(20)
	if err != nil {
		return c, err
	}
	copy(c.WadSHA1Sum[:], wad)

	deh, err := b.ReadBlob(20)
	if err != nil {
		return c, err
	}
	copy(c.DehSHA1Sum[:], deh)

	if v, err = b.ReadU8(); err != nil {
		return c, err
	}
	c.PlayerClass = int32(v)

	c.PlayerName, err = b.ReadString()
	if err != nil {
		return c, err
	}

	return c, nil
}

// WriteWaitData writes a WaitData lobby snapshot.
func (b *Buffer) WriteWaitData(w protocol.WaitData) {
	b.WriteU8(uint8(w.NumPlayers))
	b.WriteU8(uint8(w.NumDrones))
	b.WriteU8(uint8(w.ReadyPlayers))
	b.WriteU8(uint8(w.MaxPlayers))
	b.WriteU8(uint8(w.IsController))
	b.WriteI8(int8(w.ConsolePlayer))
	for i := int32(0); i < w.NumPlayers; i++ {
		b.WriteString(w.PlayerNames[i])
		b.WriteString(w.PlayerAddrs[i])
	}
	b.WriteBlob(w.WadSHA1Sum[:])
	b.WriteBlob(w.DehSHA1Sum[:])
	b.WriteU8(uint8(w.IsFreedoom))
}

// ReadWaitData reads a WaitData record written by WriteWaitData.
func (b *Buffer) ReadWaitData() (protocol.WaitData, error) {
	var w protocol.WaitData

	v, err := b.ReadU8()
	if err != nil {
		return w, err
	}
	w.NumPlayers = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return w, err
	}
	w.NumDrones = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return w, err
	}
	w.ReadyPlayers = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return w, err
	}
	w.MaxPlayers = int32(v)

	if v, err = b.ReadU8(); err != nil {
		return w, err
	}
	w.IsController = int32(v)

	cp, err := b.ReadI8()
	if err != nil {
		return w, err
	}
	w.ConsolePlayer = int32(cp)

	for i := int32(0); i < w.NumPlayers && i < protocol.NetMaxPlayers; i++ {
		name, err := b.ReadString()
		if err != nil {
			return w, err
		}
		if len(name) >= protocol.MaxPlayerName {
			return w, ErrShortRead
		}
		w.PlayerNames[i] = name

		addr, err := b.ReadString()
		if err != nil {
			return w, err
		}
		if len(addr) >= protocol.MaxPlayerName {
			return w, ErrShortRead
		}
		w.PlayerAddrs[i] = addr
	}

	wad, err := b.ReadBlob(20)
	if err != nil {
		return w, err
	}
	copy(w.WadSHA1Sum[:], wad)

	deh, err := b.ReadBlob(20)
	if err != nil {
		return w, err
	}
	copy(w.DehSHA1Sum[:], deh)

	if v, err = b.ReadU8(); err != nil {
		return w, err
	}
	w.IsFreedoom = int32(v)

	return w, nil
}
