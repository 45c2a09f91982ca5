// Package protocol defines the wire-level data model shared by the
// codec, session, window and clock packages: tic commands, session
// settings, packet types and the handful of protocol-wide constants.
package protocol

// Core protocol constants, fixed by the wire format and not
// configurable at runtime.
const (
	NetMaxPlayers  = 8
	BackupTics     = 128
	MaxPlayerName  = 30
	TicRate        = 35
	NetReliablePacket uint16 = 0x8000
)

// TicDiff bitmask values, one bit per group of TicCmd fields that can
// change between consecutive tics for the same player.
const (
	DiffForward     uint32 = 1 << 0
	DiffSide        uint32 = 1 << 1
	DiffTurn        uint32 = 1 << 2
	DiffButtons     uint32 = 1 << 3
	DiffConsistancy uint32 = 1 << 4
	DiffChatChar    uint32 = 1 << 5
	DiffRaven       uint32 = 1 << 6
	DiffStrife      uint32 = 1 << 7
)

// TicCmd is one player's input for one tic. Value type, freely copied.
type TicCmd struct {
	ForwardMove int8
	SideMove    int8
	AngleTurn   int16
	ChatChar    uint8
	Buttons     uint8
	Consistancy uint8
	Buttons2    uint8
	Inventory   int32
	LookFly     uint8
	Arti        uint8
}

// TicDiff is a TicCmd paired with a bitmask of which fields differ from
// the previous tic sent for the same player.
type TicDiff struct {
	Diff uint32
	Cmd  TicCmd
}

// FullTicCmd is one tic's inputs for every player slot.
type FullTicCmd struct {
	Latency      int32
	PlayerInGame [NetMaxPlayers]bool
	Cmds         [NetMaxPlayers]TicDiff
}

// GameSettings are the session parameters handed down at game start.
// Immutable for the life of the session.
type GameSettings struct {
	Ticdup          int32
	Extratics       int32
	Deathmatch      int32
	Episode         int32
	NoMonsters      int32
	FastMonsters    int32
	RespawnMonsters int32
	Map             int32
	Skill           int32
	GameVersion     int32
	LowResTurn      int32
	NewSync         int32
	TimeLimit       uint32
	LoadGame        int32
	Random          int32
	NumPlayers      int32
	ConsolePlayer   int32
	PlayerClasses   [NetMaxPlayers]int32
}

// WaitData is the lobby snapshot broadcast while waiting for the game
// to launch.
type WaitData struct {
	NumPlayers    int32
	NumDrones     int32
	ReadyPlayers  int32
	MaxPlayers    int32
	IsController  int32
	ConsolePlayer int32
	PlayerNames   [NetMaxPlayers]string
	PlayerAddrs   [NetMaxPlayers]string
	WadSHA1Sum    [20]byte
	DehSHA1Sum    [20]byte
	IsFreedoom    int32
}

// ConnectData is sent by the client as part of the Syn handshake; it
// describes the local game configuration the server must match.
type ConnectData struct {
	GameMode    int32
	GameMission int32
	LowResTurn  int32
	Drone       int32
	MaxPlayers  int32
	IsFreedoom  int32
	WadSHA1Sum  [20]byte
	DehSHA1Sum  [20]byte
	PlayerClass int32
	PlayerName  string
}

// Protocol identifies a negotiated wire-compatibility tag.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolChocolateDoom0
)

// ProtocolName is the only protocol tag this implementation understands.
const ProtocolName = "CHOCOLATE_DOOM_0"

func (p Protocol) String() string {
	if p == ProtocolChocolateDoom0 {
		return ProtocolName
	}
	return "UNKNOWN"
}

// PacketType is the u16 frame header identifying a packet's payload
// shape. The high bit (NetReliablePacket) is never set on these
// constants; it is ORed in separately by the framing layer.
type PacketType uint16

const (
	PacketSyn PacketType = iota
	PacketAck
	PacketRejected
	PacketKeepAlive
	PacketWaitingData
	PacketGameStart
	PacketGameData
	PacketGameDataAck
	PacketDisconnect
	PacketDisconnectAck
	PacketReliableAck
	PacketGameDataResend
	PacketConsoleMessage
	PacketQuery
	PacketQueryResponse
	PacketLaunch
	PacketNatHolePunch
)

var packetTypeNames = map[PacketType]string{
	PacketSyn:            "Syn",
	PacketAck:            "Ack",
	PacketRejected:       "Rejected",
	PacketKeepAlive:      "KeepAlive",
	PacketWaitingData:    "WaitingData",
	PacketGameStart:      "GameStart",
	PacketGameData:       "GameData",
	PacketGameDataAck:    "GameDataAck",
	PacketDisconnect:     "Disconnect",
	PacketDisconnectAck:  "DisconnectAck",
	PacketReliableAck:    "ReliableAck",
	PacketGameDataResend: "GameDataResend",
	PacketConsoleMessage: "ConsoleMessage",
	PacketQuery:          "Query",
	PacketQueryResponse:  "QueryResponse",
	PacketLaunch:         "Launch",
	PacketNatHolePunch:   "NatHolePunch",
}

func (t PacketType) String() string {
	if name, ok := packetTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ValidPacketType reports whether v names one of the known packet
// types (ignoring the reliable-packet high bit, which callers must
// strip before calling this).
func ValidPacketType(v uint16) (PacketType, bool) {
	t := PacketType(v)
	_, ok := packetTypeNames[t]
	return t, ok
}
