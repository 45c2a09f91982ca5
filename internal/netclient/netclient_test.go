package netclient

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"netdoom/internal/protocol"
	"netdoom/internal/session"
	"netdoom/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendTicCmdEmitsGameDataPacket(t *testing.T) {
	srv, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	c, err := New("alice", false, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.serverAddr = srv.LocalAddr().(*net.UDPAddr)
	c.sess.Connected = true

	c.SendTicCmd(protocol.TicCmd{ForwardMove: 42}, 0)

	buf := make([]byte, 4096)
	if err := srv.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	n, _, err := srv.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("did not receive a packet: %v", err)
	}

	b := wire.NewBuffer(buf[:n])
	h, ok, err := b.ReadHeader()
	if err != nil || !ok {
		t.Fatalf("ReadHeader ok=%v err=%v", ok, err)
	}
	if h.Type != protocol.PacketGameData {
		t.Fatalf("packet type = %v, want GameData", h.Type)
	}
}

func TestConnectHandshakeAgainstStubServer(t *testing.T) {
	srv, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		if err := srv.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}
		n, clientAddr, err := srv.ReadFromUDP(buf)
		if err != nil {
			return
		}
		b := wire.NewBuffer(buf[:n])
		if h, ok, err := b.ReadHeader(); err != nil || !ok || h.Type != protocol.PacketSyn {
			return
		}

		reply := wire.NewWriteBuffer()
		reply.WriteHeader(protocol.PacketSyn, false, 0)
		reply.WriteString("netdoom 0.1")
		reply.WriteProtocolList()
		srv.WriteToUDP(reply.Bytes(), clientAddr)
	}()

	c, err := New("bob", false, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	cd := protocol.ConnectData{PlayerName: "bob"}
	if err := c.Connect(srv.LocalAddr().String(), cd); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if c.sess.State != session.WaitingLaunch {
		t.Fatalf("state = %v, want WaitingLaunch", c.sess.State)
	}
	if !c.sess.Connected {
		t.Fatal("expected Connected to be true after a successful handshake")
	}

	<-done
}

func TestDrainTicsUndiffsAgainstBaseline(t *testing.T) {
	c, err := New("carol", true, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var cmd protocol.FullTicCmd
	cmd.PlayerInGame[1] = true
	cmd.Cmds[1] = protocol.TicDiff{Diff: protocol.DiffForward, Cmd: protocol.TicCmd{ForwardMove: 7}}
	c.recvWindow.Store(0, cmd)

	delivered := c.DrainTics(0)
	if len(delivered) != 1 {
		t.Fatalf("got %d delivered tics, want 1", len(delivered))
	}
	if delivered[0].Cmds[1].ForwardMove != 7 {
		t.Fatalf("ForwardMove = %d, want 7", delivered[0].Cmds[1].ForwardMove)
	}
	if !delivered[0].InGame[1] {
		t.Fatal("expected player 1 marked in-game")
	}
}
