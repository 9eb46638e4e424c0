package core

import (
	"context"
	"testing"
	"time"

	"gate-service/internal/clock"
	"gate-service/internal/hardware"
	"gate-service/internal/protocol"
	"gate-service/internal/radio"
	"gate-service/internal/rollingcode"
	"gate-service/internal/types"
)

type senderFixture struct {
	sender *SenderSystem
	io     *mockHardwareIO
	radio  *mockTransport
	client *mockMessagingClient
	clock  *clock.Manual
}

func newSenderFixture(t *testing.T) *senderFixture {
	t.Helper()
	f := &senderFixture{
		io:     newMockHardwareIO(),
		radio:  &mockTransport{},
		client: newMockMessagingClient(),
		clock:  clock.NewManual(5_000_000),
	}
	f.sender = NewSenderSystem(f.io, f.radio, f.client, testReceiverAddr, f.clock, testLogger())
	if err := f.sender.Start(startContext(t)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return f
}

func (f *senderFixture) tick(t *testing.T) {
	t.Helper()
	if err := f.sender.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
}

func (f *senderFixture) lastCommand(t *testing.T) protocol.GateCommand {
	t.Helper()
	sent := f.radio.sentFrames()
	if len(sent) == 0 {
		t.Fatal("nothing sent")
	}
	pkt, err := protocol.DecodeGateCommand(sent[len(sent)-1].data)
	if err != nil {
		t.Fatalf("sent frame does not decode: %v", err)
	}
	return pkt
}

func TestSenderIdlePings(t *testing.T) {
	f := newSenderFixture(t)
	start := f.clock.Now()

	for i := 0; i < 3; i++ {
		f.tick(t)
	}

	sent := f.radio.sentFrames()
	if len(sent) != 3 {
		t.Fatalf("sent %d frames, want 3", len(sent))
	}
	for i, s := range sent {
		if s.dest.String() != testReceiverAddr.String() {
			t.Errorf("frame %d sent to %s", i, s.dest)
		}
		pkt, err := protocol.DecodeGateCommand(s.data)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if pkt.Command != protocol.CommandPing {
			t.Errorf("frame %d command = %s, want ping", i, pkt.Command)
		}
		if want := uint32(2 + i); pkt.RollingCode != want {
			t.Errorf("frame %d code = %d, want %d", i, pkt.RollingCode, want)
		}
	}
	if elapsed := time.Duration(f.clock.Now()-start) * time.Microsecond; elapsed != 3*time.Second {
		t.Errorf("three idle cycles took %v, want 3s", elapsed)
	}
	if f.sender.State() != types.SenderStateIdle {
		t.Errorf("state = %s, want idle", f.sender.State())
	}
}

func TestSenderLinkDetection(t *testing.T) {
	f := newSenderFixture(t)
	f.radio.setAck(true)

	f.tick(t)
	if f.sender.State() != types.SenderStateIdle {
		t.Fatalf("state = %s before first ack was seen", f.sender.State())
	}

	before := f.clock.Now()
	f.tick(t)
	if f.sender.State() != types.SenderStateDetects {
		t.Fatalf("state = %s, want detects", f.sender.State())
	}
	if elapsed := time.Duration(f.clock.Now()-before) * time.Microsecond; elapsed != 250*time.Millisecond {
		t.Errorf("detects cycle took %v, want %v", elapsed, 250*time.Millisecond)
	}

	f.radio.setAck(false)
	lastAck := f.clock.Now()
	f.tick(t)
	for i := 0; i < 20 && f.sender.State() == types.SenderStateDetects; i++ {
		f.tick(t)
	}
	if f.sender.State() != types.SenderStateIdle {
		t.Fatalf("state = %s, want idle after link loss", f.sender.State())
	}
	if gap := time.Duration(f.clock.Now()-lastAck) * time.Microsecond; gap <= 3*time.Second {
		t.Errorf("link dropped after %v, want more than 3s", gap)
	}

	waitFor(t, "detects publish", func() bool {
		for _, s := range f.client.publishedSenderStates() {
			if s == types.SenderStateDetects {
				return true
			}
		}
		return false
	})
}

func TestSenderBypassForcesOpen(t *testing.T) {
	f := newSenderFixture(t)
	f.io.setInput(hardware.ChannelBypass, true)

	f.tick(t)
	if f.lastCommand(t).Command != protocol.CommandPing {
		t.Fatal("first cycle should still ping while the input debounces")
	}

	f.tick(t)
	if f.sender.State() != types.SenderStateBypass {
		t.Fatalf("state = %s, want bypass", f.sender.State())
	}
	if f.lastCommand(t).Command != protocol.CommandForceOpen {
		t.Fatal("bypass cycle did not send force-open")
	}

	f.io.setInput(hardware.ChannelBypass, false)
	f.tick(t)
	f.tick(t)
	if f.sender.State() != types.SenderStateIdle {
		t.Errorf("state = %s after release, want idle", f.sender.State())
	}
	if f.lastCommand(t).Command != protocol.CommandPing {
		t.Error("idle cycle did not ping")
	}
}

func TestSenderStuckBypassTimesOut(t *testing.T) {
	f := newSenderFixture(t)
	f.io.setInput(hardware.ChannelBypass, true)

	f.tick(t)
	f.tick(t)
	if f.sender.State() != types.SenderStateBypass {
		t.Fatalf("state = %s, want bypass", f.sender.State())
	}
	for i := 0; i < 30 && f.sender.State() == types.SenderStateBypass; i++ {
		f.tick(t)
	}
	if f.sender.State() != types.SenderStateIdle {
		t.Fatalf("state = %s with input held past timeout, want idle", f.sender.State())
	}

	f.tick(t)
	if f.sender.State() != types.SenderStateIdle {
		t.Error("held input re-entered bypass")
	}
	if f.lastCommand(t).Command != protocol.CommandPing {
		t.Error("stuck input still sending force-open")
	}
}

func TestSenderIgnoresUnrelatedFrames(t *testing.T) {
	f := newSenderFixture(t)

	for i := 0; i < OtaRequestThreshold; i++ {
		f.radio.deliver(radio.Frame{Data: gateCommand(uint32(i), protocol.CommandPing), Timestamp: int64(i) * 1_000_000})
		f.radio.deliver(radio.Frame{Data: []byte{1}, Timestamp: int64(i) * 1_000_000})
	}
	if f.sender.otaTrigger.Take() {
		t.Error("OTA triggered by unrelated frames")
	}
}

func TestSenderRunEntersOtaMode(t *testing.T) {
	f := newSenderFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.client.onOtaMode = func(enabled bool) {
		if !enabled {
			cancel()
		}
	}

	for i := 0; i < OtaRequestThreshold; i++ {
		f.radio.deliver(radio.Frame{Data: []byte{protocol.OtaCommandEnter}, Timestamp: f.clock.Now()})
		f.clock.Advance(time.Second)
	}

	start := f.clock.Now()
	if err := f.sender.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if got := f.client.otaModeChanges(); len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("OTA changes = %v, want [true false]", got)
	}
	if elapsed := time.Duration(f.clock.Now()-start) * time.Microsecond; elapsed < 5*time.Minute {
		t.Errorf("OTA window lasted %v, want at least 5m", elapsed)
	}
	if got := f.client.value(rollingcode.KeyCounter); got != f.sender.counter.Current() {
		t.Errorf("stored rolling code = %d, want %d", got, f.sender.counter.Current())
	}
}

func TestSenderPeriodicSave(t *testing.T) {
	f := newSenderFixture(t)
	f.tick(t)
	if f.client.value(rollingcode.KeyCounter) != 1 {
		t.Fatal("saved before the interval")
	}

	f.clock.Advance(6 * time.Hour)
	f.tick(t)
	if got := f.client.value(rollingcode.KeyCounter); got != 2 {
		t.Errorf("stored rolling code = %d, want 2", got)
	}
}
