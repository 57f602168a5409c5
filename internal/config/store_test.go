package config

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/muurk/canfix/internal/node"
	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewNodeConfig(), filepath.Join(t.TempDir(), "node.yaml"))
}

func TestStoreConfigWrite(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    byte
	}{
		{name: "one byte", payload: []byte{0x01}, want: protocol.StatusOK},
		{name: "four bytes", payload: []byte{1, 2, 3, 4}, want: protocol.StatusOK},
		{name: "too long", payload: []byte{1, 2, 3, 4, 5}, want: protocol.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTempStore(t)
			if got := s.ConfigWrite(0x0007, tt.payload); got != tt.want {
				t.Errorf("ConfigWrite() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStoreConfigReadWrite(t *testing.T) {
	s := newTempStore(t)

	if st, _ := s.ConfigRead(0x0007); st != protocol.StatusError {
		t.Errorf("ConfigRead(unknown) status = %d, want %d", st, protocol.StatusError)
	}

	s.ConfigWrite(0x0007, []byte{0xDE, 0xAD})
	st, v := s.ConfigRead(0x0007)
	if st != protocol.StatusOK || !bytes.Equal(v, []byte{0xDE, 0xAD}) {
		t.Errorf("ConfigRead() = %d % X", st, v)
	}

	// Empty payload deletes the key
	if st := s.ConfigWrite(0x0007, nil); st != protocol.StatusOK {
		t.Fatalf("ConfigWrite(nil) = %d", st)
	}
	if st, _ := s.ConfigRead(0x0007); st != protocol.StatusError {
		t.Error("key still present after delete")
	}
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	s := NewStore(NewNodeConfig(), path)

	s.ConfigWrite(0x0100, []byte{0x0A})
	s.ParameterEnable(0x183, false)
	s.NodeChanged(0x33)
	s.BitrateChanged(1000)

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	cfg := reopened.Config()
	if cfg.Node.Address != 0x33 {
		t.Errorf("Address = 0x%02X, want 0x33", cfg.Node.Address)
	}
	if cfg.Bitrate != 1000 {
		t.Errorf("Bitrate = %d, want 1000", cfg.Bitrate)
	}
	if reopened.ParameterQuery(0x183) {
		t.Error("parameter 0x183 should stay disabled")
	}
	if st, v := reopened.ConfigRead(0x0100); st != protocol.StatusOK || !bytes.Equal(v, []byte{0x0A}) {
		t.Errorf("ConfigRead() = %d % X", st, v)
	}
}

func TestStoreParameterQueryDefault(t *testing.T) {
	s := NewStore(NewNodeConfig(), "")

	if !s.ParameterQuery(0x200) {
		t.Error("unknown parameter should be enabled")
	}
	s.ParameterEnable(0x200, false)
	if s.ParameterQuery(0x200) {
		t.Error("parameter should be disabled")
	}
	s.ParameterEnable(0x200, true)
	if !s.ParameterQuery(0x200) {
		t.Error("parameter should be enabled again")
	}
}

func TestStoreRollsBackOnSaveFailure(t *testing.T) {
	// A directory in place of the file makes the rename fail
	dir := t.TempDir()
	s := NewStore(NewNodeConfig(), dir)

	if st := s.ConfigWrite(0x0001, []byte{1}); st != protocol.StatusError {
		t.Errorf("ConfigWrite() = %d, want %d", st, protocol.StatusError)
	}
	if _, ok := s.Config().Values[0x0001]; ok {
		t.Error("value kept after failed save")
	}
}

func TestStoreConfigIsCopy(t *testing.T) {
	s := NewStore(NewNodeConfig(), "")
	cfg := s.Config()
	cfg.Values[1] = "ff"
	if _, ok := s.Config().Values[1]; ok {
		t.Error("Config() exposed internal map")
	}
}

type frames []protocol.Frame

func (f *frames) Send(fr protocol.Frame) error {
	*f = append(*f, fr)
	return nil
}

func TestStoreHooksDriveNode(t *testing.T) {
	s := NewStore(NewNodeConfig(), filepath.Join(t.TempDir(), "node.yaml"))
	cfg := s.Config()

	var out frames
	opts := append(cfg.NodeOptions(), node.WithHooks(s.Hooks()), node.WithLogger(zap.NewNop()))
	n := node.New(cfg.Node.DeviceID, &out, opts...)

	addr := cfg.Node.Address
	from := uint16(protocol.NSMStart + 1)

	// CONFSET key 0x0005 = 11 22
	set := protocol.NewFrame(from, []byte{byte(protocol.NSMConfigSet), addr, 0x05, 0x00, 0x11, 0x22})
	if err := n.Process(set); err != nil {
		t.Fatalf("Process(CONFSET) error = %v", err)
	}
	// CONFGET key 0x0005
	get := protocol.NewFrame(from, []byte{byte(protocol.NSMConfigGet), addr, 0x05, 0x00})
	if err := n.Process(get); err != nil {
		t.Fatalf("Process(CONFGET) error = %v", err)
	}
	// DISABLE 0x183
	disable := protocol.NewFrame(from, []byte{byte(protocol.NSMDisable), addr, 0x83, 0x01})
	if err := n.Process(disable); err != nil {
		t.Fatalf("Process(DISABLE) error = %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("got %d frames, want 3", len(out))
	}
	if got := out[0].Payload(); !bytes.Equal(got, []byte{byte(protocol.NSMConfigSet), 0x01, protocol.StatusOK}) {
		t.Errorf("CONFSET response = % X", got)
	}
	if got := out[1].Payload(); !bytes.Equal(got, []byte{byte(protocol.NSMConfigGet), 0x01, protocol.StatusOK, 0x11, 0x22}) {
		t.Errorf("CONFGET response = % X", got)
	}
	if s.ParameterQuery(0x183) {
		t.Error("DISABLE did not reach the store")
	}

	// Disabled parameters are suppressed
	p := protocol.Parameter{Type: 0x183}
	p.SetPayload([]byte{1})
	if err := n.SendParameter(p); err != nil {
		t.Fatalf("SendParameter() error = %v", err)
	}
	if len(out) != 3 {
		t.Error("disabled parameter was transmitted")
	}
}
