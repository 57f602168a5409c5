package config

import (
	"encoding/hex"
	"sync"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/node"
	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
)

// Store keeps a node configuration in memory and persists every change made
// through the node hooks. A Store with an empty path never touches disk.
type Store struct {
	mu     sync.Mutex
	cfg    *NodeConfig
	path   string
	logger *zap.Logger
}

// NewStore wraps cfg. Changes are saved to path.
func NewStore(cfg *NodeConfig, path string) *Store {
	if cfg.Parameters == nil {
		cfg.Parameters = make(map[uint16]bool)
	}
	if cfg.Values == nil {
		cfg.Values = make(map[uint16]string)
	}
	return &Store{cfg: cfg, path: path, logger: logging.GetLogger().Named("config")}
}

// OpenStore loads the configuration at path and wraps it.
func OpenStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}
	return NewStore(cfg, path), nil
}

// Path returns the file the store saves to
func (s *Store) Path() string { return s.path }

// Config returns a copy of the current configuration
func (s *Store) Config() *NodeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.clone()
}

// update applies fn and saves. When saving fails the change is rolled back.
func (s *Store) update(fn func(c *NodeConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg.clone()
	fn(s.cfg)
	if s.path == "" {
		return nil
	}
	if err := s.cfg.Save(s.path); err != nil {
		s.cfg = prev
		s.logger.Error("Failed to persist configuration", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}

// ConfigWrite stores payload under key. An empty payload deletes the key.
// Values longer than MaxValueSize are rejected with status 1.
func (s *Store) ConfigWrite(key uint16, payload []byte) byte {
	if len(payload) > MaxValueSize {
		return protocol.StatusError
	}
	err := s.update(func(c *NodeConfig) {
		if len(payload) == 0 {
			delete(c.Values, key)
			return
		}
		c.Values[key] = hex.EncodeToString(payload)
	})
	if err != nil {
		return protocol.StatusError
	}
	s.logger.Info("Configuration value written", zap.Uint16("key", key), zap.Int("len", len(payload)))
	return protocol.StatusOK
}

// ConfigRead returns the value stored under key, or status 1 when the key is
// unknown.
func (s *Store) ConfigRead(key uint16) (byte, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cfg.Values[key]
	if !ok {
		return protocol.StatusError, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return protocol.StatusError, nil
	}
	return protocol.StatusOK, b
}

// ParameterEnable records the enabled state of parameter id.
func (s *Store) ParameterEnable(id uint16, enable bool) byte {
	if err := s.update(func(c *NodeConfig) { c.Parameters[id] = enable }); err != nil {
		return protocol.StatusError
	}
	return protocol.StatusOK
}

// ParameterQuery reports whether parameter id may be sent. Parameters never
// disabled are enabled.
func (s *Store) ParameterQuery(id uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled, ok := s.cfg.Parameters[id]
	return !ok || enabled
}

// NodeChanged persists a new node address.
func (s *Store) NodeChanged(addr byte) {
	_ = s.update(func(c *NodeConfig) { c.Node.Address = addr })
}

// BitrateChanged persists a new bitrate. The host applies it to the
// interface on the next start.
func (s *Store) BitrateChanged(kbps uint32) {
	_ = s.update(func(c *NodeConfig) { c.Bitrate = kbps })
}

// Hooks returns node hooks bound to the store.
func (s *Store) Hooks() node.Hooks {
	return node.Hooks{
		ConfigWrite:     s.ConfigWrite,
		ConfigRead:      s.ConfigRead,
		ParameterEnable: s.ParameterEnable,
		ParameterQuery:  s.ParameterQuery,
		NodeChanged:     s.NodeChanged,
		BitrateChanged:  s.BitrateChanged,
	}
}
