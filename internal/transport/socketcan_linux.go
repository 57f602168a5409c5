//go:build linux

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/muurk/canfix/internal/protocol"
	"golang.org/x/sys/unix"
)

// pollInterval bounds how long a blocked Send/Receive waits before it
// rechecks the context, in milliseconds.
const pollInterval = 50

// socketCAN implements Bus over a Linux raw CAN socket.
//
// Every syscall on fd runs under a read lock and Close takes the write
// lock, so the descriptor is never released while a Read, Write or Poll
// still refers to it. Poll timeouts bound how long Close waits.
type socketCAN struct {
	fd     int
	iface  string
	mu     sync.RWMutex
	closed bool
}

// DialSocketCAN opens a raw CAN socket bound to the given interface name (e.g., "can0").
func DialSocketCAN(iface string) (Bus, error) {
	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", iface, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("open CAN socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netIf.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", iface, err)
	}

	// Non-blocking so Send/Receive can observe context cancellation.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}

	return &socketCAN{fd: fd, iface: iface}, nil
}

func (s *socketCAN) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

// do runs fn on the open descriptor, or reports ErrClosed.
func (s *socketCAN) do(fn func(fd int) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.fd)
}

// wait blocks until the socket is ready for events, the context ends or the
// socket is closed.
func (s *socketCAN) wait(ctx context.Context, events int16) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ready bool
		err := s.do(func(fd int) error {
			fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
			n, err := unix.Poll(fds, pollInterval)
			ready = n > 0
			return err
		})
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, ErrClosed) {
			return err
		}
		if err != nil {
			return fmt.Errorf("poll %s: %w", s.iface, err)
		}
		if ready {
			return nil
		}
	}
}

// Send writes one frame using the Linux can_frame binary layout.
func (s *socketCAN) Send(ctx context.Context, frame protocol.Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	for {
		var n int
		werr := s.do(func(fd int) (err error) {
			n, err = unix.Write(fd, buf)
			return err
		})
		if werr == nil {
			if n != len(buf) {
				return errors.New("transport: short write")
			}
			return nil
		}
		if errors.Is(werr, ErrClosed) {
			return ErrClosed
		}
		if !errors.Is(werr, unix.EAGAIN) {
			return fmt.Errorf("write %s: %w", s.iface, werr)
		}
		if err := s.wait(ctx, unix.POLLOUT); err != nil {
			return err
		}
	}
}

// Receive reads one frame, blocking until one arrives or ctx is done.
// Extended, RTR and error frames are skipped.
func (s *socketCAN) Receive(ctx context.Context) (protocol.Frame, error) {
	buf := make([]byte, protocol.WireSize)
	for {
		var n int
		rerr := s.do(func(fd int) (err error) {
			n, err = unix.Read(fd, buf)
			return err
		})
		if rerr == nil {
			if n != len(buf) {
				return protocol.Frame{}, errors.New("transport: short read")
			}
			var f protocol.Frame
			if err := f.UnmarshalBinary(buf); err != nil {
				continue
			}
			return f, nil
		}
		if errors.Is(rerr, ErrClosed) {
			return protocol.Frame{}, ErrClosed
		}
		if !errors.Is(rerr, unix.EAGAIN) {
			return protocol.Frame{}, fmt.Errorf("read %s: %w", s.iface, rerr)
		}
		if err := s.wait(ctx, unix.POLLIN); err != nil {
			return protocol.Frame{}, err
		}
	}
}
