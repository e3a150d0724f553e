package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// DefaultMaxPayload bounds a single command read. An encoded command is
// at most 11 bytes; the margin leaves room for format changes.
const DefaultMaxPayload = 64

// Listen removes a stale socket file at path and binds a new unix
// listener there.
//
// A missing file is not an error; any other removal failure is. When
// mode is non-zero the socket file permissions are set to it.
func Listen(path string, mode fs.FileMode) (*net.UnixListener, error) {
	if err := RemoveSocket(path); err != nil {
		return nil, err
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("binding socket at %s: %w", path, err)
	}
	// The daemon removes the file itself on shutdown.
	ln.SetUnlinkOnClose(false)

	if mode != 0 {
		if err := os.Chmod(path, mode); err != nil {
			ln.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("setting socket permissions on %s: %w", path, err)
		}
	}

	return ln, nil
}

// RemoveSocket deletes the socket file at path, ignoring "not found".
func RemoveSocket(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting old socket at %s: %w", path, err)
	}
	return nil
}

// ReadPayload reads everything the client writes until it closes its
// side of the connection.
//
// At most maxSize bytes are accepted (DefaultMaxPayload when zero or
// negative). When timeout is positive the whole read must complete
// within it.
func ReadPayload(conn net.Conn, maxSize int64, timeout time.Duration) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxPayload
	}
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("setting read deadline: %w", err)
		}
	}

	data, err := io.ReadAll(io.LimitReader(conn, maxSize+1))
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrReadTimeout, err)
		}
		return nil, fmt.Errorf("reading command: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, maxSize)
	}

	return data, nil
}

// Send connects to the daemon socket at path and writes one command.
func Send(ctx context.Context, path string, cmd light.Command) error {
	payload, err := light.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return fmt.Errorf("closing write side: %w", err)
		}
	}

	return nil
}
