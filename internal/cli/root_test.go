package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lights/internal/ipc"
	"github.com/nerrad567/gray-logic-lights/internal/light"
)

type captured struct {
	path string
	cmd  light.Command
}

func run(t *testing.T, send sender, args ...string) error {
	t.Helper()
	cmd := newRootCommand(send)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "lights", cmd.Use)

	socket := cmd.PersistentFlags().Lookup("socket")
	require.NotNil(t, socket)
	assert.Equal(t, "s", socket.Shorthand)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"on", "off", "dim", "brighten", "set-brightness"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestCommandsBuildCommands(t *testing.T) {
	tests := []struct {
		args []string
		want light.Command
	}{
		{[]string{"on"}, light.TurnOn()},
		{[]string{"off"}, light.TurnOff()},
		{[]string{"dim", "10"}, light.Dim(10)},
		{[]string{"brighten", "700"}, light.Brighten(700)},
		{[]string{"set-brightness", "0"}, light.SetBrightness(0)},
		{[]string{"set-brightness", "18446744073709551615"}, light.SetBrightness(18446744073709551615)},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			var got captured
			send := func(_ context.Context, path string, cmd light.Command) error {
				got = captured{path, cmd}
				return nil
			}

			require.NoError(t, run(t, send, append(tt.args, "--socket", "/run/l.sock")...))
			assert.Equal(t, captured{"/run/l.sock", tt.want}, got)
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	never := func(context.Context, string, light.Command) error {
		t.Fatal("send must not be called")
		return nil
	}

	cases := [][]string{
		{"dim"},
		{"dim", "-5"},
		{"brighten", "lots"},
		{"set-brightness", "1", "2"},
		{"on", "now"},
	}
	for _, args := range cases {
		assert.Error(t, run(t, never, args...), "args %v", args)
	}
}

func TestSendFailure(t *testing.T) {
	send := func(context.Context, string, light.Command) error {
		return errors.New("connection refused")
	}

	err := run(t, send, "on")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending on")
}

func TestSocketEnvDefault(t *testing.T) {
	t.Setenv("LIGHTSD_SOCKET_PATH", "/var/run/lightsd.sock")

	cmd := NewRootCommand()

	assert.Equal(t, "/var/run/lightsd.sock", cmd.PersistentFlags().Lookup("socket").DefValue)
}

func TestEndToEndOverSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "lights")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "l.sock")

	ln, err := ipc.Listen(socket, 0)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var buf bytes.Buffer
		io.Copy(&buf, conn) //nolint:errcheck // test reader
		received <- buf.Bytes()
	}()

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--socket", socket, "dim", "10"})
	require.NoError(t, cmd.Execute())

	payload := <-received
	decoded, err := light.DecodeCommand(payload)
	require.NoError(t, err)
	assert.Equal(t, light.Dim(10), decoded)
}
