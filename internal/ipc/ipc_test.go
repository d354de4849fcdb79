package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ymorita/soudan/internal/capture"
)

type fakeSession struct {
	status   capture.Status
	confirms int
	cancels  int
}

func (f *fakeSession) Status() capture.Status { return f.status }
func (f *fakeSession) Confirm()               { f.confirms++ }
func (f *fakeSession) Cancel()                { f.cancels++ }

func serve(t *testing.T, handler Handler) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "soudan.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, listener, handler) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-serveDone)
	})
	return socketPath
}

func TestSendRoundTrip(t *testing.T) {
	path := serve(t, HandlerFunc(func(_ context.Context, req Request) Response {
		require.Equal(t, CommandStatus, req.Command)
		return Response{OK: true, State: "recording", Message: "ok"}
	}))

	resp, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "recording", resp.State)
}

func TestHandlerStatusMergesBuffers(t *testing.T) {
	session := &fakeSession{status: capture.Status{
		State:         capture.StateRecording,
		Target:        "q1",
		AnswerBuffer:  "確定済み",
		InterimBuffer: "入力中",
	}}
	path := serve(t, NewHandler(session))

	resp, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "recording", resp.State)
	require.Equal(t, "q1", resp.Target)
	require.Equal(t, "確定済み 入力中", resp.Buffer)
	require.Zero(t, session.confirms)
}

func TestHandlerConfirmAndCancel(t *testing.T) {
	session := &fakeSession{status: capture.Status{State: capture.StateIdle}}
	path := serve(t, NewHandler(session))

	resp, err := Send(context.Background(), path, Request{Command: CommandConfirm}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, 1, session.confirms)

	resp, err = Send(context.Background(), path, Request{Command: CommandCancel}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, 1, session.cancels)
}

func TestHandlerRejectsUnknownCommand(t *testing.T) {
	path := serve(t, NewHandler(&fakeSession{}))

	resp, err := Send(context.Background(), path, Request{Command: "restart"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	path := serve(t, HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	}))

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestProbeDetectsLiveAndDeadOwners(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "soudan.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, listener, NewHandler(&fakeSession{})) }()

	alive, err := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-serveDone)

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "soudan.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	require.NoError(t, listener.Close()) // leaves the socket file behind on some systems

	got, err := Acquire(context.Background(), socketPath, 100*time.Millisecond, 2)
	require.NoError(t, err)
	require.NoError(t, got.Close())
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "soudan.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, listener, NewHandler(&fakeSession{})) }()

	_, err = Acquire(context.Background(), socketPath, 200*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-serveDone)
}
