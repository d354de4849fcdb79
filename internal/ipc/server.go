package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/ymorita/soudan/internal/capture"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Session is the slice of the capture controller the control socket needs.
type Session interface {
	Status() capture.Status
	Confirm()
	Cancel()
}

// NewHandler maps protocol commands onto a running capture session.
func NewHandler(session Session) Handler {
	return HandlerFunc(func(_ context.Context, req Request) Response {
		if !KnownCommand(req.Command) {
			return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}

		switch req.Command {
		case CommandConfirm:
			session.Confirm()
		case CommandCancel:
			session.Cancel()
		}

		status := session.Status()
		buffer := status.AnswerBuffer
		if status.InterimBuffer != "" {
			if buffer != "" {
				buffer += " "
			}
			buffer += status.InterimBuffer
		}
		return Response{
			OK:     true,
			State:  string(status.State),
			Target: status.Target,
			Buffer: buffer,
		}
	})
}

// Serve accepts unix-socket clients until context cancellation or listener close.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept control connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()

			reader := bufio.NewReader(c)
			line, err := reader.ReadBytes('\n')
			if err != nil {
				_ = json.NewEncoder(c).Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
				return
			}

			var req Request
			if err := json.Unmarshal(line, &req); err != nil {
				_ = json.NewEncoder(c).Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
				return
			}

			resp := handler.Handle(ctx, req)
			_ = json.NewEncoder(c).Encode(resp)
		}(conn)
	}
}
