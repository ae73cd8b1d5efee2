package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
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

// Serve accepts unix-socket clients until context cancellation or listener
// close. Each connection carries newline-delimited JSON requests and stays
// open across them, so one client can issue a toggle and then poll status on
// the same connection while the owner's session settles.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger *slog.Logger) error {
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
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler, logger)
		}(conn)
	}
}

// serveConn answers requests on one connection until the client hangs up or
// a request line cannot be decoded.
func serveConn(ctx context.Context, conn net.Conn, handler Handler, logger *slog.Logger) {
	reader := bufio.NewReader(conn)
	enc := json.NewEncoder(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
			}
			return
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
			return
		}

		resp := handler.Handle(ctx, req)
		if logger != nil {
			logger.Debug("ipc command served",
				"command", req.Command,
				"ok", resp.OK,
				"state", resp.State,
				"recording", resp.Recording,
			)
		}
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}
