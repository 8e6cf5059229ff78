package grpc

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	logging.NopLogger
	mu   sync.Mutex
	msgs []string
	args [][]any
}

func (l *recordingLogger) Info(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}

func (l *recordingLogger) With(...any) logging.Logger { return l }

func argValue(args []any, key string) any {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	return nil
}

func TestLoggingInterceptor(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"ok", nil, "OK"},
		{"not found", status.Error(codes.NotFound, "missing"), "NotFound"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &recordingLogger{}
			s := NewGRPCServer("", log)

			info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
			called := false
			h := func(ctx context.Context, req any) (any, error) {
				called = true
				return "resp", tc.err
			}

			resp, err := s.loggingInterceptor(context.Background(), "req", info, h)
			if !called {
				t.Fatal("handler was not called")
			}
			if err != tc.err {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if resp != "resp" {
				t.Fatalf("resp = %v", resp)
			}
			if len(log.msgs) != 1 {
				t.Fatalf("logged %d messages, want 1", len(log.msgs))
			}
			if got := argValue(log.args[0], "method"); got != info.FullMethod {
				t.Fatalf("method = %v", got)
			}
			if got := argValue(log.args[0], "code"); got != tc.wantCode {
				t.Fatalf("code = %v, want %s", got, tc.wantCode)
			}
		})
	}
}
