package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
)

func TestIOFromContext(t *testing.T) {
	in := strings.NewReader("input")
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	tests := []struct {
		name    string
		ctx     context.Context
		wantIn  io.Reader
		wantOut io.Writer
		wantErr io.Writer
	}{
		{"nil context", nil, os.Stdin, os.Stdout, os.Stderr},
		{"empty context", context.Background(), os.Stdin, os.Stdout, os.Stderr},
		{"nil streams", withIO(context.Background(), nil, nil, nil), os.Stdin, os.Stdout, os.Stderr},
		{"bound streams", withIO(context.Background(), in, out, errBuf), in, out, errBuf},
		{"partial", withIO(context.Background(), nil, out, nil), os.Stdin, out, os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stdinFromContext(tt.ctx); got != tt.wantIn {
				t.Errorf("stdin = %v, want %v", got, tt.wantIn)
			}
			if got := stdoutFromContext(tt.ctx); got != tt.wantOut {
				t.Errorf("stdout = %v, want %v", got, tt.wantOut)
			}
			if got := stderrFromContext(tt.ctx); got != tt.wantErr {
				t.Errorf("stderr = %v, want %v", got, tt.wantErr)
			}
		})
	}
}

func TestErrorFormatContext(t *testing.T) {
	if got := ErrorFormatFromContext(context.Background()); got != "" {
		t.Errorf("expected empty error format, got %q", got)
	}
	if got := ErrorFormatFromContext(nil); got != "" { //nolint:staticcheck // nil context is tolerated
		t.Errorf("expected empty error format for nil context, got %q", got)
	}
	ctx := WithErrorFormat(context.Background(), "yaml")
	if got := ErrorFormatFromContext(ctx); got != "yaml" {
		t.Errorf("expected yaml, got %q", got)
	}
}
