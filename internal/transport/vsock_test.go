package transport

import (
	"context"
	"errors"
	"testing"
)

func TestVsockDial_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &VsockDialer{ContextID: 3, Port: 5000}
	if _, err := d.Dial(ctx, "", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Dial = %v, want context.Canceled", err)
	}
}

func TestVsockClose(t *testing.T) {
	d := &VsockDialer{}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
