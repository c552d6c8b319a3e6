package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsMessage(t *testing.T) {
	var out bytes.Buffer
	s := newSpinner(context.Background(), &out, "Combining 3 images...")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Combining 3 images...") {
		t.Errorf("spinner output %q lacks the message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("spinner did not clear its line: %q", got)
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Combining 2 images...")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context was cancelled")
	}
	s.Stop()
}

func TestSpinnerStopTwice(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Exporting...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Exporting...")
	s.Stop()
}
