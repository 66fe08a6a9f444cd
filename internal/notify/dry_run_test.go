package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type countingNotifier struct {
	calls  int
	events []Event
	err    error
}

func (n *countingNotifier) Notify(_ context.Context, event Event) error {
	n.calls++
	n.events = append(n.events, event)
	return n.err
}

func TestDryRunNotifierLogsInsteadOfSending(t *testing.T) {
	var buf bytes.Buffer
	dryRun := NewDryRunNotifier(zerolog.New(&buf))

	if err := dryRun.Notify(context.Background(), failedEvent("/data/notes.zk")); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[DRY-RUN] Would notify") {
		t.Fatalf("expected dry-run log line, got %s", out)
	}
	if !strings.Contains(out, `"store":"bookmarks"`) || !strings.Contains(out, `"target":"/data/notes.zk"`) {
		t.Fatalf("expected event fields in log, got %s", out)
	}
}
