package core

import (
	"context"
	"testing"
)

func TestContextWithLaunchID(t *testing.T) {
	ctx := context.Background()
	if id := LaunchIDFromContext(ctx); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
	ctx = ContextWithLaunchID(ctx, "launch-42")
	if id := LaunchIDFromContext(ctx); id != "launch-42" {
		t.Errorf("expected launch-42, got %q", id)
	}
}

func TestMultiNotifier(t *testing.T) {
	a := &RecordingNotifier{}
	b := &RecordingNotifier{}
	MultiNotifier{a, nil, b}.Notify(KindInfo, "Campaign paused")

	for name, rec := range map[string]*RecordingNotifier{"a": a, "b": b} {
		notices := rec.Notices()
		if len(notices) != 1 {
			t.Fatalf("%s: expected 1 notice, got %d", name, len(notices))
		}
		if notices[0].Kind != KindInfo || notices[0].Message != "Campaign paused" {
			t.Errorf("%s: unexpected notice %+v", name, notices[0])
		}
	}
}

func TestNopNotifier(t *testing.T) {
	// Should not panic
	NopNotifier.Notify(KindError, "ignored")
}
