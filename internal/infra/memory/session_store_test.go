package memory

import (
	"context"
	"testing"
)

func TestSessionSlotsLifecycle(t *testing.T) {
	ctx := context.Background()
	slots := NewSessionSlots()

	ok, err := slots.Acquire(ctx, "process", "s1")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	if ok, _ := slots.Acquire(ctx, "process", "s2"); ok {
		t.Fatalf("expected slot to be busy")
	}
	if ok, _ := slots.Acquire(ctx, "channel:c2", "s2"); !ok {
		t.Fatalf("expected independent slot to be free")
	}

	_ = slots.Release(ctx, "process", "s2")
	if holder, _ := slots.Holder("process"); holder != "s1" {
		t.Fatalf("expected release by non-holder to be ignored, holder=%q", holder)
	}

	_ = slots.Release(ctx, "process", "s1")
	if _, ok := slots.Holder("process"); ok {
		t.Fatalf("expected slot released")
	}
}

func TestSessionSlotsRefreshChecksHolder(t *testing.T) {
	ctx := context.Background()
	slots := NewSessionSlots()

	if err := slots.Refresh(ctx, "process", "s1"); err == nil {
		t.Fatalf("expected refresh of free slot to fail")
	}
	_, _ = slots.Acquire(ctx, "process", "s1")
	if err := slots.Refresh(ctx, "process", "s1"); err != nil {
		t.Fatalf("refresh by holder: %v", err)
	}
	if err := slots.Refresh(ctx, "process", "s2"); err == nil {
		t.Fatalf("expected refresh by non-holder to fail")
	}
}
