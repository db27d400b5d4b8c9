package audit

import (
	"context"
	"testing"

	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/types"
)

func TestEntryHash(t *testing.T) {
	actorID := types.NewID()
	e := NewEntry("request.created", &actorID, "request", "r-1",
		map[string]any{"severity": "high"}, "genesis")

	if !e.VerifyHash() {
		t.Error("fresh entry must verify")
	}

	e.SubjectID = "r-2"
	if e.VerifyHash() {
		t.Error("tampered entry must not verify")
	}
}

func TestEntryHashDeterministic(t *testing.T) {
	actorID := types.NewID()
	e := NewEntry("task.assigned", &actorID, "task", "t-1",
		map[string]any{"b": 2, "a": 1, "nested": map[string]any{"z": true, "y": false}}, "genesis")

	first := e.computeHash()
	for i := 0; i < 10; i++ {
		if got := e.computeHash(); got != first {
			t.Fatalf("hash unstable: %s vs %s", got, first)
		}
	}
}

func TestVerifyChain(t *testing.T) {
	buildChain := func(n int) []*Entry {
		var chain []*Entry
		prev := "genesis"
		for i := 0; i < n; i++ {
			e := NewEntry("request.created", nil, "request", "r", nil, prev)
			prev = e.Hash
			chain = append(chain, e)
		}
		return chain
	}

	t.Run("intact", func(t *testing.T) {
		if got := VerifyChain(buildChain(5)); got != -1 {
			t.Errorf("VerifyChain = %d, want -1", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := VerifyChain(nil); got != -1 {
			t.Errorf("VerifyChain = %d, want -1", got)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		chain := buildChain(5)
		chain[2].SubjectID = "forged"
		if got := VerifyChain(chain); got != 2 {
			t.Errorf("VerifyChain = %d, want 2", got)
		}
	})

	t.Run("broken link", func(t *testing.T) {
		chain := buildChain(5)
		// Remove an entry; the successor's prev link no longer matches
		chain = append(chain[:2], chain[3:]...)
		if got := VerifyChain(chain); got != 2 {
			t.Errorf("VerifyChain = %d, want 2", got)
		}
	})
}

func TestRecorderChainsEntries(t *testing.T) {
	repo := NewMemoryRepository()
	rec := NewRecorder(repo)
	bus := events.NewMemoryBus()
	ctx := context.Background()

	if err := rec.Start(ctx, bus); err != nil {
		t.Fatalf("Start: %v", err)
	}

	actorID := types.NewID()
	for _, eventType := range []string{"request.created", "task.assigned", "task.completed"} {
		event := events.NewEvent(eventType, "request", map[string]any{
			"requestId": "r-1",
		}).WithActor(actorID, "official")
		if err := bus.Publish(ctx, event); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	chain, err := repo.ListChain(ctx)
	if err != nil {
		t.Fatalf("ListChain: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3", len(chain))
	}
	if chain[0].PrevHash != "genesis" {
		t.Errorf("first prevHash = %s, want genesis", chain[0].PrevHash)
	}
	if got := VerifyChain(chain); got != -1 {
		t.Errorf("VerifyChain = %d, want -1", got)
	}
	if chain[1].EventType != "task.assigned" {
		t.Errorf("eventType = %s, want task.assigned", chain[1].EventType)
	}
	if chain[0].SubjectID != "r-1" {
		t.Errorf("subjectId = %s, want r-1", chain[0].SubjectID)
	}
	if chain[0].ActorID == nil || *chain[0].ActorID != actorID {
		t.Error("actorId must be recorded")
	}
}
