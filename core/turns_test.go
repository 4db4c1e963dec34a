package session

import "testing"

func TestPlaceholderConfirmsExactlyOnce(t *testing.T) {
	log := &turnLog{}

	placeholder := log.appendPlaceholder("…")
	confirmed, ok := log.confirm(placeholder.ID, "hello there", "en")
	if !ok {
		t.Fatalf("failed to confirm placeholder")
	}
	if confirmed.Content != "hello there" || confirmed.Language != "en" {
		t.Fatalf("unexpected confirmed turn: %+v", confirmed)
	}

	if _, ok := log.confirm(placeholder.ID, "something else", "en"); ok {
		t.Fatalf("confirmed the same placeholder twice")
	}
}

func TestConfirmIgnoresRegularTurns(t *testing.T) {
	log := &turnLog{}

	turn := log.append(Turn{Role: TurnRoleUser, Content: "Hello"})
	if _, ok := log.confirm(turn.ID, "rewritten", ""); ok {
		t.Fatalf("rewrote a non-pending turn")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	log := &turnLog{}
	log.append(Turn{Role: TurnRoleUser, Content: "Hello"})

	snapshot := log.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected one turn, got %d", len(snapshot))
	}

	snapshot[0].Content = "mutated"
	if log.Snapshot()[0].Content != "Hello" {
		t.Fatalf("snapshot mutation leaked into the log")
	}
}
