package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is one exchange unit in the conversation history.
type Turn struct {
	ID        string
	Role      TurnRole
	Content   string
	Timestamp time.Time
	Language  string
	IsError   bool

	// pending marks a user turn whose content is a placeholder awaiting
	// transcription. It may be confirmed at most once.
	pending bool
}

// turnLog is the append-only turn sequence. Mutated only from the runtime
// loop; external readers get deep-copied snapshots.
type turnLog struct {
	mu    sync.RWMutex
	turns []Turn
}

func (l *turnLog) append(turn Turn) Turn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
	return turn
}

// appendPlaceholder appends a user turn whose content is confirmed later.
func (l *turnLog) appendPlaceholder(content string) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      TurnRoleUser,
		Content:   content,
		Timestamp: time.Now(),
		pending:   true,
	}

	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
	return turn
}

// confirm replaces a placeholder's content in place. It is the only turn
// mutation that exists and applies at most once per turn.
func (l *turnLog) confirm(id, content, language string) (Turn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.turns {
		if l.turns[i].ID != id {
			continue
		}
		if !l.turns[i].pending {
			return Turn{}, false
		}
		l.turns[i].Content = content
		l.turns[i].Language = language
		l.turns[i].pending = false
		return l.turns[i], true
	}
	return Turn{}, false
}

func (l *turnLog) clear() {
	l.mu.Lock()
	l.turns = nil
	l.mu.Unlock()
}

func (l *turnLog) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Snapshot returns a deep copy of the turn sequence.
func (l *turnLog) Snapshot() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := []Turn{}
	if err := copier.Copy(&snapshot, &l.turns); err != nil {
		// copier only fails on incompatible shapes, which would be a
		// programming error here.
		logger.Error("Failed to snapshot turns", "error", err)
		return nil
	}
	return snapshot
}
