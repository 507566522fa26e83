package trace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxtalk/internal/assistant"
)

func TestJournalSummary(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "data", "trace.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	outcomes := []assistant.Outcome{
		assistant.OutcomeNoTranscript,
		assistant.OutcomeSpoken,
		assistant.OutcomeNoTranscript,
		assistant.OutcomeInterrupted,
	}
	for i, o := range outcomes {
		j.TurnDone(ctx, assistant.Turn{
			SessionID:  "sess-1",
			Index:      i,
			Outcome:    o,
			Transcript: "never stored",
			Started:    time.Now(),
			Listen:     1500 * time.Millisecond,
		})
	}
	require.NoError(t, j.Record(ctx, assistant.Turn{SessionID: "sess-2", Outcome: assistant.OutcomeNoReply}))

	got, err := j.Summary(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"no_transcript": 2, "spoken": 1, "interrupted": 1}, got)

	var listen int64
	require.NoError(t, j.db.QueryRow(`SELECT listen_ms FROM turns WHERE session_id = 'sess-1' AND turn_index = 1`).Scan(&listen))
	assert.EqualValues(t, 1500, listen)
}

func TestJournalRejectsDuplicateTurn(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer j.Close()

	turn := assistant.Turn{SessionID: "s", Index: 0, Outcome: assistant.OutcomeSpoken}
	require.NoError(t, j.Record(context.Background(), turn))
	assert.Error(t, j.Record(context.Background(), turn))
}
