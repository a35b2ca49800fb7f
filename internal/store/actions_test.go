package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

func testRecord(seq int64, a ruleflow.Action) ruleflow.ActionRecord {
	return ruleflow.ActionRecord{
		Seq:         seq,
		Action:      a,
		Description: a.Describe(),
		ResultHash:  "hash-" + a.Describe(),
		RecordedAt:  time.Date(2024, 1, 1, 0, 0, int(seq), 123, time.UTC),
	}
}

func TestAppendAction_ReadBackInSeqOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	recs := []ruleflow.ActionRecord{
		testRecord(2, ruleflow.ReorderPackage{ID: "p1", NewIndex: 1}),
		testRecord(1, ruleflow.AddPackage{Package: ruleflow.Package{ID: "p1", Name: "A"}}),
		testRecord(3, ruleflow.UpdatePackage{ID: "p1", Fields: ruleflow.PackageFields{Condition: ruleflow.SetNull()}}),
	}
	for _, r := range recs {
		require.NoError(t, s.AppendAction(ctx, "app", "rt", r))
	}

	got, err := s.ReadActions(ctx, "app", "rt", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Equal(t, recs[1].Action, got[0].Action)
	assert.Equal(t, recs[1].RecordedAt, got[0].RecordedAt)

	upd := got[2].Action.(ruleflow.UpdatePackage)
	assert.True(t, upd.Fields.Condition.Set, "explicit null survives storage")
	assert.Nil(t, upd.Fields.Condition.Value)

	tail, err := s.ReadActions(ctx, "app", "rt", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Seq)
}

func TestAppendAction_DuplicateSeqIgnored(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.AppendAction(ctx, "app", "rt", testRecord(1, ruleflow.DeletePackage{ID: "a"})))
	require.NoError(t, s.AppendAction(ctx, "app", "rt", testRecord(1, ruleflow.DeletePackage{ID: "b"})))

	got, err := s.ReadActions(ctx, "app", "rt", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ruleflow.DeletePackage{ID: "a"}, got[0].Action)
}

func TestLastSeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	seq, err := s.LastSeq(ctx, "app", "rt")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.AppendAction(ctx, "app", "rt", testRecord(7, ruleflow.DeletePackage{ID: "a"})))
	require.NoError(t, s.AppendAction(ctx, "app", "other", testRecord(9, ruleflow.DeletePackage{ID: "a"})))

	seq, err = s.LastSeq(ctx, "app", "rt")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestCountActionHash(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	a := ruleflow.MovePackage{ID: "p", Direction: ruleflow.Up}

	require.NoError(t, s.AppendAction(ctx, "app", "rt", testRecord(1, a)))
	require.NoError(t, s.AppendAction(ctx, "app", "rt", testRecord(2, a)))

	h, err := ruleflow.ActionHash(a)
	require.NoError(t, err)
	n, err := s.CountActionHash(ctx, "app", "rt", h)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReadActions_Empty(t *testing.T) {
	got, err := createTestStore(t).ReadActions(context.Background(), "app", "rt", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
