package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketledger/core/types"
)

type stubEvent struct {
	evt *types.Event
}

func (e stubEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e stubEvent) Event() *types.Event { return e.evt }

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare.event" }

func openTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	ix, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ix.Close()) })
	return ix
}

func TestEmitAndQueryByType(t *testing.T) {
	ix := openTestIndexer(t)

	ix.Emit(stubEvent{evt: &types.Event{Type: "market.purchased", Attributes: map[string]string{
		"productId": "1",
		"price":     "100000000",
	}}})
	ix.Emit(stubEvent{evt: &types.Event{Type: "market.confirmed", Attributes: map[string]string{
		"productId": "1",
	}}})
	ix.Emit(stubEvent{evt: &types.Event{Type: "market.purchased", Attributes: map[string]string{
		"productId": "2",
	}}})

	count, err := ix.Count()
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	purchased, err := ix.ByType("market.purchased", 10)
	require.NoError(t, err)
	require.Len(t, purchased, 2)
	require.Equal(t, "1", purchased[0].Attributes["productId"])
	require.Equal(t, "100000000", purchased[0].Attributes["price"])
	require.Equal(t, "2", purchased[1].Attributes["productId"])
	require.Less(t, purchased[0].Seq, purchased[1].Seq)
}

func TestEmitEventWithoutPayload(t *testing.T) {
	ix := openTestIndexer(t)
	ix.Emit(bareEvent{})

	stored, err := ix.ByType("bare.event", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Empty(t, stored[0].Attributes)
	require.False(t, stored[0].CreatedAt.IsZero())
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	ix := openTestIndexer(t)
	ix.Emit(stubEvent{evt: &types.Event{Type: "a", Attributes: map[string]string{}}})
	ix.Emit(stubEvent{evt: &types.Event{Type: "b", Attributes: map[string]string{}}})

	recent, err := ix.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "b", recent[0].Type)
	require.Equal(t, "a", recent[1].Type)
}

func TestByTypeHonorsLimit(t *testing.T) {
	ix := openTestIndexer(t)
	for i := 0; i < 5; i++ {
		ix.Emit(stubEvent{evt: &types.Event{Type: "a", Attributes: map[string]string{}}})
	}
	stored, err := ix.ByType("a", 3)
	require.NoError(t, err)
	require.Len(t, stored, 3)
}

func TestNilEventIgnored(t *testing.T) {
	ix := openTestIndexer(t)
	ix.Emit(nil)
	count, err := ix.Count()
	require.NoError(t, err)
	require.Zero(t, count)
}
