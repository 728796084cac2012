package history

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanalex/model"
)

func TestWALAppendAndReplay(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	now := NowEpoch()

	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, now))
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("あした", "明日"), pair("は", "は")}, now))
	assert.Equal(t, 2, wal.EntryCount())

	h := New()
	replayed, err := NewWAL(cp).Replay(h)
	require.NoError(t, err)
	assert.Equal(t, 2, replayed)
	assert.Greater(t, h.UnigramBoost("きょう", "今日", now), int64(0))
	assert.Greater(t, h.UnigramBoost("あした", "明日", now), int64(0))
	assert.Greater(t, h.BigramBoost("明日", "は", "は", now), int64(0))
}

func TestWALReplayUsesFrameTimestamp(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	old := uint64(1_700_000_000)
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, old))

	h := New()
	_, err := NewWAL(cp).Replay(h)
	require.NoError(t, err)
	assert.Equal(t, old, h.unigrams["きょう"]["今日"].LastUsed)
}

func TestWALTruncatedMidFrame(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	now := NowEpoch()
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, now))
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("あした", "明日")}, now))

	data, err := os.ReadFile(wal.Path())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(wal.Path(), data[:len(data)-5], 0o644))

	h := New()
	replayed, err := NewWAL(cp).Replay(h)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)
	assert.Greater(t, h.UnigramBoost("きょう", "今日", now), int64(0))
	assert.Equal(t, int64(0), h.UnigramBoost("あした", "明日", now))
}

func TestWALCorruptCRCStopsReplayBeforeFrame(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	now := NowEpoch()
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, now))
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("あした", "明日")}, now))

	// Flip a bit in the first frame's CRC.
	data, err := os.ReadFile(wal.Path())
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(wal.Path(), data, 0o644))

	h := New()
	replayed, err := NewWAL(cp).Replay(h)
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
	assert.Equal(t, int64(0), h.UnigramBoost("きょう", "今日", now))
}

func TestWALCorruptPayloadStopsReplay(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	now := NowEpoch()
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, now))

	data, err := os.ReadFile(wal.Path())
	require.NoError(t, err)
	// Corrupt a payload byte; the CRC no longer matches.
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(wal.Path(), data, 0o644))

	h := New()
	replayed, err := NewWAL(cp).Replay(h)
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
}

func TestWALTruncate(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("きょう", "今日")}, NowEpoch()))
	require.NoError(t, wal.Truncate())
	assert.Equal(t, 0, wal.EntryCount())

	info, err := os.Stat(wal.Path())
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestWALMissingFileReplaysNothing(t *testing.T) {
	wal := NewWAL(filepath.Join(t.TempDir(), "history.lxud"))
	replayed, err := wal.Replay(New())
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
}

func TestWALFrameLayout(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")
	wal := NewWAL(cp)
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("は", "は")}, 42))

	data, err := os.ReadFile(wal.Path())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 8)
	length := binary.LittleEndian.Uint32(data[4:])
	assert.Equal(t, len(data), 8+int(length))
	// Payload starts with the u64 timestamp.
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(data[8:]))
}

func TestOpenWithWALRecoversAfterCrash(t *testing.T) {
	cp := filepath.Join(t.TempDir(), "history.lxud")

	// Checkpoint one record, then two more land only in the WAL.
	h := New()
	h.Record([]model.ConvertedSegment{pair("きょう", "今日")})
	require.NoError(t, h.Save(cp))
	wal := NewWAL(cp)
	now := NowEpoch()
	require.NoError(t, wal.Append([]model.ConvertedSegment{pair("あした", "明日")}, now))

	recovered, wal2, err := OpenWithWAL(cp)
	require.NoError(t, err)
	assert.Greater(t, recovered.UnigramBoost("きょう", "今日", now), int64(0))
	assert.Greater(t, recovered.UnigramBoost("あした", "明日", now), int64(0))
	assert.Equal(t, 1, wal2.EntryCount())

	// Checkpoint then truncate: a fresh open sees everything from the
	// checkpoint alone.
	require.NoError(t, recovered.Save(cp))
	require.NoError(t, wal2.Truncate())
	again, wal3, err := OpenWithWAL(cp)
	require.NoError(t, err)
	assert.Equal(t, 0, wal3.EntryCount())
	assert.Greater(t, again.UnigramBoost("あした", "明日", now), int64(0))
}
