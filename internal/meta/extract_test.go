package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/project-janitor/internal/meta/alstest"
	"github.com/franz/project-janitor/internal/util"
)

func TestDecodeGzipAndPlain(t *testing.T) {
	set := alstest.Arranged(2, 32)

	gz, err := Decode(set.Gzip())
	require.NoError(t, err)
	plain, err := Decode(set.XML())
	require.NoError(t, err)

	assert.Equal(t, "Ableton", gz.Root().Tag)
	assert.Equal(t, "Ableton", plain.Root().Tag)
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated gzip", []byte{0x1f, 0x8b, 0x08, 0x00}},
		{"not xml", []byte("definitely not a live set")},
		{"bad attribute", []byte("<Ableton Creator=></Ableton>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrCorrupt)
		})
	}
}

func TestExtractCounts(t *testing.T) {
	set := alstest.Set{
		Tempo: "128",
		Key:   "F#m",
		Tracks: []alstest.Track{
			{Audio: true, Plugins: 2, AudioEffects: 3, ArrangementClips: []alstest.Clip{{Start: 0, End: 64}}},
			{Plugins: 1, MidiEffects: 1, Automation: true, ArrangementClips: []alstest.Clip{{Start: 64, End: 128}}},
			{SessionClips: []alstest.Clip{{Start: 0, End: 8}}},
		},
	}

	p, err := ExtractBytes(set.Gzip(), "/music/Phases/Phase 3/Song/Song.als")
	require.NoError(t, err)

	assert.Equal(t, 3, p.TrackCount)
	assert.Equal(t, 1, p.AudioTrackCount)
	assert.Equal(t, 2, p.MidiTrackCount)
	assert.True(t, p.HasAudioTracks)
	assert.True(t, p.HasMidiTracks)
	assert.Equal(t, 3, p.PluginCount)
	assert.Equal(t, 4, p.EffectCount)
	assert.True(t, p.HasAutomation)
	assert.Equal(t, 128.0, p.Tempo)
	assert.Equal(t, "F#m", p.KeySignature)
	assert.Equal(t, "Ableton Live 11.3.4", p.LiveVersion)

	assert.Equal(t, 1, p.SessionClipCount)
	assert.Equal(t, 2, p.ArrangementClipCount)
	assert.Equal(t, 3, p.ClipCount)
	assert.True(t, p.HasArrangement)
	assert.False(t, p.SessionOnly)
	assert.Equal(t, 128.0, p.ArrangementDurationBeats)
	assert.Equal(t, 128.0, p.DurationBeats)
	assert.InDelta(t, 60.0, p.DurationSeconds, 1e-9)

	assert.Equal(t, "Song", p.ProjectName)
	assert.Equal(t, "Phase 3", p.Phase)
	assert.Len(t, p.ContentHash, 40)
}

func TestExtractDefaults(t *testing.T) {
	set := alstest.Set{Tempo: "not-a-number"}

	p, err := ExtractBytes(set.XML(), "/music/empty.als")
	require.NoError(t, err)

	assert.Equal(t, DefaultTempo, p.Tempo)
	assert.Equal(t, DefaultKey, p.KeySignature)
	assert.Equal(t, 0, p.TrackCount)
	assert.Equal(t, 0, p.ClipCount)
	assert.Equal(t, 0.0, p.DurationBeats)
	assert.False(t, p.HasArrangement)
	assert.False(t, p.SessionOnly)
	assert.Equal(t, "", p.Phase)
}

func TestExtractNonPositiveTempo(t *testing.T) {
	for _, tempo := range []string{"0", "-90", "NaN"} {
		p, err := ExtractBytes(alstest.Set{Tempo: tempo}.XML(), "/x.als")
		require.NoError(t, err)
		assert.Equal(t, DefaultTempo, p.Tempo, "tempo %q", tempo)
	}
}

func TestExtractWithoutWrapper(t *testing.T) {
	set := alstest.Arranged(4, 16)
	set.NoWrapper = true

	p, err := ExtractBytes(set.XML(), "/music/bare.als")
	require.NoError(t, err)

	assert.Equal(t, 4, p.TrackCount)
	assert.Equal(t, 4, p.ArrangementClipCount)
	assert.Equal(t, "", p.LiveVersion)
}

func TestSessionOnly(t *testing.T) {
	set := alstest.Set{
		Tempo: "120",
		Tracks: []alstest.Track{
			{SessionClips: []alstest.Clip{{Start: 0, End: 4}, {Start: 0, End: 8}}},
			{Audio: true, SessionClips: []alstest.Clip{{Tag: "AudioClip", Start: 0, NoEnd: true}}},
		},
	}

	p, err := ExtractBytes(set.XML(), "/music/jam.als")
	require.NoError(t, err)

	assert.Equal(t, 3, p.SessionClipCount)
	assert.Equal(t, 0, p.ArrangementClipCount)
	assert.True(t, p.SessionOnly)
	assert.False(t, p.HasArrangement)
	assert.False(t, p.HasArrangement && p.SessionOnly)
	// Falls back to the largest explicit session end
	assert.Equal(t, 8.0, p.DurationBeats)
}

func TestArrangementFallbackLength(t *testing.T) {
	set := alstest.Set{
		Tempo: "120",
		Tracks: []alstest.Track{
			{ArrangementClips: []alstest.Clip{{Start: 32, NoEnd: true}}},
		},
	}

	p, err := ExtractBytes(set.XML(), "/music/x.als")
	require.NoError(t, err)

	assert.Equal(t, 1, p.ArrangementClipCount)
	assert.Equal(t, 48.0, p.ArrangementDurationBeats)
	assert.Equal(t, 48.0, p.DurationBeats)
}

func TestClipsReachableTwiceCountOnce(t *testing.T) {
	// Every session clip in the fixture is reachable through both session
	// strategies, and every arrangement clip through two arrangement strategies.
	set := alstest.Set{
		Tempo: "120",
		Tracks: []alstest.Track{{
			SessionClips:     []alstest.Clip{{Start: 0, End: 4}},
			ArrangementClips: []alstest.Clip{{Start: 0, End: 4}, {Start: 4, End: 8}},
		}},
	}

	p, err := ExtractBytes(set.XML(), "/music/x.als")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SessionClipCount)
	assert.Equal(t, 2, p.ArrangementClipCount)
	assert.Equal(t, 3, p.ClipCount)
}

func TestArrangerEventsInsideSlotListAreSession(t *testing.T) {
	doc := []byte(`<Ableton><LiveSet><Tracks><MidiTrack>
		<ClipSlotList><ClipSlot><ArrangerAutomation><Events>
			<MidiClip Time="0"><CurrentEnd Value="4"/></MidiClip>
		</Events></ArrangerAutomation></ClipSlot></ClipSlotList>
	</MidiTrack></Tracks></LiveSet></Ableton>`)

	p, err := ExtractBytes(doc, "/music/x.als")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SessionClipCount)
	assert.Equal(t, 0, p.ArrangementClipCount)
	assert.True(t, p.SessionOnly)
}

func TestFrozenTrackRendersAreIgnored(t *testing.T) {
	doc := []byte(`<Ableton><LiveSet><Tracks><MidiTrack><DeviceChain>
		<MainSequencer>
			<ClipSlotList><ClipSlot><ClipSlot><Value>
				<MidiClip Time="0"><CurrentEnd Value="4"/></MidiClip>
			</Value></ClipSlot></ClipSlot></ClipSlotList>
			<ClipTimeable><ArrangerAutomation><Events>
				<MidiClip Time="0"><CurrentEnd Value="32"/></MidiClip>
			</Events></ArrangerAutomation></ClipTimeable>
		</MainSequencer>
		<FreezeSequencer>
			<ClipSlotList><ClipSlot><ClipSlot><Value>
				<AudioClip Time="0"><CurrentEnd Value="4"/></AudioClip>
			</Value></ClipSlot></ClipSlot></ClipSlotList>
			<Sample><ArrangerAutomation><Events>
				<AudioClip Time="0"><CurrentEnd Value="64"/></AudioClip>
			</Events></ArrangerAutomation></Sample>
		</FreezeSequencer>
	</DeviceChain></MidiTrack></Tracks></LiveSet></Ableton>`)

	p, err := ExtractBytes(doc, "/music/frozen.als")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SessionClipCount)
	assert.Equal(t, 1, p.ArrangementClipCount)
	assert.Equal(t, 2, p.ClipCount)
	assert.InDelta(t, 32.0, p.ArrangementDurationBeats, 1e-9)
}

func TestClipTiming(t *testing.T) {
	doc := []byte(`<Ableton><LiveSet><Tracks><MidiTrack><DeviceChain><MainSequencer>
		<ClipTimeable><ArrangerAutomation><Events>
			<MidiClip Time="10" CurrentLength="6"/>
			<MidiClip CurrentStart="20"><CurrentLength Value="2"/></MidiClip>
		</Events></ArrangerAutomation></ClipTimeable>
	</MainSequencer></DeviceChain></MidiTrack></Tracks></LiveSet></Ableton>`)

	p, err := ExtractBytes(doc, "/music/x.als")
	require.NoError(t, err)

	assert.Equal(t, 2, p.ArrangementClipCount)
	assert.Equal(t, 22.0, p.ArrangementDurationBeats)
}

func TestExtractDeterministic(t *testing.T) {
	data := alstest.Arranged(6, 96).Gzip()

	a, err := ExtractBytes(data, "/music/a.als")
	require.NoError(t, err)
	b, err := ExtractBytes(data, "/music/a.als")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	projectDir := filepath.Join(dir, "Phases", "Phase 1", "Tune Project")
	path := filepath.Join(projectDir, "Tune.als")
	alstest.Write(t, path, alstest.Arranged(2, 32))

	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "Samples"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "Samples", "kick.wav"), make([]byte, 1000), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "Audio"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "Audio", "vox.wav"), make([]byte, 500), 0o644))

	p, err := ExtractFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), p.AudioFolderSize)
	assert.Greater(t, p.FileSize, int64(0))
	assert.False(t, p.LastModified.IsZero())
	assert.Equal(t, "Phase 1", p.Phase)
	assert.Equal(t, "Tune", p.ProjectName)
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "gone.als"))
	assert.ErrorIs(t, err, util.ErrNotFound)
}
