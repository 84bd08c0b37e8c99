package meta

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

const (
	// DefaultTempo is used when the master track declares no usable tempo
	DefaultTempo = 120.0

	// DefaultKey is used when no key signature is present
	DefaultKey = "C"
)

// AudioFolders are the project subfolders counted towards audio_folder_size
var AudioFolders = []string{"Samples", "Audio"}

// ExtractFile reads a project file from disk and returns its analysis fields.
// Scores are not computed here.
func ExtractFile(path string) (*store.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	size, mtime, err := util.GetFileMetadata(abs)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", util.ClassifyIOError(err))
	}

	p, err := ExtractBytes(data, abs)
	if err != nil {
		return nil, err
	}

	p.FileSize = size
	p.LastModified = mtime

	dir := filepath.Dir(abs)
	for _, folder := range AudioFolders {
		p.AudioFolderSize += util.FolderSize(filepath.Join(dir, folder))
	}

	return p, nil
}

// ExtractBytes analyses the raw bytes of a project stored at path. Only the
// path-derived and document-derived fields are filled.
func ExtractBytes(data []byte, path string) (*store.Project, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	p := &store.Project{
		FilePath:    path,
		ProjectName: ProjectName(path),
		Phase:       PhaseFromPath(path),
		ContentHash: util.ContentHash(data),
		LiveVersion: liveVersion(doc),
	}

	analyzeDocument(container(doc), p)
	return p, nil
}

// analyzeDocument fills structural, musical and clip fields from the container
func analyzeDocument(ls *etree.Element, p *store.Project) {
	audioTracks, midiTracks := tracks(ls)
	p.AudioTrackCount = len(audioTracks)
	p.MidiTrackCount = len(midiTracks)
	p.TrackCount = p.AudioTrackCount + p.MidiTrackCount
	p.HasAudioTracks = p.AudioTrackCount > 0
	p.HasMidiTracks = p.MidiTrackCount > 0

	p.PluginCount = countTags(ls, "PluginDevice", "AuPluginDevice")
	p.EffectCount = countTags(ls, "AudioEffect", "MidiEffect")
	p.HasAutomation = ls.FindElement(".//AutomationEnvelope") != nil

	master := masterTrack(ls)
	p.Tempo = tempo(master)
	p.KeySignature = keySignature(master)

	session := newClipSet()
	arrangement := newClipSet()
	all := make([]*etree.Element, 0, p.TrackCount)
	all = append(all, audioTracks...)
	all = append(all, midiTracks...)
	for _, track := range all {
		collect(track, sessionStrategies, session, nil)
	}
	for _, track := range all {
		collect(track, arrangementStrategies, arrangement, session)
	}

	p.SessionClipCount = session.len()
	p.ArrangementClipCount = arrangement.len()
	p.ClipCount = session.len() + arrangement.len()

	var arrangementBeats, explicitMax float64
	for _, clip := range arrangement.order {
		if end := arrangementEnd(clip); end > arrangementBeats {
			arrangementBeats = end
		}
	}
	for _, clips := range [][]*etree.Element{session.order, arrangement.order} {
		for _, clip := range clips {
			if end, ok := clipEnd(clip, clipStart(clip)); ok && end > explicitMax {
				explicitMax = end
			}
		}
	}
	p.ArrangementDurationBeats = arrangementBeats

	p.HasArrangement = p.ArrangementClipCount > 0 || arrangementBeats > 0
	p.SessionOnly = p.SessionClipCount > 0 && !p.HasArrangement

	if p.HasArrangement && arrangementBeats > 0 {
		p.DurationBeats = arrangementBeats
	} else {
		p.DurationBeats = explicitMax
	}
	p.DurationSeconds = p.DurationBeats * 60 / p.Tempo
}

// tracks returns the audio-bearing and instrument-bearing tracks
func tracks(ls *etree.Element) (audio, midi []*etree.Element) {
	if t := ls.SelectElement("Tracks"); t != nil {
		return t.SelectElements("AudioTrack"), t.SelectElements("MidiTrack")
	}
	return ls.FindElements(".//AudioTrack"), ls.FindElements(".//MidiTrack")
}

func countTags(e *etree.Element, tags ...string) int {
	n := 0
	for _, tag := range tags {
		n += len(e.FindElements(".//" + tag))
	}
	return n
}

// masterTrack finds the master track; newer sets call it MainTrack
func masterTrack(ls *etree.Element) *etree.Element {
	for _, tag := range []string{"MasterTrack", "MainTrack"} {
		if m := ls.FindElement(".//" + tag); m != nil {
			return m
		}
	}
	return nil
}

func tempo(master *etree.Element) float64 {
	if master == nil {
		return DefaultTempo
	}
	manual := master.FindElement(".//Tempo//Manual")
	if manual == nil {
		return DefaultTempo
	}
	v, ok := floatAttr(manual, "Value")
	if !ok || v <= 0 {
		return DefaultTempo
	}
	return v
}

func keySignature(master *etree.Element) string {
	if master == nil {
		return DefaultKey
	}
	manual := master.FindElement(".//KeySignature//Manual")
	if manual == nil {
		return DefaultKey
	}
	for _, key := range []string{"Value", "Key"} {
		if v := manual.SelectAttrValue(key, ""); v != "" {
			return v
		}
	}
	return DefaultKey
}
