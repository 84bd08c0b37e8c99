// Package alstest builds synthetic Live set documents for tests.
package alstest

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Clip is one clip placed on a track
type Clip struct {
	Tag   string // defaults to MidiClip
	Start float64
	End   float64
	NoEnd bool // omit CurrentEnd
}

// Track describes one track of a set
type Track struct {
	Audio            bool
	SessionClips     []Clip
	ArrangementClips []Clip
	Plugins          int
	AudioEffects     int
	MidiEffects      int
	Automation       bool
}

// Set describes a whole document
type Set struct {
	Creator   string
	Tempo     string // empty omits the tempo node
	Key       string
	NoWrapper bool
	Tracks    []Track
}

// XML renders the set as an uncompressed document
func (s Set) XML() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if !s.NoWrapper {
		creator := s.Creator
		if creator == "" {
			creator = "Ableton Live 11.3.4"
		}
		fmt.Fprintf(&b, `<Ableton MajorVersion="5" MinorVersion="11.0_433" Creator="%s">`, creator)
	}
	b.WriteString("<LiveSet><Tracks>")

	for _, t := range s.Tracks {
		tag := "MidiTrack"
		if t.Audio {
			tag = "AudioTrack"
		}
		fmt.Fprintf(&b, "<%s><DeviceChain><MainSequencer><ClipSlotList>", tag)
		for _, c := range t.SessionClips {
			b.WriteString("<ClipSlot><ClipSlot><Value>")
			writeClip(&b, c)
			b.WriteString("</Value></ClipSlot></ClipSlot>")
		}
		b.WriteString("</ClipSlotList>")

		b.WriteString("<ClipTimeable><ArrangerAutomation><Events>")
		for _, c := range t.ArrangementClips {
			writeClip(&b, c)
		}
		b.WriteString("</Events></ArrangerAutomation></ClipTimeable></MainSequencer>")

		b.WriteString("<DeviceChain><Devices>")
		for i := 0; i < t.Plugins; i++ {
			b.WriteString(`<PluginDevice Id="0"/>`)
		}
		for i := 0; i < t.AudioEffects; i++ {
			b.WriteString(`<AudioEffect Id="0"/>`)
		}
		for i := 0; i < t.MidiEffects; i++ {
			b.WriteString(`<MidiEffect Id="0"/>`)
		}
		b.WriteString("</Devices></DeviceChain></DeviceChain>")

		if t.Automation {
			b.WriteString(`<AutomationEnvelopes><Envelopes><AutomationEnvelope Id="0"/></Envelopes></AutomationEnvelopes>`)
		}
		fmt.Fprintf(&b, "</%s>", tag)
	}

	b.WriteString("</Tracks><MasterTrack><DeviceChain><Mixer>")
	if s.Tempo != "" {
		fmt.Fprintf(&b, `<Tempo><Manual Value="%s"/></Tempo>`, s.Tempo)
	}
	if s.Key != "" {
		fmt.Fprintf(&b, `<KeySignature><Manual Value="%s"/></KeySignature>`, s.Key)
	}
	b.WriteString("</Mixer></DeviceChain></MasterTrack></LiveSet>")
	if !s.NoWrapper {
		b.WriteString("</Ableton>")
	}

	return []byte(b.String())
}

func writeClip(b *strings.Builder, c Clip) {
	tag := c.Tag
	if tag == "" {
		tag = "MidiClip"
	}
	fmt.Fprintf(b, `<%s Time="%g"><CurrentStart Value="%g"/>`, tag, c.Start, c.Start)
	if !c.NoEnd {
		fmt.Fprintf(b, `<CurrentEnd Value="%g"/>`, c.End)
	}
	fmt.Fprintf(b, "</%s>", tag)
}

// Gzip renders the set compressed, the way Live stores it on disk
func (s Set) Gzip() []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(s.XML())
	zw.Close()
	return buf.Bytes()
}

// Write stores the compressed set at path, creating parent directories
func Write(tb testing.TB, path string, s Set) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, s.Gzip(), 0o644); err != nil {
		tb.Fatalf("failed to write %s: %v", path, err)
	}
}

// Arranged returns a set with the given number of tracks, each holding one
// arrangement clip spanning beats
func Arranged(tracks int, beats float64) Set {
	s := Set{Tempo: "120"}
	for i := 0; i < tracks; i++ {
		s.Tracks = append(s.Tracks, Track{
			Audio:            i%2 == 0,
			ArrangementClips: []Clip{{Start: 0, End: beats}},
		})
	}
	return s
}
