package meta

import (
	"math"
	"strconv"

	"github.com/beevik/etree"
)

// ClipTags are the element names that denote a clip
var ClipTags = []string{"AudioClip", "MidiClip", "SampleClip"}

// arrangementFallbackLength is the length in beats assumed for an
// arrangement clip without an explicit end
const arrangementFallbackLength = 16.0

// A clipStrategy is one traversal path, relative to a track, that may reach clips.
// Strategies are tried in order and their results merged by element identity.
type clipStrategy struct {
	prefix string
	// accept filters candidates; nil accepts all
	accept func(*etree.Element) bool
}

var sessionStrategies = []clipStrategy{
	{prefix: "./DeviceChain/MainSequencer/ClipSlotList/ClipSlot//"},
	{prefix: ".//ClipSlotList//", accept: notFrozen},
}

var arrangementStrategies = []clipStrategy{
	{prefix: "./DeviceChain/MainSequencer/Sample/ArrangerAutomation/Events/"},
	{prefix: "./DeviceChain/MainSequencer/ClipTimeable/ArrangerAutomation/Events/"},
	{prefix: ".//ArrangerAutomation//Events/", accept: func(e *etree.Element) bool {
		return notInSlotList(e) && notFrozen(e)
	}},
}

// clipSet is an insertion-ordered set of clip elements keyed by pointer
type clipSet struct {
	order []*etree.Element
	seen  map[*etree.Element]struct{}
}

func newClipSet() *clipSet {
	return &clipSet{seen: make(map[*etree.Element]struct{})}
}

func (s *clipSet) add(e *etree.Element) bool {
	if _, ok := s.seen[e]; ok {
		return false
	}
	s.seen[e] = struct{}{}
	s.order = append(s.order, e)
	return true
}

func (s *clipSet) has(e *etree.Element) bool {
	_, ok := s.seen[e]
	return ok
}

func (s *clipSet) len() int {
	return len(s.order)
}

// collect runs each strategy against track and adds every clip found to dst,
// skipping clips already present in exclude
func collect(track *etree.Element, strategies []clipStrategy, dst, exclude *clipSet) {
	for _, st := range strategies {
		for _, tag := range ClipTags {
			for _, clip := range track.FindElements(st.prefix + tag) {
				if exclude != nil && exclude.has(clip) {
					continue
				}
				if st.accept != nil && !st.accept(clip) {
					continue
				}
				dst.add(clip)
			}
		}
	}
}

func notInSlotList(e *etree.Element) bool {
	return !hasAncestor(e, "ClipSlotList")
}

// notFrozen rejects the rendered copies Live keeps under a frozen track's
// FreezeSequencer; they duplicate the MainSequencer clips
func notFrozen(e *etree.Element) bool {
	return !hasAncestor(e, "FreezeSequencer")
}

func hasAncestor(e *etree.Element, tag string) bool {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Tag == tag {
			return true
		}
	}
	return false
}

// clipStart returns a clip's start position in beats
func clipStart(clip *etree.Element) float64 {
	if v, ok := childValue(clip, "CurrentStart"); ok {
		return v
	}
	if v, ok := floatAttr(clip, "Time"); ok {
		return v
	}
	if v, ok := floatAttr(clip, "CurrentStart"); ok {
		return v
	}
	return 0
}

// clipEnd returns a clip's declared end position in beats, if any
func clipEnd(clip *etree.Element, start float64) (float64, bool) {
	if v, ok := childValue(clip, "CurrentEnd"); ok {
		return v, true
	}
	if v, ok := floatAttr(clip, "CurrentLength"); ok {
		return start + v, true
	}
	if v, ok := childValue(clip, "CurrentLength"); ok {
		return start + v, true
	}
	return 0, false
}

// arrangementEnd is clipEnd with the fallback length applied
func arrangementEnd(clip *etree.Element) float64 {
	start := clipStart(clip)
	if end, ok := clipEnd(clip, start); ok {
		return end
	}
	return start + arrangementFallbackLength
}

func childValue(e *etree.Element, tag string) (float64, bool) {
	child := e.SelectElement(tag)
	if child == nil {
		return 0, false
	}
	return floatAttr(child, "Value")
}

func floatAttr(e *etree.Element, key string) (float64, bool) {
	attr := e.SelectAttr(key)
	if attr == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
