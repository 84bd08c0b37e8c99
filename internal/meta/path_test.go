package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/music/Phases/Phase 2/Song Project/Song.als", "Phase 2"},
		{"/music/Phases/Early Years/Song.als", "Early Years"},
		{"/music/Projects/Song.als", ""},
		{"/music/Phases/Song.als", ""}, // file name is never a phase
		{"/music/phases/Phase 1/Song.als", ""},
		{"Phases/Summer/x.als", "Summer"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseFromPath(tt.path))
		})
	}
}

func TestNamesAreNFC(t *testing.T) {
	// "é" spelled as e + combining acute accent
	decomposed := "Cafe\u0301"

	assert.Equal(t, "Caf\u00e9", ProjectName("/music/"+decomposed+".als"))
	assert.Equal(t, "Caf\u00e9", PhaseFromPath("/music/Phases/"+decomposed+"/x.als"))
}
