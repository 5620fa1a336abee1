package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSpeakerName(t *testing.T) {
	tests := []struct {
		text string
		name string
		ok   bool
	}{
		{`Mira says, "Follow me."`, "Mira", true},
		{`Old Toren whispers a warning.`, "Old Toren", true},
		{`Far away, Captain Hale shouted orders.`, "Captain Hale", true},
		{`She says nothing of use.`, "", false},
		{`The wind whispers through the trees.`, "", false},
		{`Then someone laughed in the dark.`, "", false},
		{`No dialogue at all here.`, "", false},
		// The first stopword match must not mask a later real speaker.
		{`The guard waves you through. Brynn calls after you.`, "Brynn", true},
	}

	for _, tt := range tests {
		name, ok := ExtractSpeakerName(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.name, name, tt.text)
	}
}

func TestContainsRollPrompt(t *testing.T) {
	assert.True(t, ContainsRollPrompt("Roll a d20 to cross the chasm."))
	assert.True(t, ContainsRollPrompt("Make a Wisdom saving throw."))
	assert.True(t, ContainsRollPrompt("roll for initiative, quickly!"))
	assert.False(t, ContainsRollPrompt("The dice of fate have already been cast."))
	assert.False(t, ContainsRollPrompt(""))
}

func TestContainsRecruitmentOffer(t *testing.T) {
	assert.True(t, ContainsRecruitmentOffer("Let me travel with you, at least to the river."))
	assert.True(t, ContainsRecruitmentOffer("I will fight alongside you."))
	assert.False(t, ContainsRecruitmentOffer("Safe travels, stranger."))
	assert.False(t, ContainsRecruitmentOffer(""))
}
