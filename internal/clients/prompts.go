package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"saga-server/internal/models"
)

// The narrative model emits prose first, then this marker on its own,
// then the structured JSON payload. Fragments before the marker stream to
// the player; everything after is machine-read state.
const stateMarker = "<<<STATE>>>"

// ErrNoStatePayload marks a stream that finished without a state block.
var ErrNoStatePayload = errors.New("stream finished without a structured payload")

const turnSystemPrompt = `You are the narrator of a dark-fantasy adventure. Continue the story in second person, 2-4 paragraphs, reacting to the player's action.

After the narrative, output the line %s followed by a single JSON object describing the mechanical effects of the turn. All fields are optional except "narrative" which must repeat nothing; leave it empty, the prose above is the narrative. Known fields: damage_taken, healing, experience_gained, item_found {name,type,description}, quest_update {quest_id,milestone_id,progress}, conditions_added, conditions_removed, inspiration_granted, dice_rolls [{notation,result,purpose}], location {current,new_areas,completed_area}, story_progress {act,climax,ending}, npc_reaction {name,attitude,dialogue,information_gained}, puzzle_resolution {solved,description,reward}, combat_summary {enemies_defeated,damage_dealt,damage_taken,critical_hits,victory}, skill_check {skill,success,description}, side_quest_suggestion {title,description,milestones}. Omit fields with no effect this turn.`

const shortTextSystemPrompt = "You produce one short piece of text for an adventure game. Reply with the text only, no preamble, no quotes."

// ShortTextKind selects what ancillary text to generate.
type ShortTextKind string

const (
	ShortTextLegendTitle       ShortTextKind = "legend_title"
	ShortTextScenePrompt       ShortTextKind = "scene_prompt"
	ShortTextAntagonistProfile ShortTextKind = "antagonist_profile"
)

var shortTextInstructions = map[ShortTextKind]string{
	ShortTextLegendTitle:       "Write a heroic epitaph title (max 8 words) for this completed adventure:",
	ShortTextScenePrompt:       "Write a vivid one-sentence image-generation prompt for this scene:",
	ShortTextAntagonistProfile: "Write a short antagonist profile (role, backstory, appearance, relationship to the hero) for this story:",
}

// TurnRequest carries the context of one player turn.
type TurnRequest struct {
	Action           string
	CharacterSummary string
	RecentHistory    []models.StoryEntry
	ActiveQuests     []models.QuestProgress
}

// turnContext is the serialized form embedded in the user message.
type turnContext struct {
	Character string         `json:"character"`
	History   []historyEntry `json:"history,omitempty"`
	Quests    []questContext `json:"quests,omitempty"`
}

type historyEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type questContext struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	CurrentMilestone string `json:"current_milestone,omitempty"`
	Progress         int    `json:"progress"`
	MaxProgress      int    `json:"max_progress"`
}

func buildTurnSystemPrompt() string {
	return fmt.Sprintf(turnSystemPrompt, stateMarker)
}

func buildTurnUserPrompt(req TurnRequest) (string, error) {
	tc := turnContext{Character: req.CharacterSummary}
	for _, e := range req.RecentHistory {
		tc.History = append(tc.History, historyEntry{Role: string(e.Role), Text: e.Text})
	}
	for _, q := range req.ActiveQuests {
		qc := questContext{
			ID:          q.ID.String(),
			Title:       q.Title,
			Progress:    q.Progress,
			MaxProgress: q.MaxProgress,
		}
		if q.CurrentMilestoneIndex < len(q.Milestones) {
			qc.CurrentMilestone = q.Milestones[q.CurrentMilestoneIndex].Description
		}
		tc.Quests = append(tc.Quests, qc)
	}

	contextJSON, err := json.Marshal(tc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal turn context: %w", err)
	}
	return fmt.Sprintf("CONTEXT: %s\n\nPLAYER ACTION: %s", contextJSON, req.Action), nil
}

// markerSplitter separates the streamed response into narrative fragments
// and the trailing state block. It holds back at most len(marker)-1 bytes
// so a marker split across chunk boundaries is still caught, which is
// the only buffering the transport framing requires.
type markerSplitter struct {
	found bool
	tail  string
	state strings.Builder
}

// feed consumes one chunk and returns the narrative text that is now safe
// to emit.
func (s *markerSplitter) feed(chunk string) string {
	if s.found {
		s.state.WriteString(chunk)
		return ""
	}
	buf := s.tail + chunk
	if idx := strings.Index(buf, stateMarker); idx >= 0 {
		s.found = true
		s.tail = ""
		s.state.WriteString(buf[idx+len(stateMarker):])
		return buf[:idx]
	}
	keep := len(buf) - (len(stateMarker) - 1)
	if keep < 0 {
		keep = 0
	}
	s.tail = buf[keep:]
	return buf[:keep]
}

// finish flushes the held-back tail (when no marker ever arrived) and
// returns the raw state block.
func (s *markerSplitter) finish() (remainder, stateBlock string) {
	if !s.found {
		remainder = s.tail
		s.tail = ""
	}
	return remainder, s.state.String()
}

// parseTurnResponse turns the raw state block into a TurnResponse. The
// streamed narrative wins over whatever the JSON carries, since the prose
// is what the player already saw.
func parseTurnResponse(stateBlock, narrative string) (*models.TurnResponse, error) {
	narrative = strings.TrimSpace(narrative)

	block := strings.TrimSpace(stateBlock)
	block = strings.TrimPrefix(block, "```json")
	block = strings.TrimPrefix(block, "```")
	block = strings.TrimSuffix(block, "```")
	block = strings.TrimSpace(block)

	if block == "" {
		if narrative == "" {
			return nil, ErrNoStatePayload
		}
		// Plain narrative turn with no mechanical effects.
		return &models.TurnResponse{Narrative: narrative}, nil
	}

	var resp models.TurnResponse
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return nil, fmt.Errorf("malformed state payload: %w", err)
	}
	if narrative != "" {
		resp.Narrative = narrative
	}
	return &resp, nil
}
