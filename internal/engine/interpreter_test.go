package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/random"
	"saga-server/internal/state"
)

func newTestInterpreter(rng random.Source) *Interpreter {
	return NewInterpreter(DefaultConfig(), rng, zap.NewNop())
}

func priorState() models.GameState {
	return models.GameState{
		SessionID: uuid.New(),
		Character: models.CharacterSheet{
			Name:         "Mira",
			Class:        "Ranger",
			Level:        2,
			HitPoints:    15,
			MaxHitPoints: 25,
		},
		World: models.WorldMemory{
			NPCs:  map[string]models.NPCRecord{},
			Flags: map[string]bool{},
		},
		Location: models.LocationState{Current: "The Crossroads"},
		Arc:      models.StoryArc{Act: 1},
	}
}

func kinds(out Outcome) []state.Kind {
	result := make([]state.Kind, 0, len(out.Transitions))
	for _, t := range out.Transitions {
		result = append(result, t.Kind)
	}
	return result
}

func intPtr(v int) *int { return &v }

func TestInterpretFallback(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))
	now := time.Now()

	t.Run("nil payload", func(t *testing.T) {
		out := it.Interpret(nil, priorState(), now)
		assert.True(t, out.Fallback)
		assert.Equal(t, FallbackNarrative, out.Narrative)
		assert.Empty(t, out.Transitions)
		assert.Empty(t, out.SideEffects)
		assert.Empty(t, out.Notifications)
	})

	t.Run("blank narrative", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{Narrative: "   \n"}, priorState(), now)
		assert.True(t, out.Fallback)
		assert.Empty(t, out.Transitions)
	})
}

func TestRuleOrderIsStable(t *testing.T) {
	assert.Equal(t, []string{
		"damage", "healing", "experience", "item_discovery", "quest_update",
		"conditions", "inspiration", "location", "story_progress",
		"dice_roll_hint", "chaos_dice", "npc_mention", "npc_reaction",
		"puzzle", "combat", "skill_check", "side_quest", "companion_recruitment",
	}, RuleNames())
}

func TestDamageRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))

	t.Run("plain damage", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "The blade bites deep.",
			DamageTaken: intPtr(5),
		}, priorState(), time.Now())
		assert.Equal(t, []state.Kind{state.KindDamage}, kinds(out))
	})

	t.Run("lethal damage begins dying and prompts a death save", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "Darkness takes you.",
			DamageTaken: intPtr(15),
		}, priorState(), time.Now())
		assert.Equal(t, []state.Kind{state.KindDamage, state.KindBeginDying, state.KindAwaitDiceRoll}, kinds(out))
		require.Len(t, out.Notifications, 1)
		assert.Equal(t, models.NotificationWarning, out.Notifications[0].Category)
	})

	t.Run("non-positive damage is ignored", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "You shrug it off.",
			DamageTaken: intPtr(0),
		}, priorState(), time.Now())
		assert.Empty(t, out.Transitions)
	})
}

func TestExperienceRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))

	t.Run("plain gain", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:        "A lesson hard won.",
			ExperienceGained: intPtr(50),
		}, priorState(), time.Now())

		assert.Equal(t, []state.Kind{state.KindGrantExperience}, kinds(out))
		require.Len(t, out.Notifications, 1)
		assert.Equal(t, "Gained 50 experience", out.Notifications[0].Message)
	})

	t.Run("crossing a threshold announces the level up", func(t *testing.T) {
		prior := priorState()
		prior.Character.Level = 1
		prior.Character.Experience = 60

		out := it.Interpret(&models.TurnResponse{
			Narrative:        "Stronger for it.",
			ExperienceGained: intPtr(50),
		}, prior, time.Now())

		require.Len(t, out.Notifications, 2)
		assert.Equal(t, "Level up! You are now level 2", out.Notifications[1].Message)
		assert.Equal(t, models.NotificationSpecial, out.Notifications[1].Category)
	})
}

func TestItemDiscoveryRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))
	out := it.Interpret(&models.TurnResponse{
		Narrative: "Something glints in the rubble.",
		ItemFound: &models.ItemGrant{Name: "Iron Sword", Type: models.ItemTypeWeapon},
	}, priorState(), time.Now())

	require.Equal(t, []state.Kind{state.KindAddItem}, kinds(out))
	payload := out.Transitions[0].Payload.(state.AddItemPayload)
	assert.Equal(t, models.EquipSlotMainHand, payload.Item.EquipSlot)
	assert.NotEqual(t, uuid.Nil, payload.Item.ID)
}

func TestQuestUpdateRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))
	mainQuest := models.QuestProgress{
		ID:          uuid.New(),
		Title:       "The Unwritten Legend",
		Milestones:  []models.Milestone{{ID: "m1", Description: "Set out on the journey"}},
		MaxProgress: 100,
		IsMainQuest: true,
	}
	prior := priorState()
	prior.Quests = []models.QuestProgress{mainQuest}

	t.Run("milestone id completes the milestone", func(t *testing.T) {
		milestoneID := "m1"
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "The journey begins.",
			QuestUpdate: &models.QuestUpdate{QuestID: mainQuest.ID.String(), MilestoneID: &milestoneID},
		}, prior, time.Now())

		require.Equal(t, []state.Kind{state.KindCompleteMilestone}, kinds(out))
		require.Len(t, out.Notifications, 1)
		assert.Contains(t, out.Notifications[0].Message, "Set out on the journey")
	})

	t.Run("unparseable quest id falls back to the main quest", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "Progress, of a kind.",
			QuestUpdate: &models.QuestUpdate{QuestID: "main", Progress: 30},
		}, prior, time.Now())

		require.Equal(t, []state.Kind{state.KindUpdateQuestProgress}, kinds(out))
		payload := out.Transitions[0].Payload.(state.UpdateQuestProgressPayload)
		assert.Equal(t, mainQuest.ID, payload.QuestID)
	})

	t.Run("unknown quest is skipped", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:   "Nothing matches.",
			QuestUpdate: &models.QuestUpdate{QuestID: uuid.NewString(), Progress: 10},
		}, priorState(), time.Now())
		assert.Empty(t, out.Transitions)
	})
}

func TestStoryProgressRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))

	t.Run("ending flag without terminal phrase is not trusted", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:     "The battle rages on and on.",
			StoryProgress: &models.StoryProgressUpdate{Act: 3, Ending: true},
		}, priorState(), time.Now())

		assert.Equal(t, []state.Kind{state.KindAdvanceStory}, kinds(out))
		assert.Empty(t, out.SideEffects)
	})

	t.Run("confirmed ending grants victory and requests a legend title", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative:     "The crown falls. Your legend will be remembered.",
			StoryProgress: &models.StoryProgressUpdate{Act: 3, Ending: true},
		}, priorState(), time.Now())

		assert.Equal(t, []state.Kind{
			state.KindAdvanceStory, state.KindCompleteStory, state.KindVictory,
		}, kinds(out))
		require.Len(t, out.SideEffects, 1)
		assert.Equal(t, SideEffectLegendTitle, out.SideEffects[0].Kind)
	})
}

func TestDiceRollHintRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))

	t.Run("roll prompt awaits a roll", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative: "The chasm yawns below. Roll a d20 to leap across.",
		}, priorState(), time.Now())
		assert.Equal(t, []state.Kind{state.KindAwaitDiceRoll}, kinds(out))
	})

	t.Run("explicit rolls suppress the hint", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative: "Roll a d20 to leap across.",
			DiceRolls: []models.DiceRoll{{Notation: "1d20", Result: 14}},
		}, priorState(), time.Now())
		assert.Empty(t, out.Transitions)
	})
}

func TestChaosDiceRule(t *testing.T) {
	resp := &models.TurnResponse{Narrative: "Sparks of wild magic crackle."}

	t.Run("fires under the threshold", func(t *testing.T) {
		it := newTestInterpreter(random.Forced(0.05))
		out := it.Interpret(resp, priorState(), time.Now())
		assert.Equal(t, []state.Kind{state.KindEnableChaosDice}, kinds(out))
	})

	t.Run("silent at or above the threshold", func(t *testing.T) {
		it := newTestInterpreter(random.Forced(0.10))
		out := it.Interpret(resp, priorState(), time.Now())
		assert.Empty(t, out.Transitions)
	})

	t.Run("never re-granted while available", func(t *testing.T) {
		prior := priorState()
		prior.Flags.ChaosDiceAvailable = true
		it := newTestInterpreter(random.Forced(0.0))
		out := it.Interpret(resp, prior, time.Now())
		assert.Empty(t, out.Transitions)
	})
}

func TestNPCMentionRule(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))
	now := time.Now()

	t.Run("first meeting records a neutral NPC", func(t *testing.T) {
		out := it.Interpret(&models.TurnResponse{
			Narrative: `Toren says, "Mind the old bridge after dark."`,
		}, priorState(), now)

		require.Equal(t, []state.Kind{state.KindRecordNPC}, kinds(out))
		payload := out.Transitions[0].Payload.(state.RecordNPCPayload)
		assert.Equal(t, "Toren", payload.NPC.Name)
		assert.Equal(t, models.NPCAttitudeNeutral, payload.NPC.Attitude)
		assert.Equal(t, now, payload.NPC.FirstMetAt)
	})

	t.Run("known NPC keeps its recorded attitude", func(t *testing.T) {
		prior := priorState()
		prior.World.NPCs["toren"] = models.NPCRecord{Name: "Toren", Attitude: models.NPCAttitudeFriendly}

		out := it.Interpret(&models.TurnResponse{
			Narrative: `Toren says, "Back again, are you?"`,
		}, prior, now)

		payload := out.Transitions[0].Payload.(state.RecordNPCPayload)
		assert.Empty(t, payload.NPC.Attitude, "refresh must not overwrite attitude")
		assert.True(t, payload.NPC.FirstMetAt.IsZero())
	})
}

func TestSideQuestRule(t *testing.T) {
	resp := &models.TurnResponse{
		Narrative: "A notice hangs on the board.",
		SideQuestSuggestion: &models.SideQuestSuggestion{
			Title:      "The Lost Caravan",
			Milestones: []string{"Find the tracks", "Recover the cargo"},
		},
	}

	t.Run("suggested under the threshold", func(t *testing.T) {
		it := newTestInterpreter(random.Forced(0.1))
		out := it.Interpret(resp, priorState(), time.Now())

		require.Equal(t, []state.Kind{state.KindSuggestSideQuest}, kinds(out))
		payload := out.Transitions[0].Payload.(state.SuggestSideQuestPayload)
		assert.Equal(t, "The Lost Caravan", payload.Quest.Title)
		assert.False(t, payload.Quest.IsMainQuest)
		assert.Len(t, payload.Quest.Milestones, 2)
	})

	t.Run("suppressed at or above the threshold", func(t *testing.T) {
		it := newTestInterpreter(random.Forced(0.20))
		out := it.Interpret(resp, priorState(), time.Now())
		assert.Empty(t, out.Transitions)
	})
}

func TestCompanionRecruitmentRule(t *testing.T) {
	resp := &models.TurnResponse{
		Narrative: `Theo says, "Let me travel with you. The road is safer with two."`,
	}

	t.Run("recruits under the threshold", func(t *testing.T) {
		// First draw feeds the chaos-dice gate, second the recruitment gate.
		it := newTestInterpreter(&random.Sequence{Values: []float64{0.5, 0.01}})
		out := it.Interpret(resp, priorState(), time.Now())

		// The speaker pattern also fires the NPC-mention rule.
		require.Equal(t, []state.Kind{state.KindRecordNPC, state.KindCompanionJoin}, kinds(out))
		payload := out.Transitions[1].Payload.(state.CompanionJoinPayload)
		assert.Equal(t, "Theo", payload.Companion.Name)
		require.Len(t, payload.Companion.Memories, 1)
	})

	t.Run("full party blocks recruitment", func(t *testing.T) {
		prior := priorState()
		for i := 0; i < models.MaxPartySize; i++ {
			prior.Companions = append(prior.Companions, models.Companion{ID: uuid.New(), Name: uuid.NewString()})
		}
		it := newTestInterpreter(random.Forced(0.0))
		out := it.Interpret(resp, prior, time.Now())
		assert.Equal(t, []state.Kind{state.KindEnableChaosDice, state.KindRecordNPC}, kinds(out))
	})

	t.Run("no recruitment vocabulary, no join", func(t *testing.T) {
		it := newTestInterpreter(random.Forced(0.0))
		out := it.Interpret(&models.TurnResponse{
			Narrative: `Theo says, "Good luck out there."`,
		}, priorState(), time.Now())
		assert.Equal(t, []state.Kind{state.KindEnableChaosDice, state.KindRecordNPC}, kinds(out))
	})
}

func TestCombinedPayloadKeepsRuleOrder(t *testing.T) {
	it := newTestInterpreter(random.Forced(0.99))
	out := it.Interpret(&models.TurnResponse{
		Narrative:        "Steel rings against steel, and you come out on top.",
		DamageTaken:      intPtr(3),
		Healing:          intPtr(2),
		ExperienceGained: intPtr(75),
		CombatSummary:    &models.CombatSummary{EnemiesDefeated: 1, DamageDealt: 12, DamageTaken: 3, Victory: true},
	}, priorState(), time.Now())

	assert.Equal(t, []state.Kind{
		state.KindDamage,
		state.KindHeal,
		state.KindGrantExperience,
		state.KindRecordCombat,
		state.KindRecordDecision,
	}, kinds(out))
	assert.False(t, out.Fallback)
}
