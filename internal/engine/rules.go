package engine

import (
	"fmt"

	"github.com/google/uuid"

	"saga-server/internal/models"
	"saga-server/internal/state"
)

// Rule 1: damage. A lethal total additionally begins the dying state;
// the comparison runs against the prior snapshot, the store itself clamps.
func (it *Interpreter) ruleDamage(rc *ruleContext) {
	if rc.resp.DamageTaken == nil || *rc.resp.DamageTaken <= 0 {
		return
	}
	amount := *rc.resp.DamageTaken
	rc.out.transition(state.KindDamage, state.DamagePayload{Amount: amount})
	if rc.prior.Character.HitPoints-amount <= 0 {
		rc.out.transition(state.KindBeginDying, nil)
		rc.out.transition(state.KindAwaitDiceRoll, state.AwaitDiceRollPayload{Reason: "Death save"})
		rc.out.notify(models.NotificationWarning, "You are dying! Make a death save.")
	}
}

// Rule 2: healing. Clamping at max hit points is the store's job.
func (it *Interpreter) ruleHealing(rc *ruleContext) {
	if rc.resp.Healing == nil || *rc.resp.Healing <= 0 {
		return
	}
	rc.out.transition(state.KindHeal, state.HealPayload{Amount: *rc.resp.Healing})
}

// Rule 3: experience gain.
func (it *Interpreter) ruleExperience(rc *ruleContext) {
	if rc.resp.ExperienceGained == nil || *rc.resp.ExperienceGained <= 0 {
		return
	}
	amount := *rc.resp.ExperienceGained
	rc.out.transition(state.KindGrantExperience, state.GrantExperiencePayload{Amount: amount})
	rc.out.notify(models.NotificationSuccess, fmt.Sprintf("Gained %d experience", amount))
	if level := state.LevelForExperience(rc.prior.Character.Experience + amount); level > rc.prior.Character.Level {
		rc.out.notify(models.NotificationSpecial, fmt.Sprintf("Level up! You are now level %d", level))
	}
}

// Rule 4: item discovery. Equip-slot eligibility derives from item type.
func (it *Interpreter) ruleItemDiscovery(rc *ruleContext) {
	grant := rc.resp.ItemFound
	if grant == nil || grant.Name == "" {
		return
	}
	item := models.Item{
		ID:          uuid.New(),
		Name:        grant.Name,
		Type:        grant.Type,
		Description: grant.Description,
		EquipSlot:   equipSlotFor(grant.Type),
	}
	rc.out.transition(state.KindAddItem, state.AddItemPayload{Item: item})
	rc.out.notify(models.NotificationSpecial, fmt.Sprintf("Found: %s", grant.Name))
}

func equipSlotFor(t models.ItemType) models.EquipSlot {
	switch t {
	case models.ItemTypeWeapon:
		return models.EquipSlotMainHand
	case models.ItemTypeArmor:
		return models.EquipSlotBody
	case models.ItemTypeTrinket:
		return models.EquipSlotTrinket
	default:
		return ""
	}
}

// Rule 5: quest update. A milestone id completes that milestone (which
// also advances progress); otherwise only the progress counter moves.
func (it *Interpreter) ruleQuestUpdate(rc *ruleContext) {
	update := rc.resp.QuestUpdate
	if update == nil {
		return
	}

	quest := it.resolveQuest(rc.prior, update.QuestID)
	if quest == nil {
		it.logger.Debug("Quest update references unknown quest; skipping")
		return
	}

	if update.MilestoneID != nil && *update.MilestoneID != "" {
		milestoneID := *update.MilestoneID
		rc.out.transition(state.KindCompleteMilestone, state.CompleteMilestonePayload{
			QuestID:     quest.ID,
			MilestoneID: milestoneID,
		})
		if mi := quest.FindMilestone(milestoneID); mi >= 0 {
			rc.out.notify(models.NotificationSuccess,
				fmt.Sprintf("Milestone reached: %s", quest.Milestones[mi].Description))
		}
		return
	}

	rc.out.transition(state.KindUpdateQuestProgress, state.UpdateQuestProgressPayload{
		QuestID:  quest.ID,
		Progress: update.Progress,
	})
}

// resolveQuest matches the payload's quest reference to a known quest:
// by id when it parses, otherwise the first active main quest.
func (it *Interpreter) resolveQuest(prior *models.GameState, questID string) *models.QuestProgress {
	if id, err := uuid.Parse(questID); err == nil {
		if idx := prior.FindQuest(id); idx >= 0 {
			return &prior.Quests[idx]
		}
	}
	for i := range prior.Quests {
		if prior.Quests[i].IsMainQuest && !prior.Quests[i].Completed {
			return &prior.Quests[i]
		}
	}
	return nil
}

// Rule 6: status conditions added and removed.
func (it *Interpreter) ruleConditions(rc *ruleContext) {
	for _, c := range rc.resp.ConditionsAdded {
		if c == "" {
			continue
		}
		rc.out.transition(state.KindAddCondition, state.AddConditionPayload{Condition: c})
		rc.out.notify(models.NotificationWarning, fmt.Sprintf("Afflicted: %s", c))
	}
	for _, c := range rc.resp.ConditionsRemoved {
		if c == "" {
			continue
		}
		rc.out.transition(state.KindRemoveCondition, state.RemoveConditionPayload{Condition: c})
		rc.out.notify(models.NotificationInfo, fmt.Sprintf("Recovered from: %s", c))
	}
}

// Rule 7: inspiration grant.
func (it *Interpreter) ruleInspiration(rc *ruleContext) {
	if !rc.resp.InspirationGranted {
		return
	}
	rc.out.transition(state.KindGrantInspiration, nil)
	rc.out.notify(models.NotificationSpecial, "You feel inspired!")
}

// Rule 8: location update. Moves, reveals and area completion.
func (it *Interpreter) ruleLocation(rc *ruleContext) {
	loc := rc.resp.Location
	if loc == nil {
		return
	}
	if loc.Current != "" && loc.Current != rc.prior.Location.Current {
		rc.out.transition(state.KindMoveLocation, state.MoveLocationPayload{To: loc.Current})
	}
	for _, area := range loc.NewAreas {
		if area == "" {
			continue
		}
		rc.out.transition(state.KindRevealArea, state.RevealAreaPayload{Area: area})
	}
	if loc.CompletedArea != "" {
		rc.out.transition(state.KindCompleteArea, state.CompleteAreaPayload{Area: loc.CompletedArea})
	}
}

// Rule 9: story progress. The ending flag alone is not trusted: victory
// requires a terminal phrase in the narrative text as confirmation.
func (it *Interpreter) ruleStoryProgress(rc *ruleContext) {
	sp := rc.resp.StoryProgress
	if sp == nil {
		return
	}
	rc.out.transition(state.KindAdvanceStory, state.AdvanceStoryPayload{Act: sp.Act, Climax: sp.Climax})

	if sp.Ending && it.containsTerminalPhrase(rc.resp.Narrative) {
		rc.out.transition(state.KindCompleteStory, nil)
		rc.out.transition(state.KindVictory, nil)
		rc.out.sideEffect(SideEffectLegendTitle, rc.resp.Narrative)
	}
}

// Rule 10: heuristic dice-roll request detection. Only when the payload
// carried no explicit rolls.
func (it *Interpreter) ruleDiceRollHint(rc *ruleContext) {
	if len(rc.resp.DiceRolls) > 0 {
		return
	}
	if !ContainsRollPrompt(rc.resp.Narrative) {
		return
	}
	rc.out.transition(state.KindAwaitDiceRoll, state.AwaitDiceRollPayload{
		Reason: "The story calls for a roll",
	})
}

// Rule 11: probabilistic chaos-die trigger.
func (it *Interpreter) ruleChaosDice(rc *ruleContext) {
	if rc.prior.Flags.ChaosDiceAvailable {
		return
	}
	if it.rng.Float64() >= chaosDiceChance {
		return
	}
	rc.out.transition(state.KindEnableChaosDice, nil)
	rc.out.notify(models.NotificationSpecial, "A chaos die materializes before you!")
}

// Rule 12: NPC mention extraction from prose. Best-effort; a miss is a
// silent no-op.
func (it *Interpreter) ruleNPCMention(rc *ruleContext) {
	name, ok := ExtractSpeakerName(rc.resp.Narrative)
	if !ok {
		return
	}
	key := models.NormalizeNPCName(name)
	if _, known := rc.prior.World.NPCs[key]; known {
		// Known NPC: refresh last interaction and location.
		rc.out.transition(state.KindRecordNPC, state.RecordNPCPayload{NPC: models.NPCRecord{
			Name:              name,
			Location:          rc.prior.Location.Current,
			LastInteractionAt: rc.now,
		}})
		return
	}
	rc.out.transition(state.KindRecordNPC, state.RecordNPCPayload{NPC: models.NPCRecord{
		Name:              name,
		Attitude:          models.NPCAttitudeNeutral,
		Location:          rc.prior.Location.Current,
		FirstMetAt:        rc.now,
		LastInteractionAt: rc.now,
	}})
}

// Rule 13: explicit NPC reaction. Authoritative, unlike rule 12.
func (it *Interpreter) ruleNPCReaction(rc *ruleContext) {
	reaction := rc.resp.NPCReaction
	if reaction == nil || reaction.Name == "" {
		return
	}
	npc := models.NPCRecord{
		Name:              reaction.Name,
		Attitude:          reaction.Attitude,
		Location:          rc.prior.Location.Current,
		LastDialogue:      reaction.Dialogue,
		LastInteractionAt: rc.now,
	}
	if _, known := rc.prior.World.NPCs[models.NormalizeNPCName(reaction.Name)]; !known {
		npc.FirstMetAt = rc.now
		if npc.Attitude == "" {
			npc.Attitude = models.NPCAttitudeNeutral
		}
	}
	rc.out.transition(state.KindRecordNPC, state.RecordNPCPayload{NPC: npc})

	if reaction.InformationGained != "" {
		rc.out.transition(state.KindRecordDecision, state.RecordDecisionPayload{
			Summary:    fmt.Sprintf("Learned from %s: %s", reaction.Name, reaction.InformationGained),
			RecordedAt: rc.now,
		})
	}
}

// Rule 14: puzzle resolution.
func (it *Interpreter) rulePuzzle(rc *ruleContext) {
	puzzle := rc.resp.PuzzleResolution
	if puzzle == nil || !puzzle.Solved {
		return
	}
	rc.out.transition(state.KindRecordPuzzleSolved, nil)
	summary := "Solved a puzzle"
	if puzzle.Description != "" {
		summary = fmt.Sprintf("Solved a puzzle: %s", puzzle.Description)
	}
	rc.out.transition(state.KindRecordDecision, state.RecordDecisionPayload{
		Summary:    summary,
		RecordedAt: rc.now,
	})
	if puzzle.Reward != "" {
		rc.out.notify(models.NotificationSuccess, fmt.Sprintf("Puzzle solved! Reward: %s", puzzle.Reward))
	}
}

// Rule 15: combat summary.
func (it *Interpreter) ruleCombat(rc *ruleContext) {
	combat := rc.resp.CombatSummary
	if combat == nil {
		return
	}
	rc.out.transition(state.KindRecordCombat, state.RecordCombatPayload{Summary: *combat})
	rc.out.transition(state.KindRecordDecision, state.RecordDecisionPayload{
		Summary: fmt.Sprintf("Fought a battle: %d defeated, %d damage dealt, %d taken",
			combat.EnemiesDefeated, combat.DamageDealt, combat.DamageTaken),
		RecordedAt: rc.now,
	})
	if combat.Victory {
		rc.out.notify(models.NotificationSuccess, "Victory in battle!")
	}
}

// Rule 16: skill check.
func (it *Interpreter) ruleSkillCheck(rc *ruleContext) {
	check := rc.resp.SkillCheck
	if check == nil || check.Skill == "" {
		return
	}
	outcome := "failed"
	category := models.NotificationWarning
	if check.Success {
		outcome = "succeeded"
		category = models.NotificationSuccess
	}
	rc.out.transition(state.KindRecordDecision, state.RecordDecisionPayload{
		Summary:    fmt.Sprintf("%s check %s", check.Skill, outcome),
		RecordedAt: rc.now,
	})
	rc.out.notify(category, fmt.Sprintf("%s check %s", check.Skill, outcome))
}

// Rule 17: side-quest suggestion. Probability-gated; the quest is only
// surfaced for acceptance and never enters the active quest set here.
func (it *Interpreter) ruleSideQuest(rc *ruleContext) {
	suggestion := rc.resp.SideQuestSuggestion
	if suggestion == nil || suggestion.Title == "" {
		return
	}
	if it.rng.Float64() >= sideQuestChance {
		return
	}

	quest := models.QuestProgress{
		ID:          uuid.New(),
		Title:       suggestion.Title,
		Description: suggestion.Description,
		MaxProgress: 100,
		IsMainQuest: false,
	}
	for _, desc := range suggestion.Milestones {
		quest.Milestones = append(quest.Milestones, models.Milestone{
			ID:          uuid.NewString(),
			Description: desc,
		})
	}
	rc.out.transition(state.KindSuggestSideQuest, state.SuggestSideQuestPayload{Quest: quest})
	rc.out.notify(models.NotificationInfo, fmt.Sprintf("New opportunity: %s", suggestion.Title))
}

// Rule 18: companion-recruitment heuristic. Gated on probability, party
// capacity and recruitment vocabulary in the prose.
func (it *Interpreter) ruleCompanionRecruitment(rc *ruleContext) {
	if len(rc.prior.Companions) >= models.MaxPartySize {
		return
	}
	if !ContainsRecruitmentOffer(rc.resp.Narrative) {
		return
	}
	if it.rng.Float64() >= companionJoinChance {
		return
	}
	name, ok := ExtractSpeakerName(rc.resp.Narrative)
	if !ok {
		return
	}

	companion := models.Companion{
		ID:           uuid.New(),
		Name:         name,
		Relationship: "new ally",
		JoinedAt:     rc.now,
		Memories: []models.CompanionMemory{{
			Content:    fmt.Sprintf("Joined the party at %s", rc.prior.Location.Current),
			Importance: 7,
			CreatedAt:  rc.now,
		}},
	}
	rc.out.transition(state.KindCompanionJoin, state.CompanionJoinPayload{Companion: companion})
	rc.out.notify(models.NotificationSpecial, fmt.Sprintf("%s joins your party!", name))
}
