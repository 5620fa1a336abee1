package state

import (
	"fmt"

	"saga-server/internal/models"
)

// Hit points gained per level.
const hitPointsPerLevel = 5

// DeathSaveThreshold is the number of successes that stabilizes a dying
// character, and the number of failures that kills one.
const DeathSaveThreshold = 3

func applyDamage(next *models.GameState, p DamagePayload) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: damage amount must be positive", models.ErrInvalidTransition)
	}
	hp := next.Character.HitPoints - p.Amount
	if hp < 0 {
		hp = 0
	}
	next.Character.HitPoints = hp
	return nil
}

func applyBeginDying(next *models.GameState) {
	if next.Character.DeathSaves.Active {
		return
	}
	next.Character.DeathSaves = models.DeathSaveState{Active: true}
}

func applyHeal(next *models.GameState, p HealPayload) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: healing amount must be positive", models.ErrInvalidTransition)
	}
	hp := next.Character.HitPoints + p.Amount
	if hp > next.Character.MaxHitPoints {
		hp = next.Character.MaxHitPoints
	}
	next.Character.HitPoints = hp
	// Regaining hit points ends the dying state.
	if hp > 0 {
		next.Character.DeathSaves = models.DeathSaveState{}
	}
	return nil
}

func applyRecordDeathSave(next *models.GameState, p RecordDeathSavePayload) error {
	ds := &next.Character.DeathSaves
	if !ds.Active {
		return fmt.Errorf("%w: death save recorded while not dying", models.ErrInvalidTransition)
	}
	if p.Success {
		ds.Successes++
		if ds.Successes >= DeathSaveThreshold {
			// Stabilized at 1 HP.
			next.Character.DeathSaves = models.DeathSaveState{}
			if next.Character.HitPoints < 1 {
				next.Character.HitPoints = 1
			}
		}
		return nil
	}
	ds.Failures++
	if ds.Failures >= DeathSaveThreshold {
		next.Flags.IsDead = true
	}
	return nil
}

func applyGrantExperience(next *models.GameState, p GrantExperiencePayload) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: experience amount must be positive", models.ErrInvalidTransition)
	}
	next.Character.Experience += p.Amount
	for {
		needed := experienceForLevel(next.Character.Level + 1)
		if next.Character.Experience < needed {
			break
		}
		next.Character.Level++
		next.Character.MaxHitPoints += hitPointsPerLevel
		next.Character.HitPoints += hitPointsPerLevel
	}
	return nil
}

// LevelForExperience returns the level a cumulative experience total
// earns.
func LevelForExperience(experience int) int {
	level := 1
	for experience >= experienceForLevel(level+1) {
		level++
	}
	return level
}

// experienceForLevel returns the cumulative experience required to reach
// the given level. Level 1 is the starting level.
func experienceForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	// 100, 300, 600, 1000, ...: each level costs 100 more than the last.
	n := level - 1
	return 100 * n * (n + 1) / 2
}

func applyAddItem(next *models.GameState, p AddItemPayload) error {
	if p.Item.Name == "" {
		return fmt.Errorf("%w: item has no name", models.ErrInvalidTransition)
	}
	next.Character.Inventory = append(next.Character.Inventory, p.Item)
	return nil
}

func applyAddCondition(next *models.GameState, p AddConditionPayload) error {
	if p.Condition == "" {
		return fmt.Errorf("%w: empty condition", models.ErrInvalidTransition)
	}
	for _, c := range next.Character.Conditions {
		if c == p.Condition {
			return nil // already afflicted
		}
	}
	next.Character.Conditions = append(next.Character.Conditions, p.Condition)
	return nil
}

func applyRemoveCondition(next *models.GameState, p RemoveConditionPayload) error {
	conditions := next.Character.Conditions[:0]
	for _, c := range next.Character.Conditions {
		if c != p.Condition {
			conditions = append(conditions, c)
		}
	}
	next.Character.Conditions = conditions
	return nil
}

func applySetAutoPlayVoice(next *models.GameState, p SetAutoPlayVoicePayload) error {
	next.Flags.AutoPlayVoice = p.Enabled
	return nil
}
