package models

import "github.com/google/uuid"

// ItemType classifies discovered inventory items and drives equip-slot
// eligibility.
type ItemType string

const (
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeArmor      ItemType = "armor"
	ItemTypeTrinket    ItemType = "trinket"
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeQuestItem  ItemType = "quest_item"
)

// EquipSlot names where an item can be worn. Empty means not equippable.
type EquipSlot string

const (
	EquipSlotMainHand EquipSlot = "main_hand"
	EquipSlotBody     EquipSlot = "body"
	EquipSlotTrinket  EquipSlot = "trinket"
)

// Item is a single inventory entry.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        ItemType  `json:"type"`
	Description string    `json:"description,omitempty"`
	EquipSlot   EquipSlot `json:"equip_slot,omitempty"`
}

// DeathSaveState tracks the dying mechanic once hit points hit zero.
type DeathSaveState struct {
	Active    bool `json:"active"`
	Successes int  `json:"successes"`
	Failures  int  `json:"failures"`
}

// CharacterSheet holds the player character's vitals and possessions.
type CharacterSheet struct {
	Name         string         `json:"name"`
	Class        string         `json:"class"`
	Level        int            `json:"level"`
	Experience   int            `json:"experience"`
	HitPoints    int            `json:"hit_points"`
	MaxHitPoints int            `json:"max_hit_points"`
	Inspiration  bool           `json:"inspiration"`
	Conditions   []string       `json:"conditions,omitempty"`
	Inventory    []Item         `json:"inventory,omitempty"`
	DeathSaves   DeathSaveState `json:"death_saves"`
}
