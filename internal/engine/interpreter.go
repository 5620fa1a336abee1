// Package engine contains the response interpreter: the component that
// turns one structured narrative payload into an ordered list of state
// transitions plus detached side-effect requests. The interpreter never
// mutates state itself.
package engine

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/random"
	"saga-server/internal/state"
)

// FallbackNarrative replaces the turn text when the narrative service
// fails or returns an unusable payload. A fallback turn carries no other
// effects.
const FallbackNarrative = "The threads of fate blur for a moment, and the " +
	"storyteller falls silent mid-breath. When the words return, the world " +
	"is as it was. Speak your action again, adventurer."

// Probability gates for the heuristic rules.
const (
	chaosDiceChance     = 0.10
	sideQuestChance     = 0.20
	companionJoinChance = 0.05
)

// DefaultTerminalPhrases confirm an ending signal inside the narrative
// text. The payload's ending flag alone is not trusted; this allow-list is
// configurable because phrase matching against generated prose is fragile.
var DefaultTerminalPhrases = []string{
	"the end",
	"your legend will be remembered",
	"your tale is complete",
	"and so the adventure ends",
	"thus ends the tale",
}

// Config tunes the interpreter's heuristics.
type Config struct {
	TerminalPhrases []string
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{TerminalPhrases: DefaultTerminalPhrases}
}

// SideEffectKind names a detached, non-blocking request.
type SideEffectKind string

const (
	SideEffectSpeech      SideEffectKind = "speech"
	SideEffectSceneImage  SideEffectKind = "scene_image"
	SideEffectLegendTitle SideEffectKind = "legend_title"
)

// SideEffectRequest asks the pipeline to run one detached generation.
type SideEffectRequest struct {
	Kind SideEffectKind
	Text string
}

// NotificationRequest is a user-facing event the interpreter wants
// surfaced; the caller enqueues it on the notification queue.
type NotificationRequest struct {
	Message  string
	Category models.NotificationCategory
}

// Outcome is everything one interpretation pass produced. Transitions are
// ordered and must be applied to the store as one unit.
type Outcome struct {
	Narrative     string
	Fallback      bool
	Transitions   []state.Transition
	SideEffects   []SideEffectRequest
	Notifications []NotificationRequest
}

func (o *Outcome) transition(kind state.Kind, payload any) {
	o.Transitions = append(o.Transitions, state.Transition{Kind: kind, Payload: payload})
}

func (o *Outcome) notify(category models.NotificationCategory, message string) {
	o.Notifications = append(o.Notifications, NotificationRequest{Message: message, Category: category})
}

func (o *Outcome) sideEffect(kind SideEffectKind, text string) {
	o.SideEffects = append(o.SideEffects, SideEffectRequest{Kind: kind, Text: text})
}

// Interpreter applies the fixed, ordered rule catalogue to a structured
// turn payload. It is stateless; every probability gate draws from the
// injected random source.
type Interpreter struct {
	cfg    Config
	rng    random.Source
	logger *zap.Logger
}

// NewInterpreter creates an interpreter.
func NewInterpreter(cfg Config, rng random.Source, logger *zap.Logger) *Interpreter {
	if len(cfg.TerminalPhrases) == 0 {
		cfg.TerminalPhrases = DefaultTerminalPhrases
	}
	return &Interpreter{
		cfg:    cfg,
		rng:    rng,
		logger: logger.Named("Interpreter"),
	}
}

// ruleContext is the shared view one interpretation pass works against.
// Every rule sees the same prior snapshot, never intermediate results.
type ruleContext struct {
	resp  *models.TurnResponse
	prior *models.GameState
	now   time.Time
	out   *Outcome
}

// rule is one entry of the ordered catalogue.
type rule struct {
	name  string
	apply func(it *Interpreter, rc *ruleContext)
}

// The catalogue. Order is contractual: transitions reach the store in
// exactly this rule order.
var rules = []rule{
	{"damage", (*Interpreter).ruleDamage},
	{"healing", (*Interpreter).ruleHealing},
	{"experience", (*Interpreter).ruleExperience},
	{"item_discovery", (*Interpreter).ruleItemDiscovery},
	{"quest_update", (*Interpreter).ruleQuestUpdate},
	{"conditions", (*Interpreter).ruleConditions},
	{"inspiration", (*Interpreter).ruleInspiration},
	{"location", (*Interpreter).ruleLocation},
	{"story_progress", (*Interpreter).ruleStoryProgress},
	{"dice_roll_hint", (*Interpreter).ruleDiceRollHint},
	{"chaos_dice", (*Interpreter).ruleChaosDice},
	{"npc_mention", (*Interpreter).ruleNPCMention},
	{"npc_reaction", (*Interpreter).ruleNPCReaction},
	{"puzzle", (*Interpreter).rulePuzzle},
	{"combat", (*Interpreter).ruleCombat},
	{"skill_check", (*Interpreter).ruleSkillCheck},
	{"side_quest", (*Interpreter).ruleSideQuest},
	{"companion_recruitment", (*Interpreter).ruleCompanionRecruitment},
}

// RuleNames exposes the catalogue order for tests.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// Interpret evaluates the rule catalogue against a prior-state snapshot.
// A nil payload or a payload without narrative text yields the fallback
// outcome: fixed narrative, no transitions, no side effects.
func (it *Interpreter) Interpret(resp *models.TurnResponse, prior models.GameState, now time.Time) Outcome {
	if resp == nil || strings.TrimSpace(resp.Narrative) == "" {
		it.logger.Warn("Unusable turn payload, substituting fallback narrative",
			zap.Bool("nil_payload", resp == nil))
		return Outcome{Narrative: FallbackNarrative, Fallback: true}
	}

	out := Outcome{Narrative: resp.Narrative}
	rc := &ruleContext{resp: resp, prior: &prior, now: now, out: &out}
	for _, r := range rules {
		r.apply(it, rc)
	}

	it.logger.Debug("Interpretation pass complete",
		zap.Int("transitions", len(out.Transitions)),
		zap.Int("side_effects", len(out.SideEffects)),
		zap.Int("notifications", len(out.Notifications)))
	return out
}

// containsTerminalPhrase confirms the ending flag against the narrative.
func (it *Interpreter) containsTerminalPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range it.cfg.TerminalPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
