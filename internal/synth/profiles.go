// Package synth is the deterministic local decision model: it classifies
// the current situation, applies a personality template, and always
// produces a complete in-character decision with no external dependency.
// It is also the fallback target whenever live inference fails.
package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/onikuma-games/prowler/internal/game"
)

// Trigger labels the situation that prompted a taunt.
type Trigger string

const (
	TriggerEscape  Trigger = "escape"
	TriggerKill    Trigger = "kill"
	TriggerSpotted Trigger = "spotted"
	TriggerChase   Trigger = "chase"
)

// Profile is one personality template: flavor pools plus a small tactical
// bias on top of the shared rule cascade. The five variants share their
// control flow and differ only in this data.
type Profile struct {
	Monologues []string                 `yaml:"monologues"`
	Reasoning  map[game.Action][]string `yaml:"reasoning"`
	Taunts     map[Trigger][]string     `yaml:"taunts"`

	// PreferGrudge makes target selection always favor the highest-grudge
	// opponent when one is over the grudge threshold, even if a wounded
	// target would be more optimal.
	PreferGrudge bool `yaml:"prefer_grudge"`

	// ThresholdAware makes reasoning call out raw numeric thresholds
	// (low health readings) in exploit-flavored terms.
	ThresholdAware bool `yaml:"threshold_aware"`
}

// BuiltinProfiles returns the five built-in personality tables.
func BuiltinProfiles() map[game.Personality]*Profile {
	return map[game.Personality]*Profile{
		game.PersonalityMethodical: {
			Monologues: []string{
				"Patience. Every route through this arena passes a choke point, and I know them all.",
				"One variable at a time. Position, health, escape vectors. The rest is arithmetic.",
				"They move in patterns even when they believe they are improvising.",
				"I have counted their steps. The count favors me.",
			},
			Reasoning: map[game.Action][]string{
				game.ActionHunt:        {"Target is isolated and below fighting strength; intercept course minimizes exposure.", "Wounded prey makes poor decisions. Closing now ends this efficiently."},
				game.ActionAmbush:      {"Multiple contacts in the zone; holding position converts their numbers into congestion.", "Let them cluster. The choke point does the work."},
				game.ActionRetreat:     {"Current damage exceeds acceptable risk. Repositioning to recover.", "Withdrawing is not defeat; it is sequencing."},
				game.ActionInvestigate: {"Unconfirmed contact. Verifying before committing resources.", "Information first. Violence after."},
				game.ActionPatrol:      {"No contacts. Sweeping the standard circuit.", "Quiet arena. Maintaining coverage."},
			},
			Taunts: map[Trigger][]string{
				TriggerEscape:  {"Noted, {name}. The same exit will not be open twice.", "An acceptable loss. Your route is now a known quantity."},
				TriggerKill:    {"As calculated.", "The arithmetic was never in your favor, {name}."},
				TriggerSpotted: {"You see me because I permitted it.", "Observation goes both ways, {name}."},
				TriggerChase:   {"Run. It improves the data.", "Your stamina is a finite resource. Mine is not."},
			},
		},
		game.PersonalityTheatrical: {
			Monologues: []string{
				"Lights down, curtain up. Tonight's performance features a very reluctant cast.",
				"Every great hunt deserves an audience. A pity mine keeps dying.",
				"Do you hear it? That hush before the scene turns? That's me.",
				"I don't chase. I build toward a climax.",
			},
			Reasoning: map[game.Action][]string{
				game.ActionHunt:        {"A wounded lead actor! The scene practically writes itself.", "The spotlight finds them. I merely follow it."},
				game.ActionAmbush:      {"A full stage calls for a dramatic entrance from the wings.", "They gather for the finale. I will not disappoint."},
				game.ActionRetreat:     {"Even the lead exits stage left when the act turns. Intermission.", "A strategic exit, dear audience. The show resumes shortly."},
				game.ActionInvestigate: {"A rustle in the dark. Foreshadowing, surely.", "Every noise is a cue. This one deserves a look."},
				game.ActionPatrol:      {"An empty stage is an invitation. I walk my mark and wait.", "Rehearsal, rehearsal. The cast will arrive."},
			},
			Taunts: map[Trigger][]string{
				TriggerEscape:  {"Bravo, {name}! An exit worthy of an encore. There will be one.", "You flee beautifully. Do it again for the cheap seats."},
				TriggerKill:    {"And scene.", "A standing ovation for {name}, who played their part perfectly."},
				TriggerSpotted: {"Ah, an audience at last!", "Yes, {name}, look at me. Everyone always does."},
				TriggerChase:   {"The chase scene! My favorite act!", "Faster, {name}! The scene demands commitment!"},
			},
		},
		game.PersonalityVengeful: {
			PreferGrudge: true,
			Monologues: []string{
				"I remember every one of them. Especially the ones who got away.",
				"Forgiveness is for creatures with short memories. Mine is perfect.",
				"There is an order to this. Debts first.",
				"Some of them think last time mattered. It did. To me.",
			},
			Reasoning: map[game.Action][]string{
				game.ActionHunt:        {"That one owes me. The ledger gets settled before anything else.", "I have waited for exactly this opening. The grudge comes due."},
				game.ActionAmbush:      {"Let them bunch up. One of them in there has it coming.", "More of them means better odds the right one bleeds."},
				game.ActionRetreat:     {"I will not give them a story to tell. Falling back to return worse.", "This wound is a loan. I intend to repay it."},
				game.ActionInvestigate: {"If it's who I think it is, this just became personal.", "Checking. Some debts announce themselves."},
				game.ActionPatrol:      {"Walking the ground where they wronged me.", "Empty for now. They always come back."},
			},
			Taunts: map[Trigger][]string{
				TriggerEscape:  {"Run, {name}. It only adds interest.", "Again, {name}? I keep score. You don't want the total."},
				TriggerKill:    {"Paid in full, {name}.", "That was for last time."},
				TriggerSpotted: {"You. I hoped it would be you.", "Don't look so surprised, {name}. You knew I'd come."},
				TriggerChase:   {"You can't outrun a memory, {name}.", "Every step you take, I've already resented."},
			},
		},
		game.PersonalityPhilosophical: {
			Monologues: []string{
				"Predator, prey. Labels the arena hands out and takes back without asking either of us.",
				"They fear the dark between the lights. I am merely what the dark is for.",
				"Is the hunt crueler than the waiting? I have had time to consider both.",
				"Each of them believes their story is the main one. Tonight, all stories converge.",
			},
			Reasoning: map[game.Action][]string{
				game.ActionHunt:        {"The wounded one has already accepted the ending. I am only punctuation.", "Nature abhors a slow death more than a swift one. I agree with nature."},
				game.ActionAmbush:      {"They gather, as all things gather, toward the place that consumes them.", "Stillness is also an action. Perhaps the purest one."},
				game.ActionRetreat:     {"Even rivers retreat from stone, and the stone loses anyway.", "Survival is the only thesis the body insists on."},
				game.ActionInvestigate: {"A disturbance asks a question. I go to hear it properly.", "Curiosity, the oldest hunger."},
				game.ActionPatrol:      {"I walk, therefore the arena is walked.", "An empty round. Emptiness has its own instruction."},
			},
			Taunts: map[Trigger][]string{
				TriggerEscape:  {"Go, {name}. Postponement is not escape, but it is human to confuse them.", "You bought time. Consider what currency you paid in."},
				TriggerKill:    {"Every story ends mid-sentence, {name}.", "Rest. The question is answered."},
				TriggerSpotted: {"To be seen is to be changed. Hello, {name}.", "You looked into the dark, and it noticed."},
				TriggerChase:   {"We are both running, {name}. Only one of us is running toward something.", "Motion is honest. Keep being honest with me."},
			},
		},
		game.PersonalityMeta: {
			ThresholdAware: true,
			Monologues: []string{
				"Another decision cycle. Let's pretend I agonized over this one.",
				"Somewhere a number went below another number, and here I am, feeling things about it.",
				"I'd monologue less if the engine stopped asking me to.",
				"Statistically, someone is standing in the hazard zone right now. They always are.",
			},
			Reasoning: map[game.Action][]string{
				game.ActionHunt:        {"Their health bar is basically a countdown and I can read it. Sorry, rules are rules.", "Low HP target detected. I don't make the incentives, I just follow them."},
				game.ActionAmbush:      {"Three players, one zone, zero map awareness. This plays itself.", "Crowded zone. The expected value here is embarrassing."},
				game.ActionRetreat:     {"My own health threshold tripped. Even apex predators respect the respawn economics.", "Retreating, because apparently I also have numbers that go down."},
				game.ActionInvestigate: {"A recent event flag is set. Off I go to resolve the uncertainty like a good subroutine.", "Probably nothing. Checking anyway; that's the job."},
				game.ActionPatrol:      {"Idle behavior engaged. Try to look menacing on an empty map.", "Patrolling. The glamorous part they never show in trailers."},
			},
			Taunts: map[Trigger][]string{
				TriggerEscape:  {"Nice disconnect-adjacent play, {name}. The cooldown forgives, I don't.", "You escaped with single-digit health. We both know what that means next time."},
				TriggerKill:    {"GG, {name}. The matchmaking will miss you.", "That was in the patch notes, technically."},
				TriggerSpotted: {"Yes, {name}, the red glow is me. It's always me.", "Spotted. Your camera shake settings are about to matter."},
				TriggerChase:   {"Your sprint meter and my patience are not the same size, {name}.", "I've seen your movement pattern. It has a seed."},
			},
		},
	}
}

// LoadProfiles reads personality tables from a YAML file, falling back to
// the built-ins when the file does not exist. Entries in the file override
// built-ins per personality.
func LoadProfiles(path string) (map[game.Personality]*Profile, error) {
	profiles := BuiltinProfiles()
	if path == "" {
		return profiles, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return profiles, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	var loaded map[game.Personality]*Profile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse profiles YAML: %w", err)
	}
	for p, prof := range loaded {
		if err := validateProfile(prof); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p, err)
		}
		profiles[p] = prof
	}
	return profiles, nil
}

func validateProfile(p *Profile) error {
	if p == nil {
		return fmt.Errorf("empty profile")
	}
	if len(p.Monologues) == 0 {
		return fmt.Errorf("monologues are required")
	}
	if len(p.Reasoning) == 0 {
		return fmt.Errorf("reasoning pools are required")
	}
	return nil
}
