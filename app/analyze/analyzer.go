package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/poe2tools/patchwatch/app/patch"
	"github.com/poe2tools/patchwatch/app/pob"
)

const (
	maxTokens     = 4096
	retryAttempts = 3
	retryBaseWait = 2 * time.Second
)

// poe2Context pins the model to PoE2 mechanics; without it the analysis
// drifts into PoE1 knowledge.
const poe2Context = `IMPORTANT CONTEXT FOR PATH OF EXILE 2 ANALYSIS:
- This analysis is strictly for PATH OF EXILE 2. Ignore Path of Exile 1 mechanics where they differ significantly.
- Armour: In PoE2, Armour's effectiveness and typical investment levels differ from PoE1. Do not over-criticize a lack of heavy Armour if other defensive layers suitable for PoE2 are present.
- Flasks, Support Gems, Ascendancies: Mechanics for these are specific to PoE2.
- If detailed information for the main skill is provided from an external database, give that information high importance when analyzing the skill's mechanics, scaling, and potential.
- Consider the latest patch notes and community feedback when making recommendations.
- Focus on PoE2-specific synergies and mechanics rather than PoE1 knowledge.`

// Analyzer sends build and patch data to the Anthropic API.
type Analyzer struct {
	client anthropic.Client
	model  string
}

func New(apiKey, model string) *Analyzer {
	return &Analyzer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// SummarizePatchNote asks the model for a short player-facing digest of
// one patch note.
func (a *Analyzer) SummarizePatchNote(ctx context.Context, note *patch.Note) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following Path of Exile 2 patch note for players.
Call out the most impactful balance changes (buffs and nerfs), new content, and bug fixes.
Keep it under 300 words and use markdown.

Title: %s
Date: %s

%s`, note.Title, note.Date, note.CleanedText)

	return a.complete(ctx, prompt)
}

// SearchSuggestions asks the model for community search terms relevant
// to a build. A response that cannot be parsed as a JSON array yields
// an empty slice, not an error.
func (a *Analyzer) SearchSuggestions(ctx context.Context, build *pob.Build) ([]string, error) {
	prompt := fmt.Sprintf(`Based on this Path of Exile 2 build data, suggest 3-5 specific search terms or phrases that would be useful for finding relevant community discussions, guides, and feedback.
Focus on:
1. The main skill and its mechanics
2. Key unique items
3. Build archetype and playstyle
4. Potential synergies or interactions

Build Data:
%s

Return the suggestions as a JSON array of strings and nothing else.`, build.FormatForPrompt())

	text, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	suggestions := parseSuggestions(text)
	if suggestions == nil {
		slog.Warn("Could not parse search suggestions from model response")
	}
	return suggestions, nil
}

// AnalyzeBuild sends the full build, plus any gathered wiki, community
// and patch-note context, for a structured optimization review.
func (a *Analyzer) AnalyzeBuild(ctx context.Context, build *pob.Build, additionalData, userGoals string) (string, error) {
	contextBlock := poe2Context
	if userGoals != "" {
		contextBlock += "\n\nUSER-SPECIFIC GOALS & CONTEXT:\n" + userGoals
	}

	prompt := fmt.Sprintf(`You are a Path of Exile 2 build optimization expert. I will provide you with data extracted from a Path of Building 2 export, augmented with details from the PoE2 wiki, community forums, and recent patch notes.
Your task is to analyze this build in detail and provide actionable advice, focusing specifically on PoE2 mechanics and synergies.

%s

Please consider the following aspects:
1. **Overall Build Archetype:** Identify the primary damage dealing skill, its damage type(s), and core scaling mechanics.
2. **Offensive Evaluation:** Assess DPS, key contributing stats, and any damage scaling bottlenecks.
3. **Defensive Evaluation:** Assess survivability based on relevant PoE2 layers (Life, ES, Evasion, Resists, Spell Suppression). Comment on EHP.
4. **Gear Analysis:** Evaluate gear suitability. Identify weak pieces and suggest upgrade stats.
5. **Skill Gem Analysis:** Review main skill supports. Comment on utility skills.
6. **Passive Tree Analysis:** General assessment. Suggest pathing or key clusters for the archetype.
7. **Top 3-5 Actionable Improvement Suggestions:** Summarize critical improvements for damage and survivability.
8. **Patch Notes Impact:** Consider how recent changes might affect the build's performance.

Here is the build data:
--- BUILD DATA START ---
%s
--- BUILD DATA END ---

Additional data from various sources:
--- ADDITIONAL DATA START ---
%s
--- ADDITIONAL DATA END ---

Provide your analysis in a clear, structured format. Use markdown for readability.
Focus on practical and actionable advice for a player looking to improve this character.`,
		contextBlock, build.FormatForPrompt(), additionalData)

	return a.complete(ctx, prompt)
}

// complete runs one user-message completion with retries on transient
// API failures.
func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	var response *anthropic.Message
	var err error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait * time.Duration(1<<(attempt-1))
			slog.Warn("Retrying analysis request", "attempt", attempt+1, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		response, err = a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return text.String(), nil
}

// parseSuggestions unmarshals a JSON string array, tolerating markdown
// code fences around it.
func parseSuggestions(text string) []string {
	cleaned := stripFences(text)

	var suggestions []string
	if err := json.Unmarshal([]byte(cleaned), &suggestions); err != nil {
		// Fall back to the first bracketed span in mixed content.
		start := strings.Index(cleaned, "[")
		end := strings.LastIndex(cleaned, "]")
		if start < 0 || end <= start {
			return nil
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &suggestions); err != nil {
			return nil
		}
	}
	return suggestions
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
