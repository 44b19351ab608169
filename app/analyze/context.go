package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poe2tools/patchwatch/app/pob"
	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
)

// WikiSource looks up one skill or item page.
type WikiSource interface {
	Fetch(ctx context.Context, name, elementType string) (*scrape.WikiData, error)
}

// CommunitySource searches community discussions for a term.
type CommunitySource interface {
	RedditPosts(ctx context.Context, term string) (*scrape.CommunityData, error)
	ForumPosts(ctx context.Context, term string) (*scrape.CommunityData, error)
}

// DetailSource looks up skill detail pages on the game database.
type DetailSource interface {
	Fetch(ctx context.Context, name string) (*scrape.DetailData, error)
}

// ContextGatherer assembles the additional-data block that accompanies
// a build analysis: wiki pages for the main skill and unique items,
// community search hits, database details and recent patch notes. Every
// source is optional; a nil source or a failed fetch just leaves its
// section out.
type ContextGatherer struct {
	Wiki      WikiSource
	Community CommunitySource
	Details   DetailSource
	Notes     *storage.Store
}

// Gather builds the additional-data text for one build. searchTerms are
// typically the model's own suggestions; the main skill name is always
// searched as well.
func (g *ContextGatherer) Gather(ctx context.Context, build *pob.Build, searchTerms []string) string {
	var sections []string

	if section := g.wikiSection(ctx, build); section != "" {
		sections = append(sections, section)
	}
	if section := g.detailSection(ctx, build); section != "" {
		sections = append(sections, section)
	}
	if section := g.communitySection(ctx, build, searchTerms); section != "" {
		sections = append(sections, section)
	}
	if section := g.patchNotesSection(); section != "" {
		sections = append(sections, section)
	}

	return strings.Join(sections, "\n\n")
}

func (g *ContextGatherer) wikiSection(ctx context.Context, build *pob.Build) string {
	if g.Wiki == nil {
		return ""
	}

	var parts []string
	if build.MainSkillName != "" && build.MainSkillName != "N/A" {
		if data, err := g.Wiki.Fetch(ctx, build.MainSkillName, "skill"); err == nil {
			parts = append(parts, formatWikiData(data))
		} else {
			slog.Warn("Wiki lookup failed", "name", build.MainSkillName, "error", err)
		}
	}
	for _, item := range build.Items {
		if item.Rarity != "UNIQUE" {
			continue
		}
		if data, err := g.Wiki.Fetch(ctx, item.Name, "item"); err == nil {
			parts = append(parts, formatWikiData(data))
		} else {
			slog.Warn("Wiki lookup failed", "name", item.Name, "error", err)
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "=== WIKI DATA ===\n" + strings.Join(parts, "\n")
}

func formatWikiData(data *scrape.WikiData) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("\n%s (%s):", strings.ToUpper(data.Name), data.Type))
	if data.Description != "N/A" {
		lines = append(lines, "Description: "+data.Description)
	}
	if data.Mechanics != "N/A" {
		lines = append(lines, "Mechanics:\n"+data.Mechanics)
	}
	if len(data.VersionHistory) > 0 {
		lines = append(lines, "Version History:")
		for _, row := range data.VersionHistory {
			lines = append(lines, "- "+row)
		}
	}
	return strings.Join(lines, "\n")
}

func (g *ContextGatherer) detailSection(ctx context.Context, build *pob.Build) string {
	if g.Details == nil || build.MainSkillName == "" || build.MainSkillName == "N/A" {
		return ""
	}

	data, err := g.Details.Fetch(ctx, build.MainSkillName)
	if err != nil {
		slog.Warn("Detail lookup failed", "name", build.MainSkillName, "error", err)
		return ""
	}

	var lines []string
	lines = append(lines, "=== SKILL DATABASE DETAILS ===")
	lines = append(lines, data.Name+":")
	if data.Stats != "N/A" {
		lines = append(lines, "Stats: "+data.Stats)
	}
	if data.Tables != "N/A" {
		lines = append(lines, data.Tables)
	}
	return strings.Join(lines, "\n")
}

func (g *ContextGatherer) communitySection(ctx context.Context, build *pob.Build, searchTerms []string) string {
	if g.Community == nil {
		return ""
	}

	terms := searchTerms
	if build.MainSkillName != "" && build.MainSkillName != "N/A" {
		terms = append([]string{build.MainSkillName}, terms...)
	}

	var reddit, forum []scrape.CommunityPost
	for _, term := range terms {
		if data, err := g.Community.RedditPosts(ctx, term); err == nil {
			reddit = append(reddit, data.Posts...)
		} else {
			slog.Warn("Reddit search failed", "term", term, "error", err)
		}
		if data, err := g.Community.ForumPosts(ctx, term); err == nil {
			forum = append(forum, data.Posts...)
		} else {
			slog.Warn("Forum search failed", "term", term, "error", err)
		}
	}
	if len(reddit) == 0 && len(forum) == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, "=== COMMUNITY DATA ===")
	if len(reddit) > 0 {
		lines = append(lines, "\nRelevant Reddit Posts:")
		for _, post := range reddit {
			lines = append(lines, fmt.Sprintf("\n- %s", post.Title))
			lines = append(lines, fmt.Sprintf("  Score: %d, Comments: %d", post.Score, post.NumComments))
			if post.Body != "" {
				lines = append(lines, "  "+truncate(post.Body, 200))
			}
		}
	}
	if len(forum) > 0 {
		lines = append(lines, "\nRelevant Forum Posts:")
		for _, post := range forum {
			lines = append(lines, fmt.Sprintf("\n- %s", post.Title))
			if post.Body != "" {
				lines = append(lines, "  "+truncate(post.Body, 200))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// patchNotesSection includes the latest stored note in full plus the
// titles of up to three more recent ones.
func (g *ContextGatherer) patchNotesSection() string {
	if g.Notes == nil {
		return ""
	}

	entries, err := g.Notes.List()
	if err != nil || len(entries) == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, "=== LATEST PATCH NOTES ===")
	latest := entries[0].Note
	lines = append(lines, fmt.Sprintf("\n%s", latest.Title))
	lines = append(lines, "Date: "+latest.Date)
	lines = append(lines, "\n"+latest.Summary)

	if len(entries) > 1 {
		lines = append(lines, "\nOther Recent Patches:")
		for _, entry := range entries[1:min(4, len(entries))] {
			lines = append(lines, fmt.Sprintf("\n- %s (%s)", entry.Note.Title, entry.Note.Date))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
