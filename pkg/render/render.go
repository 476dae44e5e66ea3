package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/timezone"
	log "github.com/sirupsen/logrus"
)

// Colors carries the embed colors signalling event state.
type Colors struct {
	Active  int
	Expired int
	Example int
}

// Glyphs are the display forms prefixed to the three decision field labels,
// resolved by the platform binding. Empty glyphs render plain labels.
type Glyphs struct {
	Going    string
	NotGoing string
	Unsure   string
}

// Renderer builds the canonical summary embed from event and participant
// state. Name resolution is its only impure dependency; a participant whose
// name cannot be resolved is omitted rather than failing the render.
type Renderer struct {
	names  platform.NameResolver
	colors Colors
	glyphs Glyphs
}

func New(names platform.NameResolver, colors Colors, glyphs Glyphs) *Renderer {
	return &Renderer{names: names, colors: colors, glyphs: glyphs}
}

func (r *Renderer) Render(ctx context.Context, g guild.Guild, e event.Event) platform.Embed {
	color := r.colors.Active
	if e.Expired {
		color = r.colors.Expired
	}

	going := r.displayNames(ctx, g.ID, e.ParticipantsByDecision(event.Going))
	notGoing := r.displayNames(ctx, g.ID, e.ParticipantsByDecision(event.NotGoing))
	unsure := r.displayNames(ctx, g.ID, e.ParticipantsByDecision(event.Unsure))

	displayTime := timezone.FormatDisplay(timezone.ToDisplay(e.Date, g.UTCOffset))

	return platform.Embed{
		Title:       fmt.Sprintf("[%d] %s", e.ID, e.Name),
		Description: e.Description,
		Color:       color,
		Fields: []platform.EmbedField{
			{Name: "Time", Value: displayTime},
			groupField(r.glyphs.Going, "Going", going),
			groupField(r.glyphs.NotGoing, "Not Going", notGoing),
			groupField(r.glyphs.Unsure, "Unsure", unsure),
		},
	}
}

func (r *Renderer) displayNames(ctx context.Context, guildID string, userIDs []string) []string {
	var names []string
	for _, id := range userIDs {
		name, err := r.names.DisplayName(ctx, guildID, id)
		if err != nil {
			if !fault.IsNotFound(err) {
				log.Warnf("failed to resolve display name for %s: %v", id, err)
			}
			continue
		}
		names = append(names, name)
	}
	return names
}

func groupField(glyph, label string, names []string) platform.EmbedField {
	name := fmt.Sprintf("%s (%d)", label, len(names))
	if glyph != "" {
		name = glyph + " " + name
	}
	value := "-"
	if len(names) > 0 {
		value = strings.Join(names, "\n")
	}
	return platform.EmbedField{Name: name, Value: value, Inline: true}
}
