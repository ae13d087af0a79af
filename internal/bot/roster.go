package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
)

const (
	// Discord allows five components per row and five rows per message.
	buttonsPerRow = 5
	maxRows       = 5
	// A select menu holds at most 25 options.
	maxSelectOptions = 25
)

func (h *Handler) handleAdd(_ context.Context, i *discordgo.Interaction) {
	sess := h.sessions.Start(userID(i), session.KindAdd, h.sessionTimeout, i, h.expireWith(msgClassTimeout))
	h.replyComponents(i, "Select a class for your character(s):", classButtons(sess))
}

func (h *Handler) addStep(ctx context.Context, i *discordgo.Interaction, sess *session.Session, id customID) {
	switch id.action {
	case "class":
		class, err := store.ParseClass(id.arg)
		if err != nil {
			h.replyEphemeral(i, msgExpired)
			return
		}
		sess.SetClass(string(class))
		h.sessions.Extend(sess, h.modalTimeout)
		h.showModal(i, makeCustomID(sess, "modal", ""), "Enter Characters for "+class.Label(), discordgo.TextInput{
			CustomID:    "names",
			Label:       "Enter characters (comma-separated):",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "Character1, Character2, Character3",
			Required:    true,
		})

	case "modal":
		class := store.Class(sess.Class())
		names := store.SplitNames(modalValue(i, "names"))
		if len(names) == 0 {
			h.replyEphemeral(i, "Please enter at least one character name.")
			return
		}

		added, err := h.roster.AddCharacters(ctx, userID(i), i.GuildID, class, names)
		if err != nil {
			h.logger.Error("add characters failed", "user", userID(i), "class", class, "error", err)
			h.replyEphemeral(i, "There was an error adding your characters. Please try again later.")
			return
		}
		h.sessions.End(sess)
		if len(added) == 0 {
			h.replyEphemeral(i, "No new characters were added because they already exist (or are similar).")
		} else {
			h.replyEphemeral(i, fmt.Sprintf("Characters added successfully! Class: **%s**, Added: **%s**.",
				class.Label(), strings.Join(added, ", ")))
		}
		h.editOrigin(sess, msgComplete)
	}
}

func (h *Handler) handleLearning(ctx context.Context, i *discordgo.Interaction) {
	pools, err := h.learningPools(ctx)
	if err != nil {
		h.logger.Error("load running pool failed", "error", err)
		h.replyEphemeral(i, "There was an error loading the character list. Please try again later.")
		return
	}
	if len(pools) == 0 {
		h.replyEphemeral(i, "No available characters found for the selected classes.")
		return
	}

	sess := h.sessions.Start(userID(i), session.KindLearning, h.modalTimeout, i,
		h.expireWith("You did not finish your selection in time. Please try again."))
	h.replyComponents(i, "Select characters to add to your Learning class:", learningComponents(sess, pools, false))
}

type classPool struct {
	class store.Class
	names []string
}

func (h *Handler) learningPools(ctx context.Context) ([]classPool, error) {
	var pools []classPool
	for _, c := range store.Classes {
		names, err := h.roster.RunningPool(ctx, c)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			continue
		}
		if len(names) > maxSelectOptions {
			names = names[:maxSelectOptions]
		}
		pools = append(pools, classPool{class: c, names: names})
	}
	return pools, nil
}

func learningComponents(sess *session.Session, pools []classPool, canSubmit bool) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, len(pools)+1)
	for _, p := range pools {
		opts := make([]discordgo.SelectMenuOption, 0, len(p.names))
		for _, name := range p.names {
			opts = append(opts, discordgo.SelectMenuOption{Label: name, Value: name})
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    makeCustomID(sess, "select", string(p.class)),
				Placeholder: "Select characters for " + p.class.Label(),
				MaxValues:   len(opts),
				Options:     opts,
			},
		}})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: makeCustomID(sess, "cancel", "")},
		discordgo.Button{Label: "Submit", Style: discordgo.SuccessButton, CustomID: makeCustomID(sess, "submit", ""), Disabled: !canSubmit},
	}})
	return rows
}

// learningStep collects picks from every class menu into the Learning class.
// Characters stay in whatever scoring class they are already listed under.
func (h *Handler) learningStep(ctx context.Context, i *discordgo.Interaction, sess *session.Session, id customID) {
	switch id.action {
	case "select":
		picks := sess.AddPicks(i.MessageComponentData().Values...)
		pools, err := h.learningPools(ctx)
		if err != nil {
			h.logger.Error("load running pool failed", "error", err)
			h.replyEphemeral(i, "There was an error loading the character list. Please try again later.")
			return
		}
		h.update(i, "Selected characters for Learning: **"+strings.Join(picks, ", ")+"**",
			learningComponents(sess, pools, len(picks) > 0))

	case "cancel":
		h.sessions.End(sess)
		h.update(i, "You have canceled the character addition process.", nil)

	case "submit":
		picks := sess.Picks()
		if len(picks) == 0 {
			h.replyEphemeral(i, "Select at least one character first.")
			return
		}
		added, err := h.roster.AddCharacters(ctx, userID(i), i.GuildID, store.ClassLearning, picks)
		if err != nil {
			h.logger.Error("add learning characters failed", "user", userID(i), "error", err)
			h.replyEphemeral(i, "There was an error saving your characters. Please try again later.")
			return
		}
		h.sessions.End(sess)
		h.update(i, learningSummary(picks, added), nil)
	}
}

func learningSummary(picks, added []string) string {
	inserted := make(map[string]struct{}, len(added))
	for _, a := range added {
		inserted[store.NormalizeName(a)] = struct{}{}
	}
	var existing []string
	for _, p := range picks {
		if _, ok := inserted[store.NormalizeName(p)]; !ok {
			existing = append(existing, p)
		}
	}

	var lines []string
	if len(added) > 0 {
		lines = append(lines, "Your Learning class has been updated with: **"+strings.Join(added, ", ")+"**")
	}
	if len(existing) > 0 {
		lines = append(lines, "Already in your Learning class: **"+strings.Join(existing, ", ")+"**")
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) handleRemove(ctx context.Context, i *discordgo.Interaction) {
	uid := userID(i)
	roster, err := h.roster.Roster(ctx, uid, i.GuildID)
	if err != nil {
		h.logger.Error("load roster failed", "user", uid, "error", err)
		h.replyEphemeral(i, "There was an error fetching your characters.")
		return
	}

	var targets []session.Target
	for _, cr := range roster {
		for _, name := range cr.Characters {
			targets = append(targets, session.Target{Class: string(cr.Class), Name: name})
		}
	}
	if len(targets) == 0 {
		h.replyEphemeral(i, fmt.Sprintf("No characters found for <@%s>.", uid))
		return
	}
	if limit := buttonsPerRow * maxRows; len(targets) > limit {
		targets = targets[:limit]
	}

	sess := h.sessions.Start(uid, session.KindRemove, h.sessionTimeout, i,
		h.expireWith("You did not select a character in time. Please try again."))
	sess.SetTargets(targets)
	h.replyComponents(i, "Select a character to remove from your list:", removeButtons(sess, targets))
}

func removeButtons(sess *session.Session, targets []session.Target) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var current []discordgo.MessageComponent
	for idx, t := range targets {
		if len(current) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: current})
			current = nil
		}
		current = append(current, discordgo.Button{
			Label:    fmt.Sprintf("%s (%s)", t.Name, store.Class(t.Class).Label()),
			Style:    discordgo.DangerButton,
			CustomID: makeCustomID(sess, "pick", strconv.Itoa(idx)),
		})
	}
	if len(current) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: current})
	}
	return rows
}

func (h *Handler) removeStep(ctx context.Context, i *discordgo.Interaction, sess *session.Session, id customID) {
	if id.action != "pick" {
		return
	}
	idx, err := strconv.Atoi(id.arg)
	if err != nil {
		h.replyEphemeral(i, msgExpired)
		return
	}
	target, ok := sess.Target(idx)
	if !ok {
		h.replyEphemeral(i, msgExpired)
		return
	}

	err = h.roster.RemoveCharacter(ctx, userID(i), i.GuildID, store.Class(target.Class), target.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.sessions.End(sess)
		h.update(i, fmt.Sprintf("**%s** is no longer in your list.", target.Name), nil)
	case err != nil:
		h.logger.Error("remove character failed", "user", userID(i), "character", target.Name, "error", err)
		h.replyEphemeral(i, "There was an error removing your character. Please try again later.")
	default:
		h.sessions.End(sess)
		h.update(i, fmt.Sprintf("Character removed successfully! Character: **%s**.", target.Name), nil)
	}
}

func (h *Handler) handleShow(ctx context.Context, i *discordgo.Interaction) {
	target := optionString(i, "member")
	if target == "" {
		target = userID(i)
	}

	roster, err := h.roster.Roster(ctx, target, i.GuildID)
	if err != nil {
		h.logger.Error("load roster failed", "user", target, "error", err)
		h.replyEphemeral(i, "There was an error fetching the character list.")
		return
	}
	if len(roster) == 0 {
		h.replyEphemeral(i, fmt.Sprintf("No characters found for <@%s>.", target))
		return
	}
	h.reply(i, formatRoster(target, roster))
}

func formatRoster(userID string, roster []store.ClassRoster) string {
	sections := make([]string, 0, len(roster))
	for _, cr := range roster {
		sections = append(sections, fmt.Sprintf("**Class:** %s\n**Character(s):** %s",
			cr.Class.Label(), strings.Join(cr.Characters, ", ")))
	}
	return fmt.Sprintf("Characters for <@%s>:\n%s", userID, strings.Join(sections, "\n\n"))
}
