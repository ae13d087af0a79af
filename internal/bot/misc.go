package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cexll/rivalsbot/internal/command"
	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
)

var commandHelp = map[string]string{
	command.NameCommands: "Displays a list of all current commands that the bot is able to complete!",
	command.NameAdd: "Update the database with your playable characters. Pick a class, then enter a comma-separated list.\n" +
		"    *Duplicates are removed regardless of capitalization and format (e.g., \"starlord\" and \"Star-Lord\").*",
	command.NameLearning: "Add characters to the learning class. Select any number of characters from any class.",
	command.NameRemove: "Remove a character from your list.\n" +
		"    *One character at a time, for correcting misspellings or moving someone from the wrong class.*",
	command.NameShow: "Show the playable characters you or someone else has entered.\n" +
		"    *Takes an optional member mention, or leave blank to see your own list.*",
	command.NameCounter: "Hard and soft counters for a character.\n" +
		"    *Accepts full or abbreviated names (e.g., \"Psy\", \"Bucky\", \"Wolvie\").*",
	command.NameRequest: "Thought of a command you would like to see? Fill out the fields and create a request!",
}

// helpText lists the active, non-restricted catalog commands.
func helpText(catalog *command.Catalog) string {
	var b strings.Builder
	b.WriteString("**Command List:**\n")
	for _, def := range catalog.Active() {
		if def.Name == command.NameRunningChars {
			continue
		}
		text, ok := commandHelp[def.Name]
		if !ok {
			text = def.Description
		}
		fmt.Fprintf(&b, "\n**/%s**\n    %s\n", def.Name, text)
	}
	b.WriteString("\nUse the respective commands to interact with the system.")
	return b.String()
}

func (h *Handler) handleCommands(_ context.Context, i *discordgo.Interaction) {
	h.replyEphemeral(i, helpText(h.catalog))
}

func (h *Handler) handleCounter(_ context.Context, i *discordgo.Interaction) {
	input := optionString(i, "character")
	if input == "" || h.counters == nil {
		h.replyEphemeral(i, "There was an error retrieving the counter data. Please try again later.")
		return
	}
	name, entry, ok := h.counters.Lookup(input)
	if !ok {
		h.replyEphemeral(i, fmt.Sprintf("No counter information found for **%s**.", name))
		return
	}
	h.reply(i, counters.Format(name, entry))
}

func (h *Handler) handleRequest(ctx context.Context, i *discordgo.Interaction) {
	name := optionString(i, "command_name")
	description := optionString(i, "description")
	if name == "" || description == "" {
		h.replyEphemeral(i, "Please provide both the command name and the description.")
		return
	}

	requestedBy := userID(i)
	if u := interactionUser(i); u != nil && u.Username != "" {
		requestedBy = u.Username
	}
	id, err := h.roster.CreateRequest(ctx, store.Request{
		CommandName:  name,
		SlashCommand: optionString(i, "slash_command"),
		Description:  description,
		RequestedBy:  requestedBy,
	})
	if err != nil {
		h.logger.Error("store command request failed", "command", name, "error", err)
		h.replyEphemeral(i, "There was an error submitting your request. Please try again later.")
		return
	}
	h.logger.Info("command requested", "id", id, "command", name, "by", requestedBy)
	h.replyEphemeral(i, fmt.Sprintf("Your command request for **%s** has been successfully submitted! Thank you for your suggestion.", name))
}

func (h *Handler) handleRunningChars(_ context.Context, i *discordgo.Interaction) {
	uid := userID(i)
	if !h.isAuthorized(uid) {
		h.replyEphemeral(i, "You don't have permission to access this command.")
		return
	}
	sess := h.sessions.Start(uid, session.KindRunning, h.sessionTimeout, i, h.expireWith(msgClassTimeout))
	h.replyComponents(i, "Select a class for the running character:", classButtons(sess))
}

func (h *Handler) runningStep(ctx context.Context, i *discordgo.Interaction, sess *session.Session, id customID) {
	switch id.action {
	case "class":
		class, err := store.ParseClass(id.arg)
		if err != nil {
			h.replyEphemeral(i, msgExpired)
			return
		}
		sess.SetClass(string(class))
		h.sessions.Extend(sess, h.modalTimeout)
		h.showModal(i, makeCustomID(sess, "modal", ""), "Enter Name for "+class.Label(), discordgo.TextInput{
			CustomID:    "name",
			Label:       "Enter character name:",
			Style:       discordgo.TextInputShort,
			Placeholder: "Enter character name",
			Required:    true,
		})

	case "modal":
		class := store.Class(sess.Class())
		name := store.FormatName(modalValue(i, "name"))
		if name == "" {
			h.replyEphemeral(i, "Please enter a character name.")
			return
		}
		added, err := h.roster.AddRunningCharacter(ctx, class, name, userID(i))
		if err != nil {
			h.logger.Error("add running character failed", "class", class, "character", name, "error", err)
			h.replyEphemeral(i, "There was an error saving the character. Please try again later.")
			return
		}
		h.sessions.End(sess)
		if added {
			h.logger.Info("running character added", "class", class, "character", name, "by", userID(i))
			h.replyEphemeral(i, fmt.Sprintf("Character **%s** of class **%s** added successfully!", name, class.Label()))
		} else {
			h.replyEphemeral(i, fmt.Sprintf("**%s** is already in the %s list.", name, class.Label()))
		}
		h.editOrigin(sess, msgComplete)
	}
}
