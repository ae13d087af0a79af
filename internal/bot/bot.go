// Package bot handles Discord interactions: slash commands, message
// components and modal submissions.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/cexll/rivalsbot/internal/command"
	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/logging"
	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
)

// Responder is the subset of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Roster is the storage used by the handlers.
type Roster interface {
	AddCharacters(ctx context.Context, userID, guildID string, class store.Class, names []string) ([]string, error)
	RemoveCharacter(ctx context.Context, userID, guildID string, class store.Class, name string) error
	Roster(ctx context.Context, userID, guildID string) ([]store.ClassRoster, error)
	AddRunningCharacter(ctx context.Context, class store.Class, name, addedBy string) (bool, error)
	RunningPool(ctx context.Context, class store.Class) ([]string, error)
	CreateRequest(ctx context.Context, req store.Request) (int64, error)
}

// Counters resolves counter lookups.
type Counters interface {
	Lookup(input string) (string, counters.Entry, bool)
}

// Deps are the handler's collaborators.
type Deps struct {
	Responder Responder
	Roster    Roster
	Counters  Counters
	Sessions  *session.Registry
	Catalog   *command.Catalog
	// Authorized lists the user IDs allowed to manage the running pool.
	Authorized []string
	Logger     *log.Logger

	SessionTimeout time.Duration
	ModalTimeout   time.Duration
}

// Handler routes interactions to the command flows.
type Handler struct {
	resp       Responder
	roster     Roster
	counters   Counters
	sessions   *session.Registry
	catalog    *command.Catalog
	authorized map[string]struct{}
	logger     *log.Logger

	sessionTimeout time.Duration
	modalTimeout   time.Duration

	commands map[string]func(context.Context, *discordgo.Interaction)
}

// New builds a Handler.
func New(deps Deps) *Handler {
	h := &Handler{
		resp:           deps.Responder,
		roster:         deps.Roster,
		counters:       deps.Counters,
		sessions:       deps.Sessions,
		catalog:        deps.Catalog,
		authorized:     make(map[string]struct{}, len(deps.Authorized)),
		logger:         deps.Logger,
		sessionTimeout: deps.SessionTimeout,
		modalTimeout:   deps.ModalTimeout,
	}
	for _, id := range deps.Authorized {
		h.authorized[id] = struct{}{}
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	if h.sessions == nil {
		h.sessions = session.NewRegistry()
	}
	if h.catalog == nil {
		h.catalog = command.Builtin()
	}
	if h.sessionTimeout <= 0 {
		h.sessionTimeout = 30 * time.Second
	}
	if h.modalTimeout <= 0 {
		h.modalTimeout = 60 * time.Second
	}

	h.commands = map[string]func(context.Context, *discordgo.Interaction){
		command.NameCommands:     h.handleCommands,
		command.NameAdd:          h.handleAdd,
		command.NameLearning:     h.handleLearning,
		command.NameRemove:       h.handleRemove,
		command.NameShow:         h.handleShow,
		command.NameCounter:      h.handleCounter,
		command.NameRequest:      h.handleRequest,
		command.NameRunningChars: h.handleRunningChars,
	}
	return h
}

// OnInteraction matches discordgo's handler signature for AddHandler.
func (h *Handler) OnInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic == nil || ic.Interaction == nil {
		return
	}
	h.Handle(context.Background(), ic.Interaction)
}

// Handle dispatches one interaction.
func (h *Handler) Handle(ctx context.Context, i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		fn, ok := h.commands[name]
		if !ok {
			h.logger.Warn("unknown command", "command", name)
			h.replyEphemeral(i, "Unknown command.")
			return
		}
		h.logger.Debug("command", "command", name, "user", userID(i), "guild", i.GuildID)
		fn(ctx, i)

	case discordgo.InteractionMessageComponent:
		h.routeComponent(ctx, i, i.MessageComponentData().CustomID)

	case discordgo.InteractionModalSubmit:
		h.routeComponent(ctx, i, i.ModalSubmitData().CustomID)
	}
}

func (h *Handler) routeComponent(ctx context.Context, i *discordgo.Interaction, customID string) {
	id, ok := parseCustomID(customID)
	if !ok {
		h.logger.Debug("ignoring component", "custom_id", customID)
		return
	}
	sess, ok := h.sessions.Get(userID(i), id.kind, id.token)
	if !ok {
		h.replyEphemeral(i, msgExpired)
		return
	}
	if !sess.TryAcquire() {
		h.replyEphemeral(i, "Still working on your last selection.")
		return
	}
	defer sess.Release()

	switch id.kind {
	case session.KindAdd:
		h.addStep(ctx, i, sess, id)
	case session.KindLearning:
		h.learningStep(ctx, i, sess, id)
	case session.KindRemove:
		h.removeStep(ctx, i, sess, id)
	case session.KindRunning:
		h.runningStep(ctx, i, sess, id)
	}
}

func (h *Handler) isAuthorized(id string) bool {
	_, ok := h.authorized[id]
	return ok
}

func userID(i *discordgo.Interaction) string {
	if u := interactionUser(i); u != nil {
		return u.ID
	}
	return ""
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func optionString(i *discordgo.Interaction, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt == nil || opt.Name != name {
			continue
		}
		if s, ok := opt.Value.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func modalValue(i *discordgo.Interaction, fieldID string) string {
	for _, c := range i.ModalSubmitData().Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == fieldID {
				return input.Value
			}
		}
	}
	return ""
}
