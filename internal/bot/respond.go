package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
)

const (
	msgExpired      = "This interaction has expired. Please run the command again."
	msgClassTimeout = "You did not select a class in time. Please try again."
	msgComplete     = "Class selection and character input complete."
)

// customID is the parsed form of "<kind>:<token>:<action>[:<arg>]".
type customID struct {
	kind   session.Kind
	token  string
	action string
	arg    string
}

func makeCustomID(s *session.Session, action, arg string) string {
	id := string(s.Kind) + ":" + s.Token + ":" + action
	if arg != "" {
		id += ":" + arg
	}
	return id
}

func parseCustomID(raw string) (customID, bool) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 || parts[1] == "" {
		return customID{}, false
	}
	id := customID{kind: session.Kind(parts[0]), token: parts[1], action: parts[2]}
	if len(parts) == 4 {
		id.arg = parts[3]
	}
	switch id.kind {
	case session.KindAdd, session.KindLearning, session.KindRemove, session.KindRunning:
		return id, true
	default:
		return customID{}, false
	}
}

var classStyles = map[store.Class]discordgo.ButtonStyle{
	store.ClassTank:     discordgo.PrimaryButton,
	store.ClassDPS:      discordgo.DangerButton,
	store.ClassHealer:   discordgo.SuccessButton,
	store.ClassLearning: discordgo.SecondaryButton,
}

func classButtons(s *session.Session) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(store.Classes))
	for _, c := range store.Classes {
		buttons = append(buttons, discordgo.Button{
			Label:    c.Label(),
			Style:    classStyles[c],
			CustomID: makeCustomID(s, "class", string(c)),
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func (h *Handler) respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := h.resp.InteractionRespond(i, resp); err != nil {
		h.logger.Error("interaction response failed", "type", resp.Type, "error", err)
	}
}

func (h *Handler) reply(i *discordgo.Interaction, content string) {
	h.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func (h *Handler) replyEphemeral(i *discordgo.Interaction, content string) {
	h.replyComponents(i, content, nil)
}

func (h *Handler) replyComponents(i *discordgo.Interaction, content string, components []discordgo.MessageComponent) {
	h.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// update rewrites the message the component belongs to.
func (h *Handler) update(i *discordgo.Interaction, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	h.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	})
}

func (h *Handler) showModal(i *discordgo.Interaction, customID, title string, input discordgo.TextInput) {
	h.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}},
			},
		},
	})
}

// editOrigin replaces the content of the reply that started a session and
// strips its components.
func (h *Handler) editOrigin(s *session.Session, content string) {
	origin, ok := s.Origin.(*discordgo.Interaction)
	if !ok || origin == nil {
		return
	}
	empty := []discordgo.MessageComponent{}
	if _, err := h.resp.InteractionResponseEdit(origin, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &empty,
	}); err != nil {
		h.logger.Warn("edit original response failed", "kind", s.Kind, "user", s.UserID, "error", err)
	}
}

// expireWith returns an expiry callback that edits the origin reply.
func (h *Handler) expireWith(content string) func(*session.Session) {
	return func(s *session.Session) {
		h.logger.Debug("session expired", "kind", s.Kind, "user", s.UserID)
		h.editOrigin(s, content)
	}
}
