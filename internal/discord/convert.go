package discord

import (
	"math"

	"github.com/bwmarrin/discordgo"

	"github.com/cexll/rivalsbot/internal/command"
)

// ToRecord converts a registered Discord command.
func ToRecord(cmd *discordgo.ApplicationCommand) command.Record {
	if cmd == nil {
		return command.Record{}
	}
	return command.Record{
		ID:          cmd.ID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Options:     fromOptions(cmd.Options),
	}
}

func toApplicationCommand(spec command.Spec) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        spec.Name,
		Description: spec.Description,
		Options:     toOptions(spec.Options),
	}
}

// toOptions always returns a non-nil slice so an edit clears stale options.
func toOptions(opts []command.Option) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, opt := range opts {
		o := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionType(opt.Type),
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
		}
		if len(opt.Options) > 0 {
			o.Options = toOptions(opt.Options)
		}
		for _, c := range opt.Choices {
			o.Choices = append(o.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  c.Label,
				Value: c.Value.Any(),
			})
		}
		out = append(out, o)
	}
	return out
}

func fromOptions(opts []*discordgo.ApplicationCommandOption) []command.Option {
	if len(opts) == 0 {
		return nil
	}
	out := make([]command.Option, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		opt := command.Option{
			Name:        o.Name,
			Description: o.Description,
			Type:        command.OptionType(o.Type),
			Required:    o.Required,
			Options:     fromOptions(o.Options),
		}
		for _, c := range o.Choices {
			if c == nil {
				continue
			}
			opt.Choices = append(opt.Choices, command.Choice{
				Label: c.Name,
				Value: choiceValue(opt.Type, c.Value),
			})
		}
		out = append(out, opt)
	}
	return out
}

// choiceValue tags a decoded JSON choice value. Integer options decode as
// float64 and are narrowed back to integers.
func choiceValue(t command.OptionType, v any) command.ChoiceValue {
	switch val := v.(type) {
	case string:
		return command.StringValue(val)
	case float64:
		if t == command.OptionInteger && val == math.Trunc(val) {
			return command.IntValue(int64(val))
		}
		return command.NumberValue(val)
	case int:
		return command.IntValue(int64(val))
	case int64:
		return command.IntValue(val)
	case float32:
		return choiceValue(t, float64(val))
	default:
		return command.ChoiceValue{Kind: command.KindInvalid}
	}
}
