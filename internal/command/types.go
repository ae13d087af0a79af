// Package command describes slash commands as plain values: the local
// definitions the bot declares and the records the platform reports back.
package command

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// OptionType is the platform's option type enumeration.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
	OptionAttachment      OptionType = 11
)

func (t OptionType) String() string {
	switch t {
	case OptionSubCommand:
		return "sub_command"
	case OptionSubCommandGroup:
		return "sub_command_group"
	case OptionString:
		return "string"
	case OptionInteger:
		return "integer"
	case OptionBoolean:
		return "boolean"
	case OptionUser:
		return "user"
	case OptionChannel:
		return "channel"
	case OptionRole:
		return "role"
	case OptionMentionable:
		return "mentionable"
	case OptionNumber:
		return "number"
	case OptionAttachment:
		return "attachment"
	default:
		return "option_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// ValueKind tags the concrete type held by a ChoiceValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindNumber

	// KindInvalid marks a remote value of an unsupported shape. It never
	// equals a local value.
	KindInvalid ValueKind = -1
)

// ChoiceValue is the value of a choice. Only the field selected by Kind is
// meaningful.
type ChoiceValue struct {
	Kind ValueKind
	Str  string
	Int  int64
	Num  float64
}

// StringValue builds a string choice value.
func StringValue(s string) ChoiceValue { return ChoiceValue{Kind: KindString, Str: s} }

// IntValue builds an integer choice value.
func IntValue(i int64) ChoiceValue { return ChoiceValue{Kind: KindInteger, Int: i} }

// NumberValue builds a floating point choice value.
func NumberValue(f float64) ChoiceValue { return ChoiceValue{Kind: KindNumber, Num: f} }

// Any returns the value as the untyped form expected by JSON encoders.
func (v ChoiceValue) Any() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindNumber:
		return v.Num
	default:
		return v.Str
	}
}

func (v ChoiceValue) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return v.Str
	}
}

// Choice is one predefined value offered for an option.
type Choice struct {
	Label string
	Value ChoiceValue
}

// Option is one parameter of a command. Options holds the nested parameters
// of sub-command and sub-command-group options.
type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	Choices     []Choice
	Options     []Option
}

// Definition is a command as the bot declares it.
type Definition struct {
	Name        string
	Description string
	Options     []Option
	// Deleted asks for the remote command to be removed. A deleted
	// definition is never created.
	Deleted bool
}

// Spec returns the create/edit payload for the definition.
func (d Definition) Spec() Spec {
	return Spec{Name: d.Name, Description: d.Description, Options: d.Options}
}

// Record is a command as currently registered with the platform.
type Record struct {
	ID          string
	Name        string
	Description string
	Options     []Option
}

// Spec is the payload sent to the platform on create and edit.
type Spec struct {
	Name        string
	Description string
	Options     []Option
}

// MaxDescriptionLength is the platform limit for command and option
// descriptions, counted in characters.
const MaxDescriptionLength = 100

// Validate checks the definition against platform limits.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("command name is required")
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return fmt.Errorf("command %q: description exceeds %d characters", d.Name, MaxDescriptionLength)
	}
	return validateOptions(d.Name, d.Options)
}

func validateOptions(path string, options []Option) error {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if opt.Name == "" {
			return fmt.Errorf("command %q: option name is required", path)
		}
		if _, dup := seen[opt.Name]; dup {
			return fmt.Errorf("command %q: duplicate option %q", path, opt.Name)
		}
		seen[opt.Name] = struct{}{}
		if utf8.RuneCountInString(opt.Description) > MaxDescriptionLength {
			return fmt.Errorf("command %q: option %q description exceeds %d characters", path, opt.Name, MaxDescriptionLength)
		}
		for _, c := range opt.Choices {
			if want, ok := choiceKind(opt.Type); !ok || c.Value.Kind != want {
				return fmt.Errorf("command %q: option %q choice %q does not fit a %s option", path, opt.Name, c.Label, opt.Type)
			}
		}
		if err := validateOptions(path+" "+opt.Name, opt.Options); err != nil {
			return err
		}
	}
	return nil
}

// choiceKind reports the value kind a choice must carry for an option type.
// Types that take no choices report false.
func choiceKind(t OptionType) (ValueKind, bool) {
	switch t {
	case OptionString:
		return KindString, true
	case OptionInteger:
		return KindInteger, true
	case OptionNumber:
		return KindNumber, true
	default:
		return KindInvalid, false
	}
}
