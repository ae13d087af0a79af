package command

// Names of the commands the bot declares.
const (
	NameCommands     = "commands"
	NameAdd          = "add"
	NameLearning     = "learning"
	NameRemove       = "remove"
	NameShow         = "show"
	NameCounter      = "counter"
	NameRequest      = "request"
	NameRunningChars = "runningchars"
	NameTime         = "time"
)

// Builtin returns the bot's command catalog.
func Builtin() *Catalog {
	return MustCatalog(
		Definition{
			Name:        NameCommands,
			Description: "Display a list of all available commands and their usage.",
		},
		Definition{
			Name:        NameAdd,
			Description: "Add or update your characters in the database",
		},
		Definition{
			Name:        NameLearning,
			Description: "Add characters you are learning from the running character list",
		},
		Definition{
			Name:        NameRemove,
			Description: "Remove a character from your character list",
		},
		Definition{
			Name:        NameShow,
			Description: "Display all characters and classes of a specified member",
			Options: []Option{
				{
					Name:        "member",
					Description: "Select whose characters you want to display",
					Type:        OptionUser,
				},
			},
		},
		Definition{
			Name:        NameCounter,
			Description: "Get hard and soft counters for a character",
			Options: []Option{
				{
					Name:        "character",
					Description: "The name of the character to get counters for",
					Type:        OptionString,
					Required:    true,
				},
			},
		},
		Definition{
			Name:        NameRequest,
			Description: "Submit a request for a new command to be added.",
			Options: []Option{
				{
					Name:        "command_name",
					Description: "The name of the command you are requesting",
					Type:        OptionString,
					Required:    true,
				},
				{
					Name:        "slash_command",
					Description: "The / command for your command",
					Type:        OptionString,
					Required:    true,
				},
				{
					Name:        "description",
					Description: "A short description of what the command should do",
					Type:        OptionString,
					Required:    true,
				},
			},
		},
		Definition{
			Name:        NameRunningChars,
			Description: "Add or update your running characters in the database",
		},
		// Never worked reliably; kept so existing registrations get removed.
		Definition{
			Name:        NameTime,
			Description: "Get the current time in your timezone and other US time zones.",
			Deleted:     true,
			Options: []Option{
				{
					Name:        "timezone",
					Description: "The timezone of the user (e.g. \"America/New_York\"). Defaults to EST.",
					Type:        OptionString,
				},
			},
		},
	)
}
