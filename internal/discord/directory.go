// Package discord adapts the Discord API (via discordgo) to the bot's
// command directory and interaction plumbing.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/cexll/rivalsbot/internal/command"
	"github.com/cexll/rivalsbot/internal/logging"
	"github.com/cexll/rivalsbot/internal/reconcile"
)

// CommandAPI is the subset of *discordgo.Session used to manage
// application commands.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// DirectoryConfig fixes the scope and call policy of a Directory.
type DirectoryConfig struct {
	AppID   string
	GuildID string // empty for global commands
	// MaxRetries applies to transient failures only.
	MaxRetries     int
	RequestTimeout time.Duration
	RetryDelay     time.Duration
}

// Directory implements reconcile.Directory for one application and scope.
type Directory struct {
	api    CommandAPI
	cfg    DirectoryConfig
	logger *log.Logger
}

var _ reconcile.Directory = (*Directory)(nil)

// NewDirectory binds api to the application and scope in cfg.
func NewDirectory(api CommandAPI, cfg DirectoryConfig, logger *log.Logger) *Directory {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultInitialDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Directory{api: api, cfg: cfg, logger: logger}
}

// Scope returns "global" or "guild:<id>".
func (d *Directory) Scope() string {
	if d.cfg.GuildID == "" {
		return "global"
	}
	return "guild:" + d.cfg.GuildID
}

// List returns every command registered in the scope.
func (d *Directory) List(ctx context.Context) ([]command.Record, error) {
	var cmds []*discordgo.ApplicationCommand
	err := d.do(ctx, func(ctx context.Context) error {
		var err error
		cmds, err = d.api.ApplicationCommands(d.cfg.AppID, d.cfg.GuildID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	records := make([]command.Record, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		// Only chat input commands take part in reconciliation.
		if cmd.Type != 0 && cmd.Type != discordgo.ChatApplicationCommand {
			continue
		}
		records = append(records, ToRecord(cmd))
	}
	return records, nil
}

// Create registers a new command.
func (d *Directory) Create(ctx context.Context, spec command.Spec) (command.Record, error) {
	var created *discordgo.ApplicationCommand
	payload := toApplicationCommand(spec)
	err := d.do(ctx, func(ctx context.Context) error {
		var err error
		created, err = d.api.ApplicationCommandCreate(d.cfg.AppID, d.cfg.GuildID, payload, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return command.Record{}, classify(err)
	}
	return ToRecord(created), nil
}

// Edit replaces the description and options of an existing command.
func (d *Directory) Edit(ctx context.Context, id string, spec command.Spec) (command.Record, error) {
	var updated *discordgo.ApplicationCommand
	payload := toApplicationCommand(spec)
	err := d.do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = d.api.ApplicationCommandEdit(d.cfg.AppID, d.cfg.GuildID, id, payload, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return command.Record{}, classify(err)
	}
	return ToRecord(updated), nil
}

// Delete removes a command by ID.
func (d *Directory) Delete(ctx context.Context, id string) error {
	err := d.do(ctx, func(ctx context.Context) error {
		return d.api.ApplicationCommandDelete(d.cfg.AppID, d.cfg.GuildID, id, discordgo.WithContext(ctx))
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// do runs one API call with the per-request timeout and transient retries.
func (d *Directory) do(ctx context.Context, call func(ctx context.Context) error) error {
	return retryWithBackoff(ctx, d.logger, d.cfg.MaxRetries, d.cfg.RetryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
		return call(callCtx)
	})
}

// classify maps a Discord error onto the directory error taxonomy.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		status := restErr.Response.StatusCode
		switch {
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %w", reconcile.ErrNotFound, err)
		case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", reconcile.ErrDirectoryUnavailable, err)
		case status >= 400 && status < 500:
			return fmt.Errorf("%w: %w", reconcile.ErrValidationRejected, err)
		}
	}
	return fmt.Errorf("%w: %w", reconcile.ErrDirectoryUnavailable, err)
}
