package discord

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// SessionConfig configures the gateway/REST session.
type SessionConfig struct {
	Token          string
	RequestTimeout time.Duration
}

// NewSession creates a bot session. It does not open the gateway.
func NewSession(cfg SessionConfig) (*discordgo.Session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	s.Client = &http.Client{Timeout: timeout}
	s.Identify.Intents = discordgo.IntentsGuilds
	// Transient failures are retried by Directory with its own policy.
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = true
	return s, nil
}
