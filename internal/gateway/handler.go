// Package gateway translates chat gateway events into core calls.
package gateway

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"example.com/rankboard/internal/domain"
)

// Recorder increments the activity counter for a user.
type Recorder interface {
	RecordActivity(ctx context.Context, userID, username string) (int64, error)
}

// Notifier arms the per-community reconciliation debounce.
type Notifier interface {
	Notify(communityID string)
	NotifyAfter(communityID string, delay time.Duration)
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used to report gateway errors.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler filters raw gateway traffic and feeds the surviving events into
// the store and scheduler. Automated authors, direct messages, and holders
// of an excluded role never reach the core.
type Handler struct {
	recorder  Recorder
	notifier  Notifier
	excluded  map[string]struct{}
	joinDelay time.Duration
	logger    *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(recorder Recorder, notifier Notifier, excludedRoleIDs []string, joinDelay time.Duration, opts ...Option) *Handler {
	h := &Handler{
		recorder:  recorder,
		notifier:  notifier,
		excluded:  make(map[string]struct{}, len(excludedRoleIDs)),
		joinDelay: joinDelay,
		logger:    log.New(log.Writer(), "[gateway] ", log.LstdFlags),
	}
	for _, id := range excludedRoleIDs {
		h.excluded[id] = struct{}{}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the gateway handlers to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onReady)
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onGuildCreate)
}

// HandleActivity records one observed activity event. Filtered events are
// dropped silently; only store failures surface as errors.
func (h *Handler) HandleActivity(ctx context.Context, evt domain.ActivityEvent) error {
	if evt.CommunityID == "" {
		recordFiltered("direct_message")
		return nil
	}
	if evt.Automated {
		recordFiltered("automated")
		return nil
	}
	for _, id := range evt.RoleIDs {
		if _, ok := h.excluded[id]; ok {
			recordFiltered("excluded_role")
			return nil
		}
	}

	if _, err := h.recorder.RecordActivity(ctx, evt.UserID, evt.Username); err != nil {
		return err
	}
	recordActivity(evt.CommunityID)
	h.notifier.Notify(evt.CommunityID)
	return nil
}

func (h *Handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.Printf("logged in as %s (communities=%d)", r.User.String(), len(r.Guilds))
	if err := s.UpdateWatchStatus(0, "message activity"); err != nil {
		h.logger.Printf("presence update failed: %v", err)
	}
}

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	evt := domain.ActivityEvent{
		CommunityID: m.GuildID,
		UserID:      m.Author.ID,
		Username:    m.Author.Username,
		Automated:   m.Author.Bot,
		ObservedAt:  time.Now().UTC(),
	}

	if !evt.Automated && evt.CommunityID != "" {
		roles, err := h.authorRoles(s, m)
		if err != nil {
			h.logger.Printf("member lookup failed (community=%s, user=%s): %v", m.GuildID, m.Author.ID, err)
			return
		}
		evt.RoleIDs = roles
	}

	if err := h.HandleActivity(context.Background(), evt); err != nil {
		h.logger.Printf("activity rejected (community=%s, user=%s): %v", m.GuildID, m.Author.ID, err)
	}
}

func (h *Handler) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	h.logger.Printf("joined community %s (%d members)", g.ID, g.MemberCount)
	h.notifier.NotifyAfter(g.ID, h.joinDelay)
}

// authorRoles resolves the message author's role set, preferring the data
// already on the payload over the state cache and the REST fallback.
func (h *Handler) authorRoles(s *discordgo.Session, m *discordgo.MessageCreate) ([]string, error) {
	if m.Member != nil {
		return m.Member.Roles, nil
	}
	if member, err := s.State.Member(m.GuildID, m.Author.ID); err == nil {
		return member.Roles, nil
	}
	member, err := s.GuildMember(m.GuildID, m.Author.ID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}
