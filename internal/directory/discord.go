// Package directory adapts a Discord guild to the reconciler's view of a
// membership directory: roles are labels, guild members are members.
package directory

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"example.com/rankboard/internal/domain"
)

const membersPageSize = 1000

// Discord implements reconcile.Directory on top of a gateway session.
type Discord struct {
	session *discordgo.Session
}

// NewDiscord constructs the adapter.
func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// Labels lists every role in the guild.
func (d *Discord) Labels(ctx context.Context, communityID string) ([]domain.Label, error) {
	roles, err := d.session.GuildRoles(communityID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	labels := make([]domain.Label, 0, len(roles))
	for _, role := range roles {
		labels = append(labels, domain.Label{ID: role.ID, Name: role.Name})
	}
	return labels, nil
}

// CreateLabel creates a hoisted, unmentionable role carrying the rank name.
func (d *Discord) CreateLabel(ctx context.Context, communityID, name string) (domain.Label, error) {
	hoist := true
	mentionable := false
	role, err := d.session.GuildRoleCreate(communityID, &discordgo.RoleParams{
		Name:        name,
		Hoist:       &hoist,
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Label{}, err
	}
	return domain.Label{ID: role.ID, Name: role.Name}, nil
}

// Member fetches one guild member with their held role IDs.
func (d *Discord) Member(ctx context.Context, communityID, userID string) (domain.Member, error) {
	member, err := d.session.GuildMember(communityID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Member{}, err
	}
	return toMember(member), nil
}

// AddLabel grants the role to the member.
func (d *Discord) AddLabel(ctx context.Context, communityID, userID, labelID string) error {
	return d.session.GuildMemberRoleAdd(communityID, userID, labelID, discordgo.WithContext(ctx))
}

// RemoveLabels revokes the given roles from the member one by one; the
// gateway offers no bulk removal.
func (d *Discord) RemoveLabels(ctx context.Context, communityID, userID string, labelIDs []string) error {
	for _, id := range labelIDs {
		if err := d.session.GuildMemberRoleRemove(communityID, userID, id, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Members pages through the full guild member list.
func (d *Discord) Members(ctx context.Context, communityID string) ([]domain.Member, error) {
	var members []domain.Member
	after := ""
	for {
		page, err := d.session.GuildMembers(communityID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return members, nil
		}
		for _, m := range page {
			members = append(members, toMember(m))
		}
		after = page[len(page)-1].User.ID
		if len(page) < membersPageSize {
			return members, nil
		}
	}
}

func toMember(m *discordgo.Member) domain.Member {
	member := domain.Member{LabelIDs: m.Roles}
	if m.User != nil {
		member.UserID = m.User.ID
		member.Username = m.User.Username
		member.Automated = m.User.Bot
	}
	return member
}
