package bot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/roblox"
	"github.com/deptflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	posted    map[string][]*discordgo.MessageEmbed
	channels  map[string]*discordgo.Channel
	channelErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		posted:   make(map[string][]*discordgo.MessageEmbed),
		channels: map[string]*discordgo.Channel{"log-1": {ID: "log-1", Name: "dept-log"}},
	}
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted[channelID] = append(f.posted[channelID], embed)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("HTTP 404 Not Found")
	}
	return ch, nil
}

// lastText 返回最后一条发给发起者的文本
func (f *fakeSession) lastText() string {
	if n := len(f.followups); n > 0 {
		return f.followups[n-1].Content
	}
	for i := len(f.responses) - 1; i >= 0; i-- {
		if f.responses[i].Data != nil && f.responses[i].Data.Content != "" {
			return f.responses[i].Data.Content
		}
	}
	return ""
}

type memoryConfigs struct {
	configs map[string]*db.GuildConfig
	saveErr error
}

func (m *memoryConfigs) Save(input service.GuildConfigInput) (*db.GuildConfig, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	record := &db.GuildConfig{GuildID: input.GuildID, LogChannelID: input.LogChannelID, ManageRoleID: input.ManageRoleID}
	if input.ALMessage != "" {
		msg := input.ALMessage
		record.ALMessage = &msg
	}
	m.configs[input.GuildID] = record
	return record, nil
}

func (m *memoryConfigs) Get(guildID string) (*db.GuildConfig, error) {
	record, ok := m.configs[guildID]
	if !ok {
		return nil, service.ErrGuildNotConfigured
	}
	return record, nil
}

type stubAvatars struct {
	result roblox.Result
	calls  []string
}

func (s *stubAvatars) Lookup(_ context.Context, username string) roblox.Result {
	s.calls = append(s.calls, username)
	return s.result
}

func strOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func interaction(name string, member *discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild-1",
		Member:  member,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}}
}

func officer(roles ...string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: "user-1"}, Roles: roles}
}

func newTestBot(t *testing.T, configs *memoryConfigs, avatars *stubAvatars) *Bot {
	t.Helper()
	b, err := New(Deps{Configs: configs, Avatars: avatars, Cooldown: 5 * time.Second})
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	return b
}

func configured() *memoryConfigs {
	msg := "You have been placed on Administrative Leave."
	return &memoryConfigs{configs: map[string]*db.GuildConfig{
		"guild-1": {GuildID: "guild-1", LogChannelID: "log-1", ManageRoleID: "role-1", ALMessage: &msg},
	}}
}

func actionInteraction(member *discordgo.Member, extra ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("user", "builderman"),
		strOpt("title", "Employee Action"),
		strOpt("action", "has been **awarded**"),
		strOpt("color", "gold"),
	}
	return interaction("action", member, append(opts, extra...)...)
}

func TestValidateCommands(t *testing.T) {
	handler := func(context.Context, *reply) error { return nil }
	cases := map[string]map[string]command{
		"empty":        {},
		"blank name":   {" ": {def: &discordgo.ApplicationCommand{Name: " "}, handle: handler}},
		"no def":       {"x": {handle: handler}},
		"name differs": {"x": {def: &discordgo.ApplicationCommand{Name: "y"}, handle: handler}},
		"no handler":   {"x": {def: &discordgo.ApplicationCommand{Name: "x"}}},
	}
	for name, cmds := range cases {
		assert.Error(t, validateCommands(cmds), name)
	}
	assert.NoError(t, validateCommands(map[string]command{"x": {def: &discordgo.ApplicationCommand{Name: "x"}, handle: handler}}))
}

func TestCommandsSorted(t *testing.T) {
	b := newTestBot(t, configured(), &stubAvatars{})
	var names []string
	for _, def := range b.Commands() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"action", "roblox", "setup"}, names)
}

func TestSetupRequiresAdministrator(t *testing.T) {
	s := newFakeSession()
	configs := &memoryConfigs{configs: map[string]*db.GuildConfig{}}
	b := newTestBot(t, configs, &stubAvatars{})

	b.HandleInteraction(context.Background(), s, interaction("setup", officer()))

	require.Len(t, s.responses, 1)
	assert.Equal(t, msgMissingPermission, s.responses[0].Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, s.responses[0].Data.Flags)
	assert.Empty(t, configs.configs)
}

func TestSetupSavesConfig(t *testing.T) {
	s := newFakeSession()
	configs := &memoryConfigs{configs: map[string]*db.GuildConfig{}}
	b := newTestBot(t, configs, &stubAvatars{})

	admin := officer()
	admin.Permissions = discordgo.PermissionAdministrator
	b.HandleInteraction(context.Background(), s, interaction("setup", admin,
		&discordgo.ApplicationCommandInteractionDataOption{Name: "log_channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "log-9"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "manage_role", Type: discordgo.ApplicationCommandOptionRole, Value: "role-9"},
		strOpt("al_message", "On leave"),
	))

	saved := configs.configs["guild-1"]
	require.NotNil(t, saved)
	assert.Equal(t, "log-9", saved.LogChannelID)
	assert.Equal(t, "role-9", saved.ManageRoleID)

	require.Len(t, s.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, s.responses[0].Type)
	require.Len(t, s.followups, 1)
	embed := s.followups[0].Embeds[0]
	assert.Equal(t, "Bot Configuration", embed.Title)
	assert.Equal(t, colorGreen, embed.Color)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "Set to <#log-9>", embed.Fields[0].Value)
	assert.Equal(t, "Set to <@&role-9>", embed.Fields[1].Value)
	assert.Equal(t, "On leave", embed.Fields[2].Value)
}

func TestSetupSaveFailure(t *testing.T) {
	s := newFakeSession()
	configs := &memoryConfigs{configs: map[string]*db.GuildConfig{}, saveErr: errors.New("disk full")}
	b := newTestBot(t, configs, &stubAvatars{})

	admin := officer()
	admin.Permissions = discordgo.PermissionAdministrator
	b.HandleInteraction(context.Background(), s, interaction("setup", admin,
		&discordgo.ApplicationCommandInteractionDataOption{Name: "log_channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "log-9"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "manage_role", Type: discordgo.ApplicationCommandOptionRole, Value: "role-9"},
	))

	assert.Equal(t, msgSaveFailed, s.lastText())
}

func TestActionNotConfigured(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, &memoryConfigs{configs: map[string]*db.GuildConfig{}}, &stubAvatars{})

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))

	assert.Equal(t, msgNotConfigured, s.lastText())
}

func TestActionRequiresRole(t *testing.T) {
	s := newFakeSession()
	avatars := &stubAvatars{}
	b := newTestBot(t, configured(), avatars)

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("other-role")))

	assert.Equal(t, msgMissingRole, s.lastText())
	assert.Empty(t, avatars.calls)
	assert.Empty(t, s.posted)
}

func TestActionPostsEmbedWithAvatar(t *testing.T) {
	s := newFakeSession()
	avatars := &stubAvatars{result: roblox.Result{Status: roblox.Found, URL: "https://cdn/avatar.png"}}
	b := newTestBot(t, configured(), avatars)

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1"),
		strOpt("notes", "Great work"),
		&discordgo.ApplicationCommandInteractionDataOption{Name: "include_message", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	))

	require.Len(t, s.posted["log-1"], 1)
	embed := s.posted["log-1"][0]
	assert.Equal(t, "Employee Action", embed.Title)
	assert.Equal(t, "builderman has been **awarded**", embed.Description)
	assert.Equal(t, 0xf1c40f, embed.Color)
	assert.Equal(t, "2024-05-06T12:00:00Z", embed.Timestamp)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://cdn/avatar.png", embed.Image.URL)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Notes", embed.Fields[0].Name)
	assert.Equal(t, "Administrative Leave", embed.Fields[1].Name)

	assert.Equal(t, "✅ Action message sent to the log channel!", s.lastText())
	assert.Equal(t, []string{"builderman"}, avatars.calls)
}

func TestActionAvatarFailuresDegradeToNote(t *testing.T) {
	cases := map[roblox.Status]string{
		roblox.NotFound:       "⚠️ Could not fetch Roblox profile image",
		roblox.TimedOut:       "⚠️ Timed out while fetching Roblox profile image",
		roblox.TransientError: "⚠️ Error fetching Roblox profile image",
	}
	for status, note := range cases {
		t.Run(status.String(), func(t *testing.T) {
			s := newFakeSession()
			b := newTestBot(t, configured(), &stubAvatars{result: roblox.Result{Status: status}})

			b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))

			require.Len(t, s.posted["log-1"], 1)
			embed := s.posted["log-1"][0]
			assert.Nil(t, embed.Image)
			require.Len(t, embed.Fields, 1)
			assert.Equal(t, "Note", embed.Fields[0].Name)
			assert.Equal(t, note, embed.Fields[0].Value)
			assert.Equal(t, "✅ Action message sent to the log channel!", s.lastText())
		})
	}
}

func TestActionCooldown(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{result: roblox.Result{Status: roblox.NotFound}})
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))
	now = now.Add(1500 * time.Millisecond)
	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))

	assert.Equal(t, "Please wait 3.50 seconds before using this command again.", s.lastText())
	assert.Len(t, s.posted["log-1"], 1)

	now = now.Add(4 * time.Second)
	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))
	assert.Len(t, s.posted["log-1"], 2)
}

func TestActionCooldownChargedBeforeRoleCheck(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{result: roblox.Result{Status: roblox.NotFound}})
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("other-role")))
	assert.Equal(t, msgMissingRole, s.lastText())

	now = now.Add(time.Second)
	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))
	assert.Equal(t, "Please wait 4.00 seconds before using this command again.", s.lastText())
	assert.Empty(t, s.posted["log-1"])
}

func TestActionMissingLogChannel(t *testing.T) {
	s := newFakeSession()
	delete(s.channels, "log-1")
	b := newTestBot(t, configured(), &stubAvatars{})

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))

	assert.Equal(t, msgLogChannelMissing, s.lastText())
}

func TestActionRateLimited(t *testing.T) {
	s := newFakeSession()
	s.channelErr = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	b := newTestBot(t, configured(), &stubAvatars{})

	b.HandleInteraction(context.Background(), s, actionInteraction(officer("role-1")))

	assert.Equal(t, msgRateLimited, s.lastText())
}

func TestActionInvalidCustomColor(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{})

	in := actionInteraction(officer("role-1"), strOpt("custom_color", "#GGGGGG"))
	in.ApplicationCommandData().Options[3].Value = "default"
	b.HandleInteraction(context.Background(), s, in)

	assert.Equal(t, msgInvalidColor, s.lastText())
	assert.Empty(t, s.posted)
}

func TestRobloxCommand(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{result: roblox.Result{Status: roblox.Found, URL: "https://cdn/a.png"}})

	b.HandleInteraction(context.Background(), s, interaction("roblox", nil, strOpt("username", "builderman")))

	require.Len(t, s.responses, 1)
	assert.Nil(t, s.responses[0].Data, "roblox replies are channel visible")
	require.Len(t, s.followups, 1)
	embed := s.followups[0].Embeds[0]
	assert.Equal(t, "Roblox Profile: builderman", embed.Title)
	assert.Equal(t, colorBlue, embed.Color)
	assert.Equal(t, "https://cdn/a.png", embed.Image.URL)
}

func TestRobloxCommandNotFound(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{result: roblox.Result{Status: roblox.NotFound}})

	b.HandleInteraction(context.Background(), s, interaction("roblox", nil, strOpt("username", "ghost")))

	assert.Equal(t, "❌ Couldn't find Roblox profile for username: ghost", s.lastText())
}

func TestUnknownCommandAnsweredGenerically(t *testing.T) {
	s := newFakeSession()
	b := newTestBot(t, configured(), &stubAvatars{})

	b.HandleInteraction(context.Background(), s, interaction("dance", officer()))

	assert.Equal(t, msgUnexpected, s.lastText())
}

func TestResolveColor(t *testing.T) {
	cases := []struct {
		preset, custom string
		want           int
		wantErr        bool
	}{
		{"aqua", "", 0x3498db, false},
		{"Dark_Gold", "", 0xc27c0e, false},
		{"green", "#000000", 0x2ecc71, false},
		{"default", "", 0, false},
		{"default", "#FF0000", 0xff0000, false},
		{"default", "00ff00", 0x00ff00, false},
		{"default", "#nothex", 0, true},
		{"default", "#1234567", 0, true},
	}
	for _, tc := range cases {
		got, err := resolveColor(tc.preset, tc.custom)
		if tc.wantErr {
			assert.ErrorIs(t, err, errInvalidColor, tc.custom)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.preset+tc.custom)
	}
}

func TestUserMessageMapping(t *testing.T) {
	msg, ok := userMessage(&discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{}}})
	assert.True(t, ok)
	assert.Equal(t, msgRateLimited, msg)

	msg, ok = userMessage(errors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, msgUnexpected, msg)
}
