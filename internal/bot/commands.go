package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/deptflow/internal/roblox"
	"github.com/deptflow/internal/service"
	"go.uber.org/zap"
)

func setupDefinition() *discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	return &discordgo.ApplicationCommand{
		Name:                     "setup",
		Description:              "Configure bot settings for your server",
		DefaultMemberPermissions: &admin,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "log_channel",
				Description:  "Department log channel",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "manage_role",
				Description: "The role that has access to commands",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "al_message",
				Description: "Message to send when someone is put on Administrative Leave",
			},
		},
	}
}

func actionDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "action",
		Description: "Create a custom action message with Roblox profile",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "user",
				Description: "Enter Roblox username or userID",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "title",
				Description: "Action title e.g. Discipline Action, Employee Action",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "e.g. has been **awarded** the **Award Commendation**",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "color",
				Description: "Embed color (Aqua, Gold, Dark Gold, Green, Dark Green, Default)",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Aqua", Value: "aqua"},
					{Name: "Gold", Value: "gold"},
					{Name: "Dark Gold", Value: "dark_gold"},
					{Name: "Green", Value: "green"},
					{Name: "Dark Green", Value: "dark_green"},
					{Name: "Default", Value: "default"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "custom_color",
				Description: "Custom embed color, enter a HEX value. Used if color is set to Default",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "notes",
				Description: "Notes",
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "include_message",
				Description: "Append the server's Administrative Leave message",
			},
		},
	}
}

func robloxDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "roblox",
		Description: "Get Roblox profile image for a username",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "username",
				Description: "The Roblox username to look up",
				Required:    true,
			},
		},
	}
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(i *discordgo.Interaction) options {
	opts := make(options)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

func (o options) stringValue(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

func (o options) requiredString(name string) (string, error) {
	value := o.stringValue(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", errMissingOption, name)
	}
	return value, nil
}

func (o options) boolValue(name string) bool {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionBoolean {
		return false
	}
	return opt.BoolValue()
}

func (o options) channelID(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionChannel {
		return ""
	}
	return opt.ChannelValue(nil).ID
}

func (o options) roleID(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionRole {
		return ""
	}
	return opt.RoleValue(nil, "").ID
}

// handleSetup 保存服务器设置，仅管理员可用
func (b *Bot) handleSetup(_ context.Context, r *reply) error {
	i := r.interaction
	if i.GuildID == "" || i.Member == nil {
		return errNotInGuild
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return errMissingPermission
	}

	opts := optionsOf(i)
	channelID := opts.channelID("log_channel")
	roleID := opts.roleID("manage_role")
	if channelID == "" || roleID == "" {
		return fmt.Errorf("%w: log_channel and manage_role", errMissingOption)
	}
	alMessage := opts.stringValue("al_message")

	if err := r.deferReply(true); err != nil {
		return err
	}

	if _, err := b.configs.Save(service.GuildConfigInput{
		GuildID:      i.GuildID,
		LogChannelID: channelID,
		ManageRoleID: roleID,
		ALMessage:    alMessage,
	}); err != nil {
		return fmt.Errorf("%w: %w", errSaveConfig, err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Bot Configuration",
		Description: "✅ Setup completed successfully!",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Log Channel", Value: fmt.Sprintf("Set to <#%s>", channelID)},
			{Name: "Management Role", Value: fmt.Sprintf("Set to <@&%s>", roleID)},
		},
	}
	if alMessage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Administrative Leave Message", Value: alMessage})
	}

	b.logger.Info("guild configured",
		zap.String("guild_id", i.GuildID),
		zap.String("log_channel_id", channelID),
		zap.String("manage_role_id", roleID),
	)
	return r.send("", embed)
}

// handleAction 组装行动通知并发送到日志频道
func (b *Bot) handleAction(ctx context.Context, r *reply) error {
	i := r.interaction
	// 冷却在命令体之前计次，被拒绝的调用同样占用一次
	if wait, ok := b.cooldown.allow(userID(i), b.now()); !ok {
		return &cooldownError{retryAfter: wait}
	}
	if i.GuildID == "" || i.Member == nil {
		return errNotInGuild
	}

	cfg, err := b.configs.Get(i.GuildID)
	if err != nil {
		return err
	}
	if !slices.Contains(i.Member.Roles, cfg.ManageRoleID) {
		return errMissingRole
	}

	opts := optionsOf(i)
	user, err := opts.requiredString("user")
	if err != nil {
		return err
	}
	title, err := opts.requiredString("title")
	if err != nil {
		return err
	}
	action, err := opts.requiredString("action")
	if err != nil {
		return err
	}

	if err := r.deferReply(true); err != nil {
		return err
	}

	channel, err := r.session.Channel(cfg.LogChannelID)
	if err != nil {
		if isRateLimited(err) {
			return err
		}
		return fmt.Errorf("%w: %w", errLogChannelMissing, err)
	}

	color, err := resolveColor(opts.stringValue("color"), opts.stringValue("custom_color"))
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("%s %s", user, action),
		Color:       color,
		Timestamp:   b.now().UTC().Format(time.RFC3339),
	}
	if notes := opts.stringValue("notes"); notes != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Notes", Value: notes})
	}
	if opts.boolValue("include_message") && cfg.ALMessage != nil && *cfg.ALMessage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Administrative Leave", Value: *cfg.ALMessage})
	}

	result := b.avatars.Lookup(ctx, user)
	if note := avatarNote(result.Status); note != "" {
		b.logger.Info("avatar unavailable", zap.String("username", user), zap.Stringer("status", result.Status), zap.Error(result.Err))
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Note", Value: note})
	} else {
		embed.Image = &discordgo.MessageEmbedImage{URL: result.URL}
	}

	if _, err := r.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		return fmt.Errorf("post action message: %w", err)
	}
	return r.send("✅ Action message sent to the log channel!")
}

// avatarNote 返回头像缺失时附加的说明，找到头像时为空
func avatarNote(status roblox.Status) string {
	switch status {
	case roblox.Found:
		return ""
	case roblox.NotFound:
		return "⚠️ Could not fetch Roblox profile image"
	case roblox.TimedOut:
		return "⚠️ Timed out while fetching Roblox profile image"
	default:
		return "⚠️ Error fetching Roblox profile image"
	}
}

// handleRoblox 查询头像并公开回复
func (b *Bot) handleRoblox(ctx context.Context, r *reply) error {
	username, err := optionsOf(r.interaction).requiredString("username")
	if err != nil {
		return err
	}
	if err := r.deferReply(false); err != nil {
		return err
	}

	result := b.avatars.Lookup(ctx, username)
	if result.Status != roblox.Found {
		if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
			b.logger.Info("roblox lookup failed", zap.String("username", username), zap.Stringer("status", result.Status), zap.Error(result.Err))
		}
		return r.send(fmt.Sprintf("❌ Couldn't find Roblox profile for username: %s", username))
	}

	return r.send("", &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Roblox Profile: %s", username),
		Color: colorBlue,
		Image: &discordgo.MessageEmbedImage{URL: result.URL},
	})
}
