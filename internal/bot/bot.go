// Package bot 实现 Discord 斜杠命令：/setup、/action 与 /roblox。
//
// 命令通过显式的分发表注册，启动时校验；所有用户可见的错误文案集中在 respondError。
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/roblox"
	"github.com/deptflow/internal/service"
	"go.uber.org/zap"
)

// Session 是处理命令所需的 Discord 接口子集，*discordgo.Session 满足该接口。
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// ConfigStore 读写服务器设置。
type ConfigStore interface {
	Save(input service.GuildConfigInput) (*db.GuildConfig, error)
	Get(guildID string) (*db.GuildConfig, error)
}

// AvatarLookup 按用户名查询头像。
type AvatarLookup interface {
	Lookup(ctx context.Context, username string) roblox.Result
}

type handlerFunc func(ctx context.Context, r *reply) error

type command struct {
	def    *discordgo.ApplicationCommand
	handle handlerFunc
}

// Deps 汇总机器人依赖。
type Deps struct {
	Configs  ConfigStore
	Avatars  AvatarLookup
	Logger   *zap.Logger
	Cooldown time.Duration
}

// Bot 持有命令分发表与运行时状态。
type Bot struct {
	commands map[string]command
	configs  ConfigStore
	avatars  AvatarLookup
	cooldown *cooldown
	logger   *zap.Logger
	now      func() time.Time
}

// New 构建分发表并校验，表不合法时返回错误。
func New(deps Deps) (*Bot, error) {
	if deps.Configs == nil {
		return nil, errors.New("bot: config store is required")
	}
	if deps.Avatars == nil {
		return nil, errors.New("bot: avatar lookup is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	per := deps.Cooldown
	if per <= 0 {
		per = 5 * time.Second
	}

	b := &Bot{
		configs:  deps.Configs,
		avatars:  deps.Avatars,
		cooldown: newCooldown(per),
		logger:   logger.Named("bot"),
		now:      time.Now,
	}
	b.commands = map[string]command{
		"setup":  {def: setupDefinition(), handle: b.handleSetup},
		"action": {def: actionDefinition(), handle: b.handleAction},
		"roblox": {def: robloxDefinition(), handle: b.handleRoblox},
	}
	if err := validateCommands(b.commands); err != nil {
		return nil, err
	}
	return b, nil
}

func validateCommands(commands map[string]command) error {
	if len(commands) == 0 {
		return errors.New("bot: no commands registered")
	}
	for key, cmd := range commands {
		if strings.TrimSpace(key) == "" {
			return errors.New("bot: command with empty name")
		}
		if cmd.def == nil {
			return fmt.Errorf("bot: command %q has no definition", key)
		}
		if cmd.def.Name != key {
			return fmt.Errorf("bot: command %q registered under %q", cmd.def.Name, key)
		}
		if cmd.handle == nil {
			return fmt.Errorf("bot: command %q has no handler", key)
		}
	}
	return nil
}

// Commands 返回按名称排序的命令定义，用于批量注册。
func (b *Bot) Commands() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(b.commands))
	for _, cmd := range b.commands {
		defs = append(defs, cmd.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// HandleInteraction 把一次斜杠命令分发给对应的处理函数。
func (b *Bot) HandleInteraction(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	r := &reply{session: s, interaction: i.Interaction, logger: b.logger}

	cmd, ok := b.commands[data.Name]
	if !ok {
		b.logger.Warn("unknown command", zap.String("command", data.Name))
		b.respondError(r, fmt.Errorf("unknown command %q", data.Name))
		return
	}

	log := b.logger.With(
		zap.String("command", data.Name),
		zap.String("guild_id", i.GuildID),
		zap.String("user_id", userID(i.Interaction)),
	)
	log.Info("command received")

	if err := cmd.handle(ctx, r); err != nil {
		b.respondError(r, err)
	}
}

// Run 连接网关、注册命令并阻塞到 ctx 结束。
func (b *Bot) Run(ctx context.Context, token, guildID string) error {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected to discord",
			zap.String("user", r.User.String()),
			zap.Int("guilds", len(r.Guilds)),
		)
	})
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(ctx, s, i)
	})

	if err := s.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer s.Close()

	if s.State == nil || s.State.User == nil {
		return errors.New("discord session has no application user after open")
	}
	registered, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, b.Commands())
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	for _, cmd := range registered {
		b.logger.Info("registered command", zap.String("command", cmd.Name), zap.String("guild_id", guildID))
	}

	<-ctx.Done()
	b.logger.Info("shutting down bot")
	return nil
}

// reply 记录交互是否已延迟响应，决定后续消息走初始响应还是 followup。
type reply struct {
	session     Session
	interaction *discordgo.Interaction
	deferred    bool
	ephemeral   bool
	logger      *zap.Logger
}

func (r *reply) deferReply(ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.session.InteractionRespond(r.interaction, resp); err != nil {
		return fmt.Errorf("defer interaction: %w", err)
	}
	r.deferred = true
	r.ephemeral = ephemeral
	return nil
}

func (r *reply) send(content string, embeds ...*discordgo.MessageEmbed) error {
	return r.sendWithFlags(content, r.ephemeral, embeds...)
}

func (r *reply) sendEphemeral(content string) error {
	return r.sendWithFlags(content, true)
}

func (r *reply) sendWithFlags(content string, ephemeral bool, embeds ...*discordgo.MessageEmbed) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if r.deferred {
		_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Content: content,
			Embeds:  embeds,
			Flags:   flags,
		})
		return err
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Embeds:  embeds,
			Flags:   flags,
		},
	})
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
