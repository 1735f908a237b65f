package bot

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/deptflow/internal/service"
	"go.uber.org/zap"
)

var (
	errNotInGuild        = errors.New("command used outside a guild")
	errMissingPermission = errors.New("missing administrator permission")
	errMissingRole       = errors.New("missing management role")
	errLogChannelMissing = errors.New("configured log channel not found")
	errInvalidColor      = errors.New("invalid hex color")
	errSaveConfig        = errors.New("failed to save configuration")
	errMissingOption     = errors.New("missing required option")
)

// cooldownError 携带剩余冷却时间
type cooldownError struct {
	retryAfter time.Duration
}

func (e *cooldownError) Error() string {
	return fmt.Sprintf("command on cooldown, retry after %s", e.retryAfter)
}

const (
	msgNotInGuild        = "❌ This command can only be used in a server."
	msgMissingPermission = "❌ You don't have permission to use this command!"
	msgMissingRole       = "❌ You need the configured management role to use this command!"
	msgNotConfigured     = "❌ Server not configured! An administrator needs to run the /setup command first."
	msgLogChannelMissing = "❌ Could not find the configured log channel. Please ask an administrator to run /setup again."
	msgInvalidColor      = "❌ Invalid HEX color format! Example: #FF0000"
	msgSaveFailed        = "❌ Failed to save configuration. Please try again."
	msgMissingOption     = "❌ Missing required argument! Please check the command usage."
	msgRateLimited       = "⏳ Discord is rate limiting the bot right now. Please try again in a moment."
	msgUnexpected        = "❌ Something went wrong while running this command. The error has been logged."
	msgCooldownFormat    = "Please wait %.2f seconds before using this command again."
)

// userMessage 把错误映射为用户可见的提示，第二个返回值表示是否为预期内错误。
func userMessage(err error) (string, bool) {
	var cd *cooldownError
	switch {
	case errors.As(err, &cd):
		return fmt.Sprintf(msgCooldownFormat, cd.retryAfter.Seconds()), true
	case isRateLimited(err):
		return msgRateLimited, true
	case errors.Is(err, errNotInGuild):
		return msgNotInGuild, true
	case errors.Is(err, errMissingPermission):
		return msgMissingPermission, true
	case errors.Is(err, errMissingRole):
		return msgMissingRole, true
	case errors.Is(err, service.ErrGuildNotConfigured):
		return msgNotConfigured, true
	case errors.Is(err, errLogChannelMissing):
		return msgLogChannelMissing, true
	case errors.Is(err, errInvalidColor):
		return msgInvalidColor, true
	case errors.Is(err, errSaveConfig):
		return msgSaveFailed, true
	case errors.Is(err, errMissingOption):
		return msgMissingOption, true
	default:
		return msgUnexpected, false
	}
}

func isRateLimited(err error) bool {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusTooManyRequests
}

// respondError 是命令错误唯一的出口：记录日志并回复一条仅发起者可见的消息。
func (b *Bot) respondError(r *reply, err error) {
	msg, expected := userMessage(err)
	if expected {
		b.logger.Info("command rejected", zap.String("user_id", userID(r.interaction)), zap.Error(err))
	} else {
		b.logger.Error("command failed", zap.String("user_id", userID(r.interaction)), zap.Error(err))
	}

	if sendErr := r.sendEphemeral(msg); sendErr != nil {
		b.logger.Error("failed to deliver error reply", zap.Error(sendErr), zap.NamedError("cause", err))
	}
}
