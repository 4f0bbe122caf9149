/*
Package bot is the Telegram front-end of the sky.

It long-polls the Bot API, dispatches commands to the presence service, runs the
anonymous pairing chat and delivers pairing notices back to users.
*/
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"starsky/internal/app/delivery"
	"starsky/internal/app/pairing"
	"starsky/internal/app/presence"
	"starsky/internal/app/session"
	"starsky/internal/app/user"
	"starsky/internal/pkg/logx"
)

const (
	// DefaultReconnectPause is the wait before reconnecting after a lost connection.
	DefaultReconnectPause = 10 * time.Second

	pollTimeout = 60
)

var errUpdatesClosed = errors.New("bot: update channel closed")

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Connector opens a fresh API connection. A stopped connection cannot be restarted,
// so every reconnect asks for a new one.
type Connector func() (API, error)

// NewConnector returns a Connector for the given bot token.
func NewConnector(token string) Connector {
	_ = tgbotapi.SetLogger(apiLogger{logger: logx.Component("telegram")})

	return func() (API, error) {
		api, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return nil, err
		}
		logx.Info("Authorized on Telegram", "bot_username", api.Self.UserName)
		return api, nil
	}
}

// Presence is the bot's view of the presence service.
type Presence interface {
	OnStart(ctx context.Context, p user.Profile) (presence.StartResult, error)
	OnTextMessage(ctx context.Context, p user.Profile) (session.Session, error)
	OnLoginRequested(ctx context.Context, userID int64) (string, error)
	Profile(ctx context.Context, userID int64) (session.Session, error)
}

// Option configures a Bot.
type Option func(*Bot)

// WithReconnectPause sets the wait between connection attempts.
func WithReconnectPause(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.pause = d
		}
	}
}

// Bot dispatches Telegram updates.
type Bot struct {
	connect    Connector
	presence   Presence
	matchmaker *pairing.Matchmaker
	pause      time.Duration
	logger     zerolog.Logger

	// offset is the next update id to request. It advances before an update is
	// handled, so an update that panics is not fetched again after reconnecting.
	offset int

	mu  sync.RWMutex
	api API
}

// New creates a Bot with its own anonymous chat matchmaker.
func New(connect Connector, p Presence, opts ...Option) *Bot {
	b := &Bot{
		connect:  connect,
		presence: p,
		pause:    DefaultReconnectPause,
		logger:   logx.Component("bot"),
	}
	b.matchmaker = pairing.NewMatchmaker(b)

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Matchmaker returns the anonymous chat matchmaker.
func (b *Bot) Matchmaker() *pairing.Matchmaker {
	return b.matchmaker
}

// Run polls for updates until ctx is cancelled, reconnecting after a pause whenever the
// connection fails or handling an update panics.
func (b *Bot) Run(ctx context.Context) {
	for {
		err := b.serve(ctx)
		if ctx.Err() != nil {
			b.logger.Info().Msg("Bot stopped")
			return
		}

		b.logger.Error().Err(err).Dur("pause", b.pause).Msg("Bot connection lost, reconnecting")

		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopped")
			return
		case <-time.After(b.pause):
		}
	}
}

func (b *Bot) serve(ctx context.Context) error {
	api, err := b.connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	b.setAPI(api)
	defer b.setAPI(nil)

	cfg := tgbotapi.NewUpdate(b.offset)
	cfg.Timeout = pollTimeout
	updates := api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			go drain(updates)
			return nil

		case update, ok := <-updates:
			if !ok {
				return errUpdatesClosed
			}
			b.offset = max(b.offset, update.UpdateID+1)
			if err := b.handle(ctx, api, update); err != nil {
				api.StopReceivingUpdates()
				go drain(updates)
				return err
			}
		}
	}
}

// drain consumes what the client still delivers after a stop, which can take
// up to one long-poll timeout.
func drain(updates tgbotapi.UpdatesChannel) {
	for range updates {
	}
}

func (b *Bot) setAPI(api API) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.api = api
}

func (b *Bot) currentAPI() API {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.api
}

// Notify sends text to the user's private chat.
func (b *Bot) Notify(_ context.Context, userID int64, text string) delivery.Result {
	api := b.currentAPI()
	if api == nil {
		return delivery.PeerUnreachable
	}

	if _, err := api.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		b.logger.Debug().Err(err).Int64("user_id", userID).Msg("Failed to notify user")
		return delivery.PeerUnreachable
	}
	return delivery.Delivered
}

func (b *Bot) handle(ctx context.Context, api API, update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.onCallback(ctx, api, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.onMessage(ctx, api, update.Message)
	}
	return nil
}

func (b *Bot) onMessage(ctx context.Context, api API, msg *tgbotapi.Message) {
	profile := profileOf(msg.From)

	switch msg.Command() {
	case "start":
		b.onStart(ctx, api, msg.Chat.ID, profile)
	case "login":
		b.onLogin(ctx, api, msg.Chat.ID, profile.ID)
	case "me":
		b.onMe(ctx, api, msg.Chat.ID, profile.ID)
	case "chat":
		reply := tgbotapi.NewMessage(msg.Chat.ID, msgChatMenu)
		reply.ReplyMarkup = chatMenuKeyboard()
		b.send(api, reply)
	default:
		b.onText(ctx, api, msg, profile)
	}
}

func (b *Bot) onStart(ctx context.Context, api API, chatID int64, profile user.Profile) {
	res, err := b.presence.OnStart(ctx, profile)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", profile.ID).Msg("Failed to register user")
		return
	}
	b.reply(api, chatID, fmt.Sprintf(msgWelcome, res.Session.Username))
}

func (b *Bot) onLogin(ctx context.Context, api API, chatID, userID int64) {
	code, err := b.presence.OnLoginRequested(ctx, userID)
	switch {
	case errors.Is(err, presence.ErrNotRegistered):
		b.reply(api, chatID, msgStartFirst)
	case err != nil:
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to issue login code")
		b.reply(api, chatID, msgLoginFailed)
	default:
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgLoginCode, code))
		reply.ParseMode = tgbotapi.ModeMarkdown
		b.send(api, reply)
	}
}

func (b *Bot) onMe(ctx context.Context, api API, chatID, userID int64) {
	s, err := b.presence.Profile(ctx, userID)
	if errors.Is(err, presence.ErrNotRegistered) {
		b.reply(api, chatID, msgProfileMissing)
		return
	}
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load profile")
		return
	}
	b.reply(api, chatID, formatProfile(s))
}

func (b *Bot) onText(ctx context.Context, api API, msg *tgbotapi.Message, profile user.Profile) {
	if msg.Text != "" {
		if b.matchmaker.Relay(ctx, profile.ID, msg.Text) == pairing.DialogEnded {
			b.reply(api, msg.Chat.ID, msgRelayFailed)
		}
	}

	if _, err := b.presence.OnTextMessage(ctx, profile); err != nil {
		b.logger.Error().Err(err).Int64("user_id", profile.ID).Msg("Failed to credit bot message")
	}
}

func (b *Bot) onCallback(ctx context.Context, api API, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	userID := cb.From.ID
	chatID := userID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	switch cb.Data {
	case CallbackChatFind:
		switch b.matchmaker.FindPartner(ctx, userID) {
		case pairing.AlreadyPaired:
			b.answer(api, cb.ID, msgAlreadyPaired, true)
		case pairing.AlreadyQueued:
			b.answer(api, cb.ID, msgAlreadyQueued, false)
		case pairing.PartnerUnreachable:
			b.answer(api, cb.ID, msgPartnerUnreachable, true)
		case pairing.Paired:
			b.reply(api, chatID, pairing.MsgPartnerFound)
			b.answer(api, cb.ID, "", false)
		case pairing.Queued:
			b.reply(api, chatID, msgQueued)
			b.answer(api, cb.ID, "", false)
		}

	case CallbackChatStop:
		switch b.matchmaker.Stop(ctx, userID) {
		case pairing.LeftQueue:
			b.reply(api, chatID, msgLeftQueue)
			b.answer(api, cb.ID, "", false)
		case pairing.Ended:
			b.reply(api, chatID, msgDialogStopped)
			b.answer(api, cb.ID, "", false)
		case pairing.NotChatting:
			b.answer(api, cb.ID, msgNotChatting, true)
		}

	default:
		b.answer(api, cb.ID, "", false)
	}
}

func (b *Bot) reply(api API, chatID int64, text string) {
	b.send(api, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(api API, msg tgbotapi.MessageConfig) {
	if _, err := api.Send(msg); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to send reply")
	}
}

func (b *Bot) answer(api API, callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := api.Request(cfg); err != nil {
		b.logger.Warn().Err(err).Str("callback_id", callbackID).Msg("Failed to answer callback")
	}
}

func profileOf(u *tgbotapi.User) user.Profile {
	return user.Profile{
		ID:          u.ID,
		Username:    u.UserName,
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

func formatProfile(s session.Session) string {
	skins := noneText
	if len(s.OwnedSkins) > 0 {
		skins = strings.Join(s.OwnedSkins, ", ")
	}

	info := s.Info
	if info == "" {
		info = notSetText
	}

	return fmt.Sprintf(msgProfile, s.Username, int(s.ActivityScore), s.StarColor, s.StarShape, skins, info)
}
