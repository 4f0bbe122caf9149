package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Callback data of the anonymous chat menu.
const (
	CallbackChatFind = "chat_find"
	CallbackChatStop = "chat_stop"
)

const (
	msgWelcome = "Hi! You are now a star in our sky ⭐️\n" +
		"Your handle: @%s\n\n" +
		"Send /login to get a code for the Star Users site."
	msgLoginCode = "Login code for the Star Users site:\n" +
		"`%s`\n\n" +
		"Open the site and enter this code in the «Bot login code» field."
	msgStartFirst     = "Send /start first to appear in the sky."
	msgLoginFailed    = "Could not issue a login code right now, try again later."
	msgProfileMissing = "You are not registered yet. Send /start"
	msgProfile        = "You are in the sky as @%s ✨\n" +
		"Activity level: %d\n" +
		"Star color: %s\n" +
		"Star shape: %s\n" +
		"Owned skins: %s\n" +
		"About: %s"
	msgChatMenu = "Anonymous chat with a random partner:\n" +
		"• «Find a partner» starts the search.\n" +
		"• «Stop chat» ends the dialog."

	msgAlreadyPaired      = "You are already talking to a partner."
	msgAlreadyQueued      = "You are already in the queue, waiting for a partner…"
	msgPartnerUnreachable = "Could not connect you to a partner, try again."
	msgQueued             = "⌛ You are in the queue. Waiting for a second partner…"
	msgLeftQueue          = "⛔ Search stopped, you are no longer in the queue."
	msgDialogStopped      = "⛔ You ended the anonymous dialog."
	msgNotChatting        = "You are not talking to anyone right now."
	msgRelayFailed        = "Could not deliver the message to your partner, the dialog is stopped."

	noneText   = "none"
	notSetText = "not set"
)

func chatMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔍 Find a partner", CallbackChatFind)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⛔ Stop chat", CallbackChatStop)),
	)
}
