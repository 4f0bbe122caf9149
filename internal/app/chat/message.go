package chat

// Frame types exchanged on the site chat socket.
const (
	TypeMessage         = "message"
	TypePublic          = "public"
	TypePrivate         = "private"
	TypePrivateRequest  = "private_request"
	TypePrivateResponse = "private_response"
	TypeSystem          = "system"
	TypeError           = "error"

	ModePublic = "public"
)

// System notices sent back to the acting socket.
const (
	MsgUserNotInChat       = "User is not in chat."
	MsgUserOffline         = "User is offline."
	MsgNoPartnerSelected   = "No partner selected for private chat."
	MsgPartnerNotFound     = "Partner not found."
	MsgPrivateNotConfirmed = "Private chat is not confirmed yet."
	MsgPartnerOffline      = "Partner is offline."
	MsgLoginRequired       = "Log in with a code from the bot to write in the chat."
	MsgChatUnavailable     = "Chat is temporarily unavailable, try again later."

	fallbackUsername = "user"
)

// MaxContentBytes bounds the text of a single chat message.
const MaxContentBytes = 5000

type publicFrame struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type privateFrame struct {
	Type     string `json:"type"`
	FromID   int64  `json:"from_id"`
	ToID     int64  `json:"to_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type privateRequestFrame struct {
	Type         string `json:"type"`
	FromID       int64  `json:"from_id"`
	FromUsername string `json:"from_username"`
	ToID         int64  `json:"to_id"`
}

type privateResponseFrame struct {
	Type         string `json:"type"`
	Accepted     bool   `json:"accepted"`
	FromID       int64  `json:"from_id"`
	FromUsername string `json:"from_username"`
	ToID         int64  `json:"to_id"`
}

type systemFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
