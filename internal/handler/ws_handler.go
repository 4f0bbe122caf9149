/*
Package handler provides the HTTP handler functions for WebSocket connection upgrading and initialization.

The sky socket is a passive broadcast subscriber. The chat socket feeds every frame to the
site chat hub; it may carry a session token, which then fixes the socket's user. When tokens
are required, a chat socket without one only listens.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"starsky/internal/app/socket"
	"starsky/internal/pkg/auth/jwt"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/resp"
)

// HandleSkySocket subscribes the connection to star updates until it closes.
// Inbound frames are read only to keep the connection alive.
func HandleSkySocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade sky connection to WebSocket")
			return
		}

		conn := socket.NewConn(ws, "sky")
		if !deps.Sockets.Track(conn) {
			conn.Close()
			return
		}
		defer deps.Sockets.Release(conn)

		handle := deps.Sky.Subscribe(conn)

		go conn.WritePump()

		logx.Debug("Sky observer connected", "conn_id", conn.ID(), "observers", deps.Sky.Len())

		conn.ReadPump(nil)
		deps.Sky.Unsubscribe(handle)
	}
}

// HandleChatSocket attaches the connection to the site chat.
func HandleChatSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var authUserID *int64

		if token := r.URL.Query().Get("token"); token != "" {
			payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
			if err != nil {
				logx.Warn("Chat socket rejected: invalid session token", "error", err)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
			authUserID = &payload.UserID
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade chat connection to WebSocket")
			return
		}

		conn := socket.NewConn(ws, "chat")
		if !deps.Sockets.Track(conn) {
			conn.Close()
			return
		}
		defer deps.Sockets.Release(conn)

		deps.Chat.Connect(conn)
		if authUserID != nil {
			deps.Chat.Bind(*authUserID, conn)
		}

		go conn.WritePump()

		ctx := r.Context()
		if authUserID == nil && deps.Config.RequireToken {
			conn.ReadPump(nil)
		} else {
			conn.ReadPump(func(message []byte) {
				deps.Chat.HandleFrame(ctx, conn, authUserID, message)
			})
		}

		deps.Chat.Disconnect(conn)
	}
}
