package handler

import (
	"starsky/internal/app/broadcast"
	"starsky/internal/app/chat"
	"starsky/internal/app/economy"
	"starsky/internal/app/presence"
	"starsky/internal/app/session"
	"starsky/internal/app/socket"
	"starsky/internal/app/store"
	"starsky/internal/configs"
)

type AppDeps struct {
	Config   *configs.AppConfig
	Store    store.Store
	Sessions *session.Cache
	Economy  *economy.Economy
	Presence *presence.Service
	Sky      *broadcast.Hub
	Chat     *chat.Hub
	Sockets  *socket.Registry
}
