package handler

import (
	"net/http"

	"starsky/internal/app/store"
	"starsky/internal/pkg/resp"
)

// HandlePublicChat returns the most recent public chat messages, oldest first.
func HandlePublicChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := deps.Store.ListPublicMessages(r.Context(), deps.Config.PublicHistoryLimit)
		if err != nil {
			respondFailure(w, r, err)
			return
		}
		if messages == nil {
			messages = []store.PublicMessage{}
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleStars lists every star of the sky.
func HandleStars(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stars, err := deps.Presence.Stars(r.Context())
		if err != nil {
			respondFailure(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"stars": stars})
	}
}

// HandleSkins lists the skin catalog.
func HandleSkins(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{"skins": deps.Economy.Catalog().All()})
	}
}
