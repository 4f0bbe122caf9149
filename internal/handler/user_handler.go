/*
Package handler provides HTTP handler functions for a user's own star.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"starsky/internal/app/presence"
	"starsky/internal/app/session"
	"starsky/internal/app/store"
	"starsky/internal/pkg/auth/jwt"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/req"
	"starsky/internal/pkg/resp"
)

// UserView is the user object returned to the web client.
type UserView struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	ActivityScore float64  `json:"activity_score"`
	StarColor     string   `json:"star_color"`
	StarShape     string   `json:"star_shape"`
	SkinsOwned    []string `json:"skins_owned"`
	Info          string   `json:"info"`
}

func newUserView(s session.Session) UserView {
	fullName := s.DisplayName
	if fullName == "" {
		fullName = s.Username
	}

	return UserView{
		ID:            s.UserID,
		Username:      s.Username,
		FullName:      fullName,
		ActivityScore: s.ActivityScore,
		StarColor:     s.StarColor,
		StarShape:     s.StarShape,
		SkinsOwned:    append([]string{}, s.OwnedSkins...),
		Info:          s.Info,
	}
}

// userIDField accepts a user id sent as a JSON number or a numeric string.
type userIDField struct {
	value int64
	set   bool
	valid bool
}

func (f *userIDField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	f.set = true
	v, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
	if err == nil && v > 0 {
		f.value, f.valid = v, true
	}
	return nil
}

func (f userIDField) resolve() (int64, *errs.CustomError) {
	if !f.set {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	if !f.valid {
		return 0, errs.NewError(errs.ErrBadUserID)
	}
	return f.value, nil
}

// authorize rejects requests whose bearer token belongs to a different user.
// Requests without a token pass only when tokens are not required.
func authorize(r *http.Request, userID int64, required bool) *errs.CustomError {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		if required {
			return errs.NewError(errs.ErrTokenRequired)
		}
		return nil
	}
	if payload.UserID != userID {
		return errs.NewError(errs.ErrUnauthorized)
	}
	return nil
}

// respondFailure maps a service error to an API error.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, presence.ErrNotRegistered):
		resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
	case store.Unavailable(err):
		resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
	default:
		resp.RespondError(w, r, errs.From(err))
	}
}

type BuySkinInput struct {
	UserID userIDField `json:"user_id"`
	SkinID string      `json:"skin_id" validate:"required"`
}

// HandleBuySkin buys a skin, or re-equips one the user already owns.
func HandleBuySkin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input BuySkinInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, ok := deps.Economy.Catalog().Lookup(input.SkinID); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknownSkin, input.SkinID))
			return
		}

		userID, customErr := input.UserID.resolve()
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := authorize(r, userID, deps.Config.RequireToken); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, err := deps.Presence.Profile(r.Context(), userID); err != nil {
			respondFailure(w, r, err)
			return
		}

		s, err := deps.Economy.Purchase(r.Context(), userID, input.SkinID)
		if err != nil {
			respondFailure(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": newUserView(s)})
	}
}

type UpdateInfoInput struct {
	UserID userIDField `json:"user_id"`
	Info   string      `json:"info"`
}

// HandleUpdateInfo replaces the user's bio.
func HandleUpdateInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UpdateInfoInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		userID, customErr := input.UserID.resolve()
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := authorize(r, userID, deps.Config.RequireToken); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, err := deps.Presence.Profile(r.Context(), userID); err != nil {
			respondFailure(w, r, err)
			return
		}

		s, err := deps.Economy.UpdateInfo(r.Context(), userID, input.Info)
		if err != nil {
			respondFailure(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": newUserView(s)})
	}
}
