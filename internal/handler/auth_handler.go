/*
Package handler provides HTTP handler functions for bot code login.
*/
package handler

import (
	"net/http"

	"starsky/internal/pkg/auth/jwt"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/req"
	"starsky/internal/pkg/resp"
)

type LoginInput struct {
	Code string `json:"code"`
}

// HandleLogin redeems a one-time code from the bot and starts a web session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		s, err := deps.Presence.Login(r.Context(), input.Code)
		if err != nil {
			respondFailure(w, r, err)
			return
		}

		payload := &jwt.Payload{
			UserID:   s.UserID,
			Username: s.Username,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after code login", "user_id", s.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user":  newUserView(s),
		})
	}
}
