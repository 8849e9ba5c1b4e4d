package handler

import (
	"net/http"
	"strings"

	"lostfound/internal/app/push"
	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/req"
	"lostfound/internal/pkg/resp"
)

type UnsubscribeInput struct {
	Endpoint string `json:"endpoint"`
}

// HandleSaveSubscription stores a browser PushSubscription. Anonymous callers may
// subscribe; an authenticated caller's subscription is bound to them so chat
// notifications can reach it.
func HandleSaveSubscription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub push.Subscription
		if customErr := req.OptionalJSON(w, r, &sub); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		sub.Normalize()
		if sub.Endpoint == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrSubscriptionMissing))
			return
		}

		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			sub.UserID = payload.UserID
		}

		if err := deps.Store.SaveSubscription(r.Context(), &sub); err != nil {
			logx.Error(err, "Failed to save push subscription")
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondStatus(w, r, http.StatusCreated, "Subscription saved", nil)
	}
}

func HandleUnsubscribe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UnsubscribeInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		endpoint := strings.TrimSpace(input.Endpoint)
		if endpoint == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrSubscriptionMissing))
			return
		}

		if err := deps.Store.DeleteSubscription(r.Context(), endpoint); err != nil {
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondStatus(w, r, http.StatusOK, "Unsubscribed", nil)
	}
}

func HandleVAPIDPublicKey(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{"key": deps.Config.VAPIDPublicKey})
	}
}
