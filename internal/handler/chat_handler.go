package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/pkg/req"
	"lostfound/internal/pkg/resp"
)

type StartChatInput struct {
	PartnerID string `json:"partnerId"`
}

func HandleStartChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		var input StartChatInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		chatID, customErr := deps.Chat.StartChat(r.Context(), u, input.PartnerID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"chatId": chatID})
	}
}

// HandleListChats returns the caller's chat summaries, most recent first.
func HandleListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		summaries, customErr := deps.Chat.ListChats(r.Context(), u)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, summaries)
	}
}

func HandleChatInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		info, customErr := deps.Chat.Info(r.Context(), u, chi.URLParam(r, "id"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, info)
	}
}

// HandleChatMessages returns the history of a chat and marks it read by the caller.
func HandleChatMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		messages, customErr := deps.Chat.Messages(r.Context(), u, chi.URLParam(r, "id"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

func HandleMarkChatRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		if customErr := deps.Chat.MarkRead(r.Context(), u, chi.URLParam(r, "id")); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"ok": true})
	}
}
