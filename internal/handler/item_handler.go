package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/app/item"
	"lostfound/internal/app/storage"
	"lostfound/internal/app/store"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/randx"
	"lostfound/internal/pkg/req"
	"lostfound/internal/pkg/resp"
)

const (
	uploadTimeout      = 30 * time.Second
	imageDeleteTimeout = 15 * time.Second
)

// HandleUploadItem stores a found item: the image goes to the media host first, the
// record is written only once the host returned a URL.
func HandleUploadItem(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		var input item.UploadInput
		if customErr := req.BindJSONLimit(w, r, &input, req.MaxUploadBody, false); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		draft, customErr := input.Validate()
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		now := time.Now().UTC()
		name, err := randx.ImageName(now, draft.Image.Ext)
		if err != nil {
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		if deps.Uploader == nil {
			logx.Warn("upload: no media host configured")
			resp.RespondError(w, r, errs.NewError(errs.ErrImageUploadFailed))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
		defer cancel()

		uploaded, err := deps.Uploader.Upload(ctx, storage.Image{
			Name:        name,
			ContentType: draft.Image.ContentType,
			Data:        draft.Image.Data,
		})
		if err == nil && uploaded.URL == "" {
			err = storage.ErrNoURL
		}
		if err != nil {
			logx.Error(err, "upload: media host rejected the image", "user_id", u.ID, "name", name)
			resp.RespondError(w, r, errs.NewError(errs.ErrImageUploadFailed))
			return
		}

		it := &item.Item{
			PlaceDesc:  draft.PlaceDesc,
			ItemDesc:   draft.ItemDesc,
			ImageURL:   uploaded.URL,
			ImageKey:   uploaded.Key,
			Contact:    draft.Contact,
			Location:   draft.Location,
			Timestamp:  now,
			Status:     item.StatusNotClaimed,
			UploadedBy: u.ID,
			Username:   u.Username,
		}
		if err := deps.Store.CreateItem(r.Context(), it); err != nil {
			logx.Error(err, "upload: failed to store item", "user_id", u.ID)
			deleteImageAsync(deps, uploaded.Key)
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		deps.Notifier.NotifyAllExcept(u.ID, "New item reported", it.ItemDesc, "/")

		logx.Info("Item uploaded", "item_id", it.ID, "user_id", u.ID)
		resp.RespondStatus(w, r, http.StatusCreated, "Item uploaded", it)
	}
}

// HandleListItems lists every item, or only those around lat/lng when given.
func HandleListItems(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		area, ok := item.ParseArea(r.URL.Query())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidSearchArea))
			return
		}

		var (
			items []item.Item
			err   error
		)
		if area != nil {
			items, err = deps.Store.ItemsNear(r.Context(), *area)
		} else {
			items, err = deps.Store.ListItems(r.Context())
		}
		if err != nil {
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondSuccess(w, r, items)
	}
}

func HandleMyItems(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		items, err := deps.Store.ItemsByUploader(r.Context(), u.ID)
		if err != nil {
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondSuccess(w, r, items)
	}
}

func HandleMarkClaimed(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if err := deps.Store.SetItemStatus(r.Context(), id, u.ID, item.StatusClaimed); err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrItemNotFound))
				return
			}
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondStatus(w, r, http.StatusOK, "Marked as claimed", nil)
	}
}

// HandleDeleteItem removes one of the caller's items. The image is removed from the
// media host in the background; a failure there is only logged.
func HandleDeleteItem(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		deleted, err := deps.Store.DeleteItem(r.Context(), id, u.ID)
		if err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrItemNotFound))
				return
			}
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		deleteImageAsync(deps, deleted.ImageKey)
		resp.RespondStatus(w, r, http.StatusOK, "Upload deleted", nil)
	}
}

func deleteImageAsync(deps *AppDeps, key string) {
	if key == "" || deps.Uploader == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), imageDeleteTimeout)
		defer cancel()

		if err := deps.Uploader.Delete(ctx, key); err != nil {
			logx.Error(err, "Failed to delete image from media host", "key", key)
		}
	}()
}
