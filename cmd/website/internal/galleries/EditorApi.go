package galleries

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	internalmodels "github.com/adampresley/galleria/cmd/website/internal/models"
	"github.com/adampresley/galleria/cmd/website/internal/viewmodels"
	"github.com/adampresley/galleria/pkg/editor"
	"github.com/adampresley/galleria/pkg/models"
)

/*
Every editor API call answers with the session's full state. The page
rerenders from that state, so a failed mutation still comes back with
the notification explaining what went wrong.
*/

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		slog.Error("failed to marshal JSON response", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		slog.Error("failed to write HTTP response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func editorStateFromSession(session *editor.Session) internalmodels.EditorStateResponse {
	dialog := session.RemoveDialogState()
	notification, visible := session.Notifier().Current()

	result := internalmodels.EditorStateResponse{
		GalleryID: session.GalleryID(),
		Dirty:     session.Dirty(),
		Members:   []internalmodels.EditorMember{},
		RemoveDialog: internalmodels.RemoveDialogPayload{
			IsOpen:         dialog.Open,
			PendingEntryID: dialog.EntryID,
		},
		Notification: internalmodels.NotificationPayload{
			Visible: visible,
			Text:    notification.Text,
			IsError: notification.IsError,
		},
	}

	for _, member := range session.Members() {
		result.Members = append(result.Members, internalmodels.EditorMemberFromModel(member))
	}

	return result
}

/*
editorSession resolves the session token in the request to a live
editing session owned by the requesting user.
*/
func (c GalleryController) editorSession(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	user := viewmodels.GetUserFromContext(r)
	token := httphelpers.GetFromRequest[string](r, "token")

	session, ok := c.sessionManager.Get(token, user.ID)

	if !ok {
		respondWithError(w, http.StatusNotFound, "Your editing session has expired. Please reload the page.")
		return nil, false
	}

	return session, true
}

/*
GET /api/editor/{token}/state
*/
func (c GalleryController) EditorState(w http.ResponseWriter, r *http.Request) {
	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/images
*/
func (c GalleryController) EditorAddImages(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.AddImagesRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Error("error decoding add images payload", "error", err)
		respondWithError(w, http.StatusBadRequest, "Unrecognized add images payload.")
		return
	}

	if err = session.AddImages(payload.ImageIDs); err != nil {
		slog.Error("error adding images to session", "error", err)
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/drag-start
*/
func (c GalleryController) EditorDragStart(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.DragStartRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unrecognized drag payload.")
		return
	}

	session.DragStart(payload.MemberID)
	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/drag-end
*/
func (c GalleryController) EditorDragEnd(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.DragEndRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unrecognized drag payload.")
		return
	}

	changed := session.DragEnd(payload.DraggedID, payload.TargetID)

	state := editorStateFromSession(session)
	state.Changed = changed
	respondWithJSON(w, http.StatusOK, state)
}

/*
POST /api/editor/{token}/drag-cancel
*/
func (c GalleryController) EditorDragCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	session.DragCancel()
	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/remove-request
*/
func (c GalleryController) EditorRemoveRequest(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.RemoveMemberRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unrecognized remove payload.")
		return
	}

	session.RequestRemove(payload.MemberID)
	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/remove-confirm
*/
func (c GalleryController) EditorRemoveConfirm(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = session.ConfirmRemove(); err != nil {
		slog.Error("error removing gallery member", "error", err)
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/remove-cancel
*/
func (c GalleryController) EditorRemoveCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	session.CancelRemove()
	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
PUT /api/editor/{token}/description
*/
func (c GalleryController) EditorSetDescription(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.DescriptionRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unrecognized description payload.")
		return
	}

	if err = session.SetDescription(payload.MemberID, payload.Description); err != nil {
		if errors.Is(err, editor.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "That image is no longer in this gallery.")
			return
		}

		slog.Error("error setting member description", "error", err, "memberID", payload.MemberID)
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/save-order
*/
func (c GalleryController) EditorSaveOrder(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = session.SaveOrder(); err != nil {
		if errors.Is(err, editor.ErrInvariant) {
			respondWithError(w, http.StatusConflict, "This gallery has not been created yet.")
			return
		}

		slog.Error("error saving member order", "error", err)
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
POST /api/editor/{token}/save
*/
func (c GalleryController) EditorSave(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		payload internalmodels.SaveGalleryRequest
	)

	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unrecognized save payload.")
		return
	}

	update := models.GalleryUpdate{
		Name:         payload.Name,
		Description:  payload.Description,
		IsPublic:     payload.IsPublic,
		Theme:        payload.Theme,
		CoverImageID: payload.CoverImageID,
	}

	if err = session.Save(update); err != nil {
		if errors.Is(err, editor.ErrInvariant) {
			respondWithError(w, http.StatusConflict, "This gallery has not been created yet.")
			return
		}

		slog.Error("error saving gallery", "error", err)
	}

	respondWithJSON(w, http.StatusOK, editorStateFromSession(session))
}

/*
GET /api/editor/{token}/notification

The edit page's notification area polls this for the toast fragment.
*/
func (c GalleryController) EditorNotification(w http.ResponseWriter, r *http.Request) {
	session, ok := c.editorSession(w, r)

	if !ok {
		return
	}

	notification, visible := session.Notifier().Current()

	if !visible {
		httphelpers.WriteHtml(w, http.StatusOK, "")
		return
	}

	class := "notification"

	if notification.IsError {
		class += " notification-error"
	}

	markup := fmt.Sprintf("<div class='%s'>%s</div>", class, html.EscapeString(notification.Text))
	httphelpers.WriteHtml(w, http.StatusOK, markup)
}
