package editor

import (
	"fmt"
	"log/slog"

	"github.com/adampresley/galleria/pkg/models"
)

/*
AddImages adds the given images to the end of the collection.

For a gallery that has not been created yet the images are resolved and
staged locally as temporary members. For a persisted gallery the store
does the add and the whole collection is replaced from its response; a
failure leaves local state untouched.

Success and failure both raise a notification. An empty ID list is a
no-op.
*/
func (s *Session) AddImages(imageIDs []string) error {
	if len(imageIDs) == 0 {
		slog.Warn("add images called with nothing to add")
		return nil
	}

	s.mu.Lock()
	pending := s.gallery == nil
	galleryID := uint(0)

	if !pending {
		galleryID = s.gallery.ID
	}

	s.mu.Unlock()

	if pending {
		return s.stageImages(imageIDs)
	}

	gallery, err := s.store.AddImages(galleryID, imageIDs)

	if err != nil {
		err = classifyStoreError(err)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		slog.Error("error adding images to gallery", "galleryId", galleryID, "error", err)
		s.notifier.ShowError("Unable to add images to your gallery. Please try again.")
		return err
	}

	s.mu.Lock()
	before := len(s.members)
	added := s.adoptGallery(gallery) - before
	s.mu.Unlock()

	if added < 0 {
		added = 0
	}

	s.notifier.Show(fmt.Sprintf("Added %d image(s) to your gallery", added))
	return nil
}

/*
stageImages resolves image records and appends them as temporary
members. Used only while the gallery does not exist yet.
*/
func (s *Session) stageImages(imageIDs []string) error {
	images, err := s.images.GetImagesByIDs(imageIDs)

	if err != nil {
		err = classifyStoreError(err)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		slog.Error("error resolving images to stage", "imageIds", imageIDs, "error", err)
		s.notifier.ShowError("Unable to add images to your gallery. Please try again.")
		return err
	}

	imagesByID := map[string]models.Image{}

	for _, image := range images {
		imagesByID[image.ID] = image
	}

	s.mu.Lock()
	members := copyMembers(s.members)

	added := 0

	for _, imageID := range imageIDs {
		image, ok := imagesByID[imageID]

		if !ok {
			slog.Warn("skipping unknown image while staging", "imageId", imageID)
			continue
		}

		members = append(members, models.NewStagedGalleryImage(image, len(members)))
		added++
	}

	s.members = members
	s.dirty = true
	s.lastErr = nil
	s.mu.Unlock()

	if added == 0 {
		s.notifier.ShowError("None of those images could be found.")
		return nil
	}

	s.notifier.Show(fmt.Sprintf("Added %d image(s) to your gallery", added))
	return nil
}

/*
RequestRemove opens the remove-confirmation dialog for one member.
Nothing is removed until ConfirmRemove.
*/
func (s *Session) RequestRemove(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeDialog = RemoveDialog{
		Open:    true,
		EntryID: memberID,
	}
}

/*
CancelRemove closes the dialog without removing anything.
*/
func (s *Session) CancelRemove() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeDialog = RemoveDialog{}
}

func (s *Session) RemoveDialogState() RemoveDialog {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeDialog
}

/*
ConfirmRemove removes the member the dialog was opened for. The member
is spliced out locally first; for a persisted gallery the remote delete
then runs, and on success the collection is replaced from its response.

A remote failure raises an error notification. What happens to the
local list is policy: by default the removal stands, under
RemoveFailureRollback the pre-removal list is restored.
*/
func (s *Session) ConfirmRemove() error {
	s.mu.Lock()

	dialog := s.removeDialog
	s.removeDialog = RemoveDialog{}

	if !dialog.Open {
		s.mu.Unlock()
		slog.Warn("confirm remove called with no dialog open")
		return nil
	}

	index := indexOfMember(s.members, dialog.EntryID)

	if index < 0 {
		s.mu.Unlock()
		slog.Error("confirm remove references a member that is no longer in the collection", "memberId", dialog.EntryID)
		return fmt.Errorf("%w: member %s", ErrNotFound, dialog.EntryID)
	}

	prior := s.members
	members := make([]models.GalleryImage, 0, len(prior)-1)

	for memberIndex, member := range prior {
		if memberIndex == index {
			continue
		}

		members = append(members, member)
	}

	for memberIndex := range members {
		members[memberIndex].Position = memberIndex
	}

	s.members = members
	s.dirty = true

	remote := s.gallery != nil && !models.IsTemporaryID(dialog.EntryID)
	galleryID := uint(0)

	if remote {
		galleryID = s.gallery.ID
	}

	s.mu.Unlock()

	if !remote {
		return nil
	}

	gallery, err := s.store.RemoveMember(galleryID, dialog.EntryID)

	if err != nil {
		err = classifyStoreError(err)

		s.mu.Lock()
		s.lastErr = err

		if s.removeFailurePolicy == RemoveFailureRollback {
			s.members = prior
		}

		s.mu.Unlock()

		slog.Error("error removing gallery member", "galleryId", galleryID, "memberId", dialog.EntryID, "error", err)
		s.notifier.ShowError("Unable to remove the image. Please try again.")
		return err
	}

	s.mu.Lock()
	s.adoptGallery(gallery)
	s.mu.Unlock()

	return nil
}

/*
SetDescription changes one member's caption. This is local only; the
new text goes to the store with the next gallery save. No other member
is touched.
*/
func (s *Session) SetDescription(memberID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := indexOfMember(s.members, memberID)

	if index < 0 {
		slog.Error("set description references a member that is not in the collection", "memberId", memberID)
		return fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}

	members := copyMembers(s.members)
	members[index].Description = description

	s.members = members
	s.dirty = true

	return nil
}

/*
SaveOrder persists the current visual order. Only valid once the
gallery exists; a creation session's order is saved with the gallery
itself. On failure the error is surfaced without reverting the local
order.
*/
func (s *Session) SaveOrder() error {
	s.mu.Lock()

	if s.gallery == nil {
		s.mu.Unlock()
		slog.Warn("save order called before the gallery was created")
		return fmt.Errorf("%w: the gallery has not been created yet", ErrInvariant)
	}

	galleryID := s.gallery.ID
	orderedIDs := memberIDs(s.members)
	s.mu.Unlock()

	gallery, err := s.store.SetMemberOrder(galleryID, orderedIDs)

	if err != nil {
		err = classifyStoreError(err)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		slog.Error("error saving gallery order", "galleryId", galleryID, "error", err)
		s.notifier.ShowError("Unable to save the new order. Please try again.")
		return err
	}

	s.mu.Lock()
	s.adoptGallery(gallery)
	s.mu.Unlock()

	return nil
}

/*
Save writes the gallery's metadata along with every member's caption
and the current order in one call, then replaces local state from the
response.
*/
func (s *Session) Save(update models.GalleryUpdate) error {
	s.mu.Lock()

	if s.gallery == nil {
		s.mu.Unlock()
		slog.Warn("save called before the gallery was created")
		return fmt.Errorf("%w: the gallery has not been created yet", ErrInvariant)
	}

	galleryID := s.gallery.ID

	update.Descriptions = map[string]string{}
	update.MemberOrder = memberIDs(s.members)

	for _, member := range s.members {
		update.Descriptions[member.ID] = member.Description
	}

	s.mu.Unlock()

	gallery, err := s.store.SaveGallery(galleryID, update)

	if err != nil {
		err = classifyStoreError(err)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		slog.Error("error saving gallery", "galleryId", galleryID, "error", err)
		s.notifier.ShowError("Unable to save your gallery. Please try again.")
		return err
	}

	s.mu.Lock()
	s.adoptGallery(gallery)
	s.dirty = false
	s.mu.Unlock()

	s.notifier.Show("Gallery saved")
	return nil
}

/*
StagedEntries returns the members staged in a creation session, in
order, for the create call.
*/
func (s *Session) StagedEntries() []models.GalleryImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyMembers(s.members)
}

/*
AttachCreated flips a creation session over to the gallery the store
just created. Every temporary member is replaced by the persisted
members in the response, same relative order. Calling this on a session
that already has a gallery is a programming error and changes nothing.
*/
func (s *Session) AttachCreated(gallery *models.Gallery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gallery == nil {
		slog.Error("attach created called with no gallery")
		return fmt.Errorf("%w: no gallery in create response", ErrInvalidResponse)
	}

	if s.gallery != nil {
		slog.Error("attach created called on a session that already has a gallery", "galleryId", s.gallery.ID, "newGalleryId", gallery.ID)
		return fmt.Errorf("%w: session already has gallery %d", ErrInvariant, s.gallery.ID)
	}

	s.adoptGallery(gallery)
	s.dirty = false

	return nil
}

/*
adoptGallery replaces the session's gallery and member list from a
store response. Callers must hold the lock. Returns the new member
count.
*/
func (s *Session) adoptGallery(gallery *models.Gallery) int {
	s.gallery = gallery
	s.members = normalizeMembers(gallery.Images)
	s.lastErr = nil

	return len(s.members)
}
