package editor

import (
	"log/slog"

	"github.com/adampresley/galleria/pkg/models"
)

/*
DragStart records which member is being dragged so callers can render
it as the active one. No list state changes here.
*/
func (s *Session) DragStart(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeDragID = memberID
}

/*
DragCancel clears the active drag without touching the list.
*/
func (s *Session) DragCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeDragID = ""
}

func (s *Session) ActiveDragID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeDragID
}

/*
DragEnd completes a drag by moving the dragged member to the target
member's slot, then renumbering. Returns whether the order actually
changed.

Dropping onto nothing or onto itself changes nothing. A dragged or
target ID that is no longer in the list means the collection changed
underneath the drag; that is logged with both IDs and the operation is
aborted with no partial mutation.

When the gallery exists and the session is configured to save order on
drop, the new order is persisted immediately. The reorder stands even
if that save fails.
*/
func (s *Session) DragEnd(draggedID, targetID string) bool {
	s.mu.Lock()

	s.activeDragID = ""

	if targetID == "" || draggedID == targetID {
		s.mu.Unlock()
		return false
	}

	from := indexOfMember(s.members, draggedID)
	to := indexOfMember(s.members, targetID)

	if from < 0 || to < 0 {
		slog.Error("drag references a member that is not in the collection",
			"draggedId", draggedID,
			"targetId", targetID,
			"draggedIndex", from,
			"targetIndex", to,
		)

		s.mu.Unlock()
		return false
	}

	s.members = moveMember(s.members, from, to)
	s.dirty = true

	saveNow := s.autoSaveOrder && s.gallery != nil
	s.mu.Unlock()

	if saveNow {
		// SaveOrder records and notifies its own failures. The local
		// reorder is not reverted.
		_ = s.SaveOrder()
	}

	return true
}

/*
moveMember returns a new slice with the member at from removed and
reinserted at the target's original index, positions renumbered.
*/
func moveMember(members []models.GalleryImage, from, to int) []models.GalleryImage {
	result := make([]models.GalleryImage, 0, len(members))
	moved := members[from]

	for index, member := range members {
		if index != from {
			result = append(result, member)
		}
	}

	result = append(result, models.GalleryImage{})
	copy(result[to+1:], result[to:])
	result[to] = moved

	for index := range result {
		result[index].Position = index
	}

	return result
}
