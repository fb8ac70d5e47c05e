package models

import (
	"encoding/json"
	"fmt"

	"github.com/adampresley/galleria/pkg/models"
)

/*
AddImagesRequest is the add-images payload. The editor page has shipped
three payload shapes over time and requests in all of them still arrive
from cached pages, so unmarshalling accepts every one:

   {"imageIds": ["a", "b"]}
   ["a", "b"]
   {"images": [{"id": "a"}, {"id": "b"}]}
*/
type AddImagesRequest struct {
	ImageIDs []string
}

func (p *AddImagesRequest) UnmarshalJSON(data []byte) error {
	current := struct {
		ImageIds []string `json:"imageIds"`
	}{}

	if err := json.Unmarshal(data, &current); err == nil && current.ImageIds != nil {
		p.ImageIDs = current.ImageIds
		return nil
	}

	bare := []string{}

	if err := json.Unmarshal(data, &bare); err == nil {
		p.ImageIDs = bare
		return nil
	}

	wrapped := struct {
		Images []struct {
			ID string `json:"id"`
		} `json:"images"`
	}{}

	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Images != nil {
		for _, image := range wrapped.Images {
			p.ImageIDs = append(p.ImageIDs, image.ID)
		}

		return nil
	}

	return fmt.Errorf("unrecognized add images payload")
}

type DragStartRequest struct {
	MemberID string `json:"memberId"`
}

type DragEndRequest struct {
	DraggedID string `json:"draggedId"`
	TargetID  string `json:"targetId"`
}

type RemoveMemberRequest struct {
	MemberID string `json:"memberId"`
}

type DescriptionRequest struct {
	MemberID    string `json:"memberId"`
	Description string `json:"description"`
}

type SaveGalleryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsPublic     bool   `json:"isPublic"`
	Theme        string `json:"theme"`
	CoverImageID string `json:"coverImageId"`
}

type EditorMember struct {
	ID           string `json:"id"`
	ImageID      string `json:"imageId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Position     int    `json:"position"`
	ThumbnailURL string `json:"thumbnailUrl"`
	OriginalURL  string `json:"originalUrl"`
	IsTemporary  bool   `json:"isTemporary"`
}

type RemoveDialogPayload struct {
	IsOpen         bool   `json:"isOpen"`
	PendingEntryID string `json:"pendingEntryId"`
}

type NotificationPayload struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

/*
EditorStateResponse is what every editor API call answers with. The page
rerenders from this instead of patching its own copy of the state.
*/
type EditorStateResponse struct {
	GalleryID    uint                `json:"galleryId"`
	Dirty        bool                `json:"dirty"`
	Changed      bool                `json:"changed"`
	Members      []EditorMember      `json:"members"`
	RemoveDialog RemoveDialogPayload `json:"removeDialog"`
	Notification NotificationPayload `json:"notification"`
}

func EditorMemberFromModel(member models.GalleryImage) EditorMember {
	result := EditorMember{
		ID:          member.ID,
		ImageID:     member.ImageID,
		Description: member.Description,
		Position:    member.Position,
		IsTemporary: models.IsTemporaryID(member.ID),
	}

	if member.Image != nil {
		result.Title = member.Image.Title
		result.ThumbnailURL = member.Image.ThumbnailURL
		result.OriginalURL = member.Image.OriginalURL
	}

	return result
}
