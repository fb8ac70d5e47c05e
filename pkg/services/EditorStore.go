package services

import (
	"github.com/adampresley/galleria/pkg/models"
)

/*
EditorStore adapts the gallery and image services to the narrower
interfaces the editor package wants, with the owning user baked in.
One is built per editing session.
*/
type EditorStore struct {
	userID    uint
	galleries GalleryServicer
	images    ImageServicer
}

func NewEditorStore(userID uint, galleries GalleryServicer, images ImageServicer) EditorStore {
	return EditorStore{
		userID:    userID,
		galleries: galleries,
		images:    images,
	}
}

func (s EditorStore) GetGallery(galleryID uint) (*models.Gallery, error) {
	return s.galleries.GetGallery(s.userID, galleryID)
}

func (s EditorStore) AddImages(galleryID uint, imageIDs []string) (*models.Gallery, error) {
	return s.galleries.AddImages(s.userID, galleryID, imageIDs)
}

func (s EditorStore) RemoveMember(galleryID uint, memberID string) (*models.Gallery, error) {
	return s.galleries.RemoveMember(s.userID, galleryID, memberID)
}

func (s EditorStore) SetMemberOrder(galleryID uint, memberIDs []string) (*models.Gallery, error) {
	return s.galleries.SetMemberOrder(s.userID, galleryID, memberIDs)
}

func (s EditorStore) SaveGallery(galleryID uint, update models.GalleryUpdate) (*models.Gallery, error) {
	return s.galleries.UpdateGallery(s.userID, galleryID, update)
}

func (s EditorStore) GetImagesByIDs(imageIDs []string) ([]models.Image, error) {
	return s.images.GetImagesByIDs(s.userID, imageIDs)
}
