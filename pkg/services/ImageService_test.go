package services

import (
	"testing"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeys(t *testing.T) {
	t.Run("originals live under the user's originals folder", func(t *testing.T) {
		key := OriginalKey("photos", 12, "abc-123", ".png")
		assert.Equal(t, "photos/12/originals/abc-123.png", key)
	})

	t.Run("thumbnails swap folders and are always jpg", func(t *testing.T) {
		key := ThumbnailKey("photos/12/originals/abc-123.png")
		assert.Equal(t, "photos/12/thumbnails/abc-123.jpg", key)
	})

	t.Run("covers are keyed by gallery", func(t *testing.T) {
		key := CoverKey("photos", 12, 7)
		assert.Equal(t, "photos/12/covers/7.jpg", key)
	})
}

func TestSaveAndGetImage(t *testing.T) {
	t.Run("round trips the record and its tags", func(t *testing.T) {
		svc := newTestServices(t)
		userID := seedUser(t, svc.db, "adam@example.com")

		saved := seedImage(t, svc.imageService, userID, "Boardwalk", "Travel", " beach ", "")

		found, err := svc.imageService.GetImage(userID, saved.ID)

		require.NoError(t, err)
		assert.Equal(t, saved.ID, found.ID)
		assert.Equal(t, "Boardwalk", found.Title)
		assert.Equal(t, saved.Path, found.Path)
		assert.Equal(t, "image/jpeg", found.ContentType)
		assert.Equal(t, 4000, found.Width)
		assert.Equal(t, 3000, found.Height)

		require.Len(t, found.Tags, 2)
		assert.Equal(t, "beach", found.Tags[0].Name)
		assert.Equal(t, "travel", found.Tags[1].Name)
	})

	t.Run("someone else's image is not found", func(t *testing.T) {
		svc := newTestServices(t)
		userID := seedUser(t, svc.db, "adam@example.com")
		otherUserID := seedUser(t, svc.db, "intruder@example.com")

		saved := seedImage(t, svc.imageService, userID, "Private")

		_, err := svc.imageService.GetImage(otherUserID, saved.ID)
		assert.ErrorIs(t, err, models.ErrImageNotFound)
	})

	t.Run("tags are shared between images", func(t *testing.T) {
		svc := newTestServices(t)
		userID := seedUser(t, svc.db, "adam@example.com")

		first := seedImage(t, svc.imageService, userID, "First", "family")
		second := seedImage(t, svc.imageService, userID, "Second", "family")

		foundFirst, err := svc.imageService.GetImage(userID, first.ID)
		require.NoError(t, err)

		foundSecond, err := svc.imageService.GetImage(userID, second.ID)
		require.NoError(t, err)

		require.Len(t, foundFirst.Tags, 1)
		require.Len(t, foundSecond.Tags, 1)
		assert.Equal(t, foundFirst.Tags[0].ID, foundSecond.Tags[0].ID, "the tag row should be reused, not duplicated")
	})
}

func TestGetImagesByIDs(t *testing.T) {
	t.Run("IDs that do not resolve are missing, not an error", func(t *testing.T) {
		svc := newTestServices(t)
		userID := seedUser(t, svc.db, "adam@example.com")
		otherUserID := seedUser(t, svc.db, "intruder@example.com")

		mine := seedImage(t, svc.imageService, userID, "Mine")
		theirs := seedImage(t, svc.imageService, otherUserID, "Theirs")

		images, err := svc.imageService.GetImagesByIDs(userID, []string{
			mine.ID,
			theirs.ID,
			"completely-made-up",
		})

		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, mine.ID, images[0].ID)
	})

	t.Run("no IDs means no images and no query", func(t *testing.T) {
		svc := newTestServices(t)
		userID := seedUser(t, svc.db, "adam@example.com")

		images, err := svc.imageService.GetImagesByIDs(userID, nil)

		require.NoError(t, err)
		assert.Empty(t, images)
	})
}

func TestGetImageList(t *testing.T) {
	svc := newTestServices(t)
	userID := seedUser(t, svc.db, "adam@example.com")
	otherUserID := seedUser(t, svc.db, "neighbor@example.com")

	kept := seedImage(t, svc.imageService, userID, "Kept")
	deleted := seedImage(t, svc.imageService, userID, "Deleted")
	seedImage(t, svc.imageService, otherUserID, "Not Mine")

	require.NoError(t, svc.imageService.DeleteImage(userID, deleted.ID))

	images, err := svc.imageService.GetImageList(userID)

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, kept.ID, images[0].ID)
}

func TestDeleteImage(t *testing.T) {
	svc := newTestServices(t)
	userID := seedUser(t, svc.db, "adam@example.com")

	image := seedImage(t, svc.imageService, userID, "Short Lived")

	require.NoError(t, svc.imageService.DeleteImage(userID, image.ID))

	_, err := svc.imageService.GetImage(userID, image.ID)
	assert.ErrorIs(t, err, models.ErrImageNotFound)

	// Deleting again is harmless.
	require.NoError(t, svc.imageService.DeleteImage(userID, image.ID))
}
