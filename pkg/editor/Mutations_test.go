package editor

import (
	"errors"
	"testing"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvingFinder() *fakeFinder {
	return &fakeFinder{
		getImagesByIDs: func(imageIDs []string) ([]models.Image, error) {
			images := make([]models.Image, len(imageIDs))

			for index, id := range imageIDs {
				images[index] = testImage(id)
			}

			return images, nil
		},
	}
}

func TestAddImages(t *testing.T) {
	t.Run("stages images locally while the gallery is pending", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: resolvingFinder()})

		require.NoError(t, session.AddImages([]string{"i1", "i2"}))

		members := session.Members()
		require.Len(t, members, 2)
		assertContiguous(t, members)

		for index, member := range members {
			assert.True(t, models.IsTemporaryID(member.ID), "staged member %d should carry a temporary id", index)
			assert.Zero(t, member.GalleryID)
			require.NotNil(t, member.Image)
		}

		assert.Equal(t, "i1", members[0].ImageID)
		assert.Equal(t, "i2", members[1].ImageID)
		assert.True(t, session.Dirty())

		notification, visible := session.Notifier().Current()
		require.True(t, visible)
		assert.Equal(t, "Added 2 image(s) to your gallery", notification.Text)
		assert.False(t, notification.IsError)
	})

	t.Run("staged positions continue from the current tail", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: resolvingFinder()})

		require.NoError(t, session.AddImages([]string{"i1", "i2"}))
		require.NoError(t, session.AddImages([]string{"i3"}))

		members := session.Members()
		require.Len(t, members, 3)
		assert.Equal(t, "i3", members[2].ImageID)
		assertContiguous(t, members)
	})

	t.Run("skips images the lookup did not resolve", func(t *testing.T) {
		finder := &fakeFinder{
			getImagesByIDs: func(imageIDs []string) ([]models.Image, error) {
				return []models.Image{testImage("i1")}, nil
			},
		}

		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: finder})

		require.NoError(t, session.AddImages([]string{"i1", "unknown"}))

		members := session.Members()
		require.Len(t, members, 1)
		assert.Equal(t, "i1", members[0].ImageID)

		notification, _ := session.Notifier().Current()
		assert.Equal(t, "Added 1 image(s) to your gallery", notification.Text)
	})

	t.Run("an empty id list is a no-op", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: &fakeFinder{}})

		require.NoError(t, session.AddImages(nil))

		assert.Empty(t, session.Members())

		_, visible := session.Notifier().Current()
		assert.False(t, visible)
	})

	t.Run("adds through the store once the gallery exists", func(t *testing.T) {
		var requestedIDs []string

		store := &fakeStore{}

		store.addImages = func(galleryID uint, imageIDs []string) (*models.Gallery, error) {
			requestedIDs = imageIDs

			return testGallery(
				testMember("m1", "i1", 0),
				testMember("m2", "i2", 1),
				testMember("m3", "i3", 2),
			), nil
		}

		session := loadedSession(t, store, &fakeFinder{}, testGallery(
			testMember("m1", "i1", 0),
			testMember("m2", "i2", 1),
		))

		require.NoError(t, session.AddImages([]string{"i3"}))

		assert.Equal(t, []string{"i3"}, requestedIDs)

		members := session.Members()
		require.Len(t, members, 3)
		assert.Equal(t, []string{"m1", "m2", "m3"}, memberIDs(members))
		assertContiguous(t, members)

		for _, member := range members {
			assert.False(t, models.IsTemporaryID(member.ID))
		}

		notification, visible := session.Notifier().Current()
		require.True(t, visible)
		assert.Equal(t, "Added 1 image(s) to your gallery", notification.Text)
	})

	t.Run("a failed remote add leaves the collection untouched", func(t *testing.T) {
		store := &fakeStore{}

		store.addImages = func(galleryID uint, imageIDs []string) (*models.Gallery, error) {
			return nil, errors.New("connection refused")
		}

		session := loadedSession(t, store, &fakeFinder{}, testGallery(
			testMember("m1", "i1", 0),
		))

		err := session.AddImages([]string{"i2"})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.Equal(t, []string{"m1"}, memberIDs(session.Members()))

		notification, visible := session.Notifier().Current()
		require.True(t, visible)
		assert.True(t, notification.IsError)
	})
}

func TestRemoveFlow(t *testing.T) {
	t.Run("requesting opens the dialog, cancel closes it", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		session.RequestRemove("b")

		dialog := session.RemoveDialogState()
		assert.True(t, dialog.Open)
		assert.Equal(t, "b", dialog.EntryID)

		session.CancelRemove()

		dialog = session.RemoveDialogState()
		assert.False(t, dialog.Open)
		assert.Equal(t, []string{"a", "b", "c", "d"}, memberIDs(session.Members()))
	})

	t.Run("confirming removes a staged member locally", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: resolvingFinder()})
		require.NoError(t, session.AddImages([]string{"i1", "i2", "i3"}))

		ids := memberIDs(session.Members())
		session.RequestRemove(ids[1])
		require.NoError(t, session.ConfirmRemove())

		members := session.Members()
		require.Len(t, members, 2)
		assert.Equal(t, []string{"i1", "i3"}, []string{members[0].ImageID, members[1].ImageID})
		assertContiguous(t, members)
	})

	t.Run("confirming removes remotely and adopts the response", func(t *testing.T) {
		var removedID string

		store := &fakeStore{}

		store.removeMember = func(galleryID uint, memberID string) (*models.Gallery, error) {
			removedID = memberID

			return testGallery(
				testMember("a", "i1", 0),
				testMember("c", "i3", 1),
				testMember("d", "i4", 2),
			), nil
		}

		session := loadedSession(t, store, &fakeFinder{}, fourMemberGallery())

		session.RequestRemove("b")
		require.NoError(t, session.ConfirmRemove())

		assert.Equal(t, "b", removedID)

		members := session.Members()
		assert.Equal(t, []string{"a", "c", "d"}, memberIDs(members))
		assertContiguous(t, members)
	})

	t.Run("a failed remote delete keeps the optimistic removal by default", func(t *testing.T) {
		store := &fakeStore{}

		store.removeMember = func(galleryID uint, memberID string) (*models.Gallery, error) {
			return nil, errors.New("connection refused")
		}

		session := loadedSession(t, store, &fakeFinder{}, fourMemberGallery())

		session.RequestRemove("b")
		err := session.ConfirmRemove()

		require.Error(t, err)
		assert.Equal(t, []string{"a", "c", "d"}, memberIDs(session.Members()), "the member stays gone locally")
		assert.ErrorIs(t, session.Err(), ErrFetchFailed)

		notification, visible := session.Notifier().Current()
		require.True(t, visible)
		assert.True(t, notification.IsError)
	})

	t.Run("rollback policy restores the member on a failed delete", func(t *testing.T) {
		store := &fakeStore{}

		store.removeMember = func(galleryID uint, memberID string) (*models.Gallery, error) {
			return nil, errors.New("connection refused")
		}

		store.getGallery = func(galleryID uint) (*models.Gallery, error) {
			return fourMemberGallery(), nil
		}

		session := NewSession(SessionConfig{
			Store:               store,
			Images:              &fakeFinder{},
			RemoveFailurePolicy: RemoveFailureRollback,
		})

		require.NoError(t, session.Load(10))

		session.RequestRemove("b")
		err := session.ConfirmRemove()

		require.Error(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, memberIDs(session.Members()))
	})

	t.Run("confirming a vanished member is a not-found no-op", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		session.RequestRemove("vanished")
		err := session.ConfirmRemove()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []string{"a", "b", "c", "d"}, memberIDs(session.Members()))
	})

	t.Run("confirming with no dialog open does nothing", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		require.NoError(t, session.ConfirmRemove())
		assert.Equal(t, []string{"a", "b", "c", "d"}, memberIDs(session.Members()))
	})
}

func TestSetDescription(t *testing.T) {
	t.Run("edits only the target member", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		before := session.Members()
		require.NoError(t, session.SetDescription("b", "Sunset over the bay"))

		after := session.Members()
		require.Len(t, after, 4)

		for index, member := range after {
			assert.Equal(t, before[index].ID, member.ID)
			assert.Equal(t, before[index].Position, member.Position)

			if member.ID == "b" {
				assert.Equal(t, "Sunset over the bay", member.Description)
			} else {
				assert.Equal(t, before[index].Description, member.Description)
			}
		}

		assert.True(t, session.Dirty())
	})

	t.Run("does not call the store", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		// The fake store fails every call it receives, so a store call
		// here would surface as an error.
		require.NoError(t, session.SetDescription("a", "caption"))
	})

	t.Run("a vanished member is not found", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		err := session.SetDescription("vanished", "caption")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSaveOrder(t *testing.T) {
	t.Run("sends the current order and adopts the response", func(t *testing.T) {
		var savedOrder []string

		store := &fakeStore{}

		store.setMemberOrder = func(galleryID uint, orderIDs []string) (*models.Gallery, error) {
			savedOrder = orderIDs
			return fourMemberGallery(), nil
		}

		session := loadedSession(t, store, &fakeFinder{}, fourMemberGallery())

		require.NoError(t, session.SaveOrder())
		assert.Equal(t, []string{"a", "b", "c", "d"}, savedOrder)
	})

	t.Run("is refused while the gallery is pending", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: &fakeFinder{}})

		err := session.SaveOrder()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("keeps the local order when the save fails", func(t *testing.T) {
		store := &fakeStore{}

		store.setMemberOrder = func(galleryID uint, orderIDs []string) (*models.Gallery, error) {
			return nil, errors.New("connection refused")
		}

		session := loadedSession(t, store, &fakeFinder{}, fourMemberGallery())
		require.True(t, session.DragEnd("a", "c"))

		err := session.SaveOrder()

		require.Error(t, err)
		assert.Equal(t, []string{"b", "c", "a", "d"}, memberIDs(session.Members()))
	})
}

func TestSave(t *testing.T) {
	t.Run("carries metadata, captions, and order in one call", func(t *testing.T) {
		var saved models.GalleryUpdate

		store := &fakeStore{}

		store.saveGallery = func(galleryID uint, update models.GalleryUpdate) (*models.Gallery, error) {
			saved = update

			refreshed := fourMemberGallery()
			refreshed.Name = update.Name
			return refreshed, nil
		}

		session := loadedSession(t, store, &fakeFinder{}, fourMemberGallery())

		require.NoError(t, session.SetDescription("c", "The lighthouse"))
		require.True(t, session.DragEnd("a", "b"))

		require.NoError(t, session.Save(models.GalleryUpdate{Name: "Coastal Trip"}))

		assert.Equal(t, "Coastal Trip", saved.Name)
		assert.Equal(t, []string{"b", "a", "c", "d"}, saved.MemberOrder)
		assert.Equal(t, "The lighthouse", saved.Descriptions["c"])
		assert.False(t, session.Dirty())

		notification, visible := session.Notifier().Current()
		require.True(t, visible)
		assert.Equal(t, "Gallery saved", notification.Text)
	})

	t.Run("is refused while the gallery is pending", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: &fakeFinder{}})

		err := session.Save(models.GalleryUpdate{Name: "Nope"})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvariant)
	})
}

func TestCreationFlow(t *testing.T) {
	t.Run("staged members survive creation in order with persisted ids", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: resolvingFinder()})

		require.NoError(t, session.AddImages([]string{"i1", "i2", "i3"}))

		ids := memberIDs(session.Members())
		require.True(t, session.DragEnd(ids[2], ids[0]))

		staged := session.StagedEntries()
		require.Len(t, staged, 3)
		assert.Equal(t, []string{"i3", "i1", "i2"}, []string{staged[0].ImageID, staged[1].ImageID, staged[2].ImageID})

		// What the store would hand back from the create call: the same
		// images, same order, persisted ids.
		created := testGallery(
			testMember("p1", "i3", 0),
			testMember("p2", "i1", 1),
			testMember("p3", "i2", 2),
		)

		require.NoError(t, session.AttachCreated(created))

		require.False(t, session.IsPending())
		assert.False(t, session.Dirty())

		members := session.Members()
		require.Len(t, members, 3)
		assert.Equal(t, []string{"i3", "i1", "i2"}, []string{members[0].ImageID, members[1].ImageID, members[2].ImageID})
		assertContiguous(t, members)

		for _, member := range members {
			assert.False(t, models.IsTemporaryID(member.ID))
		}
	})

	t.Run("attaching twice is refused", func(t *testing.T) {
		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, fourMemberGallery())

		err := session.AttachCreated(testGallery())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("attaching nothing is an invalid response", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: &fakeFinder{}})

		err := session.AttachCreated(nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}
