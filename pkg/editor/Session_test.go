package editor

import (
	"errors"
	"testing"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnexpectedCall = errors.New("unexpected store call")

type fakeStore struct {
	getGallery     func(galleryID uint) (*models.Gallery, error)
	addImages      func(galleryID uint, imageIDs []string) (*models.Gallery, error)
	removeMember   func(galleryID uint, memberID string) (*models.Gallery, error)
	setMemberOrder func(galleryID uint, memberIDs []string) (*models.Gallery, error)
	saveGallery    func(galleryID uint, update models.GalleryUpdate) (*models.Gallery, error)
}

func (f *fakeStore) GetGallery(galleryID uint) (*models.Gallery, error) {
	if f.getGallery == nil {
		return nil, errUnexpectedCall
	}

	return f.getGallery(galleryID)
}

func (f *fakeStore) AddImages(galleryID uint, imageIDs []string) (*models.Gallery, error) {
	if f.addImages == nil {
		return nil, errUnexpectedCall
	}

	return f.addImages(galleryID, imageIDs)
}

func (f *fakeStore) RemoveMember(galleryID uint, memberID string) (*models.Gallery, error) {
	if f.removeMember == nil {
		return nil, errUnexpectedCall
	}

	return f.removeMember(galleryID, memberID)
}

func (f *fakeStore) SetMemberOrder(galleryID uint, memberIDs []string) (*models.Gallery, error) {
	if f.setMemberOrder == nil {
		return nil, errUnexpectedCall
	}

	return f.setMemberOrder(galleryID, memberIDs)
}

func (f *fakeStore) SaveGallery(galleryID uint, update models.GalleryUpdate) (*models.Gallery, error) {
	if f.saveGallery == nil {
		return nil, errUnexpectedCall
	}

	return f.saveGallery(galleryID, update)
}

type fakeFinder struct {
	getImagesByIDs func(imageIDs []string) ([]models.Image, error)
}

func (f *fakeFinder) GetImagesByIDs(imageIDs []string) ([]models.Image, error) {
	if f.getImagesByIDs == nil {
		return nil, errUnexpectedCall
	}

	return f.getImagesByIDs(imageIDs)
}

func testImage(id string) models.Image {
	return models.Image{
		ID:    id,
		Title: "Image " + id,
		Path:  "photos/1/originals/" + id + ".jpg",
	}
}

func testMember(id, imageID string, position int) models.GalleryImage {
	image := testImage(imageID)

	return models.GalleryImage{
		ID:        id,
		GalleryID: 10,
		ImageID:   imageID,
		Position:  position,
		Image:     &image,
	}
}

func testGallery(members ...models.GalleryImage) *models.Gallery {
	return &models.Gallery{
		BaseModel: models.BaseModel{ID: 10},
		UserID:    1,
		Name:      "Test Gallery",
		Images:    members,
	}
}

func loadedSession(t *testing.T, store *fakeStore, finder *fakeFinder, gallery *models.Gallery) *Session {
	t.Helper()

	previous := store.getGallery

	store.getGallery = func(galleryID uint) (*models.Gallery, error) {
		return gallery, nil
	}

	session := NewSession(SessionConfig{Store: store, Images: finder})
	require.NoError(t, session.Load(gallery.ID))

	store.getGallery = previous
	return session
}

func assertContiguous(t *testing.T, members []models.GalleryImage) {
	t.Helper()

	for index, member := range members {
		assert.Equal(t, index, member.Position, "member %s should be at position %d", member.ID, index)
	}
}

func TestLoad(t *testing.T) {
	t.Run("replaces state with the fetched gallery", func(t *testing.T) {
		store := &fakeStore{}
		gallery := testGallery(
			testMember("m1", "i1", 0),
			testMember("m2", "i2", 1),
		)

		session := loadedSession(t, store, &fakeFinder{}, gallery)

		require.False(t, session.IsPending())
		assert.Equal(t, uint(10), session.GalleryID())
		assert.False(t, session.Loading())
		assert.NoError(t, session.Err())

		members := session.Members()
		require.Len(t, members, 2)
		assert.Equal(t, "m1", members[0].ID)
		assert.Equal(t, "m2", members[1].ID)
		assertContiguous(t, members)
	})

	t.Run("keeps prior state and records the error on failure", func(t *testing.T) {
		store := &fakeStore{}
		session := loadedSession(t, store, &fakeFinder{}, testGallery(testMember("m1", "i1", 0)))

		store.getGallery = func(galleryID uint) (*models.Gallery, error) {
			return nil, errors.New("connection refused")
		}

		err := session.Load(10)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorIs(t, session.Err(), ErrFetchFailed)

		members := session.Members()
		require.Len(t, members, 1)
		assert.Equal(t, "m1", members[0].ID)
	})

	t.Run("maps a missing gallery to not found", func(t *testing.T) {
		store := &fakeStore{
			getGallery: func(galleryID uint) (*models.Gallery, error) {
				return nil, models.ErrGalleryNotFound
			},
		}

		session := NewSession(SessionConfig{Store: store, Images: &fakeFinder{}})
		err := session.Load(99)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("treats a nil gallery with no error as an invalid response", func(t *testing.T) {
		store := &fakeStore{
			getGallery: func(galleryID uint) (*models.Gallery, error) {
				return nil, nil
			},
		}

		session := NewSession(SessionConfig{Store: store, Images: &fakeFinder{}})
		err := session.Load(10)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("discards a load superseded by a newer one", func(t *testing.T) {
		firstEntered := make(chan struct{})
		releaseFirst := make(chan struct{})

		staleGallery := testGallery(testMember("stale", "i1", 0))
		freshGallery := testGallery(testMember("fresh", "i2", 0))

		store := &fakeStore{
			getGallery: func(galleryID uint) (*models.Gallery, error) {
				if galleryID == 1 {
					close(firstEntered)
					<-releaseFirst
					return staleGallery, nil
				}

				return freshGallery, nil
			},
		}

		session := NewSession(SessionConfig{Store: store, Images: &fakeFinder{}})
		firstDone := make(chan error, 1)

		go func() {
			firstDone <- session.Load(1)
		}()

		<-firstEntered
		require.NoError(t, session.Load(10))

		close(releaseFirst)
		require.NoError(t, <-firstDone)

		members := session.Members()
		require.Len(t, members, 1)
		assert.Equal(t, "fresh", members[0].ID, "the superseded response must not win")
	})
}

func TestNormalization(t *testing.T) {
	t.Run("drops members without a backing image and renumbers", func(t *testing.T) {
		missing := models.GalleryImage{ID: "gone", ImageID: "deleted", Position: 1}

		gallery := testGallery(
			testMember("m1", "i1", 0),
			missing,
			testMember("m2", "i2", 2),
			testMember("m3", "i3", 3),
		)

		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, gallery)
		members := session.Members()

		require.Len(t, members, 3)
		assert.Equal(t, []string{"m1", "m2", "m3"}, memberIDs(members))
		assertContiguous(t, members)
	})

	t.Run("orders by position when the list arrives scrambled", func(t *testing.T) {
		gallery := testGallery(
			testMember("m3", "i3", 2),
			testMember("m1", "i1", 0),
			testMember("m2", "i2", 1),
		)

		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, gallery)
		members := session.Members()

		assert.Equal(t, []string{"m1", "m2", "m3"}, memberIDs(members))
		assertContiguous(t, members)
	})

	t.Run("repairs a negative position to the member's index", func(t *testing.T) {
		gallery := testGallery(
			testMember("m1", "i1", 0),
			testMember("m2", "i2", -7),
			testMember("m3", "i3", 2),
		)

		session := loadedSession(t, &fakeStore{}, &fakeFinder{}, gallery)
		members := session.Members()

		require.Len(t, members, 3)
		assertContiguous(t, members)

		// The repaired member keeps its slot, it does not jump around.
		assert.Equal(t, []string{"m1", "m2", "m3"}, memberIDs(members))
	})

	t.Run("replace seeds a creation session through the same funnel", func(t *testing.T) {
		session := NewSession(SessionConfig{Store: &fakeStore{}, Images: &fakeFinder{}})

		session.Replace([]models.GalleryImage{
			testMember("m2", "i2", 5),
			testMember("m1", "i1", 1),
		})

		members := session.Members()
		assert.Equal(t, []string{"m1", "m2"}, memberIDs(members))
		assertContiguous(t, members)
		assert.True(t, session.IsPending())
	})
}

func TestOrderStaysContiguous(t *testing.T) {
	// Run a scripted mix of staged adds, removes, and drags and check
	// the position invariant after every step.
	finder := &fakeFinder{
		getImagesByIDs: func(imageIDs []string) ([]models.Image, error) {
			images := make([]models.Image, len(imageIDs))

			for index, id := range imageIDs {
				images[index] = testImage(id)
			}

			return images, nil
		},
	}

	session := NewSession(SessionConfig{Store: &fakeStore{}, Images: finder})

	check := func(step string) {
		members := session.Members()

		for index, member := range members {
			require.Equal(t, index, member.Position, "after %s: member %s at index %d has position %d", step, member.ID, index, member.Position)
		}
	}

	require.NoError(t, session.AddImages([]string{"i1", "i2", "i3", "i4", "i5"}))
	check("seed add")

	ids := memberIDs(session.Members())

	require.True(t, session.DragEnd(ids[0], ids[3]))
	check("drag first onto fourth")

	session.RequestRemove(ids[2])
	require.NoError(t, session.ConfirmRemove())
	check("remove one")

	require.NoError(t, session.AddImages([]string{"i6"}))
	check("add another")

	ids = memberIDs(session.Members())
	require.True(t, session.DragEnd(ids[len(ids)-1], ids[0]))
	check("drag last onto first")

	session.RequestRemove(ids[0])
	require.NoError(t, session.ConfirmRemove())
	check("remove head")

	require.Len(t, session.Members(), 4)
}
