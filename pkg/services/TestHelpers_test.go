package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
	"github.com/stretchr/testify/require"

	_ "github.com/glebarez/sqlite"
)

func init() {
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
}

const testSchema = `
CREATE TABLE users (
   id INTEGER PRIMARY KEY AUTOINCREMENT
   , created_at DATETIME NOT NULL
   , updated_at DATETIME NOT NULL
   , deleted_at DATETIME
   , email TEXT NOT NULL UNIQUE
   , password TEXT NOT NULL
   , name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE images (
   id TEXT PRIMARY KEY
   , created_at DATETIME NOT NULL
   , updated_at DATETIME NOT NULL
   , deleted_at DATETIME
   , user_id INTEGER NOT NULL
   , title TEXT NOT NULL DEFAULT ''
   , description TEXT NOT NULL DEFAULT ''
   , path TEXT NOT NULL
   , content_type TEXT NOT NULL DEFAULT ''
   , width INTEGER NOT NULL DEFAULT 0
   , height INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE tags (
   id INTEGER PRIMARY KEY AUTOINCREMENT
   , name TEXT NOT NULL UNIQUE
);

CREATE TABLE image_tags (
   image_id TEXT NOT NULL
   , tag_id INTEGER NOT NULL
   , PRIMARY KEY (image_id, tag_id)
);

CREATE TABLE galleries (
   id INTEGER PRIMARY KEY AUTOINCREMENT
   , created_at DATETIME NOT NULL
   , updated_at DATETIME NOT NULL
   , deleted_at DATETIME
   , user_id INTEGER NOT NULL
   , name TEXT NOT NULL
   , description TEXT NOT NULL DEFAULT ''
   , is_public INTEGER NOT NULL DEFAULT 0
   , theme TEXT NOT NULL DEFAULT ''
   , cover_image_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE gallery_images (
   id TEXT PRIMARY KEY
   , created_at DATETIME NOT NULL
   , updated_at DATETIME NOT NULL
   , gallery_id INTEGER NOT NULL
   , image_id TEXT NOT NULL
   , description TEXT NOT NULL DEFAULT ''
   , position INTEGER NOT NULL DEFAULT 0
);
`

func newTestDB(t *testing.T) *sqlz.DB {
	t.Helper()

	var (
		err error
		db  *sqlz.DB
	)

	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "galleria.db"))

	db, err = sqlz.Connect("sqlite", dsn)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err = db.Exec(ctx, testSchema)
	require.NoError(t, err)

	return db
}

type testServices struct {
	db             *sqlz.DB
	galleryService GalleryService
	imageService   ImageService
	userService    UserService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()

	db := newTestDB(t)

	return testServices{
		db:             db,
		galleryService: NewGalleryService(GalleryServiceConfig{DB: db, PhotoFolder: "photos"}),
		imageService:   NewImageService(ImageServiceConfig{DB: db, PhotoFolder: "photos"}),
		userService:    NewUserService(UserServiceConfig{DB: db}),
	}
}

func seedUser(t *testing.T, db *sqlz.DB, email string) uint {
	t.Helper()

	now := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	result, err := db.Exec(ctx, `
INSERT INTO users (
   created_at
   , updated_at
   , email
   , password
   , name
) VALUES (?, ?, ?, ?, ?)
   `, now, now, email, "secret", "Test User")
	require.NoError(t, err)

	id, err := result.LastInsertId()
	require.NoError(t, err)

	return uint(id)
}

func seedImage(t *testing.T, imageService ImageService, userID uint, title string, tags ...string) *models.Image {
	t.Helper()

	image := &models.Image{
		ID:          models.NewImageID(),
		UserID:      userID,
		Title:       title,
		ContentType: "image/jpeg",
		Width:       4000,
		Height:      3000,
	}

	image.Path = OriginalKey("photos", userID, image.ID, ".jpg")

	require.NoError(t, imageService.SaveImage(image, tags))
	return image
}

func memberIDs(members []models.GalleryImage) []string {
	result := make([]string, len(members))

	for index, member := range members {
		result[index] = member.ID
	}

	return result
}

func memberImageIDs(members []models.GalleryImage) []string {
	result := make([]string, len(members))

	for index, member := range members {
		result[index] = member.ImageID
	}

	return result
}

func assertContiguousPositions(t *testing.T, members []models.GalleryImage) {
	t.Helper()

	for index, member := range members {
		require.Equal(t, index, member.Position, "member %s at index %d has position %d", member.ID, index, member.Position)
	}
}
