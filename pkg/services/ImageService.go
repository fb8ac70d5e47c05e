package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/rfberaldo/sqlz"
)

type ImageServicer interface {
	GetImage(userID uint, imageID string) (*models.Image, error)
	GetImagesByIDs(userID uint, imageIDs []string) ([]models.Image, error)
	GetImageList(userID uint) ([]models.Image, error)
	SaveImage(image *models.Image, tags []string) error
	DeleteImage(userID uint, imageID string) error
}

type ImageServiceConfig struct {
	DB          *sqlz.DB
	S3Client    s3.S3Client
	Bucket      string
	PhotoFolder string
}

type ImageService struct {
	db          *sqlz.DB
	s3Client    s3.S3Client
	bucket      string
	photoFolder string
}

func NewImageService(config ImageServiceConfig) ImageService {
	return ImageService{
		db:          config.DB,
		s3Client:    config.S3Client,
		bucket:      config.Bucket,
		photoFolder: config.PhotoFolder,
	}
}

/*
OriginalKey is where an image's full-size upload lives in the bucket.
*/
func OriginalKey(photoFolder string, userID uint, imageID, extension string) string {
	return filepath.Join(photoFolder, fmt.Sprint(userID), "originals", imageID+extension)
}

/*
ThumbnailKey maps an original's key to its thumbnail's key. Thumbnails
are always JPEG regardless of the original format.
*/
func ThumbnailKey(originalKey string) string {
	name := filepath.Base(originalKey)
	extension := filepath.Ext(name)
	userFolder := filepath.Dir(filepath.Dir(originalKey))

	return filepath.Join(userFolder, "thumbnails", strings.TrimSuffix(name, extension)+".jpg")
}

/*
CoverKey is where a gallery's cover banner lives in the bucket.
*/
func CoverKey(photoFolder string, userID, galleryID uint) string {
	return filepath.Join(photoFolder, fmt.Sprint(userID), "covers", fmt.Sprintf("%d.jpg", galleryID))
}

func resolveImageURLs(s3Client s3.S3Client, bucket string, image *models.Image) {
	var (
		err error
		u   string
	)

	if s3Client == nil || image.Path == "" {
		return
	}

	if u, err = s3Client.GetUrl(bucket, ThumbnailKey(image.Path)); err == nil {
		image.ThumbnailURL = u
	} else {
		slog.Error("error getting thumbnail URL", "error", err, "imageId", image.ID, "path", image.Path)
	}

	if u, err = s3Client.GetUrl(bucket, image.Path); err == nil {
		image.OriginalURL = u
	} else {
		slog.Error("error getting original URL", "error", err, "imageId", image.ID, "path", image.Path)
	}
}

func (s ImageService) GetImage(userID uint, imageID string) (*models.Image, error) {
	var (
		err error
	)

	result := &models.Image{}

	sql := `
SELECT
   i.id
   , i.created_at
   , i.updated_at
   , i.deleted_at
   , i.user_id
   , i.title
   , COALESCE(i.description, '') AS description
   , i.path
   , COALESCE(i.content_type, '') AS content_type
   , COALESCE(i.width, 0) AS width
   , COALESCE(i.height, 0) AS height
FROM images AS i
WHERE 1=1
   AND i.deleted_at IS NULL
   AND i.id=?
   AND i.user_id=?
   `

	params := []any{imageID, userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, params...); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrImageNotFound
		}

		return nil, fmt.Errorf("error querying for image %s: %w", imageID, err)
	}

	if err = s.attachTags([]*models.Image{result}); err != nil {
		return nil, err
	}

	resolveImageURLs(s.s3Client, s.bucket, result)
	return result, nil
}

/*
GetImagesByIDs returns the user's images matching the given IDs. IDs
that do not resolve are simply missing from the result, never an error.
*/
func (s ImageService) GetImagesByIDs(userID uint, imageIDs []string) ([]models.Image, error) {
	var (
		err error
	)

	result := []models.Image{}

	if len(imageIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(imageIDs)), ",")

	sql := fmt.Sprintf(`
SELECT
   i.id
   , i.created_at
   , i.updated_at
   , i.deleted_at
   , i.user_id
   , i.title
   , COALESCE(i.description, '') AS description
   , i.path
   , COALESCE(i.content_type, '') AS content_type
   , COALESCE(i.width, 0) AS width
   , COALESCE(i.height, 0) AS height
FROM images AS i
WHERE 1=1
   AND i.deleted_at IS NULL
   AND i.user_id=?
   AND i.id IN (%s)
   `, placeholders)

	params := []any{userID}

	for _, imageID := range imageIDs {
		params = append(params, imageID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, params...); err != nil {
		return result, fmt.Errorf("error querying for images by IDs: %w", err)
	}

	if err = s.attachTagsToSlice(result); err != nil {
		return result, err
	}

	for index := range result {
		resolveImageURLs(s.s3Client, s.bucket, &result[index])
	}

	return result, nil
}

func (s ImageService) GetImageList(userID uint) ([]models.Image, error) {
	var (
		err error
	)

	result := []models.Image{}

	sql := `
SELECT
   i.id
   , i.created_at
   , i.updated_at
   , i.deleted_at
   , i.user_id
   , i.title
   , COALESCE(i.description, '') AS description
   , i.path
   , COALESCE(i.content_type, '') AS content_type
   , COALESCE(i.width, 0) AS width
   , COALESCE(i.height, 0) AS height
FROM images AS i
WHERE 1=1
   AND i.deleted_at IS NULL
   AND i.user_id=?
ORDER BY i.created_at DESC
   `

	params := []any{userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, params...); err != nil {
		return result, fmt.Errorf("error querying for images by user ID %d: %w", userID, err)
	}

	if err = s.attachTagsToSlice(result); err != nil {
		return result, err
	}

	for index := range result {
		resolveImageURLs(s.s3Client, s.bucket, &result[index])
	}

	return result, nil
}

/*
SaveImage inserts a new image record and its tags. The image must
already have its ID and Path set.
*/
func (s ImageService) SaveImage(image *models.Image, tags []string) error {
	var (
		err error
	)

	now := time.Now()

	sql := `
INSERT INTO images (
   id
   , created_at
   , updated_at
   , user_id
   , title
   , description
   , path
   , content_type
   , width
   , height
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
   `

	params := []any{
		image.ID,
		now,
		now,
		image.UserID,
		image.Title,
		image.Description,
		image.Path,
		image.ContentType,
		image.Width,
		image.Height,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error saving image %s: %w", image.ID, err)
	}

	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ToLower(tag))

		if tag == "" {
			continue
		}

		if err = s.tagImage(image.ID, tag); err != nil {
			return err
		}
	}

	return nil
}

func (s ImageService) DeleteImage(userID uint, imageID string) error {
	var (
		err error
	)

	sql := `
UPDATE images SET
   deleted_at=?
WHERE 1=1
   AND id=?
   AND user_id=?
   AND deleted_at IS NULL
   `

	params := []any{time.Now(), imageID, userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error deleting image %s: %w", imageID, err)
	}

	return nil
}

func (s ImageService) tagImage(imageID, tag string) error {
	var (
		err   error
		tagID uint
	)

	insertTagSQL := `
INSERT INTO tags (name)
SELECT ?
WHERE NOT EXISTS (SELECT 1 FROM tags WHERE name=?)
   `

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, insertTagSQL, tag, tag); err != nil {
		return fmt.Errorf("error upserting tag '%s': %w", tag, err)
	}

	selectSQL := `
SELECT
   t.id
FROM tags AS t
WHERE 1=1
   AND t.name=?
   `

	selectCtx, selectCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer selectCancel()

	if err = s.db.QueryRow(selectCtx, &tagID, selectSQL, tag); err != nil {
		return fmt.Errorf("error getting ID for tag '%s': %w", tag, err)
	}

	linkSQL := `
INSERT INTO image_tags (image_id, tag_id)
SELECT ?, ?
WHERE NOT EXISTS (SELECT 1 FROM image_tags WHERE image_id=? AND tag_id=?)
   `

	linkCtx, linkCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer linkCancel()

	if _, err = s.db.Exec(linkCtx, linkSQL, imageID, tagID, imageID, tagID); err != nil {
		return fmt.Errorf("error tagging image %s with '%s': %w", imageID, tag, err)
	}

	return nil
}

type imageTagRow struct {
	ImageID string
	TagID   uint
	Name    string
}

func (s ImageService) attachTagsToSlice(images []models.Image) error {
	pointers := make([]*models.Image, len(images))

	for index := range images {
		pointers[index] = &images[index]
	}

	return s.attachTags(pointers)
}

func (s ImageService) attachTags(images []*models.Image) error {
	var (
		err  error
		rows []imageTagRow
	)

	if len(images) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(images)), ",")

	sql := fmt.Sprintf(`
SELECT
   it.image_id
   , t.id AS tag_id
   , t.name
FROM image_tags AS it
   INNER JOIN tags AS t ON t.id=it.tag_id
WHERE 1=1
   AND it.image_id IN (%s)
ORDER BY t.name
   `, placeholders)

	params := []any{}

	for _, image := range images {
		params = append(params, image.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &rows, sql, params...); err != nil {
		return fmt.Errorf("error querying for image tags: %w", err)
	}

	tagsByImage := map[string][]models.Tag{}

	for _, row := range rows {
		tagsByImage[row.ImageID] = append(tagsByImage[row.ImageID], models.Tag{
			ID:   row.TagID,
			Name: row.Name,
		})
	}

	for _, image := range images {
		image.Tags = tagsByImage[image.ID]
	}

	return nil
}
