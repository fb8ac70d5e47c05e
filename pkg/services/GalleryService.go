package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/rfberaldo/sqlz"
)

type GalleryServicer interface {
	GetGallery(userID, galleryID uint) (*models.Gallery, error)
	GetPublicGallery(galleryID uint) (*models.Gallery, error)
	GetGalleryList(userID uint) ([]*models.Gallery, error)
	GetPublicGalleryList() ([]*models.Gallery, error)
	CreateGallery(userID uint, gallery models.Gallery, members []models.GalleryImage) (*models.Gallery, error)
	AddImages(userID, galleryID uint, imageIDs []string) (*models.Gallery, error)
	RemoveMember(userID, galleryID uint, memberID string) (*models.Gallery, error)
	SetMemberOrder(userID, galleryID uint, memberIDs []string) (*models.Gallery, error)
	UpdateGallery(userID, galleryID uint, update models.GalleryUpdate) (*models.Gallery, error)
	DeleteGallery(userID, galleryID uint) error
}

type GalleryServiceConfig struct {
	DB          *sqlz.DB
	S3Client    s3.S3Client
	Bucket      string
	PhotoFolder string
}

type GalleryService struct {
	db          *sqlz.DB
	s3Client    s3.S3Client
	bucket      string
	photoFolder string
}

func NewGalleryService(config GalleryServiceConfig) GalleryService {
	return GalleryService{
		db:          config.DB,
		s3Client:    config.S3Client,
		bucket:      config.Bucket,
		photoFolder: config.PhotoFolder,
	}
}

/*
galleryMemberRow is a flattened row from gallery_images LEFT JOINed with
images. ImageRowID is empty when the backing image is gone.
*/
type galleryMemberRow struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	GalleryID   uint
	ImageID     string
	Description string
	Position    int

	ImageRowID       string
	ImageUserID      uint
	ImageTitle       string
	ImageDescription string
	ImagePath        string
	ImageContentType string
	ImageWidth       int
	ImageHeight      int
}

func (s GalleryService) GetGallery(userID, galleryID uint) (*models.Gallery, error) {
	var (
		err    error
		result *models.Gallery
	)

	if result, err = s.getGalleryRecord(userID, galleryID); err != nil {
		return nil, err
	}

	if result.Images, err = s.getMembers(galleryID); err != nil {
		return nil, err
	}

	return result, nil
}

func (s GalleryService) GetPublicGallery(galleryID uint) (*models.Gallery, error) {
	var (
		err error
	)

	result := &models.Gallery{}

	sql := `
SELECT
   g.id
   , g.created_at
   , g.updated_at
   , g.deleted_at
   , g.user_id
   , g.name
   , COALESCE(g.description, '') AS description
   , g.is_public
   , COALESCE(g.theme, '') AS theme
   , COALESCE(g.cover_image_id, '') AS cover_image_id
   , (SELECT COUNT(*) FROM gallery_images AS gi WHERE gi.gallery_id=g.id) AS num_images
FROM galleries AS g
WHERE 1=1
   AND g.deleted_at IS NULL
   AND g.is_public=1
   AND g.id=?
   `

	params := []any{galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, params...); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrGalleryNotFound
		}

		return nil, fmt.Errorf("error querying for public gallery %d: %w", galleryID, err)
	}

	if result.Images, err = s.getMembers(galleryID); err != nil {
		return nil, err
	}

	s.resolveGalleryCover(result)
	return result, nil
}

func (s GalleryService) GetGalleryList(userID uint) ([]*models.Gallery, error) {
	var (
		err error
	)

	result := []*models.Gallery{}

	sql := `
SELECT
   g.id
   , g.created_at
   , g.updated_at
   , g.deleted_at
   , g.user_id
   , g.name
   , COALESCE(g.description, '') AS description
   , g.is_public
   , COALESCE(g.theme, '') AS theme
   , COALESCE(g.cover_image_id, '') AS cover_image_id
   , (SELECT COUNT(*) FROM gallery_images AS gi WHERE gi.gallery_id=g.id) AS num_images
FROM galleries AS g
WHERE 1=1
   AND g.deleted_at IS NULL
   AND g.user_id=?
ORDER BY g.created_at DESC
   `

	params := []any{userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, params...); err != nil {
		return result, fmt.Errorf("error querying for galleries by user ID %d: %w", userID, err)
	}

	for _, gallery := range result {
		s.resolveGalleryCover(gallery)
	}

	return result, nil
}

func (s GalleryService) GetPublicGalleryList() ([]*models.Gallery, error) {
	var (
		err error
	)

	result := []*models.Gallery{}

	sql := `
SELECT
   g.id
   , g.created_at
   , g.updated_at
   , g.deleted_at
   , g.user_id
   , g.name
   , COALESCE(g.description, '') AS description
   , g.is_public
   , COALESCE(g.theme, '') AS theme
   , COALESCE(g.cover_image_id, '') AS cover_image_id
   , (SELECT COUNT(*) FROM gallery_images AS gi WHERE gi.gallery_id=g.id) AS num_images
FROM galleries AS g
WHERE 1=1
   AND g.deleted_at IS NULL
   AND g.is_public=1
ORDER BY g.updated_at DESC
   `

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql); err != nil {
		return result, fmt.Errorf("error querying for public galleries: %w", err)
	}

	for _, gallery := range result {
		s.resolveGalleryCover(gallery)
	}

	return result, nil
}

/*
CreateGallery inserts the gallery, then its members in the order given.
Members get their persisted IDs here. Members whose image no longer
exists are skipped. The full refreshed gallery is returned.
*/
func (s GalleryService) CreateGallery(userID uint, gallery models.Gallery, members []models.GalleryImage) (*models.Gallery, error) {
	var (
		err      error
		position int
	)

	now := time.Now()

	sql := `
INSERT INTO galleries (
   created_at
   , updated_at
   , user_id
   , name
   , description
   , is_public
   , theme
   , cover_image_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
   `

	params := []any{
		now,
		now,
		userID,
		gallery.Name,
		gallery.Description,
		gallery.IsPublic,
		gallery.Theme,
		gallery.CoverImageID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	insertResult, err := s.db.Exec(ctx, sql, params...)

	if err != nil {
		return nil, fmt.Errorf("error creating gallery for user %d: %w", userID, err)
	}

	insertID, err := insertResult.LastInsertId()

	if err != nil {
		return nil, fmt.Errorf("error getting new gallery ID: %w", err)
	}

	galleryID := uint(insertID)

	for _, member := range members {
		ok, err := s.imageExists(userID, member.ImageID)

		if err != nil {
			return nil, err
		}

		if !ok {
			slog.Warn("skipping gallery member whose image is gone", "imageId", member.ImageID, "galleryId", galleryID)
			continue
		}

		if err = s.insertMember(galleryID, member.ImageID, member.Description, position); err != nil {
			return nil, err
		}

		position++
	}

	return s.GetGallery(userID, galleryID)
}

/*
AddImages appends the given images to the end of the gallery. Images
that do not exist or belong to someone else are skipped. Returns the
full refreshed gallery.
*/
func (s GalleryService) AddImages(userID, galleryID uint, imageIDs []string) (*models.Gallery, error) {
	var (
		err      error
		position int
	)

	if _, err = s.getGalleryRecord(userID, galleryID); err != nil {
		return nil, err
	}

	if position, err = s.nextPosition(galleryID); err != nil {
		return nil, err
	}

	for _, imageID := range imageIDs {
		ok, err := s.imageExists(userID, imageID)

		if err != nil {
			return nil, err
		}

		if !ok {
			slog.Warn("skipping add of unknown image", "imageId", imageID, "galleryId", galleryID, "userId", userID)
			continue
		}

		if err = s.insertMember(galleryID, imageID, "", position); err != nil {
			return nil, err
		}

		position++
	}

	return s.GetGallery(userID, galleryID)
}

/*
RemoveMember deletes one member and renumbers the rest so positions
stay contiguous. Returns the full refreshed gallery.
*/
func (s GalleryService) RemoveMember(userID, galleryID uint, memberID string) (*models.Gallery, error) {
	var (
		err error
	)

	if _, err = s.getGalleryRecord(userID, galleryID); err != nil {
		return nil, err
	}

	sql := `
DELETE FROM gallery_images
WHERE 1=1
   AND id=?
   AND gallery_id=?
   `

	params := []any{memberID, galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	deleteResult, err := s.db.Exec(ctx, sql, params...)

	if err != nil {
		return nil, fmt.Errorf("error removing member %s from gallery %d: %w", memberID, galleryID, err)
	}

	affected, _ := deleteResult.RowsAffected()

	if affected == 0 {
		return nil, fmt.Errorf("%w: %s in gallery %d", models.ErrMemberNotFound, memberID, galleryID)
	}

	if err = s.renumberMembers(galleryID); err != nil {
		return nil, err
	}

	return s.GetGallery(userID, galleryID)
}

/*
SetMemberOrder rewrites positions so they follow the given ID list.
IDs that are no longer in the gallery are ignored. Everything is
renumbered afterward, so positions come out contiguous even when the
list is stale. Returns the full refreshed gallery.
*/
func (s GalleryService) SetMemberOrder(userID, galleryID uint, memberIDs []string) (*models.Gallery, error) {
	var (
		err error
	)

	if _, err = s.getGalleryRecord(userID, galleryID); err != nil {
		return nil, err
	}

	if err = s.applyMemberOrder(galleryID, memberIDs); err != nil {
		return nil, err
	}

	if err = s.renumberMembers(galleryID); err != nil {
		return nil, err
	}

	return s.GetGallery(userID, galleryID)
}

/*
UpdateGallery is the bulk save: gallery metadata, member captions, and
member order in one call. Returns the full refreshed gallery.
*/
func (s GalleryService) UpdateGallery(userID, galleryID uint, update models.GalleryUpdate) (*models.Gallery, error) {
	var (
		err error
	)

	if _, err = s.getGalleryRecord(userID, galleryID); err != nil {
		return nil, err
	}

	sql := `
UPDATE galleries SET
   updated_at=?
   , name=?
   , description=?
   , is_public=?
   , theme=?
   , cover_image_id=?
WHERE 1=1
   AND id=?
   AND user_id=?
   `

	params := []any{
		time.Now(),
		update.Name,
		update.Description,
		update.IsPublic,
		update.Theme,
		update.CoverImageID,
		galleryID,
		userID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return nil, fmt.Errorf("error updating gallery %d: %w", galleryID, err)
	}

	for memberID, description := range update.Descriptions {
		if models.IsTemporaryID(memberID) {
			slog.Warn("skipping caption for a member that was never persisted", "memberId", memberID, "galleryId", galleryID)
			continue
		}

		if err = s.updateMemberDescription(galleryID, memberID, description); err != nil {
			return nil, err
		}
	}

	if len(update.MemberOrder) > 0 {
		if err = s.applyMemberOrder(galleryID, update.MemberOrder); err != nil {
			return nil, err
		}

		if err = s.renumberMembers(galleryID); err != nil {
			return nil, err
		}
	}

	return s.GetGallery(userID, galleryID)
}

func (s GalleryService) DeleteGallery(userID, galleryID uint) error {
	var (
		err error
	)

	sql := `
UPDATE galleries SET
   deleted_at=?
WHERE 1=1
   AND id=?
   AND user_id=?
   AND deleted_at IS NULL
   `

	params := []any{time.Now(), galleryID, userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error deleting gallery %d: %w", galleryID, err)
	}

	return nil
}

func (s GalleryService) getGalleryRecord(userID, galleryID uint) (*models.Gallery, error) {
	var (
		err error
	)

	result := &models.Gallery{}

	sql := `
SELECT
   g.id
   , g.created_at
   , g.updated_at
   , g.deleted_at
   , g.user_id
   , g.name
   , COALESCE(g.description, '') AS description
   , g.is_public
   , COALESCE(g.theme, '') AS theme
   , COALESCE(g.cover_image_id, '') AS cover_image_id
   , (SELECT COUNT(*) FROM gallery_images AS gi WHERE gi.gallery_id=g.id) AS num_images
FROM galleries AS g
WHERE 1=1
   AND g.deleted_at IS NULL
   AND g.id=?
   AND g.user_id=?
   `

	params := []any{galleryID, userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, params...); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrGalleryNotFound
		}

		return nil, fmt.Errorf("error querying for gallery %d, user %d: %w", galleryID, userID, err)
	}

	s.resolveGalleryCover(result)
	return result, nil
}

func (s GalleryService) resolveGalleryCover(gallery *models.Gallery) {
	var (
		err error
		u   string
	)

	if s.s3Client == nil || gallery.CoverImageID == "" {
		return
	}

	if u, err = s.s3Client.GetUrl(s.bucket, CoverKey(s.photoFolder, gallery.UserID, gallery.ID)); err == nil {
		gallery.CoverURL = u
	} else {
		slog.Error("error getting cover banner URL", "error", err, "galleryID", gallery.ID)
	}
}

/*
getMembers returns the gallery's members in position order with their
image snapshots attached. Members whose image is soft deleted or gone
come back with a nil snapshot; the caller decides what to do with them.
*/
func (s GalleryService) getMembers(galleryID uint) ([]models.GalleryImage, error) {
	var (
		err  error
		rows []galleryMemberRow
	)

	sql := `
SELECT
   gi.id
   , gi.created_at
   , gi.updated_at
   , gi.gallery_id
   , gi.image_id
   , COALESCE(gi.description, '') AS description
   , gi.position
   , COALESCE(i.id, '') AS image_row_id
   , COALESCE(i.user_id, 0) AS image_user_id
   , COALESCE(i.title, '') AS image_title
   , COALESCE(i.description, '') AS image_description
   , COALESCE(i.path, '') AS image_path
   , COALESCE(i.content_type, '') AS image_content_type
   , COALESCE(i.width, 0) AS image_width
   , COALESCE(i.height, 0) AS image_height
FROM gallery_images AS gi
   LEFT JOIN images AS i ON i.id=gi.image_id AND i.deleted_at IS NULL
WHERE 1=1
   AND gi.gallery_id=?
ORDER BY gi.position
   `

	params := []any{galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &rows, sql, params...); err != nil {
		return nil, fmt.Errorf("error querying for members of gallery %d: %w", galleryID, err)
	}

	result := make([]models.GalleryImage, 0, len(rows))

	for _, row := range rows {
		member := models.GalleryImage{
			ID:          row.ID,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			GalleryID:   row.GalleryID,
			ImageID:     row.ImageID,
			Description: row.Description,
			Position:    row.Position,
		}

		if row.ImageRowID != "" {
			member.Image = &models.Image{
				ID:          row.ImageRowID,
				UserID:      row.ImageUserID,
				Title:       row.ImageTitle,
				Description: row.ImageDescription,
				Path:        row.ImagePath,
				ContentType: row.ImageContentType,
				Width:       row.ImageWidth,
				Height:      row.ImageHeight,
			}

			resolveImageURLs(s.s3Client, s.bucket, member.Image)
		}

		result = append(result, member)
	}

	return result, nil
}

func (s GalleryService) insertMember(galleryID uint, imageID, description string, position int) error {
	var (
		err error
	)

	now := time.Now()

	sql := `
INSERT INTO gallery_images (
   id
   , created_at
   , updated_at
   , gallery_id
   , image_id
   , description
   , position
) VALUES (?, ?, ?, ?, ?, ?, ?)
   `

	params := []any{
		models.NewGalleryImageID(),
		now,
		now,
		galleryID,
		imageID,
		description,
		position,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error adding image %s to gallery %d: %w", imageID, galleryID, err)
	}

	return nil
}

func (s GalleryService) updateMemberDescription(galleryID uint, memberID, description string) error {
	var (
		err error
	)

	sql := `
UPDATE gallery_images SET
   updated_at=?
   , description=?
WHERE 1=1
   AND id=?
   AND gallery_id=?
   `

	params := []any{time.Now(), description, memberID, galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error updating caption for member %s in gallery %d: %w", memberID, galleryID, err)
	}

	return nil
}

func (s GalleryService) applyMemberOrder(galleryID uint, memberIDs []string) error {
	sql := `
UPDATE gallery_images SET
   updated_at=?
   , position=?
WHERE 1=1
   AND id=?
   AND gallery_id=?
   `

	for position, memberID := range memberIDs {
		params := []any{time.Now(), position, memberID, galleryID}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)

		updateResult, err := s.db.Exec(ctx, sql, params...)
		cancel()

		if err != nil {
			return fmt.Errorf("error setting position for member %s in gallery %d: %w", memberID, galleryID, err)
		}

		if affected, _ := updateResult.RowsAffected(); affected == 0 {
			slog.Warn("ignoring position for a member that is no longer in the gallery", "memberId", memberID, "galleryId", galleryID)
		}
	}

	return nil
}

/*
renumberMembers rewrites every position to 0..N-1 following the current
order, closing any gaps.
*/
func (s GalleryService) renumberMembers(galleryID uint) error {
	var (
		err error
		ids []string
	)

	sql := `
SELECT
   gi.id
FROM gallery_images AS gi
WHERE 1=1
   AND gi.gallery_id=?
ORDER BY gi.position, gi.id
   `

	params := []any{galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &ids, sql, params...); err != nil {
		return fmt.Errorf("error listing members of gallery %d for renumbering: %w", galleryID, err)
	}

	updateSQL := `
UPDATE gallery_images SET
   position=?
WHERE 1=1
   AND id=?
   AND gallery_id=?
   `

	for position, id := range ids {
		updateCtx, updateCancel := context.WithTimeout(context.Background(), time.Second*5)

		_, err = s.db.Exec(updateCtx, updateSQL, position, id, galleryID)
		updateCancel()

		if err != nil {
			return fmt.Errorf("error renumbering member %s in gallery %d: %w", id, galleryID, err)
		}
	}

	return nil
}

func (s GalleryService) nextPosition(galleryID uint) (int, error) {
	var (
		err  error
		next int
	)

	sql := `
SELECT
   COALESCE(MAX(gi.position) + 1, 0)
FROM gallery_images AS gi
WHERE 1=1
   AND gi.gallery_id=?
   `

	params := []any{galleryID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, &next, sql, params...); err != nil {
		return 0, fmt.Errorf("error getting next position for gallery %d: %w", galleryID, err)
	}

	return next, nil
}

func (s GalleryService) imageExists(userID uint, imageID string) (bool, error) {
	var (
		err error
		id  string
	)

	sql := `
SELECT
   i.id
FROM images AS i
WHERE 1=1
   AND i.deleted_at IS NULL
   AND i.id=?
   AND i.user_id=?
   `

	params := []any{imageID, userID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, &id, sql, params...); err != nil {
		if sqlz.IsNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("error checking image %s for user %d: %w", imageID, userID, err)
	}

	return true, nil
}
