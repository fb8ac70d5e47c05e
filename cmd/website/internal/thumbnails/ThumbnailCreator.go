package thumbnails

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nfnt/resize"
)

const (
	thumbnailMaxSize uint = 400
	coverMaxSize     uint = 1200
)

var validImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type ThumbnailCreator interface {
	CreateThumbnails()
	EnsureThumbnail(img *models.Image) error
}

type ThumbnailCreatorConfig struct {
	AwsBucket           string
	AwsRegion           string
	GalleryService      services.GalleryServicer
	ImageService        services.ImageServicer
	MaxThumbnailWorkers int
	PhotoFolder         string
	S3Client            s3.S3Client
	ShutdownCtx         context.Context
	UserService         services.UserServicer
}

type ThumbnailCreatorService struct {
	awsBucket           string
	awsRegion           string
	galleryService      services.GalleryServicer
	imageService        services.ImageServicer
	maxThumbnailWorkers int
	photoFolder         string
	s3Client            s3.S3Client
	shutdownCtx         context.Context
	userService         services.UserServicer
}

func NewThumbnailCreatorService(config ThumbnailCreatorConfig) ThumbnailCreatorService {
	return ThumbnailCreatorService{
		awsBucket:           config.AwsBucket,
		awsRegion:           config.AwsRegion,
		galleryService:      config.GalleryService,
		imageService:        config.ImageService,
		maxThumbnailWorkers: config.MaxThumbnailWorkers,
		photoFolder:         config.PhotoFolder,
		s3Client:            config.S3Client,
		shutdownCtx:         config.ShutdownCtx,
		userService:         config.UserService,
	}
}

func (c ThumbnailCreatorService) CreateThumbnails() {
	var (
		err       error
		users     []models.User
		images    []models.Image
		galleries []*models.Gallery
	)

	slog.Info("starting thumbnail creation...")

	if err = c.ensureBucketExists(c.awsBucket); err != nil {
		slog.Error("error ensuring bucket exists. aborting", "bucket", c.awsBucket, "error", err)
		os.Exit(1)
	}

	/*
	 * First, retrieve all users
	 */
	if users, err = c.userService.GetAll(); err != nil {
		slog.Error("error retrieving users from database", "error", err)
		return
	}

	/*
	 * For each user, walk their image library and galleries. The database
	 * is the source of truth here. Anything in the bucket that isn't
	 * recorded is only reported, never touched.
	 */
	slog.Info("creating thumbnails for users...", "numUsers", len(users))

	pool := pond.NewPool(c.maxThumbnailWorkers, pond.WithContext(c.shutdownCtx))

	for _, user := range users {
		if images, err = c.imageService.GetImageList(user.ID); err != nil {
			slog.Error("error retrieving images", "userID", user.ID, "error", err)
			return
		}

		knownKeys := []string{}

		for _, img := range images {
			knownKeys = append(knownKeys, img.Path)

			pool.Submit(func() {
				if !c.doesThumbnailExist(&img) {
					slog.Info("creating thumbnail for image...", "userID", user.ID, "imageID", img.ID)

					if workErr := c.createThumbnail(&img); workErr != nil {
						slog.Error("error creating thumbnail for image", "userID", user.ID, "imageID", img.ID, "error", workErr)
					}
				}
			})
		}

		if galleries, err = c.galleryService.GetGalleryList(user.ID); err != nil {
			slog.Error("error retrieving galleries", "userID", user.ID, "error", err)
			return
		}

		for _, gallery := range galleries {
			if gallery.CoverImageID == "" {
				continue
			}

			pool.Submit(func() {
				if !c.doesCoverExist(gallery) {
					slog.Info("creating cover banner for gallery...", "userID", user.ID, "galleryID", gallery.ID)

					if workErr := c.createCoverBanner(gallery); workErr != nil {
						slog.Error("error creating cover banner for gallery", "userID", user.ID, "galleryID", gallery.ID, "error", workErr)
					}
				}
			})
		}

		c.reportOrphanedOriginals(user.ID, knownKeys)
	}

	_ = pool.Stop().Wait()
}

/*
EnsureThumbnail builds the thumbnail for a single image if it is missing
or stale. The upload flow calls this so a fresh image is usable right
away instead of waiting for the next sweep.
*/
func (c ThumbnailCreatorService) EnsureThumbnail(img *models.Image) error {
	if c.doesThumbnailExist(img) {
		return nil
	}

	return c.createThumbnail(img)
}

func (c ThumbnailCreatorService) ensureBucketExists(bucketName string) error {
	var (
		err    error
		exists bool
	)

	exists, err = c.s3Client.BucketExists(bucketName)

	if err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", bucketName, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", bucketName)

	err = c.s3Client.CreateBucket(
		bucketName,
		createbucketoptions.WithRegion(c.awsRegion),
	)

	if err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", bucketName, err)
	}

	return nil
}

func (c ThumbnailCreatorService) doesThumbnailExist(img *models.Image) bool {
	var (
		err           error
		originalStat  *s3.ObjectMetadata
		thumbnailStat *s3.ObjectMetadata
	)

	thumbnailKey := services.ThumbnailKey(img.Path)

	if thumbnailStat, err = c.s3Client.StatObject(c.awsBucket, thumbnailKey); err != nil {
		slog.Error("error retrieving metadata for thumbnail", "key", thumbnailKey, "error", err)
		return false
	}

	if originalStat, err = c.s3Client.StatObject(c.awsBucket, img.Path); err != nil {
		slog.Error("error retrieving metadata for original image", "key", img.Path, "error", err)
		return false
	}

	if originalStat == nil || thumbnailStat == nil || thumbnailStat.LastModified.Before(originalStat.LastModified) {
		return false
	}

	return true
}

func (c ThumbnailCreatorService) doesCoverExist(gallery *models.Gallery) bool {
	var (
		err       error
		coverStat *s3.ObjectMetadata
	)

	coverKey := services.CoverKey(c.photoFolder, gallery.UserID, gallery.ID)

	if coverStat, err = c.s3Client.StatObject(c.awsBucket, coverKey); err != nil {
		slog.Error("error retrieving metadata for cover banner", "key", coverKey, "error", err)
		return false
	}

	/*
	 * The gallery row is updated whenever a different cover image is
	 * chosen, so a banner older than the row is out of date.
	 */
	if coverStat == nil || coverStat.LastModified.Before(gallery.UpdatedAt) {
		return false
	}

	return true
}

func (c ThumbnailCreatorService) createThumbnail(img *models.Image) error {
	var (
		err      error
		resized  image.Image
		original s3.GetObjectResponse
		buf      bytes.Buffer
	)

	original, err = c.s3Client.Get(
		c.awsBucket,
		img.Path,
	)

	if err != nil {
		return fmt.Errorf("error retrieving original image %s: %w", img.Path, err)
	}

	if resized, err = c.resizeReader(original.Body, thumbnailMaxSize); err != nil {
		return fmt.Errorf("error resizing image: %w", err)
	}

	if err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("error encoding image for thumbnail: %w", err)
	}

	putKey := services.ThumbnailKey(img.Path)

	_, err = c.s3Client.Put(
		c.awsBucket,
		putKey,
		&buf,
	)

	if err != nil {
		return fmt.Errorf("error uploading thumbnail to S3: %w", err)
	}

	return nil
}

func (c ThumbnailCreatorService) createCoverBanner(gallery *models.Gallery) error {
	var (
		err        error
		coverImage *models.Image
		resized    image.Image
		original   s3.GetObjectResponse
		buf        bytes.Buffer
	)

	if coverImage, err = c.imageService.GetImage(gallery.UserID, gallery.CoverImageID); err != nil {
		return fmt.Errorf("error retrieving cover image record %s: %w", gallery.CoverImageID, err)
	}

	original, err = c.s3Client.Get(
		c.awsBucket,
		coverImage.Path,
	)

	if err != nil {
		return fmt.Errorf("error retrieving original image %s: %w", coverImage.Path, err)
	}

	if resized, err = c.resizeReader(original.Body, coverMaxSize); err != nil {
		return fmt.Errorf("error resizing image: %w", err)
	}

	if err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("error encoding image for cover banner: %w", err)
	}

	putKey := services.CoverKey(c.photoFolder, gallery.UserID, gallery.ID)

	_, err = c.s3Client.Put(
		c.awsBucket,
		putKey,
		&buf,
	)

	if err != nil {
		return fmt.Errorf("error uploading cover banner to S3: %w", err)
	}

	return nil
}

/*
reportOrphanedOriginals logs any object in a user's originals folder
that has no image record. This can happen when an upload writes to S3
but dies before the database insert.
*/
func (c ThumbnailCreatorService) reportOrphanedOriginals(userID uint, knownKeys []string) {
	var (
		err      error
		response s3.ListResponse
	)

	originalsKey := filepath.Join(c.photoFolder, fmt.Sprint(userID), "originals")

	response, err = c.s3Client.List(
		c.awsBucket,
		originalsKey,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			ext := strings.ToLower(filepath.Ext(aws.ToString(obj.Key)))
			return slices.IsInSlice(ext, validImageExtensions)
		}),
	)

	if err != nil {
		slog.Error("error listing originals folder", "userID", userID, "error", err)
		return
	}

	for _, obj := range response.Objects {
		if !slices.IsInSlice(obj.Key, knownKeys) {
			slog.Warn("original object has no image record", "key", obj.Key, "userID", userID)
		}
	}
}

func (c ThumbnailCreatorService) resizeReader(r io.Reader, maxSize uint) (image.Image, error) {
	var (
		err error
		img image.Image
	)

	if img, _, err = image.Decode(r); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	resizedImage := c.resize(img, maxSize)
	return resizedImage, nil
}

func (c ThumbnailCreatorService) resize(img image.Image, maxSize uint) image.Image {
	var (
		resizedImage image.Image
	)

	/*
	 * Determine which dimension to resize based on the longest edge
	 */
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	var newWidth, newHeight uint
	if width > height {
		// Landscape orientation
		newWidth = maxSize
		newHeight = uint(float64(height) * (float64(maxSize) / float64(width)))
	} else {
		// Portrait orientation or square
		newHeight = maxSize
		newWidth = uint(float64(width) * (float64(maxSize) / float64(height)))
	}

	resizedImage = resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
	return resizedImage
}
