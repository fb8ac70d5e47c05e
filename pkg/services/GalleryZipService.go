package services

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/putoptions"
	"github.com/adampresley/galleria/pkg/models"
)

type GalleryZipServiceConfig struct {
	BaseDownloadURL string
	Bucket          string
	EmailApiKey     string
	ExpirationDays  int
	FromEmail       string
	FromName        string
	GalleryService  GalleryServicer
	PhotoFolder     string
	S3Client        s3.S3Client
	UserService     UserServicer
}

type GalleryZipServicer interface {
	CreateZipAsync(gallery *models.Gallery, user *models.User) (string, error)
	StartCleanupRoutine(interval time.Duration)
	StopCleanupRoutine()
}

type GalleryZipService struct {
	config        GalleryZipServiceConfig
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	wg            *sync.WaitGroup
}

func NewGalleryZipService(config GalleryZipServiceConfig) *GalleryZipService {
	if config.ExpirationDays <= 0 {
		config.ExpirationDays = 7
	}

	return &GalleryZipService{
		config:      config,
		stopCleanup: make(chan struct{}),
		wg:          &sync.WaitGroup{},
	}
}

func (s *GalleryZipService) CreateZipAsync(gallery *models.Gallery, user *models.User) (string, error) {
	var (
		err        error
		objectData *s3.ObjectMetadata
	)

	jobID := fmt.Sprintf("%s-%d", strings.ReplaceAll(gallery.Name, " ", "-"), gallery.ID)
	zipFilename := fmt.Sprintf("%s.zip", jobID)

	zipKey := filepath.Join(
		s.config.PhotoFolder,
		fmt.Sprint(user.ID),
		"downloads",
		zipFilename,
	)

	// An existing zip is only good if the gallery hasn't changed since it was built.
	if objectData, err = s.config.S3Client.StatObject(s.config.Bucket, zipKey); err == nil && objectData != nil && objectData.LastModified.After(gallery.UpdatedAt) {
		slog.Info("zip file already exists and is current, sending email only", "zipKey", zipKey, "galleryID", gallery.ID)
		downloadURL := fmt.Sprintf("%s/galleries/downloads/%s", s.config.BaseDownloadURL, zipFilename)

		err = SendEmail(
			s.config.EmailApiKey,
			user.Name,
			user.Email,
			s.config.FromName,
			s.config.FromEmail,
			map[string]any{
				"downloadURL":    downloadURL,
				"name":           user.Name,
				"galleryName":    gallery.Name,
				"expirationDays": s.config.ExpirationDays,
			},
		)

		if err != nil {
			slog.Error("failed to send email notification", "error", err, "email", user.Email, "galleryID", gallery.ID)
			return jobID, err
		}

		return jobID, nil
	}

	go s.processZip(zipKey, zipFilename, gallery, user)

	return jobID, nil
}

func (s *GalleryZipService) processZip(zipKey, zipFilename string, gallery *models.Gallery, user *models.User) {
	l := slog.With("galleryID", gallery.ID, "zipKey", zipKey)
	l.Info("starting zip creation process with io.Pipe")

	addFile := func(zipWriter *zip.Writer, key, entryName string) error {
		l.Info("adding image to zip", "image", entryName)

		src, err := s.config.S3Client.Get(s.config.Bucket, key)

		if err != nil {
			return fmt.Errorf("failed to get source file from '%s' S3: %w", key, err)
		}

		dest, err := zipWriter.Create(entryName)

		if err != nil {
			return fmt.Errorf("failed to create file '%s' in zip: %w", entryName, err)
		}

		defer src.Body.Close()

		if _, err := io.Copy(dest, src.Body); err != nil {
			return fmt.Errorf("failed to copy file '%s' to zip: %w", entryName, err)
		}

		return nil
	}

	stream, err := s.config.S3Client.PutStream(s.config.Bucket, zipKey, putoptions.WithContentType("application/zip"))

	if err != nil {
		l.Error("failed to setup s3 stream", "error", err)
		return
	}

	zipWriter := zip.NewWriter(stream.Writer)

	// A fresh read keeps the archive in the saved display order.
	current, err := s.config.GalleryService.GetGallery(user.ID, gallery.ID)

	if err != nil {
		l.Error("error retrieving gallery members", "error", err)
		return
	}

	for index, member := range current.Images {
		if member.Image == nil {
			continue
		}

		// Position prefix keeps entry names unique and in gallery order.
		entryName := fmt.Sprintf("%03d-%s", index+1, filepath.Base(member.Image.Path))

		if err = addFile(zipWriter, member.Image.Path, entryName); err != nil {
			l.Error("failed to add image to zip", "error", err, "image", member.Image.Path)
			continue
		}
	}

	if err = zipWriter.Close(); err != nil {
		l.Error("failed to close zip writer", "error", err)
		return
	}

	if err = stream.Writer.Close(); err != nil {
		l.Error("failed to close s3 stream writer", "error", err)
		return
	}

	_, err = stream.Wait()

	if err != nil {
		l.Error("failed to wait for s3 stream", "error", err)
		return
	}

	l.Info("finished uploading zip file to S3")

	downloadURL := fmt.Sprintf("%s/galleries/downloads/%s", s.config.BaseDownloadURL, zipFilename)

	err = SendEmail(
		s.config.EmailApiKey,
		user.Name,
		user.Email,
		s.config.FromName,
		s.config.FromEmail,
		map[string]any{
			"downloadURL":    downloadURL,
			"name":           user.Name,
			"galleryName":    gallery.Name,
			"expirationDays": s.config.ExpirationDays,
		},
	)

	if err != nil {
		l.Error("failed to send email notification", "error", err, "email", user.Email)
		return
	}

	l.Info("zip creation completed successfully", "downloadURL", downloadURL)
}

// StartCleanupRoutine starts a periodic routine to clean up expired zip files
func (s *GalleryZipService) StartCleanupRoutine(interval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case <-s.cleanupTicker.C:
				s.cleanupExpiredZips()
			case <-s.stopCleanup:
				s.cleanupTicker.Stop()
				return
			}
		}
	}()

	slog.Info("zip cleanup routine started", "interval", interval)
}

// StopCleanupRoutine stops the cleanup routine
func (s *GalleryZipService) StopCleanupRoutine() {
	if s.cleanupTicker != nil {
		close(s.stopCleanup)
		s.wg.Wait()
		slog.Info("zip cleanup routine stopped")
	}
}

// cleanupExpiredZips removes zip files older than the expiration period
func (s *GalleryZipService) cleanupExpiredZips() {
	var (
		err   error
		users []models.User
	)

	l := slog.With("function", "cleanupExpiredZips")
	l.Info("starting cleanup of expired zip files")

	cutoffTime := time.Now().AddDate(0, 0, -s.config.ExpirationDays)
	var removedCount int

	if users, err = s.config.UserService.GetAll(); err != nil {
		l.Error("error retrieving users from database", "error", err)
		return
	}

	for _, user := range users {
		downloadsKey := filepath.Join(
			s.config.PhotoFolder,
			fmt.Sprint(user.ID),
			"downloads",
		)

		listResponse, err := s.config.S3Client.List(s.config.Bucket, downloadsKey)
		if err != nil {
			l.Error("failed to list S3 directory", "error", err, "path", downloadsKey)
			continue
		}

		for _, file := range listResponse.Objects {
			if !strings.HasSuffix(strings.ToLower(file.Key), ".zip") {
				continue
			}

			if file.LastModified.Before(cutoffTime) {
				l.Info("removing expired zip file from S3", "path", file.Key, "modTime", file.LastModified)

				if _, err := s.config.S3Client.Delete(s.config.Bucket, []string{file.Key}); err != nil {
					l.Error("failed to remove expired zip file from S3", "error", err, "path", file.Key)
				} else {
					removedCount++
				}
			}
		}
	}

	l.Info("completed cleanup of expired zip files", "removed", removedCount)
}
