package editor

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adampresley/galleria/pkg/models"
)

/*
GalleryStore is what a session needs from gallery persistence. Every
mutation returns the full refreshed gallery so the session can replace
its state with what the store actually holds.
*/
type GalleryStore interface {
	GetGallery(galleryID uint) (*models.Gallery, error)
	AddImages(galleryID uint, imageIDs []string) (*models.Gallery, error)
	RemoveMember(galleryID uint, memberID string) (*models.Gallery, error)
	SetMemberOrder(galleryID uint, memberIDs []string) (*models.Gallery, error)
	SaveGallery(galleryID uint, update models.GalleryUpdate) (*models.Gallery, error)
}

/*
ImageFinder resolves image records for staging. Unknown IDs are simply
missing from the result, not an error.
*/
type ImageFinder interface {
	GetImagesByIDs(imageIDs []string) ([]models.Image, error)
}

type RemoveFailurePolicy int

const (
	// Keep the optimistic local removal even when the remote delete
	// fails. This is the default.
	RemoveFailureAccept RemoveFailurePolicy = iota

	// Restore the member list to its pre-removal state when the remote
	// delete fails.
	RemoveFailureRollback
)

type RemoveDialog struct {
	Open    bool
	EntryID string
}

type SessionConfig struct {
	Store                GalleryStore
	Images               ImageFinder
	AutoSaveOrder        bool
	RemoveFailurePolicy  RemoveFailurePolicy
	NotificationDuration time.Duration
}

/*
Session is the editing state for one gallery: the ordered member list,
the cached gallery record, drag and remove-confirmation state, and the
session's notification. A session for a gallery that does not exist yet
(GalleryID 0) stages members locally until the gallery is created and
AttachCreated reconciles them.

Handlers touch a session concurrently, so every mutation builds a new
member slice from the prior one and swaps it in under the session lock.
Member lists arriving from outside all pass through Replace or its
internal equivalent, which is the only place entries are validated and
positions repaired.
*/
type Session struct {
	store               GalleryStore
	images              ImageFinder
	autoSaveOrder       bool
	removeFailurePolicy RemoveFailurePolicy
	notifier            *Notifier

	mu           sync.Mutex
	gallery      *models.Gallery
	members      []models.GalleryImage
	loading      bool
	lastErr      error
	dirty        bool
	loadSeq      uint64
	activeDragID string
	removeDialog RemoveDialog
}

func NewSession(config SessionConfig) *Session {
	return &Session{
		store:               config.Store,
		images:              config.Images,
		autoSaveOrder:       config.AutoSaveOrder,
		removeFailurePolicy: config.RemoveFailurePolicy,
		notifier:            NewNotifier(config.NotificationDuration),
	}
}

/*
Load fetches a gallery and replaces the session's state with it. When a
load fails the previous state is kept, the error is recorded, and the
error is returned. Loads can overlap: each call takes a token, and a
response that arrives after a newer load has started is discarded.
*/
func (s *Session) Load(galleryID uint) error {
	s.mu.Lock()
	s.loading = true
	s.loadSeq++
	token := s.loadSeq
	s.mu.Unlock()

	gallery, err := s.store.GetGallery(galleryID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.loadSeq {
		slog.Info("discarding superseded gallery load", "galleryId", galleryID, "token", token, "current", s.loadSeq)
		return nil
	}

	s.loading = false

	if err != nil {
		err = classifyStoreError(err)
		s.lastErr = err

		slog.Error("error loading gallery", "galleryId", galleryID, "error", err)
		return err
	}

	if gallery == nil {
		err = classifyStoreError(ErrInvalidResponse)
		s.lastErr = err

		slog.Error("gallery load returned no gallery and no error", "galleryId", galleryID)
		return err
	}

	s.gallery = gallery
	s.members = normalizeMembers(gallery.Images)
	s.lastErr = nil
	s.dirty = false

	return nil
}

/*
Replace swaps in a new member list wholesale. Used to seed a creation
session with staged members; every other replacement happens internally
on store responses and goes through the same normalization.
*/
func (s *Session) Replace(members []models.GalleryImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = normalizeMembers(members)
}

/*
Members returns a copy of the ordered member list.
*/
func (s *Session) Members() []models.GalleryImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyMembers(s.members)
}

/*
Gallery returns a copy of the cached gallery, with Images set to the
session's current member list. Nil until a load or AttachCreated.
*/
func (s *Session) Gallery() *models.Gallery {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gallery == nil {
		return nil
	}

	gallery := *s.gallery
	gallery.Images = copyMembers(s.members)
	return &gallery
}

/*
GalleryID returns the owning gallery's ID, or zero while the gallery
has not been created.
*/
func (s *Session) GalleryID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gallery == nil {
		return 0
	}

	return s.gallery.ID
}

func (s *Session) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gallery == nil
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

func (s *Session) Notifier() *Notifier {
	return s.notifier
}

/*
Close tears the session down. The notification timer is released so
nothing fires after the session is gone.
*/
func (s *Session) Close() {
	s.notifier.Close()
}

/*
normalizeMembers is the single normalization point for member lists
arriving from outside. Members without a backing image are dropped.
A negative position is repaired to the member's index in the supplied
list. Survivors are then ordered by position and renumbered 0..N-1 so
positions always come out unique and contiguous.
*/
func normalizeMembers(in []models.GalleryImage) []models.GalleryImage {
	kept := make([]models.GalleryImage, 0, len(in))

	for index, member := range in {
		if member.Image == nil {
			slog.Warn("dropping gallery member with no backing image", "memberId", member.ID, "imageId", member.ImageID)
			continue
		}

		if member.Position < 0 {
			slog.Warn("repairing gallery member with a bad position", "memberId", member.ID, "position", member.Position, "index", index)
			member.Position = index
		}

		kept = append(kept, member)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Position < kept[j].Position
	})

	for index := range kept {
		kept[index].Position = index
	}

	return kept
}

func copyMembers(members []models.GalleryImage) []models.GalleryImage {
	result := make([]models.GalleryImage, len(members))
	copy(result, members)
	return result
}

func indexOfMember(members []models.GalleryImage, memberID string) int {
	for index, member := range members {
		if member.ID == memberID {
			return index
		}
	}

	return -1
}

func memberIDs(members []models.GalleryImage) []string {
	result := make([]string, len(members))

	for index, member := range members {
		result[index] = member.ID
	}

	return result
}
