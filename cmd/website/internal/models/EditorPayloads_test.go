package models

import (
	"encoding/json"
	"testing"

	pkgmodels "github.com/adampresley/galleria/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddImagesRequestAcceptsEveryShape(t *testing.T) {
	t.Run("the current object shape", func(t *testing.T) {
		var payload AddImagesRequest

		err := json.Unmarshal([]byte(`{"imageIds": ["a", "b"]}`), &payload)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, payload.ImageIDs)
	})

	t.Run("the bare array shape", func(t *testing.T) {
		var payload AddImagesRequest

		err := json.Unmarshal([]byte(`["a", "b"]`), &payload)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, payload.ImageIDs)
	})

	t.Run("the wrapped object shape", func(t *testing.T) {
		var payload AddImagesRequest

		err := json.Unmarshal([]byte(`{"images": [{"id": "a"}, {"id": "b"}]}`), &payload)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, payload.ImageIDs)
	})

	t.Run("an empty current shape still counts as the current shape", func(t *testing.T) {
		var payload AddImagesRequest

		err := json.Unmarshal([]byte(`{"imageIds": []}`), &payload)

		require.NoError(t, err)
		assert.Empty(t, payload.ImageIDs)
	})

	t.Run("anything else is rejected", func(t *testing.T) {
		var payload AddImagesRequest

		err := json.Unmarshal([]byte(`{"photos": true}`), &payload)
		assert.Error(t, err)
	})
}

func TestEditorMemberFromModel(t *testing.T) {
	t.Run("copies the image snapshot when there is one", func(t *testing.T) {
		member := pkgmodels.GalleryImage{
			ID:          "m1",
			ImageID:     "i1",
			Description: "A caption",
			Position:    3,
			Image: &pkgmodels.Image{
				ID:           "i1",
				Title:        "Sunrise",
				ThumbnailURL: "https://bucket/thumb.jpg",
				OriginalURL:  "https://bucket/orig.jpg",
			},
		}

		result := EditorMemberFromModel(member)

		assert.Equal(t, "m1", result.ID)
		assert.Equal(t, "i1", result.ImageID)
		assert.Equal(t, "Sunrise", result.Title)
		assert.Equal(t, "A caption", result.Description)
		assert.Equal(t, 3, result.Position)
		assert.Equal(t, "https://bucket/thumb.jpg", result.ThumbnailURL)
		assert.False(t, result.IsTemporary)
	})

	t.Run("a missing snapshot does not blow up", func(t *testing.T) {
		member := pkgmodels.GalleryImage{
			ID:      pkgmodels.NewTemporaryID(),
			ImageID: "i1",
		}

		result := EditorMemberFromModel(member)

		assert.Empty(t, result.Title)
		assert.Empty(t, result.ThumbnailURL)
		assert.True(t, result.IsTemporary)
	})
}
