package viewmodels

import (
	"net/http"

	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/galleria/pkg/models"
)

type BaseViewModel struct {
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	JavascriptIncludes []rendering.JavascriptInclude
}

func GetUserFromContext(r *http.Request) *models.User {
	if result, ok := r.Context().Value("user").(*models.User); ok {
		return result
	}

	return &models.User{}
}
