package validators

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// UUIDParam parses a chi URL parameter as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a valid id", name))
	}
	return id, nil
}
