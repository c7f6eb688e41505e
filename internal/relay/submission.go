package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/namahsea/sellmo-landing-page/internal/ids"
	"github.com/namahsea/sellmo-landing-page/internal/models"
)

const (
	fieldEmail    = "email"
	fieldFormName = "form-name"
)

// Negotiate reads the request body into a typed submission. JSON bodies are
// decoded as an object; every other content type is read as URL-encoded form
// data. Only malformed JSON is an error here; a missing email is left for
// Validate.
func Negotiate(r *http.Request) (models.SignupSubmission, error) {
	sub := models.SignupSubmission{ID: ids.NewULID()}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return sub, fmt.Errorf("%w: read body: %v", ErrInvalidPayload, err)
		}
	}

	if isJSON(r.Header.Get("Content-Type")) {
		sub.Origin = models.OriginJSON
		return sub, decodeJSON(body, &sub)
	}

	sub.Origin = models.OriginForm
	// Form parsing is lenient: a bad escape drops that pair, not the request.
	values, _ := url.ParseQuery(string(body))
	sub.Email = values.Get(fieldEmail)
	sub.SourceForm = values.Get(fieldFormName)
	return sub, nil
}

// isJSON reports whether the body should be decoded as JSON. A broken
// parameter list does not hide the media type in front of it.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	switch {
	case err == nil, errors.Is(err, mime.ErrInvalidMediaParameter):
		return mediaType == "application/json"
	default:
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
}

func decodeJSON(body []byte, sub *models.SignupSubmission) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: body must be a JSON object", ErrInvalidPayload)
	}

	// Non-string values count as absent and fail email validation.
	sub.Email, _ = obj[fieldEmail].(string)
	sub.SourceForm, _ = obj[fieldFormName].(string)
	return nil
}
