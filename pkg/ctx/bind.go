package ctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/validate"
)

const defaultMaxBody = 1 << 20

func maxBody() int64 {
	if n := config.Int("MAX_BODY_BYTES", defaultMaxBody); n > 0 {
		return int64(n)
	}
	return defaultMaxBody
}

// decodeJSON reads one JSON value from the body into dest and validates it.
// A non-nil error means the body itself was unusable; field failures come
// back in the map.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) (map[string]string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBody())
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, errors.New("Request body is required")
		case errors.As(err, &tooLarge):
			return nil, fmt.Errorf("Request body too large (max %d bytes)", tooLarge.Limit)
		default:
			return nil, fmt.Errorf("Invalid JSON: %v", err)
		}
	}
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
