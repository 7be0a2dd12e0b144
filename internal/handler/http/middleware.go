package http

import (
	"mime"
	"net/http"

	"github.com/SudaisX/DB-Project/pkg/httputil"
)

// ContentTypeJSON rejects requests that carry a body with a media type other
// than application/json. Bodyless POSTs (such as product creation) pass.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
					Message: "Content-Type must be application/json",
					Code:    "UNSUPPORTED_MEDIA_TYPE",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// messageResponse is the body of replies that carry no resource.
type messageResponse struct {
	Message string `json:"message"`
}
