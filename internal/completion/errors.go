package completion

import (
	"fmt"
	"net/http"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

// unavailable wraps a transport or server-side failure as a retryable ErrServiceUnavailable.
func unavailable(backend string, err error) error {
	return models.NewError(models.ErrServiceUnavailable, backend, err)
}

// statusError classifies a non-2xx HTTP response. 4xx other than 408/429 will not get better
// on retry.
func statusError(backend string, status int, body string) error {
	err := unavailable(backend, fmt.Errorf("status %d: %s", status, truncate(body, 512)))
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return retry.Permanent(err)
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
