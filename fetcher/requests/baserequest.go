package requests

import (
	"context"
	"fmt"
	"net/http"
)

var client = &http.Client{}

// Request does a request to the url with the given headers and query params.
// The request is bound to the context, so cancelling it aborts the call.
func Request(ctx context.Context, method string, url string, headers map[string]string, params map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// Add the query params.
	if len(params) > 0 {
		query := req.URL.Query()
		for key, value := range params {
			query.Add(key, value)
		}
		req.URL.RawQuery = query.Encode()
	}

	return client.Do(req)
}
