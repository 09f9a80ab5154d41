package teahaz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// execute issues one HTTP call against the service and routes its outcome.
//
// Exactly one of the following happens per call:
//   - a 200 response returns the raw JSON body;
//   - a non-200 response or transport failure with the matching handler
//     subscribed invokes that handler and returns (nil, nil);
//   - otherwise the failure is returned as an error.
//
// An unsupported method is a fatal ConfigError and never reaches a handler.
func (c *Chatroom) execute(method, url string, headers map[string]string, body interface{}) (json.RawMessage, error) {
	switch method {
	case http.MethodGet, http.MethodPost:
	default:
		return nil, ConfigError{Reason: fmt.Sprintf("no request method %q", method)}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, ConfigError{Reason: fmt.Sprintf("unencodable %s body: %s", method, err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, ConfigError{Reason: fmt.Sprintf("bad request for %s: %s", url, err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	reqID := uuid.NewString()
	logger.Debugf("[%s] %s %s", reqID, method, url)

	resp, err := c.client.Do(req)
	if err != nil {
		if handler := c.listeners.exceptionHandler(); handler != nil {
			logger.Infof("[%s] network exception handled: %s", reqID, err)
			handler(err, method, url)
			return nil, nil
		}
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if handler := c.listeners.exceptionHandler(); handler != nil {
			logger.Infof("[%s] network exception handled: %s", reqID, err)
			handler(err, method, url)
			return nil, nil
		}
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}

	if resp.StatusCode == http.StatusOK {
		logger.Debugf("[%s] %d, %d bytes", reqID, resp.StatusCode, len(data))
		return json.RawMessage(data), nil
	}

	failure := &RequestFailedError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       string(data),
		RequestID:  reqID,
	}
	if handler := c.listeners.errorHandler(); handler != nil {
		logger.Infof("[%s] error handled: %d", reqID, resp.StatusCode)
		handler(failure)
		return nil, nil
	}
	return nil, failure
}
