// Package health checks that the model endpoint and the store are usable.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jeanpaul/sakemate/internal/kv"
)

type Status struct {
	Name      string
	Target    string
	Reachable bool
	Models    []string
	Error     string
	Latency   time.Duration
}

const checkTimeout = 10 * time.Second

// probeKey is written and deleted by CheckStore.
const probeKey = "health_probe"

// CheckGemini lists the models visible to apiKey at baseURL.
func CheckGemini(ctx context.Context, baseURL, apiKey string) (s Status) {
	s = Status{Name: "gemini", Target: baseURL}
	start := time.Now()
	defer func() { s.Latency = time.Since(start) }()

	if apiKey == "" {
		s.Error = "no API key configured (set GEMINI_API_KEY)"
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/v1beta/models?pageSize=200"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.Error = fmt.Sprintf("cannot reach Gemini API: %s", friendlyError(err))
		return s
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.Error = "authentication failed, check your API key"
		return s
	case resp.StatusCode == http.StatusBadRequest:
		// Gemini answers 400 API_KEY_INVALID for malformed keys
		s.Error = "invalid API key"
		return s
	case resp.StatusCode != http.StatusOK:
		s.Error = fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode)
		return s
	}

	s.Reachable = true
	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return s
	}
	for _, m := range result.Models {
		s.Models = append(s.Models, strings.TrimPrefix(m.Name, "models/"))
	}
	return s
}

// CheckModel reports whether model is among the models of a reachable
// status. An empty model list is not treated as a failure.
func CheckModel(s Status, model string) error {
	if !s.Reachable {
		return fmt.Errorf("%s not reachable: %s", s.Name, s.Error)
	}
	if len(s.Models) == 0 {
		return nil
	}
	for _, m := range s.Models {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("model %q not available", model)
}

// CheckStore writes, reads back and deletes a probe key.
func CheckStore(ctx context.Context, b kv.Backend) (s Status) {
	s = Status{Name: "store"}
	start := time.Now()
	defer func() { s.Latency = time.Since(start) }()

	want := []byte(fmt.Sprintf(`{"at":%d}`, start.UnixNano()))
	if err := b.Set(ctx, probeKey, want); err != nil {
		s.Error = fmt.Sprintf("write failed: %v", err)
		return s
	}
	got, err := b.Get(ctx, probeKey)
	if err != nil {
		s.Error = fmt.Sprintf("read failed: %v", err)
		return s
	}
	if string(got) != string(want) {
		s.Error = "read back different data"
		return s
	}
	if err := b.Delete(ctx, probeKey); err != nil {
		s.Error = fmt.Sprintf("delete failed: %v", err)
		return s
	}
	if _, err := b.Get(ctx, probeKey); !errors.Is(err, kv.ErrNotFound) {
		s.Error = "probe key survived delete"
		return s
	}
	s.Reachable = true
	return s
}

func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the service running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check the URL)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "connection timed out"
	}
	return msg
}
