package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubDriveTime(t *testing.T, body string) *DriveTimeService {
	t.Helper()
	return &DriveTimeService{
		APIKey: "test-key",
		HTTP: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		})},
	}
}

func TestGetDriveTimeRoundsUp(t *testing.T) {
	s := stubDriveTime(t, `{"rows":[{"elements":[{"status":"OK","duration":{"value":1234}}]}]}`)
	// 1234s = 20.57min
	assert.Equal(t, 21, s.GetDriveTime(context.Background(), "A", "B"))
}

func TestGetDriveTimeExactMinute(t *testing.T) {
	s := stubDriveTime(t, `{"rows":[{"elements":[{"status":"OK","duration":{"value":1200}}]}]}`)
	assert.Equal(t, 20, s.GetDriveTime(context.Background(), "A", "B"))
}

func TestGetDriveTimeUnresolvableAddress(t *testing.T) {
	s := stubDriveTime(t, `{"rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`)
	assert.Equal(t, 0, s.GetDriveTime(context.Background(), "A", "nowhere"))
}

func TestGetDriveTimeMalformedResponse(t *testing.T) {
	s := stubDriveTime(t, `{"rows":[]}`)
	assert.Equal(t, 0, s.GetDriveTime(context.Background(), "A", "B"))
}

func TestGetDriveTimeWithoutAPIKey(t *testing.T) {
	called := false
	s := &DriveTimeService{
		HTTP: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			called = true
			return nil, nil
		})},
	}
	assert.Equal(t, 0, s.GetDriveTime(context.Background(), "A", "B"))
	assert.False(t, called)
}

func TestGetDriveTimeNilService(t *testing.T) {
	var s *DriveTimeService
	assert.Equal(t, 0, s.GetDriveTime(context.Background(), "A", "B"))
}
