package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

	// Addresses don't move; a month of freshness is plenty.
	driveTimeCacheTTL = 30 * 24 * time.Hour
)

// DriveTimeService estimates drive minutes between two addresses via the
// Google Maps Distance Matrix API, cached per exact (origin, destination)
// pair. It never fails: a missing API key, an unresolvable address or any
// upstream error all come back as 0 minutes, which the trimmer reads as
// "no trim".
type DriveTimeService struct {
	APIKey string
	HTTP   *http.Client
	Cache  *redis.Client // optional; nil means uncached
	Log    *zap.Logger
}

func NewDriveTimeService(apiKey string, cache *redis.Client, log *zap.Logger) *DriveTimeService {
	return &DriveTimeService{
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
		Cache:  cache,
		Log:    log,
	}
}

type distanceMatrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

func driveTimeCacheKey(origin, destination string) string {
	return "drivetime:" + origin + "|" + destination
}

// GetDriveTime returns whole drive minutes, rounded up.
func (s *DriveTimeService) GetDriveTime(ctx context.Context, origin, destination string) int {
	if s == nil || s.APIKey == "" {
		return 0
	}

	key := driveTimeCacheKey(origin, destination)
	if s.Cache != nil {
		if minutes, err := s.Cache.Get(ctx, key).Int(); err == nil {
			return minutes
		}
	}

	minutes, ok := s.queryDistanceMatrix(ctx, origin, destination)
	if !ok {
		return 0
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, minutes, driveTimeCacheTTL).Err(); err != nil && s.Log != nil {
			s.Log.Warn("drive time cache write failed", zap.Error(err))
		}
	}
	return minutes
}

func (s *DriveTimeService) queryDistanceMatrix(ctx context.Context, origin, destination string) (int, bool) {
	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", "driving")
	params.Set("key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, distanceMatrixURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, false
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("distance matrix request failed", zap.Error(err))
		}
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	var data distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, false
	}
	if len(data.Rows) == 0 || len(data.Rows[0].Elements) == 0 {
		return 0, false
	}
	element := data.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, false
	}

	minutes := (element.Duration.Value + 59) / 60
	return minutes, true
}
