package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
)

// queryModelID reads the required model query parameter.
func queryModelID(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("model"))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing model", ErrBadRequest)
	}
	return parseModelID(raw)
}

func parseModelID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid model id %q", ErrBadRequest, raw)
	}
	return id, nil
}

// queryDate reads an optional date; both 2006-01-02 and RFC3339 are accepted.
func queryDate(q url.Values, key string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid %s %q; use YYYY-MM-DD", ErrBadRequest, key, raw)
}

func queryRange(q url.Values) (time.Time, time.Time, error) {
	start, err := queryDate(q, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryDate(q, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func queryMetricType(q url.Values) (model.MetricType, error) {
	raw := strings.TrimSpace(q.Get("type"))
	if raw == "" {
		return "", nil
	}
	t, err := model.ParseMetricType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return t, nil
}
