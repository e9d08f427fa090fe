package schedule

import (
	"fmt"
	"strings"

	"github.com/yigit/horario/internal/pkg/apperrors"
)

// NormalizeTimeRange converts "1600-1659" into ("16:00:00", "16:59:00").
// Only the shape is checked; hours are not range-validated and the end is
// assumed to fall on the same day.
func NormalizeTimeRange(token string) (start, end string, err error) {
	parts := strings.Split(strings.TrimSpace(token), "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: time range %q must have exactly two parts", apperrors.ErrParseMismatch, token)
	}

	start, err = clock(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("time range %q: %w", token, err)
	}
	end, err = clock(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("time range %q: %w", token, err)
	}
	return start, end, nil
}

func clock(hhmm string) (string, error) {
	hhmm = strings.TrimSpace(hhmm)
	if len(hhmm) != 4 {
		return "", fmt.Errorf("%w: %q is not HHMM", apperrors.ErrParseMismatch, hhmm)
	}
	for _, r := range hhmm {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not HHMM", apperrors.ErrParseMismatch, hhmm)
		}
	}
	return hhmm[:2] + ":" + hhmm[2:] + ":00", nil
}
