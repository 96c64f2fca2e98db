package booking

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
)

var firstNumber = regexp.MustCompile(`\d+`)

// ServiceDuration reads the catalogue's free-text duration ("30-45 minutes",
// "1-3 hours") as minutes, taking the lower bound. Anything unreadable falls back
// to the default slot length.
func ServiceDuration(service *domain.MedicalService) int {
	if service == nil {
		return scheduler.DefaultSlotMinutes
	}

	match := firstNumber.FindString(service.Duration)
	if match == "" {
		return scheduler.DefaultSlotMinutes
	}

	n, err := strconv.Atoi(match)
	if err != nil || n <= 0 {
		return scheduler.DefaultSlotMinutes
	}

	if strings.Contains(strings.ToLower(service.Duration), "hour") {
		return n * 60
	}
	return n
}
