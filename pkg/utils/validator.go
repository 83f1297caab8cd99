package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var teethListRegex = regexp.MustCompile(`^\d{2}(,\d{2})*$`)

// ValidateTeethNumbers validates a comma-separated list of FDI tooth
// numbers. Quadrant digit must be 1-8, position digit 1-8.
func ValidateTeethNumbers(teeth string) error {
	if !teethListRegex.MatchString(teeth) {
		return fmt.Errorf("teeth numbers must be comma-separated two-digit values: %s", teeth)
	}

	for _, tooth := range strings.Split(teeth, ",") {
		n, _ := strconv.Atoi(tooth)
		quadrant, position := n/10, n%10
		if quadrant < 1 || quadrant > 8 || position < 1 || position > 8 {
			return fmt.Errorf("invalid FDI tooth number: %s", tooth)
		}
	}

	return nil
}

// ValidatePatientName validates a patient display name.
func ValidatePatientName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("patient name must be at least 2 characters")
	}
	return nil
}

// SanitizeString removes control characters from free-text input.
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
