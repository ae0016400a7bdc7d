package service

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// ParseAdmissionYear derives the admission year from the first two characters
// of a roll number, read as an offset from 2000. "23CSE0012" yields 2023.
func ParseAdmissionYear(rollNumber string) (int, error) {
	if len(rollNumber) < 2 {
		return 0, fmt.Errorf("roll number %q too short", rollNumber)
	}
	prefix := rollNumber[:2]
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("roll number %q does not start with a two-digit year", rollNumber)
		}
	}
	offset, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("parse roll number year: %w", err)
	}
	return 2000 + offset, nil
}

// RegulationForAdmissionYear applies the fixed cutoff: years before 2023 follow
// R20, later years R23.
func RegulationForAdmissionYear(year int) int64 {
	if year < models.RegulationCutoffYear {
		return models.RegulationR20
	}
	return models.RegulationR23
}
