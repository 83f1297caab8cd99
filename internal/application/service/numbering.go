package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dentalworks/labflow/internal/application/port"
)

// DefaultCaseNumberPrefix is the lab prefix used when none is
// configured.
const DefaultCaseNumberPrefix = "L"

// CaseNumberService generates unique human-readable case numbers of
// the form L-2026-00001. The per-year sequence lives in the database
// and is advanced atomically, so concurrent intake cannot collide.
type CaseNumberService struct {
	sequences port.SequenceRepository
	prefix    string
	now       func() time.Time
}

// NewCaseNumberService creates a case number service. An empty prefix
// falls back to DefaultCaseNumberPrefix.
func NewCaseNumberService(sequences port.SequenceRepository, prefix string) *CaseNumberService {
	if prefix == "" {
		prefix = DefaultCaseNumberPrefix
	}
	return &CaseNumberService{
		sequences: sequences,
		prefix:    prefix,
		now:       time.Now,
	}
}

// GenerateCaseNumber returns the next case number for the current year.
func (s *CaseNumberService) GenerateCaseNumber(ctx context.Context) (string, error) {
	year := s.now().Year()
	seq, err := s.sequences.Next(ctx, year)
	if err != nil {
		return "", fmt.Errorf("failed to advance case number sequence: %w", err)
	}
	return fmt.Sprintf("%s-%d-%05d", s.prefix, year, seq), nil
}
