package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestGenerateCaseNumber_Format(t *testing.T) {
	svc := NewCaseNumberService(&fakeSequenceRepo{}, "L")
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	pattern := regexp.MustCompile(`^L-\d{4}-\d{5}$`)

	got, err := svc.GenerateCaseNumber(context.Background())
	if err != nil {
		t.Fatalf("GenerateCaseNumber() error: %v", err)
	}
	if !pattern.MatchString(got) {
		t.Errorf("GenerateCaseNumber() = %q, want match of %s", got, pattern)
	}
	if got != "L-2026-00001" {
		t.Errorf("GenerateCaseNumber() = %q, want L-2026-00001", got)
	}
}

func TestGenerateCaseNumber_SequencePerYear(t *testing.T) {
	seq := &fakeSequenceRepo{}
	svc := NewCaseNumberService(seq, "L")

	year := 2026
	svc.now = func() time.Time { return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC) }

	first, _ := svc.GenerateCaseNumber(context.Background())
	second, _ := svc.GenerateCaseNumber(context.Background())
	if first != "L-2026-00001" || second != "L-2026-00002" {
		t.Errorf("sequence = %q, %q; want L-2026-00001, L-2026-00002", first, second)
	}

	// A new year restarts the counter
	year = 2027
	third, _ := svc.GenerateCaseNumber(context.Background())
	if third != "L-2027-00001" {
		t.Errorf("new year number = %q, want L-2027-00001", third)
	}
}

func TestGenerateCaseNumber_DefaultPrefix(t *testing.T) {
	svc := NewCaseNumberService(&fakeSequenceRepo{}, "")
	got, err := svc.GenerateCaseNumber(context.Background())
	if err != nil {
		t.Fatalf("GenerateCaseNumber() error: %v", err)
	}
	if got[:2] != "L-" {
		t.Errorf("GenerateCaseNumber() = %q, want default L prefix", got)
	}
}

func TestGenerateCaseNumber_SequenceError(t *testing.T) {
	wantErr := errors.New("sequence table locked")
	svc := NewCaseNumberService(&fakeSequenceRepo{err: wantErr}, "L")

	_, err := svc.GenerateCaseNumber(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("GenerateCaseNumber() error = %v, want wrapped %v", err, wantErr)
	}
}
