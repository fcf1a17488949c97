package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"opensoak/internal/models"
	"opensoak/internal/repository"
)

const clockLayout = "15:04"

type ScheduleService struct {
	repo repository.ScheduleRepo
}

func NewScheduleService(repo repository.ScheduleRepo) *ScheduleService {
	return &ScheduleService{repo: repo}
}

func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Schedule{}
	}
	return out, nil
}

// Create validates and normalizes sc (zero-padded clock times, sorted
// unique weekdays) before storing it.
func (s *ScheduleService) Create(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	norm, err := normalizeSchedule(sc)
	if err != nil {
		return models.Schedule{}, err
	}
	id, err := s.repo.Create(ctx, norm)
	if err != nil {
		return models.Schedule{}, err
	}
	norm.ID = id
	return norm, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: schedule id must be positive", ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func normalizeSchedule(sc models.Schedule) (models.Schedule, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return sc, fmt.Errorf("%w: schedule name is required", ErrValidation)
	}

	start, err := normalizeClock(sc.StartTime)
	if err != nil {
		return sc, fmt.Errorf("%w: start_time: %v", ErrValidation, err)
	}
	end, err := normalizeClock(sc.EndTime)
	if err != nil {
		return sc, fmt.Errorf("%w: end_time: %v", ErrValidation, err)
	}
	if start == end {
		return sc, fmt.Errorf("%w: start_time and end_time must differ", ErrValidation)
	}
	sc.StartTime, sc.EndTime = start, end

	days, err := parseDays(sc.DaysOfWeek)
	if err != nil {
		return sc, fmt.Errorf("%w: days_of_week: %v", ErrValidation, err)
	}
	sc.DaysOfWeek = formatDays(days)

	if sc.TargetTemp <= 0 || sc.TargetTemp > MaxSetPointF {
		return sc, fmt.Errorf("%w: target_temp %.1f must be in (0, %.0f]", ErrValidation, sc.TargetTemp, MaxSetPointF)
	}
	return sc, nil
}

// normalizeClock accepts H:MM or HH:MM and returns HH:MM.
func normalizeClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%q is not HH:MM", s)
	}
	return t.Format(clockLayout), nil
}

// parseDays reads a comma separated list of weekdays, Monday = 0.
func parseDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("%q is not a weekday 0-6", part)
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("at least one weekday is required")
	}
	slices.Sort(days)
	return days, nil
}

func formatDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// weekday maps t to Monday = 0 ... Sunday = 6.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func scheduledOn(sc models.Schedule, day int) bool {
	days, err := parseDays(sc.DaysOfWeek)
	return err == nil && slices.Contains(days, day)
}
