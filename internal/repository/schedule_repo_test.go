package repository

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"opensoak/internal/models"
)

var scheduleColumns = []string{"id", "name", "start_time", "end_time", "days_of_week", "target_temp", "active"}

func TestScheduleCreate(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewScheduleSQLite(db)

	s := models.Schedule{Name: "evening", StartTime: "19:00", EndTime: "21:00", DaysOfWeek: "0,1,2,3,4", TargetTemp: 104, Active: true}
	mock.ExpectExec(regexp.QuoteMeta(insertScheduleSQL)).
		WithArgs("evening", "19:00", "21:00", "0,1,2,3,4", 104.0, true).
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Create(ctx(t), s)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 5 {
		t.Fatalf("id = %d, want 5", id)
	}
}

func TestScheduleListActive(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewScheduleSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectSchedulesSQL + " WHERE active = 1 ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(scheduleColumns).
			AddRow(1, "morning", "06:00", "07:00", "5,6", 102.0, true))

	got, err := repo.ListActive(ctx(t))
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].Name != "morning" || got[0].DaysOfWeek != "5,6" {
		t.Fatalf("unexpected schedules: %+v", got)
	}
}

func TestScheduleDelete(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewScheduleSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(deleteScheduleSQL)).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteScheduleSQL)).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(ctx(t), 3); err != nil {
		t.Fatalf("Delete(3): %v", err)
	}
	if err := repo.Delete(ctx(t), 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(4) = %v, want ErrNotFound", err)
	}
}
