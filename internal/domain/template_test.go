package domain

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validTemplate() TaskTemplate {
	return TaskTemplate{
		ID:                 uuid.New(),
		RecurrenceType:     RecurrenceWeekly,
		RecurrenceInterval: 1,
		StartDate:          civil.Date{Year: 2024, Month: 1, Day: 1},
		IsActive:           true,
		Title:              "Weekly pipeline review",
		CreatedByID:        uuid.New(),
	}
}

func TestTaskTemplateValidate(t *testing.T) {
	t.Parallel()

	end := civil.Date{Year: 2023, Month: 12, Day: 31}

	tests := []struct {
		name   string
		mutate func(*TaskTemplate)
		want   error
	}{
		{name: "valid", mutate: func(*TaskTemplate) {}, want: nil},
		{name: "empty id", mutate: func(tt *TaskTemplate) { tt.ID = uuid.Nil }, want: ErrTemplateIDEmpty},
		{name: "empty creator", mutate: func(tt *TaskTemplate) { tt.CreatedByID = uuid.Nil }, want: ErrTemplateCreatorEmpty},
		{name: "blank title", mutate: func(tt *TaskTemplate) { tt.Title = "   " }, want: ErrTemplateTitleEmpty},
		{name: "unknown type", mutate: func(tt *TaskTemplate) { tt.RecurrenceType = "HOURLY" }, want: ErrInvalidRecurrenceType},
		{name: "zero interval", mutate: func(tt *TaskTemplate) { tt.RecurrenceInterval = 0 }, want: ErrTemplateIntervalRange},
		{name: "negative interval", mutate: func(tt *TaskTemplate) { tt.RecurrenceInterval = -2 }, want: ErrTemplateIntervalRange},
		{name: "zero start date", mutate: func(tt *TaskTemplate) { tt.StartDate = civil.Date{} }, want: ErrTemplateStartDateEmpty},
		{name: "end before start", mutate: func(tt *TaskTemplate) { tt.EndDate = &end }, want: ErrTemplateWindow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tmpl := validTemplate()
			tc.mutate(&tmpl)
			err := tmpl.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "expected %v, got %v", tc.want, err)
		})
	}
}

func TestTaskTemplateInWindow(t *testing.T) {
	t.Parallel()

	tmpl := validTemplate()
	end := civil.Date{Year: 2024, Month: 1, Day: 31}
	tmpl.EndDate = &end

	assert.False(t, tmpl.InWindow(civil.Date{Year: 2023, Month: 12, Day: 31}))
	assert.True(t, tmpl.InWindow(tmpl.StartDate))
	assert.True(t, tmpl.InWindow(end), "end date is inclusive")
	assert.False(t, tmpl.InWindow(end.AddDays(1)))

	tmpl.EndDate = nil
	assert.True(t, tmpl.InWindow(civil.Date{Year: 2099, Month: 12, Day: 31}))
}

func TestParseRecurrenceType(t *testing.T) {
	t.Parallel()

	rt, err := ParseRecurrenceType(" monthly ")
	assert.NoError(t, err)
	assert.Equal(t, RecurrenceMonthly, rt)

	_, err = ParseRecurrenceType("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidRecurrenceType)
}

func TestPrimaryAssignee(t *testing.T) {
	t.Parallel()

	tmpl := validTemplate()
	assert.Nil(t, tmpl.PrimaryAssignee())

	first, second := uuid.New(), uuid.New()
	tmpl.AssigneeIDs = []uuid.UUID{first, second}
	got := tmpl.PrimaryAssignee()
	if assert.NotNil(t, got) {
		assert.Equal(t, first, *got)
	}
}
