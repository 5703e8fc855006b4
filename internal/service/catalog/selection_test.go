package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
)

// fixture snapshot: c1{b1{ch1, ch2}, b2{ch3}}, c2{b3}
func selectionSnapshot() []models.Course {
	return []models.Course{
		{
			ID: "c1", Title: "Go",
			Batches: []models.Batch{
				{ID: "b1", CourseID: "c1", Chapters: []models.Chapter{
					{ID: "ch1", BatchID: "b1", Contents: []models.Content{{ID: "x1", ChapterID: "ch1"}}},
					{ID: "ch2", BatchID: "b1"},
				}},
				{ID: "b2", CourseID: "c1", Chapters: []models.Chapter{{ID: "ch3", BatchID: "b2"}}},
			},
		},
		{
			ID: "c2", Title: "Rust",
			Batches: []models.Batch{{ID: "b3", CourseID: "c2"}},
		},
	}
}

func TestSelection_SelectCourseClearsDeeperLevels(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()

	require.NoError(t, s.SelectCourse(&courses[0]))
	require.NoError(t, s.SelectBatch(&courses[0].Batches[0]))
	require.NoError(t, s.SelectChapter(&courses[0].Batches[0].Chapters[1]))
	assert.Equal(t, Active{CourseID: "c1", BatchID: "b1", ChapterID: "ch2"}, s.Active())

	require.NoError(t, s.SelectCourse(&courses[1]))
	assert.Equal(t, Active{CourseID: "c2"}, s.Active())
}

func TestSelection_SelectBatchClearsChapter(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()

	require.NoError(t, s.SelectCourse(&courses[0]))
	require.NoError(t, s.SelectBatch(&courses[0].Batches[0]))
	require.NoError(t, s.SelectChapter(&courses[0].Batches[0].Chapters[0]))

	require.NoError(t, s.SelectBatch(&courses[0].Batches[1]))
	assert.Equal(t, Active{CourseID: "c1", BatchID: "b2"}, s.Active())
}

func TestSelection_ChainViolationsLeaveStateUntouched(t *testing.T) {
	courses := selectionSnapshot()

	t.Run("batch without course", func(t *testing.T) {
		s := NewSelection()
		err := s.SelectBatch(&courses[0].Batches[0])
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, Active{}, s.Active())
	})

	t.Run("batch of another course", func(t *testing.T) {
		s := NewSelection()
		require.NoError(t, s.SelectCourse(&courses[0]))
		err := s.SelectBatch(&courses[1].Batches[0])
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, Active{CourseID: "c1"}, s.Active())
	})

	t.Run("chapter without batch", func(t *testing.T) {
		s := NewSelection()
		require.NoError(t, s.SelectCourse(&courses[0]))
		err := s.SelectChapter(&courses[0].Batches[0].Chapters[0])
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("chapter of another batch", func(t *testing.T) {
		s := NewSelection()
		require.NoError(t, s.SelectCourse(&courses[0]))
		require.NoError(t, s.SelectBatch(&courses[0].Batches[0]))
		err := s.SelectChapter(&courses[0].Batches[1].Chapters[0])
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, Active{CourseID: "c1", BatchID: "b1"}, s.Active())
	})

	t.Run("nil node", func(t *testing.T) {
		s := NewSelection()
		assert.ErrorIs(t, s.SelectCourse(nil), domain.ErrValidation)
	})
}

func TestSelection_Toggle(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()

	require.NoError(t, s.Toggle(courses, models.KindCourse, "c1"))
	require.NoError(t, s.Toggle(courses, models.KindBatch, "b1"))
	assert.Equal(t, Active{CourseID: "c1", BatchID: "b1"}, s.Active(), "collapsed batch expands")

	require.NoError(t, s.Toggle(courses, models.KindBatch, "b1"))
	assert.Equal(t, Active{CourseID: "c1"}, s.Active(), "same batch collapses back to none")

	require.NoError(t, s.Toggle(courses, models.KindBatch, "b1"))
	require.NoError(t, s.Toggle(courses, models.KindChapter, "ch1"))
	require.NoError(t, s.Toggle(courses, models.KindBatch, "b2"))
	assert.Equal(t, Active{CourseID: "c1", BatchID: "b2"}, s.Active(), "other batch replaces and clears chapter")

	require.NoError(t, s.Toggle(courses, models.KindCourse, "c1"))
	assert.Equal(t, Active{}, s.Active(), "collapsing a course collapses everything")
}

func TestSelection_ToggleErrors(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()

	assert.ErrorIs(t, s.Toggle(courses, models.KindCourse, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, s.Toggle(courses, models.KindBatch, "b1"), domain.ErrValidation)
	assert.ErrorIs(t, s.Toggle(courses, models.KindContent, "x1"), domain.ErrValidation)
	assert.ErrorIs(t, s.Toggle(courses, models.Kind("widgets"), "w"), domain.ErrValidation)
	assert.Equal(t, Active{}, s.Active())
}

func TestSelection_DeleteCascade(t *testing.T) {
	courses := selectionSnapshot()
	full := func() *Selection {
		s := NewSelection()
		require.NoError(t, s.SelectCourse(&courses[0]))
		require.NoError(t, s.SelectBatch(&courses[0].Batches[0]))
		require.NoError(t, s.SelectChapter(&courses[0].Batches[0].Chapters[0]))
		return s
	}

	tests := []struct {
		name string
		kind models.Kind
		id   string
		want Active
	}{
		{"active course clears everything", models.KindCourse, "c1", Active{}},
		{"active batch clears chapter keeps course", models.KindBatch, "b1", Active{CourseID: "c1"}},
		{"active chapter clears only chapter", models.KindChapter, "ch1", Active{CourseID: "c1", BatchID: "b1"}},
		{"inactive batch changes nothing", models.KindBatch, "b2", Active{CourseID: "c1", BatchID: "b1", ChapterID: "ch1"}},
		{"content changes nothing", models.KindContent, "x1", Active{CourseID: "c1", BatchID: "b1", ChapterID: "ch1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := full()
			s.DeleteCascade(tt.kind, tt.id)
			assert.Equal(t, tt.want, s.Active())
		})
	}
}

func TestSelection_Reconcile(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()
	require.NoError(t, s.SelectCourse(&courses[0]))
	require.NoError(t, s.SelectBatch(&courses[0].Batches[0]))
	require.NoError(t, s.SelectChapter(&courses[0].Batches[0].Chapters[1]))

	assert.False(t, s.Reconcile(courses))

	// Another session removed ch2
	courses[0].Batches[0].Chapters = courses[0].Batches[0].Chapters[:1]
	assert.True(t, s.Reconcile(courses))
	assert.Equal(t, Active{CourseID: "c1", BatchID: "b1"}, s.Active())

	// ...then b1
	courses[0].Batches = courses[0].Batches[1:]
	assert.True(t, s.Reconcile(courses))
	assert.Equal(t, Active{CourseID: "c1"}, s.Active())

	// ...and then the whole course
	assert.True(t, s.Reconcile(courses[1:]))
	assert.Equal(t, Active{}, s.Active())
}

func TestSelection_Resolve(t *testing.T) {
	courses := selectionSnapshot()
	s := NewSelection()
	require.NoError(t, s.SelectCourse(&courses[0]))
	require.NoError(t, s.SelectBatch(&courses[0].Batches[1]))

	r := s.Resolve(courses)
	require.NotNil(t, r.Course)
	require.NotNil(t, r.Batch)
	assert.Nil(t, r.Chapter)
	assert.Equal(t, "b2", r.Batch.ID)
}
