package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskorbit/internal/task"
)

var now = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local)

func ts(y int, m time.Month, d, hh, mm, ss int) task.Timestamp {
	return task.Timestamp{Time: time.Date(y, m, d, hh, mm, ss, 0, time.Local)}
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sample() []task.Task {
	return []task.Task{
		{ID: 1, Title: "a", Category: "work", Status: task.StatusOngoing, CreatedAt: ts(2024, 3, 9, 9, 0, 0), UpdatedAt: ts(2024, 3, 10, 8, 0, 0)},
		{ID: 2, Title: "b", Status: task.StatusWaiting, CreatedAt: ts(2024, 2, 1, 9, 0, 0), UpdatedAt: ts(2024, 3, 1, 8, 0, 0)},
		{ID: 3, Title: "c", Category: "health", Status: task.StatusOngoing, CreatedAt: ts(2024, 3, 10, 7, 0, 0)},
		{ID: 4, Title: "d", Category: "work", Status: task.StatusWaiting, CreatedAt: ts(2024, 1, 15, 9, 0, 0), UpdatedAt: ts(2024, 2, 20, 8, 0, 0)},
		{ID: 5, Title: "e", Category: "health", Status: task.StatusDone, CreatedAt: ts(2024, 3, 5, 9, 0, 0), UpdatedAt: ts(2024, 3, 6, 8, 0, 0)},
	}
}

func TestDerive_TodaySplitsByStatus(t *testing.T) {
	buckets := Derive(Today, sample())
	require.Len(t, buckets, 2)
	assert.Equal(t, BucketActive, buckets[0].Name)
	assert.Equal(t, []int64{1, 3, 5}, ids(buckets[0].Tasks))
	assert.Equal(t, BucketWaiting, buckets[1].Name)
	assert.Equal(t, []int64{2, 4}, ids(buckets[1].Tasks))
}

func TestDerive_OtherViewsSingleBucket(t *testing.T) {
	for _, id := range []ID{Later, Done, Record} {
		buckets := Derive(id, sample())
		require.Len(t, buckets, 1, id)
		assert.Equal(t, BucketAll, buckets[0].Name)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(buckets[0].Tasks))
	}
}

func TestDerive_PartitionsEveryTask(t *testing.T) {
	in := sample()
	seen := map[int64]int{}
	for _, b := range Derive(Today, in) {
		for _, tk := range b.Tasks {
			seen[tk.ID]++
		}
	}
	require.Len(t, seen, len(in))
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %d", id)
	}
}

func TestApply_IdentityLaw(t *testing.T) {
	in := sample()
	for _, f := range []Field{FieldCreatedAt, FieldUpdatedAt, FieldScheduleDate} {
		assert.Equal(t, in, DefaultState().Apply(in, f, now))
		assert.Equal(t, in, State{}.Apply(in, f, now))
	}
}

func TestApply_Idempotent(t *testing.T) {
	states := []State{
		{Categories: Categories{Selected: []string{"work", task.Uncategorized}}, Range: DateRange{Mode: RangeMonth}, Sort: SortAscending},
		{Range: DateRange{Mode: RangeWeek}, Sort: SortDescending},
		{Categories: Categories{Selected: []string{"health"}}, Range: DateRange{Mode: RangeToday}},
		{Range: DateRange{Mode: RangeCustom, Start: task.NewDate(2024, 1, 1), End: task.NewDate(2024, 3, 1)}, Sort: SortAscending},
	}
	for _, s := range states {
		once := s.Apply(sample(), FieldCreatedAt, now)
		twice := s.Apply(once, FieldCreatedAt, now)
		assert.Equal(t, ids(once), ids(twice))
	}
}

func TestFilterCategories_SelectionOfOne(t *testing.T) {
	in := []task.Task{{ID: 1, Category: "health"}, {ID: 2}, {ID: 3, Category: "work"}}
	got := FilterCategories(in, Categories{Selected: []string{"health"}})
	assert.Equal(t, []int64{1}, ids(got))

	got = FilterCategories(in, Categories{Selected: []string{task.Uncategorized}})
	assert.Equal(t, []int64{2}, ids(got))
}

func TestFilterCategories_SelectingEveryLabelKeepsAll(t *testing.T) {
	in := sample()
	sel := Categories{}.ToggleAll(Labels(in))
	require.ElementsMatch(t, []string{"work", "health", task.Uncategorized}, sel.Selected)
	assert.Equal(t, in, FilterCategories(in, sel))

	templates := []task.Template{{ID: 1, Category: "home"}, {ID: 2}}
	assert.Equal(t, templates, FilterCategories(templates, Categories{}.ToggleAll(Labels(templates))))
}

func TestLabels_UncategorizedLast(t *testing.T) {
	assert.Equal(t, []string{"work", "health", task.Uncategorized}, Labels(sample()))
	assert.Nil(t, Labels([]task.Task{}))
}

func TestCategories_Toggling(t *testing.T) {
	all := []string{"work", "health"}
	c := Categories{}.Toggle("work")
	assert.True(t, c.Has("work"))
	c = c.ToggleAll(all)
	assert.ElementsMatch(t, all, c.Selected)
	c = c.ToggleAll(all)
	assert.True(t, c.Empty())
	c = c.Toggle("health").Toggle("health")
	assert.True(t, c.Empty())
}

func TestDateRange_CustomBoundaries(t *testing.T) {
	r := DateRange{Mode: RangeCustom, Start: task.NewDate(2024, 1, 1), End: task.NewDate(2024, 1, 31)}
	assert.True(t, r.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.Local), now))
	assert.False(t, r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), now))
	assert.True(t, r.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), now))

	open := DateRange{Mode: RangeCustom, Start: task.NewDate(2024, 1, 1)}
	assert.True(t, open.NoOp())
	assert.True(t, open.Contains(time.Time{}, now))
}

func TestDateRange_RelativeModes(t *testing.T) {
	cases := []struct {
		mode RangeMode
		ref  time.Time
		want bool
	}{
		{RangeToday, time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local), true},
		{RangeToday, time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local), false},
		{RangeWeek, time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local), true},
		{RangeWeek, time.Date(2024, 3, 2, 23, 0, 0, 0, time.Local), false},
		{RangeMonth, time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local), true},
		{RangeMonth, time.Date(2024, 2, 9, 12, 0, 0, 0, time.Local), false},
		{RangeMonth, time.Time{}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DateRange{Mode: tc.mode}.Contains(tc.ref, now), "%s %v", tc.mode, tc.ref)
	}
}

func TestSort_StableWithUnsetLast(t *testing.T) {
	in := []task.Task{
		{ID: 1, UpdatedAt: ts(2024, 3, 2, 0, 0, 0)},
		{ID: 2},
		{ID: 3, UpdatedAt: ts(2024, 3, 1, 0, 0, 0)},
		{ID: 4, UpdatedAt: ts(2024, 3, 2, 0, 0, 0)},
	}
	assert.Equal(t, []int64{3, 1, 4, 2}, ids(Sort(in, FieldUpdatedAt, SortAscending)))
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(Sort(in, FieldUpdatedAt, SortDescending)))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Sort(in, FieldUpdatedAt, SortDefault)))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(in), "input must not be reordered")
}

func TestSortOrder_Cycle(t *testing.T) {
	assert.Equal(t, SortAscending, SortDefault.Next())
	assert.Equal(t, SortDescending, SortAscending.Next())
	assert.Equal(t, SortDefault, SortDescending.Next())
	assert.Equal(t, RangeToday, RangeAll.Next())
	assert.Equal(t, RangeAll, RangeCustom.Next())
}

func TestDelay(t *testing.T) {
	assert.Equal(t, 3, Delay(time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local), now))
	assert.Equal(t, 0, Delay(time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local), now))
	assert.Equal(t, 0, Delay(time.Time{}, now))
	// Spans the March DST change in zones that observe it.
	assert.Equal(t, 30, Delay(time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local), time.Date(2024, 3, 11, 0, 30, 0, 0, time.Local)))
}

func TestBuild_TodayDelayScenario(t *testing.T) {
	tk := task.Task{ID: 9, Status: task.StatusOngoing, ScheduleDate: task.DateOf(now.AddDate(0, 0, -3))}
	sections := Build(Today, []task.Task{tk}, DefaultState(), now)
	require.Len(t, sections, 2)
	require.Len(t, sections[0].Rows, 1)
	assert.Equal(t, int64(9), sections[0].Rows[0].Task.ID)
	assert.Equal(t, 3, sections[0].Rows[0].Delay)
	assert.Empty(t, sections[1].Rows)

	for _, s := range Build(Later, []task.Task{tk}, DefaultState(), now) {
		for _, r := range s.Rows {
			assert.Zero(t, r.Delay)
		}
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("record")
	require.NoError(t, err)
	assert.Equal(t, Record, id)
	_, err = ParseID("inbox")
	assert.Error(t, err)
}
