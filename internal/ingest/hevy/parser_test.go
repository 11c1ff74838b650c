package hevy

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `title,start_time,end_time,description,exercise_title,exercise_notes,set_index,set_type,weight,reps,rpe
"Push Day","28 Jan 2026, 14:12","28 Jan 2026, 15:20","Felt strong, new gym","Bench Press (Barbell)","Pause at the bottom",0,normal,100,5,8.5
"Push Day","28 Jan 2026, 14:12","28 Jan 2026, 15:20","Felt strong, new gym","Bench Press (Barbell)","Pause at the bottom",1,normal,102.5,3,9
"Push Day","28 Jan 2026, 14:12","28 Jan 2026, 15:20","Felt strong, new gym","Overhead Press","",0,warmup,40,8,
"Push Day","28 Jan 2026, 14:12","28 Jan 2026, 15:20","Felt strong, new gym","Overhead Press","",1,normal,60,5,7
"Pull Day","30 Jan 2026, 09:05",,,"Deadlift (Barbell)","",0,normal,180,3,9.5
`

// TestParseCompleteSessions verifies parsing a multi-session CSV with
// exercises and sets. This is the primary integration test for the
// parser — covers the happy path end-to-end.
func TestParseCompleteSessions(t *testing.T) {
	drafts, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("drafts = %d, want 2", len(drafts))
	}

	// First session — two exercises, grouped despite interleaved rows
	d1 := drafts[0]
	if d1.Title != "Push Day" {
		t.Errorf("d1.Title = %q", d1.Title)
	}
	if d1.Notes != "Felt strong, new gym" {
		t.Errorf("d1.Notes = %q", d1.Notes)
	}
	want := time.Date(2026, 1, 28, 14, 12, 0, 0, time.UTC)
	if !d1.StartTime.Equal(want) {
		t.Errorf("d1.StartTime = %v, want %v", d1.StartTime, want)
	}
	if d1.EndTime == nil || d1.EndTime.Hour() != 15 || d1.EndTime.Minute() != 20 {
		t.Errorf("d1.EndTime = %v, want 15:20", d1.EndTime)
	}
	if len(d1.Exercises) != 2 {
		t.Fatalf("d1 exercises = %d, want 2", len(d1.Exercises))
	}

	bench := d1.Exercises[0]
	if bench.Name != "Bench Press (Barbell)" {
		t.Errorf("bench.Name = %q", bench.Name)
	}
	if bench.Notes != "Pause at the bottom" {
		t.Errorf("bench.Notes = %q", bench.Notes)
	}
	if len(bench.Sets) != 2 {
		t.Fatalf("bench sets = %d, want 2", len(bench.Sets))
	}
	if bench.Sets[0].Number != 1 || bench.Sets[1].Number != 2 {
		t.Errorf("set numbers = %d, %d, want 1, 2", bench.Sets[0].Number, bench.Sets[1].Number)
	}
	if bench.Sets[1].WeightKg == nil || *bench.Sets[1].WeightKg != 102.5 {
		t.Errorf("bench set 2 weight = %v, want 102.5", bench.Sets[1].WeightKg)
	}
	if bench.Sets[1].Reps != 3 {
		t.Errorf("bench set 2 reps = %d, want 3", bench.Sets[1].Reps)
	}
	if bench.Sets[1].RPE == nil || *bench.Sets[1].RPE != 9 {
		t.Errorf("bench set 2 rpe = %v, want 9", bench.Sets[1].RPE)
	}

	ohp := d1.Exercises[1]
	if ohp.Sets[0].Type != "warmup" {
		t.Errorf("ohp set 1 type = %q, want warmup", ohp.Sets[0].Type)
	}
	if ohp.Sets[0].RPE != nil {
		t.Errorf("ohp set 1 rpe = %v, want nil", ohp.Sets[0].RPE)
	}

	// Second session — one exercise, no end time
	d2 := drafts[1]
	if d2.Title != "Pull Day" {
		t.Errorf("d2.Title = %q", d2.Title)
	}
	if d2.EndTime != nil {
		t.Errorf("d2.EndTime = %v, want nil", d2.EndTime)
	}
	if len(d2.Exercises) != 1 || len(d2.Exercises[0].Sets) != 1 {
		t.Fatalf("d2 shape wrong: %+v", d2.Exercises)
	}
}

// TestParseSetOrdering verifies sets are ordered by set_index regardless of
// row order, with 1-based renumbering.
func TestParseSetOrdering(t *testing.T) {
	csv := `title,start_time,exercise_title,set_index,weight,reps
"W","28 Jan 2026, 10:00","Squat",2,140,3
"W","28 Jan 2026, 10:00","Squat",0,100,5
"W","28 Jan 2026, 10:00","Squat",1,120,5
`
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sets := drafts[0].Exercises[0].Sets
	if len(sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(sets))
	}
	wantWeights := []float64{100, 120, 140}
	for i, s := range sets {
		if s.Number != i+1 {
			t.Errorf("set %d number = %d, want %d", i, s.Number, i+1)
		}
		if s.WeightKg == nil || *s.WeightKg != wantWeights[i] {
			t.Errorf("set %d weight = %v, want %v", i, s.WeightKg, wantWeights[i])
		}
	}
}

// TestParseSessionIdentity verifies that the same title on different start
// times yields distinct sessions, and that identical (title, start) rows
// merge into one.
func TestParseSessionIdentity(t *testing.T) {
	csv := `title,start_time,exercise_title,set_index,weight,reps
"Legs","28 Jan 2026, 10:00","Squat",0,100,5
"Legs","29 Jan 2026, 10:00","Squat",0,105,5
"Legs","28 Jan 2026, 10:00","Leg Press",0,200,8
`
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("drafts = %d, want 2", len(drafts))
	}
	if len(drafts[0].Exercises) != 2 {
		t.Errorf("first session exercises = %d, want 2", len(drafts[0].Exercises))
	}
	if len(drafts[1].Exercises) != 1 {
		t.Errorf("second session exercises = %d, want 1", len(drafts[1].Exercises))
	}
}

// TestParseQuotedFields verifies quoted fields may contain the delimiter,
// newlines, and doubled-quote escapes.
func TestParseQuotedFields(t *testing.T) {
	csv := "title,start_time,exercise_title,exercise_notes,set_index,weight,reps\n" +
		"\"A, B\",\"28 Jan 2026, 10:00\",\"Curl\",\"slow, controlled\nfull stretch\",0,20,10\n"
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if drafts[0].Title != "A, B" {
		t.Errorf("title = %q, want %q", drafts[0].Title, "A, B")
	}
	notes := drafts[0].Exercises[0].Notes
	if notes != "slow, controlled\nfull stretch" {
		t.Errorf("notes = %q", notes)
	}

	csv = "title,start_time,exercise_title,set_index,weight,reps\n" +
		"\"The \"\"Big\"\" Day\",\"28 Jan 2026, 10:00\",\"Squat\",0,100,5\n"
	drafts, err = Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if drafts[0].Title != `The "Big" Day` {
		t.Errorf("title = %q", drafts[0].Title)
	}
}

// TestParseMalformedValues verifies tolerant degradation: a bad date falls
// back to the current time, bad numbers become nil or the minimum reps.
func TestParseMalformedValues(t *testing.T) {
	csv := `title,start_time,exercise_title,set_index,weight,reps,rpe
"W","not a date","Squat",0,heavy,lots,high
`
	before := time.Now().UTC().Add(-time.Minute)
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	d := drafts[0]
	if d.StartTime.Before(before) {
		t.Errorf("StartTime = %v, want roughly now", d.StartTime)
	}
	s := d.Exercises[0].Sets[0]
	if s.WeightKg != nil {
		t.Errorf("weight = %v, want nil", s.WeightKg)
	}
	if s.Reps != 1 {
		t.Errorf("reps = %d, want 1", s.Reps)
	}
	if s.RPE != nil {
		t.Errorf("rpe = %v, want nil", s.RPE)
	}
}

// TestParseMalformedInput verifies a payload without a header plus data row
// fails with MalformedInputError.
func TestParseMalformedInput(t *testing.T) {
	for _, input := range []string{"", "title,start_time\n", "\n\n\n"} {
		_, err := Parse(strings.NewReader(input))
		var malformed *MalformedInputError
		if !errors.As(err, &malformed) {
			t.Errorf("Parse(%q) error = %v, want MalformedInputError", input, err)
		}
	}
}

// TestParseCRLF verifies Windows line endings are handled.
func TestParseCRLF(t *testing.T) {
	csv := "title,start_time,exercise_title,set_index,weight,reps\r\n" +
		"\"W\",\"28 Jan 2026, 10:00\",\"Squat\",0,100,5\r\n"
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "W" {
		t.Fatalf("drafts = %+v", drafts)
	}
}

// TestParseExtraAndMissingColumns verifies unknown columns are ignored and
// missing ones read as empty.
func TestParseExtraAndMissingColumns(t *testing.T) {
	csv := `superset_id,title,start_time,exercise_title,set_index,reps
,"W","28 Jan 2026, 10:00","Plank",0,1
`
	drafts, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := drafts[0].Exercises[0].Sets[0]
	if s.WeightKg != nil {
		t.Errorf("weight = %v, want nil (column absent)", s.WeightKg)
	}
	if s.Reps != 1 {
		t.Errorf("reps = %d, want 1", s.Reps)
	}
}
