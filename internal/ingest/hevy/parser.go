package hevy

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/repstack/repstack/internal/models"
)

// MalformedInputError reports an import payload that cannot be processed
// at all. Per-row problems never produce it; only a payload without a
// header and at least one data row does.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed import input: " + e.Reason
}

// Expected header columns. Extra columns are ignored and missing ones
// read as empty, so exports from different app versions stay importable.
const (
	colTitle         = "title"
	colStartTime     = "start_time"
	colEndTime       = "end_time"
	colDescription   = "description"
	colExerciseTitle = "exercise_title"
	colExerciseNotes = "exercise_notes"
	colSetIndex      = "set_index"
	colSetType       = "set_type"
	colWeight        = "weight"
	colReps          = "reps"
	colRPE           = "rpe"
)

// Parse reads a delimited workout export and returns one draft per
// session. Sessions are identified by the (title, raw start time) pair
// since the format carries no session id. Within a session, exercises
// keep first-seen order and sets are sorted by the export's set index
// and renumbered 1-based. Malformed field values degrade to defaults;
// the only hard failure is an input with fewer than two non-blank rows.
func Parse(r io.Reader) ([]models.WorkoutDraft, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import payload: %w", err)
	}

	rows := scanRows(string(data))
	if len(rows) < 2 {
		return nil, &MalformedInputError{Reason: "need a header row and at least one data row"}
	}

	header := headerIndex(rows[0])

	type exerciseGroup struct {
		name  string
		notes string
		sets  []rawSet
	}
	type sessionBucket struct {
		title     string
		rawStart  string
		rawEnd    string
		notes     string
		order     []string // exercise names, first-seen order
		exercises map[string]*exerciseGroup
	}

	var bucketOrder []string
	buckets := make(map[string]*sessionBucket)

	for _, row := range rows[1:] {
		get := func(col string) string {
			idx, ok := header[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		title := get(colTitle)
		rawStart := get(colStartTime)
		key := title + "\x00" + rawStart

		bucket, ok := buckets[key]
		if !ok {
			bucket = &sessionBucket{
				title:     title,
				rawStart:  rawStart,
				rawEnd:    get(colEndTime),
				notes:     get(colDescription),
				exercises: make(map[string]*exerciseGroup),
			}
			buckets[key] = bucket
			bucketOrder = append(bucketOrder, key)
		}

		exName := get(colExerciseTitle)
		group, ok := bucket.exercises[exName]
		if !ok {
			group = &exerciseGroup{name: exName, notes: get(colExerciseNotes)}
			bucket.exercises[exName] = group
			bucket.order = append(bucket.order, exName)
		}

		group.sets = append(group.sets, rawSet{
			index:  parseIndex(get(colSetIndex)),
			seq:    len(group.sets),
			typ:    get(colSetType),
			weight: parseOptionalFloat(get(colWeight)),
			reps:   parseReps(get(colReps)),
			rpe:    parseOptionalFloat(get(colRPE)),
		})
	}

	drafts := make([]models.WorkoutDraft, 0, len(bucketOrder))
	for _, key := range bucketOrder {
		bucket := buckets[key]
		draft := models.WorkoutDraft{
			Title:     bucket.title,
			StartTime: parseSessionTime(bucket.rawStart),
			Notes:     bucket.notes,
		}
		if end, ok := tryParseSessionTime(bucket.rawEnd); ok {
			draft.EndTime = &end
		}

		for _, exName := range bucket.order {
			group := bucket.exercises[exName]
			sortSets(group.sets)
			ex := models.DraftExercise{Name: group.name, Notes: group.notes}
			for i, s := range group.sets {
				ex.Sets = append(ex.Sets, models.DraftSet{
					Number:   i + 1,
					Type:     s.typ,
					WeightKg: s.weight,
					Reps:     s.reps,
					RPE:      s.rpe,
				})
			}
			draft.Exercises = append(draft.Exercises, ex)
		}
		drafts = append(drafts, draft)
	}

	return drafts, nil
}

// rawSet carries a parsed data row until the group's sets are sorted.
// seq preserves file order as a tiebreak for equal set indices.
type rawSet struct {
	index  int
	seq    int
	typ    string
	weight *float64
	reps   int
	rpe    *float64
}

func sortSets(sets []rawSet) {
	// Insertion sort keeps this free of a sort.Slice closure allocation
	// for the tiny per-exercise slices involved.
	for i := 1; i < len(sets); i++ {
		for j := i; j > 0; j-- {
			a, b := sets[j-1], sets[j]
			if a.index < b.index || (a.index == b.index && a.seq < b.seq) {
				break
			}
			sets[j-1], sets[j] = b, a
		}
	}
}

// scanRows splits delimited text into rows of fields with a
// character-by-character scanner. A field wrapped in double quotes may
// contain the delimiter, newlines, and doubled-quote escapes, which a
// naive strings.Split would mangle (exercise notes contain commas).
// Blank rows are dropped.
func scanRows(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	flushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	flushRow := func() {
		flushField()
		blank := true
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				blank = false
				break
			}
		}
		if !blank {
			rows = append(rows, row)
		}
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"') // doubled quote escapes a literal quote
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteRune(c)
			}
		case c == '"':
			inQuotes = true
		case c == ',':
			flushField()
		case c == '\r':
			// swallowed; \n terminates the row
		case c == '\n':
			flushRow()
		default:
			field.WriteRune(c)
		}
	}
	if field.Len() > 0 || len(row) > 0 {
		flushRow()
	}

	return rows
}

// headerIndex maps lowercased column names to field positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// sessionTimeLayouts is tried in order. The first entry is the export's
// own "28 Jan 2026, 14:12" shape; time.Parse matches month names
// case-insensitively and "2" accepts single- and double-digit days.
var sessionTimeLayouts = []string{
	"2 Jan 2006, 15:04",
	"2 Jan 2006 15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func tryParseSessionTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range sessionTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSessionTime degrades to "now" when nothing matches: a malformed
// date never aborts an import.
func parseSessionTime(s string) time.Time {
	if t, ok := tryParseSessionTime(s); ok {
		return t
	}
	return time.Now().UTC().Truncate(time.Minute)
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseReps defaults to 1: zero-rep sets are not representable, and a
// missing or garbled reps field should not drop the set.
func parseReps(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parseIndex(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
