package results

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/gateway/gatewaytest"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/quiz"
)

func intPointer(v int) *int {
	return &v
}

func sampleAttempts() []quiz.Attempt {
	base := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	return []quiz.Attempt{
		{AttemptID: 1, StudentID: 11, StudentUsername: "carol", QuizCode: "ABC123", QuizName: "Algebra", Score: 6, TotalQuestions: 10, CorrectAnswers: intPointer(6), AttemptDate: base.Add(2 * time.Hour), TimeTaken: intPointer(300)},
		{AttemptID: 2, StudentID: 12, StudentUsername: "alice", QuizCode: "ABC123", QuizName: "Algebra", Score: 8, TotalQuestions: 10, AttemptDate: base},
		{AttemptID: 3, StudentID: 13, StudentUsername: "Bob", QuizCode: "ABC123", QuizName: "Algebra", Score: 6, TotalQuestions: 10, CorrectAnswers: intPointer(6), AttemptDate: base.Add(time.Hour), TimeTaken: intPointer(90)},
	}
}

func usernames(attempts []quiz.Attempt) string {
	names := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		names = append(names, attempt.StudentUsername)
	}
	return strings.Join(names, ",")
}

func TestSortStateNext(t *testing.T) {
	state := DefaultSortState
	if state != (SortState{Key: KeyScore, Direction: Desc}) {
		t.Fatalf("unexpected default: %+v", state)
	}

	first := state.Next(KeyScore)
	second := first.Next(KeyScore)
	if first.Direction == second.Direction {
		t.Fatalf("re-selecting the same key must reverse direction: %+v then %+v", first, second)
	}

	for _, start := range []SortState{{KeyScore, Asc}, {KeyScore, Desc}} {
		if next := start.Next(KeyAttemptDate); next != (SortState{Key: KeyAttemptDate, Direction: Desc}) {
			t.Fatalf("new key must reset to desc, got %+v", next)
		}
	}
}

func TestSortAttemptsByScoreIsStable(t *testing.T) {
	attempts := sampleAttempts()

	desc := SortAttempts(attempts, SortState{Key: KeyScore, Direction: Desc})
	if got := usernames(desc); got != "alice,carol,Bob" {
		t.Fatalf("desc order = %s", got)
	}
	asc := SortAttempts(attempts, SortState{Key: KeyScore, Direction: Asc})
	if got := usernames(asc); got != "carol,Bob,alice" {
		t.Fatalf("asc order = %s", got)
	}
	if got := usernames(attempts); got != "carol,alice,Bob" {
		t.Fatalf("input was mutated: %s", got)
	}
}

func TestSortAttemptsByUsernameUsesCollation(t *testing.T) {
	asc := SortAttempts(sampleAttempts(), SortState{Key: KeyStudent, Direction: Asc})
	if got := usernames(asc); got != "alice,Bob,carol" {
		t.Fatalf("asc order = %s", got)
	}
	desc := SortAttempts(sampleAttempts(), SortState{Key: KeyStudent, Direction: Desc})
	if got := usernames(desc); got != "carol,Bob,alice" {
		t.Fatalf("desc order = %s", got)
	}
}

func TestSortAttemptsByDate(t *testing.T) {
	asc := SortAttempts(sampleAttempts(), SortState{Key: KeyAttemptDate, Direction: Asc})
	if got := usernames(asc); got != "alice,Bob,carol" {
		t.Fatalf("asc order = %s", got)
	}
	desc := SortAttempts(sampleAttempts(), SortState{Key: KeyAttemptDate, Direction: Desc})
	if got := usernames(desc); got != "carol,Bob,alice" {
		t.Fatalf("desc order = %s", got)
	}
}

func TestSortAttemptsNullableNumericCountsAsZero(t *testing.T) {
	asc := SortAttempts(sampleAttempts(), SortState{Key: KeyTimeTaken, Direction: Asc})
	if got := usernames(asc); got != "alice,Bob,carol" {
		t.Fatalf("asc order = %s", got)
	}
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"student": KeyStudent,
		"SCORE":   KeyScore,
		" date ":  KeyAttemptDate,
		"time":    KeyTimeTaken,
	}
	for input, want := range cases {
		got, ok := ParseSortKey(input)
		if !ok || got != want {
			t.Fatalf("ParseSortKey(%q) = (%q, %t), want %q", input, got, ok, want)
		}
	}
	if _, ok := ParseSortKey("grade"); ok {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestFilterAttemptsIgnoresCase(t *testing.T) {
	filtered := FilterAttempts(sampleAttempts(), "B")
	if got := usernames(filtered); got != "Bob" {
		t.Fatalf("filtered = %s", got)
	}
	if got := usernames(FilterAttempts(sampleAttempts(), "  ")); got != "carol,alice,Bob" {
		t.Fatalf("blank filter must keep everything, got %s", got)
	}
}

func TestDeriveStatistics(t *testing.T) {
	if got := DeriveStatistics(nil); got != (Statistics{}) {
		t.Fatalf("empty stats = %+v", got)
	}

	got := DeriveStatistics([]quiz.Attempt{
		{Score: 8, TotalQuestions: 10},
		{Score: 6, TotalQuestions: 10},
	})
	if got != (Statistics{Count: 2, AveragePercent: 70, TopScore: 8}) {
		t.Fatalf("stats = %+v", got)
	}

	// The first row's question count is the denominator for every row.
	mixed := DeriveStatistics([]quiz.Attempt{
		{Score: 5, TotalQuestions: 5},
		{Score: 5, TotalQuestions: 20},
	})
	if mixed.AveragePercent != 100 {
		t.Fatalf("average = %d, want 100", mixed.AveragePercent)
	}

	if zero := DeriveStatistics([]quiz.Attempt{{Score: 3}}); zero.AveragePercent != 0 || zero.TopScore != 3 {
		t.Fatalf("zero question count stats = %+v", zero)
	}
}

func TestWriteCSVKeepsOrderAndSentinels(t *testing.T) {
	attempts := sampleAttempts()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, attempts, "Algebra"); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Student,Quiz Name,Score,Total Questions,Correct Answers,Attempt Date,Time Taken (s),Quiz Code,Student ID,Attempt ID" {
		t.Fatalf("header = %q", lines[0])
	}

	wantFirst := "carol,Algebra,6,10,6," + FormatDate(attempts[0].AttemptDate) + ",300,ABC123,11,1"
	if lines[1] != wantFirst {
		t.Fatalf("row 1 = %q, want %q", lines[1], wantFirst)
	}
	wantSecond := "alice,Algebra,8,10,N/A," + FormatDate(attempts[1].AttemptDate) + ",N/A,ABC123,12,2"
	if lines[2] != wantSecond {
		t.Fatalf("row 2 = %q, want %q", lines[2], wantSecond)
	}
	if !strings.HasPrefix(lines[3], "Bob,") {
		t.Fatalf("row 3 = %q", lines[3])
	}
}

func TestWriteCSVZeroIsNotMissing(t *testing.T) {
	var buf bytes.Buffer
	attempts := []quiz.Attempt{{StudentUsername: "zed", CorrectAnswers: intPointer(0), TimeTaken: intPointer(0)}}
	if err := WriteCSV(&buf, attempts, "Quiz"); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.Contains(buf.String(), "zed,Quiz,0,0,0,N/A,0,,0,0") {
		t.Fatalf("unexpected row: %s", buf.String())
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("Algebra"); got != "Algebra_results.csv" {
		t.Fatalf("filename = %q", got)
	}
	if got := ExportFilename("a/b"); got != "a_b_results.csv" {
		t.Fatalf("filename = %q", got)
	}
	if got := ExportFilename(""); got != "Quiz Results_results.csv" {
		t.Fatalf("filename = %q", got)
	}
}

func TestProjectChartSeries(t *testing.T) {
	series := ProjectChartSeries([]quiz.Attempt{
		{StudentUsername: "alice", Score: 8, TotalQuestions: 10},
		{StudentUsername: "alison", Score: 5, TotalQuestions: 10},
		{StudentUsername: "bo", Score: 2, TotalQuestions: 10},
	})
	if strings.Join(series.Labels, ",") != "ALI,ALI,BO" {
		t.Fatalf("labels = %v", series.Labels)
	}
	if len(series.Values) != 3 || series.Values[0] != 8 || series.Values[2] != 2 {
		t.Fatalf("values = %v", series.Values)
	}
	if series.Max != 10 {
		t.Fatalf("max = %d", series.Max)
	}
}

func newTestAggregator(t *testing.T) (*Aggregator, *gatewaytest.Server) {
	t.Helper()

	api := gatewaytest.NewServer()
	t.Cleanup(api.Close)

	agg := NewAggregator(context.Background(), gateway.NewHTTPClient(api.URL, api.Client()))
	t.Cleanup(agg.Close)
	return agg, api
}

func seedAttempts(api *gatewaytest.Server, code, quizName string, names ...string) {
	for idx, name := range names {
		api.AddAttempts(code, gatewaytest.Attempt{
			AttemptID:       int64(idx + 1),
			StudentUsername: name,
			QuizCode:        code,
			QuizName:        quizName,
			Score:           idx + 1,
			TotalQuestions:  10,
			AttemptDate:     "2025-01-02T09:00:00Z",
		})
	}
}

func TestAggregatorLoadSortFilterExport(t *testing.T) {
	agg, api := newTestAggregator(t)
	seedAttempts(api, "ABC123", "Algebra", "carol", "alice", "bob")

	if err := agg.Load(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if agg.State() != lifecycle.Success || agg.QuizName() != "Algebra" || agg.Code() != "ABC123" {
		t.Fatalf("unexpected aggregator state %v name %q", agg.State(), agg.QuizName())
	}
	if got := usernames(agg.Attempts()); got != "carol,alice,bob" {
		t.Fatalf("server order not kept before sorting: %s", got)
	}

	if state := agg.Sort(KeyScore); state.Direction != Asc {
		t.Fatalf("first score sort from default state should flip to asc, got %+v", state)
	}
	if got := usernames(agg.Attempts()); got != "carol,alice,bob" {
		t.Fatalf("asc score order = %s", got)
	}
	agg.Sort(KeyScore)
	if got := usernames(agg.Attempts()); got != "bob,alice,carol" {
		t.Fatalf("desc score order = %s", got)
	}

	agg.Filter("O")
	if got := usernames(agg.Attempts()); got != "bob,carol" {
		t.Fatalf("filtered order = %s", got)
	}
	if stats := agg.Statistics(); stats.Count != 2 || stats.TopScore != 3 {
		t.Fatalf("stats over view = %+v", stats)
	}

	dir := t.TempDir()
	path, err := agg.ExportFile(dir)
	if err != nil {
		t.Fatalf("ExportFile failed: %v", err)
	}
	if filepath.Base(path) != "Algebra_results.csv" {
		t.Fatalf("export path = %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "bob,") || !strings.HasPrefix(lines[2], "carol,") {
		t.Fatalf("export does not follow display order:\n%s", content)
	}

	if got := len(api.Requests(gatewaytest.RouteAttempts)); got != 1 {
		t.Fatalf("sorting and filtering must not re-fetch, got %d fetches", got)
	}
}

func TestAggregatorEmptyResultUsesFallbackName(t *testing.T) {
	agg, _ := newTestAggregator(t)

	if err := agg.Load(context.Background(), "NOPE"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if agg.QuizName() != defaultQuizName || len(agg.Attempts()) != 0 {
		t.Fatalf("unexpected empty result: %q %d", agg.QuizName(), len(agg.Attempts()))
	}
}

func TestAggregatorLoadFailureSurfacesMessageAndClears(t *testing.T) {
	agg, api := newTestAggregator(t)
	seedAttempts(api, "ABC123", "Algebra", "alice")
	if err := agg.Load(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	api.Fail(gatewaytest.RouteAttempts, http.StatusNotFound, map[string]string{"message": "Quiz not found"})
	if err := agg.Load(context.Background(), "ABC123"); err == nil {
		t.Fatalf("expected load failure")
	}
	if agg.State() != lifecycle.Failed || agg.Message() != "Quiz not found" {
		t.Fatalf("unexpected state %v message %q", agg.State(), agg.Message())
	}
	if len(agg.Attempts()) != 0 {
		t.Fatalf("list must be empty after a failed load")
	}

	api.Fail(gatewaytest.RouteAttempts, http.StatusInternalServerError, map[string]string{})
	_ = agg.Load(context.Background(), "ABC123")
	if agg.Message() != msgLoadFailed {
		t.Fatalf("message = %q, want fallback", agg.Message())
	}
}

func TestAggregatorRejectsBlankCode(t *testing.T) {
	agg, api := newTestAggregator(t)

	err := agg.Load(context.Background(), " ")
	var validationErr *quiz.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := len(api.Requests("")); got != 0 {
		t.Fatalf("expected no requests, got %d", got)
	}
}

func TestAggregatorNewLoadCancelsOutstanding(t *testing.T) {
	agg, api := newTestAggregator(t)
	seedAttempts(api, "AAA", "Slow quiz", "stale")
	seedAttempts(api, "BBB", "Fresh quiz", "fresh")

	started, release := api.Hold(gatewaytest.RouteAttempts, "/api/quiz-attempts/AAA")
	defer release()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- agg.Load(context.Background(), "AAA")
	}()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first fetch never reached the server")
	}

	if err := agg.Load(context.Background(), "BBB"); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	select {
	case err := <-firstDone:
		if !gateway.IsCanceled(err) {
			t.Fatalf("expected first load to be cancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first load was not cancelled")
	}

	if agg.QuizName() != "Fresh quiz" || usernames(agg.Attempts()) != "fresh" {
		t.Fatalf("stale load overwrote result: %q %s", agg.QuizName(), usernames(agg.Attempts()))
	}
	if agg.State() != lifecycle.Success {
		t.Fatalf("state = %v, want success", agg.State())
	}
}

// stubbornFetcher ignores cancellation so a stale response can race a newer
// load.
type stubbornFetcher struct {
	responses map[string]chan []quiz.Attempt
	calls     chan string
}

func (f *stubbornFetcher) ListQuizAttempts(_ context.Context, code string) ([]quiz.Attempt, error) {
	f.calls <- code
	return <-f.responses[code], nil
}

func TestAggregatorDropsResponseArrivingAfterCancellation(t *testing.T) {
	fetcher := &stubbornFetcher{
		responses: map[string]chan []quiz.Attempt{
			"AAA": make(chan []quiz.Attempt, 1),
			"BBB": make(chan []quiz.Attempt, 1),
		},
		calls: make(chan string, 2),
	}
	agg := NewAggregator(context.Background(), fetcher)
	defer agg.Close()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- agg.Load(context.Background(), "AAA")
	}()
	<-fetcher.calls

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- agg.Load(context.Background(), "BBB")
	}()
	<-fetcher.calls

	fetcher.responses["BBB"] <- []quiz.Attempt{{StudentUsername: "fresh", QuizName: "B"}}
	if err := <-secondDone; err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	fetcher.responses["AAA"] <- []quiz.Attempt{{StudentUsername: "stale", QuizName: "A"}}
	if err := <-firstDone; !gateway.IsCanceled(err) {
		t.Fatalf("stale load should report cancellation, got %v", err)
	}

	if agg.QuizName() != "B" || usernames(agg.Attempts()) != "fresh" {
		t.Fatalf("stale response overwrote newer result: %q %s", agg.QuizName(), usernames(agg.Attempts()))
	}
	if agg.State() != lifecycle.Success {
		t.Fatalf("state = %v, want success", agg.State())
	}
}

func TestAggregatorCloseReturnsToIdle(t *testing.T) {
	agg, api := newTestAggregator(t)
	started, release := api.Hold(gatewaytest.RouteAttempts, "/api/quiz-attempts/AAA")
	defer release()

	done := make(chan error, 1)
	go func() {
		done <- agg.Load(context.Background(), "AAA")
	}()
	<-started
	agg.Close()

	if err := <-done; !gateway.IsCanceled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if agg.State() != lifecycle.Idle {
		t.Fatalf("state = %v, want idle", agg.State())
	}
}
