package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"quiz-dashboard/internal/builder"
	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/results"
)

const chartWidth = 30

// report prints the outcome of an action. message is the component's
// user-facing text; cancellations are reported without it.
func (c *console) report(err error, message string) {
	switch {
	case err == nil:
		if message != "" {
			fmt.Fprintln(c.out, message)
		}
	case gateway.IsCanceled(err):
		fmt.Fprintln(c.out, "Cancelled.")
	case message != "":
		fmt.Fprintln(c.out, message)
	default:
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *console) runHome(ctx context.Context, search string) {
	if err := c.home.Load(ctx); err != nil {
		c.report(err, c.home.Message())
		return
	}

	quizzes := c.home.Filter(search)
	switch {
	case len(quizzes) > 0:
		fmt.Fprintln(c.out, "Your quizzes:")
		for idx, item := range quizzes {
			fmt.Fprintf(c.out, "%d. %s code=%s due=%s\n", idx+1, item.Name, item.Code, formatDue(item.DueDate))
		}
	case search == "":
		fmt.Fprintln(c.out, "You have not created any quizzes yet.")
	default:
		fmt.Fprintf(c.out, "No quizzes match %q.\n", search)
	}

	if pending := c.home.PendingCount(); pending > 0 {
		fmt.Fprintf(c.out, "You have %d pending retest request(s). Type 'requests' to review.\n", pending)
	}
}

func (c *console) runBuilder(ctx context.Context, command, rest string) {
	switch command {
	case "name":
		if rest == "" {
			fmt.Fprintln(c.out, "usage: name <quiz name>")
			return
		}
		c.builder.SetName(rest)
		fmt.Fprintf(c.out, "Quiz name set to %q.\n", rest)
	case "due":
		due, err := builder.ParseDueDate(rest)
		if err != nil {
			fmt.Fprintf(c.out, "invalid due date: %v\n", err)
			return
		}
		c.builder.SetDueDate(due)
		fmt.Fprintf(c.out, "Due date set to %s.\n", formatDue(due))
	case "question":
		c.builder.EditForm(func(form *builder.Form) {
			form.Text = rest
		})
		fmt.Fprintln(c.out, "Question text set.")
	case "option":
		number, text := splitArgument(rest)
		idx, err := parseOptionNumber(number)
		if err != nil {
			fmt.Fprintf(c.out, "usage: option <1-4> <text> (%v)\n", err)
			return
		}
		c.builder.EditForm(func(form *builder.Form) {
			form.Options[idx] = text
		})
		fmt.Fprintf(c.out, "Option %d set.\n", idx+1)
	case "correct":
		idx, err := parseOptionNumber(rest)
		if err != nil {
			fmt.Fprintf(c.out, "usage: correct <1-4> (%v)\n", err)
			return
		}
		c.builder.EditForm(func(form *builder.Form) {
			form.ToggleCorrect(idx)
		})
		if slices.Contains(c.builder.Form().Correct, idx) {
			fmt.Fprintf(c.out, "Option %d marked correct.\n", idx+1)
		} else {
			fmt.Fprintf(c.out, "Option %d unmarked.\n", idx+1)
		}
	case "add":
		if err := c.builder.AddQuestion(); err != nil {
			c.report(err, c.builder.Message())
			return
		}
		fmt.Fprintf(c.out, "Question %d added.\n", len(c.builder.Draft().Questions))
	case "draft":
		c.printDraft()
	case "submit":
		_, err := c.builder.Submit(ctx)
		c.report(err, c.builder.Message())
	}
}

func (c *console) printDraft() {
	draft := c.builder.Draft()
	name := draft.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(c.out, "Quiz: %s\nDue: %s\n", name, formatDue(draft.DueDate))

	if len(draft.Questions) == 0 {
		fmt.Fprintln(c.out, "No questions yet.")
	}
	for idx, question := range draft.Questions {
		fmt.Fprintf(c.out, "Q%d: %s\n", idx+1, question.Text)
		for optIdx, option := range question.Options {
			marker := " "
			if option.IsCorrect {
				marker = "*"
			}
			fmt.Fprintf(c.out, "  %s%d. %s\n", marker, optIdx+1, option.Text)
		}
	}

	form := c.builder.Form()
	if form.Text == "" && form.Options == ([quiz.OptionCount]string{}) && len(form.Correct) == 0 {
		return
	}
	fmt.Fprintf(c.out, "Editing: %s\n", form.Text)
	for idx, text := range form.Options {
		marker := " "
		if slices.Contains(form.Correct, idx) {
			marker = "*"
		}
		fmt.Fprintf(c.out, "  %s%d. %s\n", marker, idx+1, text)
	}
}

func (c *console) runResults(ctx context.Context, command, rest string) {
	if command == "results" {
		if err := c.results.Load(ctx, rest); err != nil {
			c.report(err, c.results.Message())
			return
		}
		c.printResults()
		return
	}

	if c.results.Code() == "" {
		fmt.Fprintln(c.out, "Load results first: results <quiz_code>")
		return
	}

	switch command {
	case "filter":
		c.results.Filter(rest)
		c.printResults()
	case "sort":
		key, ok := results.ParseSortKey(rest)
		if !ok {
			fmt.Fprintln(c.out, "usage: sort <student|score|date|total|correct|time>")
			return
		}
		state := c.results.Sort(key)
		fmt.Fprintf(c.out, "Sorted by %s (%s).\n", state.Key, state.Direction)
		c.printResults()
	case "stats":
		stats := c.results.Statistics()
		fmt.Fprintf(c.out, "Attempts: %d\nAverage: %d%%\nTop score: %d\n", stats.Count, stats.AveragePercent, stats.TopScore)
	case "chart":
		c.printChart()
	case "export":
		dir := rest
		if dir == "" {
			dir = c.exportDir
		}
		path, err := c.results.ExportFile(dir)
		if err != nil {
			fmt.Fprintf(c.out, "error: export failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Exported %d attempt(s) to %s\n", len(c.results.Attempts()), path)
	}
}

func (c *console) printResults() {
	attempts := c.results.Attempts()
	fmt.Fprintf(c.out, "%s (%s)\n", c.results.QuizName(), c.results.Code())
	if len(attempts) == 0 {
		fmt.Fprintln(c.out, "No attempts found for this quiz.")
		return
	}

	fmt.Fprintf(c.out, "%-3s %-16s %-7s %-8s %-19s %s\n", "#", "Student", "Score", "Correct", "Date", "Time (s)")
	for idx, attempt := range attempts {
		fmt.Fprintf(c.out, "%-3d %-16s %-7s %-8s %-19s %s\n",
			idx+1,
			attempt.StudentUsername,
			fmt.Sprintf("%d/%d", attempt.Score, attempt.TotalQuestions),
			formatOptional(attempt.CorrectAnswers),
			results.FormatDate(attempt.AttemptDate),
			formatOptional(attempt.TimeTaken),
		)
	}
}

func (c *console) printChart() {
	series := c.results.ChartSeries()
	if len(series.Values) == 0 {
		fmt.Fprintln(c.out, "No attempts to chart.")
		return
	}

	for idx, value := range series.Values {
		width := 0
		if series.Max > 0 {
			width = min(max(value*chartWidth/series.Max, 0), chartWidth)
		}
		fmt.Fprintf(c.out, "%-3s |%s %d/%d\n", series.Labels[idx], strings.Repeat("#", width), value, series.Max)
	}
}

func (c *console) runRequests(ctx context.Context) {
	if err := c.gate.Load(ctx); err != nil {
		c.report(err, c.gate.LoadMessage())
		return
	}

	pending := c.gate.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(c.out, "No pending retest requests.")
		return
	}
	fmt.Fprintln(c.out, "Pending retest requests:")
	for _, request := range pending {
		fmt.Fprintf(c.out, "[%d] %s requested a retest of %s (%s) on %s\n",
			request.RequestID,
			request.StudentName,
			request.QuizName,
			request.QuizCode,
			results.FormatDate(request.RequestDate),
		)
	}
}

func (c *console) runDecision(ctx context.Context, command, rest string) {
	requestID, err := parseRequestID(rest)
	if err != nil {
		fmt.Fprintf(c.out, "usage: %s <request_id> (%v)\n", command, err)
		return
	}
	password, err := promptLine(c.reader, c.out, "Teacher password: ")
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}

	if command == "approve" {
		err = c.gate.Approve(ctx, requestID, password)
	} else {
		err = c.gate.Decline(ctx, requestID, password)
	}
	c.report(err, c.gate.Message())
}

func (c *console) runProfile(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		fmt.Fprintln(c.out, "usage: profile <name> <email>")
		return
	}
	email := fields[len(fields)-1]
	name := strings.Join(fields[:len(fields)-1], " ")

	_, err := c.settings.UpdateProfile(ctx, name, email)
	c.report(err, c.settings.Message())
}

func (c *console) runPassword(ctx context.Context) {
	current, err := promptLine(c.reader, c.out, "Current password: ")
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	next, err := promptLine(c.reader, c.out, "New password: ")
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}

	err = c.settings.ChangePassword(ctx, current, next)
	c.report(err, c.settings.Message())
}
