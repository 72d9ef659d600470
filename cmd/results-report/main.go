package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/database"
	"github.com/srbmarine/exam-portal/internal/logger"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
)

const passMark = 50.0

func main() {
	limit := flag.Int("limit", 50, "number of most recent results to show")
	candidateID := flag.String("candidate", "", "show one candidate's results and integrity trail")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	resultRepo := repository.NewResultRepository(pool)

	if *candidateID != "" {
		results, err := resultRepo.ListByCandidate(ctx, *candidateID)
		if err != nil {
			color.Red("Error loading results: %v", err)
			os.Exit(1)
		}
		color.Yellow("\nResults of %s", *candidateID)
		renderResults(results)

		events, err := repository.NewIntegrityEventRepository(pool).ListByCandidate(ctx, *candidateID)
		if err != nil {
			color.Red("Error loading integrity events: %v", err)
			os.Exit(1)
		}
		color.Yellow("\nIntegrity Events")
		renderEvents(events)
		return
	}

	results, total, err := resultRepo.ListPaginated(ctx, *limit, 0)
	if err != nil {
		color.Red("Error loading results: %v", err)
		os.Exit(1)
	}
	color.Yellow("\nLatest Results (%d of %d)", len(results), total)
	renderResults(results)
	renderSummary(results)
}

func renderResults(results []model.ResultRecord) {
	if len(results) == 0 {
		color.Red("No results found.")
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Candidate ID", "Name", "Phone", "Exam Date", "Marks", "Percentage"})
	for _, r := range results {
		pct := fmt.Sprintf("%.2f%%", r.Percentage)
		if r.Percentage >= passMark {
			pct = green(pct)
		} else {
			pct = red(pct)
		}
		table.Append([]string{
			r.CandidateID,
			r.CandidateName,
			r.PhoneNumber,
			r.ExamDate.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", r.MarksObtained, r.TotalMarks),
			pct,
		})
	}
	table.Render()
}

func renderSummary(results []model.ResultRecord) {
	if len(results) == 0 {
		return
	}

	var sum float64
	passed := 0
	for _, r := range results {
		sum += r.Percentage
		if r.Percentage >= passMark {
			passed++
		}
	}

	color.Yellow("\nSummary")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Attempts", "Passed", "Failed", "Average"})
	table.Append([]string{
		strconv.Itoa(len(results)),
		strconv.Itoa(passed),
		strconv.Itoa(len(results) - passed),
		fmt.Sprintf("%.2f%%", sum/float64(len(results))),
	})
	table.Render()
}

func renderEvents(events []model.IntegrityEvent) {
	if len(events) == 0 {
		color.Green("No integrity events recorded.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Recorded At", "Session", "Signal", "Effect", "Detail"})
	for _, e := range events {
		table.Append([]string{
			e.RecordedAt.Format(time.RFC3339),
			e.SessionID,
			e.Signal,
			e.Effect,
			e.Detail,
		})
	}
	table.Render()
}
