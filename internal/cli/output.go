package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/tracking"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1D3"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#636E72"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7BED9F"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757"))
)

func yesNo(ok bool) string {
	if ok {
		return okStyle.Render("yes")
	}
	return failStyle.Render("no")
}

func sourceKind(s models.StreamingSource) string {
	switch {
	case s.IsProgressive():
		return "file"
	case s.IsDirect():
		return "hls"
	default:
		return "embed"
	}
}

// sourceLine is the one-line summary used by the listing and the picker
func sourceLine(s models.StreamingSource) string {
	lang := s.Language
	if lang == "" {
		lang = "-"
	}
	return fmt.Sprintf("%-36s %-10s %-5s %s", s.DisplayName(), lang, sourceKind(s), s.URL)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderResult(w io.Writer, result *models.CombinedResult) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(result.EpisodeID))
	if result.AnimeSlug != "" {
		b.WriteString(mutedStyle.Render(" (" + result.AnimeSlug + ")"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("WatchAnimeWorld:"), yesNo(result.HasWatchAnimeWorld),
		labelStyle.Render("AnimeHindiDubbed:"), yesNo(result.HasAnimeHindiDubbed))

	b.WriteString("\n")
	direct := 0
	for _, s := range result.Sources {
		if s.IsDirect() {
			direct++
		}
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("Sources (%d, %d direct)", len(result.Sources), direct)))
	b.WriteString("\n")
	for i, s := range result.Sources {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, sourceLine(s))
	}

	if len(result.Subtitles) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("Subtitles (%d)", len(result.Subtitles))))
		b.WriteString("\n")
		for _, sub := range result.Subtitles {
			fmt.Fprintf(&b, "     %-12s %s\n", sub.Lang, sub.URL)
		}
	}
	if result.Intro != nil {
		fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("Intro:"), valueStyle.Render(fmt.Sprintf("%ds-%ds", result.Intro.Start, result.Intro.End)))
	}
	_, _ = io.WriteString(w, b.String())
}

func renderPage(w io.Writer, page *models.AnimePageData) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString(mutedStyle.Render(" (" + page.Slug + ")"))
	b.WriteString("\n")
	if page.Rating != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Rating:"), valueStyle.Render(page.Rating))
	}
	if page.Thumbnail != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Thumbnail:"), page.Thumbnail)
	}
	if page.Description != "" {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(page.Description))
	}
	page.Servers.Each(func(server string, videos []models.ServerVideo) {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", server, len(videos))))
		b.WriteString("\n")
		for _, v := range videos {
			fmt.Fprintf(&b, "     %-10s %s\n", v.Name, v.URL)
		}
	})
	_, _ = io.WriteString(w, b.String())
}

func renderSeasons(w io.Writer, seasons []models.DetectedSeason) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Seasons (%d)", len(seasons))))
	b.WriteString("\n")
	for _, s := range seasons {
		marker := "  "
		if s.IsCurrent {
			marker = okStyle.Render("* ")
		}
		number := "-"
		if s.Number > 0 {
			number = fmt.Sprintf("%d", s.Number)
		}
		fmt.Fprintf(&b, "%s%-4s %-48s %s\n", marker, number, s.Name, mutedStyle.Render(s.ID))
	}
	_, _ = io.WriteString(w, b.String())
}

func renderHistory(w io.Writer, events []tracking.Event, counts map[tracking.Outcome]int) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Recent resolutions (%d)", len(events))))
	b.WriteString("\n")
	for _, e := range events {
		outcome := string(e.Outcome)
		if e.Outcome == tracking.OutcomeOK {
			outcome = okStyle.Render(outcome)
		} else {
			outcome = failStyle.Render(outcome)
		}
		fmt.Fprintf(&b, "%s  %-40s %-16s %3d sources  %s\n",
			mutedStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")),
			e.EpisodeID, outcome, e.Sources,
			valueStyle.Render(e.Duration.Round(time.Millisecond).String()))
	}
	if len(counts) > 0 {
		b.WriteString("\n")
		for _, outcome := range []tracking.Outcome{tracking.OutcomeOK, tracking.OutcomeSlugUnresolved, tracking.OutcomePrimaryFailed} {
			fmt.Fprintf(&b, "%s %d  ", labelStyle.Render(string(outcome)+":"), counts[outcome])
		}
		b.WriteString("\n")
	}
	_, _ = io.WriteString(w, b.String())
}
