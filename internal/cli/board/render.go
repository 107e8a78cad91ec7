package board

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/thenoetrevino/tablero/internal/cli/styles"
	"github.com/thenoetrevino/tablero/internal/models"
)

var laneTitles = map[models.Lane]string{
	models.LaneTodo:       "To do",
	models.LaneInProgress: "In progress",
	models.LaneComplete:   "Complete",
}

// RenderBoard draws the board as one row of status columns per lane.
func RenderBoard(detail *models.BoardDetail) string {
	b := detail.Board
	header := styles.TitleStyle.Render(b.Title) +
		styles.SubtitleStyle.Render(fmt.Sprintf("  board #%d, %d member(s)", b.ID, len(detail.MemberIDs)))
	if b.InviteCode != "" {
		header += styles.SubtitleStyle.Render("  invite code " + b.InviteCode)
	}

	sections := []string{header}
	for _, lane := range models.Lanes {
		var columns []string
		for _, st := range detail.Statuses {
			if st.Lane == lane {
				columns = append(columns, renderStatus(st))
			}
		}
		if len(columns) == 0 {
			continue
		}
		sections = append(sections, "",
			styles.LaneStyle.Render(laneTitles[lane]),
			lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderStatus(st *models.StatusDetail) string {
	lines := []string{styles.RenderStatusHeader(&st.Status), ""}
	if len(st.Tickets) == 0 {
		lines = append(lines, styles.SubtitleStyle.Render("no tickets"))
	}
	for _, t := range st.Tickets {
		lines = append(lines, renderTicket(t))
	}
	return styles.RenderColumn(&st.Status, strings.Join(lines, "\n"))
}

func renderTicket(t *models.Ticket) string {
	line := styles.SubtitleStyle.Render("#"+strconv.Itoa(t.ID)) + " " + styles.CardStyle.Render(t.Title)
	if t.EndDate != nil {
		line += "\n" + styles.SubtitleStyle.Render("  due "+t.EndDate.Format("2006-01-02"))
	}
	return line
}
