package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CodMac/coupling-lens/model"
)

var (
	ColorAccent = lipgloss.Color("#20B9B4")
	ColorBorder = lipgloss.Color("#16858E")
	ColorMuted  = lipgloss.Color("#2C4A54")
)

// TableStyles 排名表格使用的样式
type TableStyles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Rank   lipgloss.Style
	Name   lipgloss.Style
	Count  lipgloss.Style
	Muted  lipgloss.Style
	Box    lipgloss.Style
}

var DefaultTableStyles = TableStyles{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Header: lipgloss.NewStyle().Bold(true),
	Rank:   lipgloss.NewStyle().Foreground(ColorMuted).Align(lipgloss.Right),
	Name:   lipgloss.NewStyle(),
	Count:  lipgloss.NewStyle().Foreground(ColorAccent).Align(lipgloss.Right),
	Muted:  lipgloss.NewStyle().Foreground(ColorMuted),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
}

// RenderRankTable 渲染排名列表，limit <= 0 表示全部输出
func RenderRankTable(title, countLabel string, list model.RankedList, limit int) string {
	return DefaultTableStyles.RenderRankTable(title, countLabel, list, limit)
}

func (s TableStyles) RenderRankTable(title, countLabel string, list model.RankedList, limit int) string {
	rows := list
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	rankWidth := len(fmt.Sprint(len(rows)))
	if rankWidth < 1 {
		rankWidth = 1
	}
	nameWidth := len("Class")
	countWidth := len(countLabel)
	for _, r := range rows {
		nameWidth = max(nameWidth, lipgloss.Width(r.Name))
		countWidth = max(countWidth, len(fmt.Sprint(r.Count)))
	}

	line := func(rank, name, count string, header bool) string {
		rs, ns, cs := s.Rank, s.Name, s.Count
		if header {
			rs, ns, cs = s.Header.Align(lipgloss.Right), s.Header, s.Header.Align(lipgloss.Right)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top,
			rs.Width(rankWidth).Render(rank), "  ",
			ns.Width(nameWidth).Render(name), "  ",
			cs.Width(countWidth).Render(count),
		)
	}

	var b strings.Builder
	b.WriteString(line("#", "Class", countLabel, true))
	for i, r := range rows {
		b.WriteByte('\n')
		b.WriteString(line(fmt.Sprint(i+1), r.Name, fmt.Sprint(r.Count), false))
	}
	if len(rows) == 0 {
		b.WriteByte('\n')
		b.WriteString(s.Muted.Render("(no classes)"))
	}
	if len(rows) < len(list) {
		b.WriteByte('\n')
		b.WriteString(s.Muted.Render(fmt.Sprintf("... %d more", len(list)-len(rows))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(title), s.Box.Render(b.String()))
}
