package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskorbit/internal/lifecycle"
	"taskorbit/internal/notice"
	"taskorbit/internal/task"
	"taskorbit/internal/view"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Underline(true).Foreground(lipgloss.Color("212"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	delayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.cat.T("app.title", nil)))
	if m.user != "" && m.mode != modeLogin {
		b.WriteString("  " + mutedStyle.Render(m.cat.T("app.signed_in_as", map[string]any{"Username": m.user})))
	}
	b.WriteString("\n\n")

	if m.mode == modeLogin {
		b.WriteString(m.renderFormBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.cat.T("help.login", nil)))
		return b.String()
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.renderFilterSummary()))
	b.WriteString("\n\n")

	switch {
	case !m.snap.Loaded:
		b.WriteString(m.cat.T("app.loading", nil))
	case m.snap.Err != nil:
		b.WriteString(errorStyle.Render(m.cat.Notice(notice.FromError(m.snap.Err))))
	case m.snap.View == view.Repeat:
		b.WriteString(m.renderTemplates())
	default:
		b.WriteString(m.renderSections())
	}

	b.WriteString("\n---\n")
	help := "help.tasks"
	switch {
	case m.form != nil:
		b.WriteString(m.renderFormBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		help = "help.form"
	case m.mode == modeFilter:
		b.WriteString(m.renderFilterPanel())
		help = "help.filter"
	case m.mode == modeLogs:
		b.WriteString(m.renderLogs())
		help = "help.logs"
	case m.snap.View == view.Repeat:
		help = "help.repeat"
	default:
		b.WriteString(m.renderDetail())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.cat.T(help, nil)))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.blocking {
		return errorStyle.Render(m.status)
	}
	return m.status
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(view.IDs))
	for i, id := range view.IDs {
		label := fmt.Sprintf("%d %s", i+1, m.cat.T("view."+string(id), nil))
		if id == m.snap.View {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFilterSummary() string {
	st := m.snap.State
	parts := []string{}
	if st.Categories.Empty() {
		parts = append(parts, m.cat.T("label.filter", nil)+": *")
	} else {
		labels := make([]string, len(st.Categories.Selected))
		for i, l := range st.Categories.Selected {
			labels[i] = m.categoryLabel(l)
		}
		parts = append(parts, m.cat.T("label.filter", nil)+": "+strings.Join(labels, ", "))
	}
	if m.snap.View != view.Repeat {
		parts = append(parts, m.rangeLabel(st.Range))
		sort := st.Sort
		if sort == "" {
			sort = view.SortDefault
		}
		parts = append(parts, m.cat.T("sort."+string(sort), nil))
	}
	return strings.Join(parts, " | ")
}

func (m Model) rangeLabel(r view.DateRange) string {
	mode := r.Mode
	if mode == "" {
		mode = view.RangeAll
	}
	if mode == view.RangeCustom {
		if r.NoOp() {
			return m.cat.T("range.all", nil)
		}
		return m.cat.T("range.custom", map[string]any{"Start": r.Start.String(), "End": r.End.String()})
	}
	return m.cat.T("range."+string(mode), nil)
}

func (m Model) categoryLabel(l string) string {
	if l == task.Uncategorized {
		return m.cat.T("category.uncategorized", nil)
	}
	return l
}

func (m Model) renderSections() string {
	var b strings.Builder
	idx := 0
	empty := true
	for _, sec := range m.snap.Sections {
		if len(m.snap.Sections) > 1 {
			b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", m.cat.T("bucket."+string(sec.Name), nil), len(sec.Rows))))
			b.WriteString("\n")
		}
		for _, r := range sec.Rows {
			empty = false
			b.WriteString(m.renderRow(r, idx == m.cursor && m.mode == modeList))
			b.WriteString("\n")
			idx++
		}
	}
	if empty {
		return m.cat.T("app.empty", nil)
	}
	return b.String()
}

func (m Model) renderRow(r view.Row, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	checkbox := "[ ]"
	switch r.Task.Status {
	case task.StatusDone:
		checkbox = "[x]"
	case task.StatusWaiting:
		checkbox = "[~]"
	}
	body := fmt.Sprintf("%s %s %s", cursor, checkbox, r.Task.Title)
	if r.Task.Category != "" {
		body += " " + mutedStyle.Render("#"+r.Task.Category)
	}
	if r.Task.Size != "" {
		body += " " + mutedStyle.Render(m.cat.T("size."+string(r.Task.Size), nil))
	}
	if r.Delay > 0 {
		body += " " + delayStyle.Render(m.cat.T("label.delay", map[string]any{"Days": r.Delay}))
	}
	if r.Task.NextAction != "" {
		body += " " + mutedStyle.Render(m.cat.T("label.next_action", map[string]any{"NextAction": r.Task.NextAction}))
	}
	if selected {
		return selectedStyle.Render(body)
	}
	return body
}

func (m Model) renderTemplates() string {
	if len(m.snap.Templates) == 0 {
		return m.cat.T("app.empty", nil)
	}
	var b strings.Builder
	for i, t := range m.snap.Templates {
		cursor := " "
		if i == m.cursor && m.mode == modeList {
			cursor = ">"
		}
		state := m.cat.T("label.inactive", nil)
		if t.IsActive {
			state = m.cat.T("label.active", nil)
		}
		line := fmt.Sprintf("%s %s  %s  %s", cursor, t.Title, m.cat.T("recurrence."+string(t.RecurrenceType), nil), state)
		if t.Category != "" {
			line += " " + mutedStyle.Render("#"+t.Category)
		}
		if !t.IsActive {
			line = mutedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFilterPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.cat.T("label.filter", nil)))
	b.WriteString("\n")
	if len(m.snap.Labels) == 0 {
		b.WriteString(m.cat.T("app.empty", nil))
		return b.String()
	}
	for i, l := range m.snap.Labels {
		cursor := " "
		if i == m.filterCursor {
			cursor = ">"
		}
		box := "[ ]"
		if m.snap.State.Categories.Has(l) {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, box, m.categoryLabel(l)))
	}
	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder
	if m.logTask != nil {
		b.WriteString(headerStyle.Render(m.cat.T("label.logs", map[string]any{"Title": m.logTask.Title})))
		if m.latest != nil && m.latest.NextAction != "" {
			b.WriteString("  " + mutedStyle.Render(m.cat.T("label.next_action", map[string]any{"NextAction": m.latest.NextAction})))
		}
		b.WriteString("\n")
	}
	if len(m.logs) == 0 {
		b.WriteString(m.cat.T("app.empty", nil))
		return b.String()
	}
	for i, l := range m.logs {
		cursor := " "
		if i == m.logCursor {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s  %s", cursor, l.Date, l.Content)
		if l.NextAction != "" {
			line += "  " + mutedStyle.Render(m.cat.T("label.next_action", map[string]any{"NextAction": l.NextAction}))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	t, ok := m.selectedTask()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("#%d  %s  %s\n", t.ID, t.Title, m.cat.T("status."+string(t.Status), nil)))
	b.WriteString(fmt.Sprintf("%s: %s  %s: %s\n",
		m.cat.T("form.category", nil), m.categoryLabel(t.CategoryLabel()),
		m.cat.T("form.due", nil), emptyPlaceholder(t.ScheduleDate.String())))
	actions := lifecycle.Actions(t.Status)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = m.actionKey(a) + " " + string(a)
	}
	b.WriteString(mutedStyle.Render(strings.Join(names, "  ")))
	return b.String()
}

func (m Model) actionKey(a lifecycle.Action) string {
	switch a {
	case lifecycle.ActionComplete:
		return m.keys.Complete
	case lifecycle.ActionWait:
		return m.keys.Wait
	case lifecycle.ActionActivate:
		return m.keys.Activate
	}
	return m.keys.Delete
}

func (m Model) renderFormBox() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	if m.form.kind == formLogin || m.form.kind == formRegister {
		title := "form.login"
		if m.form.kind == formRegister {
			title = "form.register"
		}
		b.WriteString(headerStyle.Render(m.cat.T(title, nil)))
		b.WriteString("\n")
	}
	for i, fld := range m.form.fields {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := fld.value
		if fld.secret {
			val = strings.Repeat("*", len(val))
		}
		b.WriteString(fmt.Sprintf("%s %-28s : %s\n", prefix, m.cat.T(fld.label, nil), emptyPlaceholder(val)))
	}
	return b.String()
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
