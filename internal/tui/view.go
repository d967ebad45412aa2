package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mylab/figlab/internal/ui"
)

var (
	accent = lipgloss.Color("205")
	muted  = lipgloss.Color("240")

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(muted)
	activeTabStyle = tabStyle.Foreground(accent).Bold(true).Underline(true)
	labelStyle     = lipgloss.NewStyle().Foreground(muted).Width(10)
	tileStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Width(22)
	cursorStyle    = tileStyle.BorderForeground(accent)
	dimStyle       = lipgloss.NewStyle().Foreground(muted)
	helpStyle      = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
	lightboxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)

	statusStyles = map[ui.StatusKind]lipgloss.Style{
		ui.StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		ui.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		ui.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		ui.StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
	toastStyles = map[ui.ToastKind]lipgloss.Style{
		ui.ToastInfo:    lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("33")),
		ui.ToastSuccess: lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("28")),
		ui.ToastError:   lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("160")),
	}
)

// lightboxInner is the content width of the lightbox
const lightboxInner = 56

const closeLabel = "[x]"

func (m Model) View() string {
	if m.ctrl.Page().Lightbox.Active() && m.width > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.lightboxView())
	}

	page := m.ctrl.Page()
	var b strings.Builder
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	if page.Tabs.IsActive(ui.TabGallery) {
		b.WriteString(m.galleryView())
	} else {
		b.WriteString(m.generateView())
	}
	if toast, ok := page.Toast.Current(); ok {
		b.WriteString("\n\n")
		b.WriteString(toastStyles[toast.Kind].Render(toast.Message))
	}
	return b.String()
}

func (m Model) tabsView() string {
	page := m.ctrl.Page()
	var tabs []string
	for _, name := range page.Tabs.Names() {
		style := tabStyle
		if page.Tabs.IsActive(name) {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(strings.ToUpper(name[:1])+name[1:]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) statusView(status ui.Status) string {
	if !status.Visible() {
		return ""
	}
	text := status.Text
	if status.Kind == ui.StatusLoading {
		text = m.spinner.View() + " " + text
	}
	return statusStyles[status.Kind].Render(text)
}

func (m Model) generateView() string {
	page := m.ctrl.Page()
	labels := []string{"Prompt", "Folder", "Refs"}

	var rows []string
	for i, in := range m.inputs {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(labels[i]), in.View()))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Size"), m.imageSize))

	if refs := page.FilePreview.Tiles(); len(refs) > 0 {
		var names []string
		for _, t := range refs {
			names = append(names, t.Alt)
		}
		rows = append(rows, "", dimStyle.Render("Selected: "+strings.Join(names, ", ")))
	}

	button := "[ Generate ]"
	if page.GenerateButton.Disabled() {
		button = dimStyle.Render("[ Generating... ]")
	}
	rows = append(rows, "", button)

	if s := m.statusView(page.GenerateStatus.Status()); s != "" {
		rows = append(rows, "", s)
	}
	for _, t := range page.Preview.Tiles() {
		rows = append(rows, "", m.tileView(t, false))
	}

	rows = append(rows, helpStyle.Render("up/down field • enter next/apply refs • ctrl+t size • ctrl+x drop ref • ctrl+s generate • tab switch • ctrl+c quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) galleryView() string {
	page := m.ctrl.Page()
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Folder"), m.gallery.View())}

	load, download := "[ Load ]", "[ Download originals ]"
	if page.LoadButton.Disabled() {
		load = dimStyle.Render("[ Loading... ]")
	}
	if page.DownloadButton.Disabled() {
		download = dimStyle.Render("[ Preparing... ]")
	}
	rows = append(rows, "", load+"  "+download)

	if s := m.statusView(page.GalleryStatus.Status()); s != "" {
		rows = append(rows, "", s)
	}

	tiles := page.Gallery.Tiles()
	var line []string
	for i, t := range tiles {
		line = append(line, m.tileView(t, m.browsing && i == m.cursor))
		if len(line) == galleryColumns || i == len(tiles)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line = nil
		}
	}

	rows = append(rows, helpStyle.Render("enter load • ctrl+d download • arrows move • o open • / edit folder • tab switch • ctrl+c quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) tileView(t ui.Tile, selected bool) string {
	style := tileStyle
	if selected {
		style = cursorStyle
	}

	var body string
	switch t.Kind {
	case ui.TilePlaceholder:
		body = dimStyle.Render(m.spinner.View() + " " + t.Alt)
	case ui.TileEmpty, ui.TileError:
		body = t.Hint
	case ui.TileResult:
		body = "Result\n" + m.server + t.Src
		style = style.Width(lipgloss.Width(m.server+t.Src) + 4)
	default:
		body = t.Alt
		if t.Caption != "" {
			body += "\n" + dimStyle.Render(t.Caption)
		}
	}
	if t.Dimmed {
		body = dimStyle.Render(body)
	}
	return style.Render(body)
}

func (m Model) lightboxView() string {
	view := m.ctrl.Page().Lightbox.View()
	caption := ansi.Truncate(view.Caption, lightboxInner-len(closeLabel)-1, "")
	header := caption + strings.Repeat(" ", lightboxInner-lipgloss.Width(caption)-len(closeLabel)) + closeLabel

	src := m.server + view.Src
	body := lipgloss.NewStyle().Width(lightboxInner).Render(src)
	help := dimStyle.Render("esc or click outside to close")
	return lightboxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help))
}

// bounds is a screen rectangle, inclusive of x0/y0 and exclusive of x1/y1
type bounds struct {
	x0, y0, x1, y1 int
}

func (b bounds) contains(x, y int) bool {
	return x >= b.x0 && x < b.x1 && y >= b.y0 && y < b.y1
}

// closeButton reports whether (x, y) hits the [x] in the header row
func (b bounds) closeButton(x, y int) bool {
	// border plus padding on the right
	right := b.x1 - 2
	return y == b.y0+1 && x >= right-len(closeLabel) && x < right
}

// lightboxBounds mirrors the centering done by lipgloss.Place in View
func (m Model) lightboxBounds() bounds {
	box := m.lightboxView()
	w, h := lipgloss.Width(box), lipgloss.Height(box)
	x0 := max((m.width-w)/2, 0)
	y0 := max((m.height-h)/2, 0)
	return bounds{x0: x0, y0: y0, x1: x0 + w, y1: y0 + h}
}
