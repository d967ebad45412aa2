package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mylab/figlab/internal/api"
	"github.com/mylab/figlab/internal/app"
	"github.com/mylab/figlab/internal/ui"
)

// TickInterval is how often the screen refreshes so expired toasts disappear
const TickInterval = 250 * time.Millisecond

// galleryColumns is the width of the gallery grid in tiles
const galleryColumns = 4

// Generate tab input order
const (
	fieldPrompt = iota
	fieldFolder
	fieldRefs
	fieldCount
)

type tickMsg time.Time

// doneMsg reports that a controller handler returned
type doneMsg struct {
	action app.Action
	err    error
}

// Model is the bubbletea program over one controller
type Model struct {
	ctx    context.Context
	ctrl   *app.Controller
	server string

	inputs    []textinput.Model
	focus     int
	imageSize string
	gallery   textinput.Model
	cursor    int
	browsing  bool
	spinner   spinner.Model
	width     int
	height    int
}

// New builds the model. server is prefixed to image paths when they are shown.
func New(ctx context.Context, ctrl *app.Controller, server, folder string) Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
	}
	inputs[fieldPrompt].Placeholder = "Describe the image"
	inputs[fieldFolder].Placeholder = "Folder name"
	inputs[fieldFolder].SetValue(folder)
	inputs[fieldRefs].Placeholder = "Reference images, comma separated (enter to apply)"
	inputs[fieldPrompt].Focus()

	gallery := textinput.New()
	gallery.Placeholder = "Folder to browse"
	gallery.SetValue(folder)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		server:    strings.TrimRight(server, "/"),
		inputs:    inputs,
		imageSize: app.ImageSize2K,
		gallery:   gallery,
		spinner:   s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) busy() bool {
	for _, a := range []app.Action{app.ActionGenerate, app.ActionLoadGallery, app.ActionDownload} {
		if m.ctrl.State(a) == app.StateSubmitting {
			return true
		}
	}
	return false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case doneMsg:
		switch {
		case msg.err == nil, errors.Is(msg.err, app.ErrBusy):
		case api.IsRequestError(msg.err):
			slog.Warn("Backend request failed", "action", msg.action, "err", msg.err)
		default:
			slog.Debug("Action finished with error", "action", msg.action, "err", msg.err)
		}
		if msg.action == app.ActionLoadGallery {
			m.cursor = 0
			m.browsing = msg.err == nil && m.ctrl.Page().Gallery.Len() > 0
			if m.browsing {
				m.gallery.Blur()
			}
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	page := m.ctrl.Page()
	if page.Lightbox.Active() {
		switch key {
		case "esc":
			m.ctrl.HandleKey("Escape")
		case "x":
			m.ctrl.CloseLightbox()
		}
		return m, nil
	}

	switch key {
	case "tab":
		m.switchTab(1)
		return m, nil
	case "shift+tab":
		m.switchTab(-1)
		return m, nil
	}

	if page.Tabs.IsActive(ui.TabGallery) {
		return m.handleGalleryKey(key, msg)
	}
	return m.handleGenerateKey(key, msg)
}

func (m *Model) switchTab(delta int) {
	names := m.ctrl.Page().Tabs.Names()
	active := m.ctrl.Page().Tabs.Active()
	for i, n := range names {
		if n == active {
			next := names[(i+delta+len(names))%len(names)]
			if err := m.ctrl.ActivateTab(next); err != nil {
				slog.Error("Failed to switch tab", "tab", next, "err", err)
			}
			break
		}
	}

	if m.ctrl.Page().Tabs.IsActive(ui.TabGallery) {
		m.inputs[m.focus].Blur()
		if !m.browsing {
			m.gallery.Focus()
		}
	} else {
		m.gallery.Blur()
		m.inputs[m.focus].Focus()
	}
}

func (m Model) handleGenerateKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "down":
		m.inputs[m.focus].Blur()
		if key == "up" {
			m.focus = (m.focus + fieldCount - 1) % fieldCount
		} else {
			m.focus = (m.focus + 1) % fieldCount
		}
		m.inputs[m.focus].Focus()
		return m, nil
	case "ctrl+t":
		if m.imageSize == app.ImageSize2K {
			m.imageSize = app.ImageSize4K
		} else {
			m.imageSize = app.ImageSize2K
		}
		return m, nil
	case "ctrl+x":
		if n := len(m.ctrl.Selected()); n > 0 {
			if err := m.ctrl.RemoveFile(n - 1); err != nil {
				slog.Warn("Failed to remove reference", "err", err)
			}
		}
		return m, nil
	case "enter":
		if m.focus == fieldRefs {
			m.ctrl.SelectFiles(splitPaths(m.inputs[fieldRefs].Value()))
			return m, nil
		}
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % fieldCount
		m.inputs[m.focus].Focus()
		return m, nil
	case "ctrl+s":
		return m, tea.Batch(m.submit(), m.spinner.Tick)
	}
	return m.updateInputs(msg)
}

func (m Model) handleGalleryKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		return m, tea.Batch(m.loadGallery(m.gallery.Value()), m.spinner.Tick)
	case "ctrl+d":
		return m, tea.Batch(m.download(m.gallery.Value()), m.spinner.Tick)
	}

	if !m.browsing {
		return m.updateInputs(msg)
	}

	n := m.ctrl.Page().Gallery.Len()
	switch key {
	case "left":
		m.cursor = max(m.cursor-1, 0)
	case "right":
		m.cursor = min(m.cursor+1, n-1)
	case "up":
		m.cursor = max(m.cursor-galleryColumns, 0)
	case "down":
		m.cursor = min(m.cursor+galleryColumns, n-1)
	case "o":
		m.ctrl.OpenGalleryImage(m.cursor)
	case "/":
		m.browsing = false
		m.gallery.Focus()
	}
	return m, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.ctrl.Page().Tabs.IsActive(ui.TabGallery) {
		m.gallery, cmd = m.gallery.Update(msg)
		return m, cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m
	}
	if !m.ctrl.Page().Lightbox.Active() {
		return m
	}

	b := m.lightboxBounds()
	switch {
	case b.closeButton(msg.X, msg.Y):
		m.ctrl.CloseLightbox()
	case b.contains(msg.X, msg.Y):
		m.ctrl.LightboxClick(ui.TargetContent)
	default:
		m.ctrl.LightboxClick(ui.TargetBackdrop)
	}
	return m
}

func (m Model) submit() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	form := app.GenerateForm{
		Prompt:    m.inputs[fieldPrompt].Value(),
		Folder:    m.inputs[fieldFolder].Value(),
		ImageSize: m.imageSize,
	}
	return func() tea.Msg {
		return doneMsg{action: app.ActionGenerate, err: ctrl.SubmitGenerate(ctx, form)}
	}
}

func (m Model) loadGallery(folder string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, err := ctrl.LoadGallery(ctx, folder)
		return doneMsg{action: app.ActionLoadGallery, err: err}
	}
}

func (m Model) download(folder string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, err := ctrl.DownloadOriginals(ctx, folder)
		return doneMsg{action: app.ActionDownload, err: err}
	}
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Run starts the program on the alternate screen with mouse support
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
