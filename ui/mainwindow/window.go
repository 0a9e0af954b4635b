// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ottermap/internal/app"
	"ottermap/internal/interaction"
	"ottermap/internal/session"
	"ottermap/internal/surface"
	"ottermap/internal/version"
	"ottermap/pkg/geometry"
	"ottermap/ui/canvas"
	"ottermap/ui/dialogs"
	"ottermap/ui/panels"
	"ottermap/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// commandButtons lists the map page toolbar in display order.
var commandButtons = []struct {
	cmd   interaction.Command
	label string
	icon  fyne.Resource
}{
	{interaction.CommandDraw, "Draw", theme.ContentAddIcon()},
	{interaction.CommandEdit, "Edit", theme.DocumentCreateIcon()},
	{interaction.CommandDelete, "Delete", theme.DeleteIcon()},
	{interaction.CommandClear, "Clear All", theme.ContentClearIcon()},
}

// mapPage holds the widgets of the map page while it is shown.
type mapPage struct {
	canvas  *canvas.MapCanvas
	panel   *panels.FeaturePanel
	banner  *widget.Label
	status  *widget.Label
	buttons map[interaction.Command]*widget.Button
}

// MainWindow is the primary application window. It shows the identity
// form until a session starts, then the map page.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	form *dialogs.IdentityForm

	mu     sync.Mutex
	page   *mapPage
	mode   interaction.Mode
	cursor *geometry.Point2D
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Ottermap")
	ctx, cancel := context.WithCancel(context.Background())

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		logger: state.Logger().With("component", "ui"),
		ctx:    ctx,
		cancel: cancel,
	}

	mw.form = dialogs.NewIdentityForm(p.String(prefs.KeyLastName), mw.onSubmit)
	mw.setupMenus()
	mw.setupEventHandlers()

	mw.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1024)),
		float32(p.FloatWithFallback(prefs.KeyWindowHeight, 720)),
	))
	mw.SetCloseIntercept(mw.onClose)
	mw.SetContent(mw.form.Container())
	return mw
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mapMenu := fyne.NewMenu("Map",
		fyne.NewMenuItem("Draw", func() { mw.execute(interaction.CommandDraw) }),
		fyne.NewMenuItem("Edit", func() { mw.execute(interaction.CommandEdit) }),
		fyne.NewMenuItem("Delete", func() { mw.execute(interaction.CommandDelete) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear All", func() { mw.execute(interaction.CommandClear) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Back to Start", mw.onBack),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(mapMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSessionStarted, func(data any) {
		if sess, ok := data.(*session.Session); ok {
			mw.showMap(sess)
		}
	})

	mw.state.On(app.EventMapReady, func(any) {
		mw.setButtonsEnabled(true)
		mw.updateStatus()
	})

	mw.state.On(app.EventModeChanged, func(data any) {
		if mode, ok := data.(interaction.Mode); ok {
			mw.mu.Lock()
			mw.mode = mode
			mw.mu.Unlock()
			mw.highlightMode(mode)
			mw.updateStatus()
		}
	})

	mw.state.On(app.EventFeaturesChanged, func(any) {
		if page := mw.currentPage(); page != nil {
			page.panel.Refresh()
		}
		mw.updateStatus()
	})

	mw.state.On(app.EventMapClosed, func(any) {
		mw.mu.Lock()
		mw.page = nil
		mw.mode = interaction.ModeNone
		mw.cursor = nil
		mw.mu.Unlock()
		mw.form.Reset()
		mw.SetContent(mw.form.Container())
	})

	mw.state.On(app.EventConfigReloaded, func(any) {
		mw.logger.Info("configuration reloaded")
	})
}

// onSubmit captures the location off the UI goroutine and opens the map.
func (mw *MainWindow) onSubmit(name, phone string) {
	mw.form.SetBusy(true, "Locating…")
	mw.prefs.SetString(prefs.KeyLastName, name)
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("saving preferences", "error", err)
	}

	cfg := mw.state.Config()
	go func() {
		loc := session.Capture(mw.ctx, cfg.NewLocator(), cfg.Locator.Timeout.Duration(), mw.logger)
		if mw.ctx.Err() != nil {
			return
		}
		sess, err := session.New(name, phone, loc)
		if err != nil {
			mw.form.SetBusy(false, err.Error())
			return
		}
		if err := mw.state.OpenMap(sess); err != nil {
			mw.logger.Error("opening map", "error", err)
			mw.state.CloseMap()
			mw.form.SetBusy(false, "")
			dialog.ShowError(err, mw.Window)
		}
	}()
}

// showMap builds the map page for sess. Commands stay disabled until the
// surface is ready.
func (mw *MainWindow) showMap(sess *session.Session) {
	surf := mw.state.Surface()
	store := mw.state.Store()
	if surf == nil || store == nil {
		return
	}

	page := &mapPage{
		canvas:  canvas.NewMapCanvas(surf),
		banner:  widget.NewLabelWithStyle(session.Greeting(sess), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		status:  widget.NewLabel(""),
		buttons: make(map[interaction.Command]*widget.Button, len(commandButtons)),
	}
	page.panel = panels.NewFeaturePanel(store, mw.copyToClipboard)
	page.canvas.OnPointer(func(coord geometry.Point2D) {
		mw.mu.Lock()
		mw.cursor = &coord
		mw.mu.Unlock()
		mw.updateStatus()
	})

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Back", theme.NavigateBackIcon(), mw.onBack),
		page.banner,
		layout.NewSpacer(),
	)
	for _, b := range commandButtons {
		cmd := b.cmd
		btn := widget.NewButtonWithIcon(b.label, b.icon, func() { mw.execute(cmd) })
		btn.Disable()
		page.buttons[cmd] = btn
		toolbar.Add(btn)
	}

	split := container.NewHSplit(page.canvas, page.panel.Container())
	split.SetOffset(0.78)

	content := container.NewBorder(
		container.NewPadded(toolbar),     // top
		container.NewPadded(page.status), // bottom
		nil,                              // left
		nil,                              // right
		split,                            // center
	)

	mw.mu.Lock()
	mw.page = page
	mw.mode = interaction.ModeNone
	mw.cursor = nil
	mw.mu.Unlock()

	mw.SetContent(content)
	mw.updateStatus()
}

func (mw *MainWindow) currentPage() *mapPage {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.page
}

func (mw *MainWindow) setButtonsEnabled(enabled bool) {
	page := mw.currentPage()
	if page == nil {
		return
	}
	for _, btn := range page.buttons {
		if enabled {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
}

// highlightMode marks the button of the active mode.
func (mw *MainWindow) highlightMode(mode interaction.Mode) {
	page := mw.currentPage()
	if page == nil {
		return
	}
	active, ok := commandFor(mode)
	for cmd, btn := range page.buttons {
		importance := widget.MediumImportance
		if ok && cmd == active {
			importance = widget.HighImportance
		}
		if btn.Importance != importance {
			btn.Importance = importance
			btn.Refresh()
		}
	}
}

func commandFor(mode interaction.Mode) (interaction.Command, bool) {
	switch mode {
	case interaction.ModeDraw:
		return interaction.CommandDraw, true
	case interaction.ModeModify:
		return interaction.CommandEdit, true
	case interaction.ModeDeleteSelect:
		return interaction.CommandDelete, true
	default:
		return 0, false
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus() {
	mw.mu.Lock()
	page, mode, cursor := mw.page, mw.mode, mw.cursor
	mw.mu.Unlock()
	if page == nil {
		return
	}

	count := 0
	if store := mw.state.Store(); store != nil {
		count = store.Len()
	}
	text := fmt.Sprintf("Mode: %s   Polygons: %d", mode, count)
	if cursor != nil {
		ll := surface.ToLatLon(*cursor)
		text += fmt.Sprintf("   %.5f, %.5f", ll.Lat, ll.Lon)
	}
	page.status.SetText(text)
}

func (mw *MainWindow) execute(cmd interaction.Command) {
	if err := mw.state.Execute(cmd); err != nil {
		if errors.Is(err, app.ErrNoMap) || errors.Is(err, surface.ErrSurfaceNotReady) {
			return
		}
		mw.logger.Error("command failed", "command", cmd, "error", err)
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) copyToClipboard(geojson string) {
	mw.Clipboard().SetContent(geojson)
	if page := mw.currentPage(); page != nil {
		page.status.SetText("GeoJSON copied to clipboard")
	}
}

func (mw *MainWindow) onBack() {
	mw.state.CloseMap()
}

func (mw *MainWindow) onClose() {
	mw.cancel()
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("saving preferences", "error", err)
	}
	mw.state.CloseMap()
	mw.Close()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Ottermap",
		fmt.Sprintf("Ottermap v%s\n\n"+
			"Draw, edit and delete polygon annotations on a map.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
