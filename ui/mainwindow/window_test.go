package mainwindow

import (
	"testing"
	"time"

	"ottermap/internal/app"
	"ottermap/internal/config"
	"ottermap/internal/interaction"
	"ottermap/ui/prefs"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWindow(t *testing.T) (*MainWindow, *app.State, *prefs.Prefs) {
	t.Helper()
	cfg := config.Default()
	cfg.Locator.Mode = "static"
	cfg.Locator.Lat = 51.5
	cfg.Locator.Lon = -0.12

	state, err := app.NewState(cfg, nil, nil)
	require.NoError(t, err)
	p := prefs.LoadFrom(t.TempDir())
	mw := New(test.NewApp(), state, p)
	t.Cleanup(state.CloseMap)
	return mw, state, p
}

func openMap(t *testing.T, mw *MainWindow) *mapPage {
	t.Helper()
	mw.onSubmit("Ada", "07700 900123")
	require.Eventually(t, func() bool {
		page := mw.currentPage()
		return page != nil && !page.buttons[interaction.CommandDraw].Disabled()
	}, 2*time.Second, 10*time.Millisecond)
	return mw.currentPage()
}

func TestStartsOnForm(t *testing.T) {
	mw, state, _ := newWindow(t)
	assert.Same(t, mw.form.Container(), mw.Content())
	assert.Nil(t, mw.currentPage())
	assert.Nil(t, state.Session())
}

func TestSubmitOpensMap(t *testing.T) {
	mw, state, p := newWindow(t)
	page := openMap(t, mw)

	assert.Equal(t, "Welcome, Ada", page.banner.Text)
	require.NotNil(t, state.Session())
	loc, ok := state.Session().Location()
	require.True(t, ok)
	assert.Equal(t, 51.5, loc.Lat)
	assert.Equal(t, "Ada", p.String(prefs.KeyLastName))
	assert.Contains(t, page.status.Text, "Mode: none")
}

func TestModeButtons(t *testing.T) {
	mw, state, _ := newWindow(t)
	page := openMap(t, mw)

	test.Tap(page.buttons[interaction.CommandDraw])
	assert.Equal(t, interaction.ModeDraw, state.Controller().Mode())
	assert.Equal(t, widget.HighImportance, page.buttons[interaction.CommandDraw].Importance)
	assert.Contains(t, page.status.Text, "Mode: draw")

	test.Tap(page.buttons[interaction.CommandEdit])
	assert.Equal(t, interaction.ModeModify, state.Controller().Mode())
	assert.Equal(t, widget.MediumImportance, page.buttons[interaction.CommandDraw].Importance)
	assert.Equal(t, widget.HighImportance, page.buttons[interaction.CommandEdit].Importance)

	test.Tap(page.buttons[interaction.CommandClear])
	assert.Equal(t, interaction.ModeModify, state.Controller().Mode(), "clear keeps the mode")
	assert.Contains(t, page.status.Text, "Polygons: 0")
}

func TestBackReturnsToForm(t *testing.T) {
	mw, state, _ := newWindow(t)
	openMap(t, mw)

	mw.onBack()
	assert.Nil(t, state.Session())
	assert.Nil(t, mw.currentPage())
	assert.Same(t, mw.form.Container(), mw.Content())
	_, phone := mw.form.Values()
	assert.Empty(t, phone)
}

func TestCommandFor(t *testing.T) {
	cmd, ok := commandFor(interaction.ModeModify)
	assert.True(t, ok)
	assert.Equal(t, interaction.CommandEdit, cmd)
	_, ok = commandFor(interaction.ModeNone)
	assert.False(t, ok)
}
