package dialogs

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestIdentityFormPrefillsName(t *testing.T) {
	test.NewApp()
	f := NewIdentityForm("Ada", nil)
	name, phone := f.Values()
	assert.Equal(t, "Ada", name)
	assert.Empty(t, phone)
}

func TestIdentityFormRequiresBothFields(t *testing.T) {
	test.NewApp()
	var calls int
	f := NewIdentityForm("", func(string, string) { calls++ })

	test.Type(f.nameEntry, "Ada")
	test.Tap(f.submitBtn)
	assert.Zero(t, calls)
	assert.Contains(t, f.status.Text, "mobile number")

	test.Type(f.phoneEntry, "   ")
	test.Tap(f.submitBtn)
	assert.Zero(t, calls)
}

func TestIdentityFormSubmit(t *testing.T) {
	test.NewApp()
	var gotName, gotPhone string
	f := NewIdentityForm("", func(name, phone string) {
		gotName, gotPhone = name, phone
	})

	test.Type(f.nameEntry, "Ada")
	test.Type(f.phoneEntry, "+44 7700 900123")
	test.Tap(f.submitBtn)
	assert.Equal(t, "Ada", gotName)
	assert.Equal(t, "+44 7700 900123", gotPhone)
}

func TestIdentityFormBusy(t *testing.T) {
	test.NewApp()
	var calls int
	f := NewIdentityForm("Ada", func(string, string) { calls++ })
	test.Type(f.phoneEntry, "555")

	f.SetBusy(true, "Locating…")
	assert.True(t, f.submitBtn.Disabled())
	assert.True(t, f.nameEntry.Disabled())
	assert.Equal(t, "Locating…", f.status.Text)
	f.submit()
	assert.Zero(t, calls)

	f.Reset()
	assert.False(t, f.submitBtn.Disabled())
	assert.Empty(t, f.status.Text)
	_, phone := f.Values()
	assert.Empty(t, phone)
}
