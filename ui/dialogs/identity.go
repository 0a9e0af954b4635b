// Package dialogs provides the entry form shown before the map.
package dialogs

import (
	"image/color"

	"ottermap/internal/session"
	"ottermap/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// IdentityForm asks for the user's display name and mobile number.
type IdentityForm struct {
	nameEntry  *widget.Entry
	phoneEntry *widget.Entry
	submitBtn  *widget.Button
	status     *widget.Label
	content    fyne.CanvasObject

	onSubmit func(name, phone string)
}

// NewIdentityForm creates the form, prefilling the name. onSubmit is called
// with the trimmed values once both are present.
func NewIdentityForm(lastName string, onSubmit func(name, phone string)) *IdentityForm {
	f := &IdentityForm{onSubmit: onSubmit}

	f.nameEntry = widget.NewEntry()
	f.nameEntry.SetPlaceHolder("Your name")
	f.nameEntry.SetText(lastName)
	f.nameEntry.OnSubmitted = func(string) { f.submit() }

	f.phoneEntry = widget.NewEntry()
	f.phoneEntry.SetPlaceHolder("Mobile number")
	f.phoneEntry.OnSubmitted = func(string) { f.submit() }

	f.submitBtn = widget.NewButton("Continue", f.submit)
	f.submitBtn.Importance = widget.HighImportance

	f.status = widget.NewLabel("")
	f.status.Wrapping = fyne.TextWrapWord

	title := fynecanvas.NewText("Ottermap", colorutil.White)
	title.TextSize = 26
	title.TextStyle = fyne.TextStyle{Bold: true}
	subtitle := fynecanvas.NewText("Enter your details to start mapping", color.NRGBA{R: 0xdd, G: 0xe6, B: 0xf5, A: 0xff})

	form := widget.NewForm(
		widget.NewFormItem("Name", f.nameEntry),
		widget.NewFormItem("Mobile", f.phoneEntry),
	)

	card := widget.NewCard("", "", container.NewVBox(form, f.submitBtn, f.status))
	panel := container.NewVBox(
		container.NewCenter(title),
		container.NewCenter(subtitle),
		card,
	)

	background := fynecanvas.NewHorizontalGradient(colorutil.DeepBlue, colorutil.RoyalBlue)
	f.content = container.NewStack(background, container.NewCenter(
		container.New(&minWidth{width: 360}, panel),
	))
	return f
}

// Container returns the form page.
func (f *IdentityForm) Container() fyne.CanvasObject {
	return f.content
}

// Values returns the entered name and number, untrimmed.
func (f *IdentityForm) Values() (name, phone string) {
	return f.nameEntry.Text, f.phoneEntry.Text
}

// SetBusy disables the form while the location is looked up.
func (f *IdentityForm) SetBusy(busy bool, message string) {
	if busy {
		f.nameEntry.Disable()
		f.phoneEntry.Disable()
		f.submitBtn.Disable()
	} else {
		f.nameEntry.Enable()
		f.phoneEntry.Enable()
		f.submitBtn.Enable()
	}
	f.status.SetText(message)
}

// Reset clears the number and any message, keeping the name.
func (f *IdentityForm) Reset() {
	f.phoneEntry.SetText("")
	f.SetBusy(false, "")
}

func (f *IdentityForm) submit() {
	if f.submitBtn.Disabled() {
		return
	}
	name, phone := f.Values()
	if _, err := session.New(name, phone, nil); err != nil {
		f.status.SetText(err.Error())
		return
	}
	if f.onSubmit != nil {
		f.onSubmit(name, phone)
	}
}

// minWidth stacks its objects and keeps them at least width wide.
type minWidth struct {
	width float32
}

func (l *minWidth) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var size fyne.Size
	for _, o := range objects {
		size = size.Max(o.MinSize())
	}
	if size.Width < l.width {
		size.Width = l.width
	}
	return size
}

func (l *minWidth) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
}
