//go:build gui

package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// FyneApp is the desktop panel: a frameless splash window pinned to the
// bottom center of the primary monitor that never takes keyboard focus.
type FyneApp struct {
	fyneApp fyne.App
	window  fyne.Window
	panel   *PanelWidget
	posX    int
	posY    int
}

func NewFyneApp() *FyneApp { return &FyneApp{} }

func (a *FyneApp) Run() error {
	a.fyneApp = app.NewWithID("io.voco.panel")
	a.fyneApp.Settings().SetTheme(&panelTheme{})

	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("voco")
	}

	a.panel = NewPanelWidget()
	a.window.SetContent(a.panel)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)

	size := a.panel.MinSize()
	a.window.Resize(size)

	// Bottom center, with a margin for the dock/taskbar.
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = screenH - int(size.Height) - 20

	// Event loop runs with the window hidden until the first Show.
	a.fyneApp.Run()
	return nil
}

func (a *FyneApp) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

func (a *FyneApp) Show() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		// Position and mark the window non-focusing before it appears.
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(a.posX, a.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
		} else {
			a.window.Show()
		}
	})
}

func (a *FyneApp) Hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
		if a.panel != nil {
			a.panel.SetContent(Content{})
		}
	})
}

func (a *FyneApp) Update(c Content) {
	if a.panel != nil {
		a.panel.SetContent(c)
	}
}
