package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type trayCallbacks struct {
	OnToggle func()
	OnShow   func()
	OnQuit   func()
}

// trayMenu mirrors run state in the system tray.
type trayMenu struct {
	app        desktop.App
	callbacks  trayCallbacks
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
}

func newTrayMenu(app desktop.App, callbacks trayCallbacks) *trayMenu {
	menu := &trayMenu{app: app, callbacks: callbacks}

	menu.statusItem = fyne.NewMenuItem("Status: stopped", nil)
	menu.statusItem.Disabled = true
	menu.toggleItem = fyne.NewMenuItem("Start clicking", func() {
		if menu.callbacks.OnToggle != nil {
			menu.callbacks.OnToggle()
		}
	})

	menu.refresh()
	return menu
}

func (m *trayMenu) setRunning(running bool) {
	if running {
		m.statusItem.Label = "Status: running"
		m.toggleItem.Label = "Stop clicking"
	} else {
		m.statusItem.Label = "Status: stopped"
		m.toggleItem.Label = "Start clicking"
	}
	m.refresh()
}

func (m *trayMenu) refresh() {
	quit := fyne.NewMenuItem("Quit", func() {
		if m.callbacks.OnQuit != nil {
			m.callbacks.OnQuit()
		}
	})
	quit.IsQuit = true

	m.app.SetSystemTrayMenu(fyne.NewMenu("speedclicker",
		m.statusItem,
		m.toggleItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show window", func() {
			if m.callbacks.OnShow != nil {
				m.callbacks.OnShow()
			}
		}),
		quit,
	))
}
