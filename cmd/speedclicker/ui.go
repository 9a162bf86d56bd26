package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"speedclicker/internal/core/autoclicker"
	"speedclicker/internal/settings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	statusRefreshInterval = 100 * time.Millisecond
	maxUILogLines         = 50
)

var (
	buttonLabels = map[autoclicker.Button]string{
		autoclicker.ButtonPrimary:   "Left",
		autoclicker.ButtonSecondary: "Right",
		autoclicker.ButtonTertiary:  "Middle",
	}
	buttonOrder = []autoclicker.Button{
		autoclicker.ButtonPrimary,
		autoclicker.ButtonSecondary,
		autoclicker.ButtonTertiary,
	}
	modeLabels = map[autoclicker.ActivationMode]string{
		autoclicker.ModeToggle: "Toggle",
		autoclicker.ModeHold:   "Hold",
	}
)

type clickerTheme struct {
	base fyne.Theme
}

func newClickerTheme() fyne.Theme {
	return &clickerTheme{base: theme.DarkTheme()}
}

func (t *clickerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x10, G: 0x12, B: 0x17, A: 0xff}
	case theme.ColorNameHeaderBackground:
		return color.NRGBA{R: 0x15, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x20, G: 0x25, B: 0x2e, A: 0xff}
	case theme.ColorNameDisabledButton:
		return color.NRGBA{R: 0x18, G: 0x1b, B: 0x21, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x16, G: 0x1a, B: 0x21, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2e, G: 0x35, B: 0x42, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0xff}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0x66}
	case theme.ColorNameHover:
		return color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0x22}
	case theme.ColorNamePressed:
		return color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0x40}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0x44}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xf0, G: 0xf2, B: 0xf6, A: 0xff}
	case theme.ColorNamePlaceHolder:
		return color.NRGBA{R: 0xa4, G: 0xad, B: 0xbb, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x78, B: 0x78, A: 0xff}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x7f, G: 0xd4, B: 0xa8, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *clickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *clickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *clickerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding:
		return 8
	case theme.SizeNameInputRadius:
		return 6
	}
	return t.base.Size(name)
}

// displayHotkey turns a key token into a button caption: "page_up" becomes
// "Page Up", "f6" becomes "F6".
func displayHotkey(token string) string {
	if token == "" {
		return "-"
	}
	parts := strings.Split(token, "_")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+part[1:])
	}
	if len(words) == 0 {
		return token
	}
	return strings.Join(words, " ")
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

type logPane struct {
	enabled bool
	grid    *widget.TextGrid
	scroll  *container.Scroll

	mu    sync.Mutex
	lines []string
}

func newLogPane() *logPane {
	grid := widget.NewTextGrid()
	scroll := container.NewVScroll(grid)
	scroll.SetMinSize(fyne.NewSize(0, 140))
	return &logPane{
		enabled: debugLogsEnabled(),
		grid:    grid,
		scroll:  scroll,
		lines:   make([]string, 0, maxUILogLines),
	}
}

func (p *logPane) append(line string) {
	if !p.enabled {
		return
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	p.mu.Lock()
	p.lines = append(p.lines, line)
	if len(p.lines) > maxUILogLines {
		p.lines = p.lines[len(p.lines)-maxUILogLines:]
	}
	text := strings.Join(p.lines, "\n")
	p.mu.Unlock()

	fyne.Do(func() {
		p.grid.SetText(text)
		p.scroll.ScrollToBottom()
	})
}

// clickerPanel owns the window widgets. Handlers run on the Fyne goroutine;
// sess is guarded because the quit path reads it from signal handlers too.
type clickerPanel struct {
	window fyne.Window
	store  *settings.Store
	logger autoclicker.Logger

	mu   sync.Mutex
	sess *session

	intervalEntry *widget.Entry
	cpsLabel      *widget.Label
	dutyEntry     *widget.Entry
	dutySlider    *widget.Slider
	buttonSelect  *widget.Select
	modeRadio     *widget.RadioGroup
	hotkeyBtn     *widget.Button
	limitCheck    *widget.Check
	limitEntry    *widget.Entry
	startBtn      *widget.Button
	stopBtn       *widget.Button
	statusText    *canvas.Text
	clicksLabel   *widget.Label
	errorText     *canvas.Text
	initProgress  *widget.ProgressBarInfinite

	tray *trayMenu

	syncing     bool
	recording   bool
	lastRunning bool
	lastRunErr  string
}

func newClickerPanel(window fyne.Window, store *settings.Store, logger autoclicker.Logger) *clickerPanel {
	p := &clickerPanel{window: window, store: store, logger: logger}

	p.intervalEntry = widget.NewEntry()
	p.intervalEntry.OnChanged = p.onIntervalChanged
	p.cpsLabel = widget.NewLabel("")
	p.cpsLabel.TextStyle = fyne.TextStyle{Bold: true}

	p.dutyEntry = widget.NewEntry()
	p.dutyEntry.OnChanged = p.onDutyEntryChanged
	p.dutySlider = widget.NewSlider(settings.MinDutyCycle, settings.MaxDutyCycle)
	p.dutySlider.Step = 1
	p.dutySlider.OnChanged = p.onDutySliderChanged

	labels := make([]string, 0, len(buttonOrder))
	for _, button := range buttonOrder {
		labels = append(labels, buttonLabels[button])
	}
	p.buttonSelect = widget.NewSelect(labels, p.onButtonSelected)

	p.modeRadio = widget.NewRadioGroup([]string{modeLabels[autoclicker.ModeToggle], modeLabels[autoclicker.ModeHold]}, p.onModeSelected)
	p.modeRadio.Horizontal = true
	p.modeRadio.Required = true

	p.hotkeyBtn = widget.NewButton("", p.onHotkeyTapped)
	p.hotkeyBtn.Importance = widget.MediumImportance

	p.limitCheck = widget.NewCheck("Stop after", p.onLimitToggled)
	p.limitEntry = widget.NewEntry()
	p.limitEntry.OnChanged = p.onLimitCountChanged

	p.startBtn = widget.NewButton("Start", p.start)
	p.startBtn.Importance = widget.HighImportance
	p.stopBtn = widget.NewButton("Stop", p.stop)

	p.statusText = canvas.NewText("STOPPED", theme.Color(theme.ColorNamePlaceHolder))
	p.statusText.TextStyle = fyne.TextStyle{Bold: true}
	p.statusText.TextSize = 22
	p.clicksLabel = widget.NewLabel("Clicks: 0")

	p.errorText = canvas.NewText("", theme.Color(theme.ColorNameError))
	p.initProgress = widget.NewProgressBarInfinite()

	p.loadFromStore()
	p.setControlsReady(false)
	return p
}

func (p *clickerPanel) content(logs *logPane) fyne.CanvasObject {
	titleText := canvas.NewText("SPEEDCLICKER", color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0xff})
	titleText.TextStyle = fyne.TextStyle{Bold: true}
	titleText.TextSize = 28

	accentLine := canvas.NewRectangle(color.NRGBA{R: 0xff, G: 0xb0, B: 0x3b, A: 0xff})
	accentLine.SetMinSize(fyne.NewSize(220, 3))

	timing := widget.NewForm(
		widget.NewFormItem("Interval (ms)", container.NewBorder(nil, nil, nil, p.cpsLabel, p.intervalEntry)),
		widget.NewFormItem("Duty cycle (%)", container.NewBorder(nil, nil, nil, container.NewGridWrap(fyne.NewSize(70, 36), p.dutyEntry), p.dutySlider)),
	)
	activation := widget.NewForm(
		widget.NewFormItem("Button", p.buttonSelect),
		widget.NewFormItem("Mode", p.modeRadio),
		widget.NewFormItem("Hotkey", p.hotkeyBtn),
		widget.NewFormItem("Limit", container.NewBorder(nil, nil, p.limitCheck, widget.NewLabel("clicks"), p.limitEntry)),
	)
	cards := container.NewGridWithColumns(2,
		widget.NewCard("Timing", "", timing),
		widget.NewCard("Activation", "", activation),
	)

	statusRow := container.NewHBox(p.statusText, p.clicksLabel)
	buttons := container.NewGridWithColumns(2, p.startBtn, p.stopBtn)

	mainPanel := container.NewPadded(container.NewVBox(
		titleText,
		accentLine,
		cards,
		statusRow,
		p.errorText,
		p.initProgress,
		buttons,
	))
	if !logs.enabled {
		return mainPanel
	}
	split := container.NewVSplit(mainPanel, widget.NewCard("Logs", "", logs.scroll))
	split.SetOffset(0.72)
	return split
}

// loadFromStore copies the stored settings into the widgets without firing
// their change handlers.
func (p *clickerPanel) loadFromStore() {
	cfg := p.store.Snapshot()

	p.syncing = true
	defer func() { p.syncing = false }()

	p.intervalEntry.SetText(formatNumber(cfg.IntervalMS))
	p.dutyEntry.SetText(formatNumber(cfg.DutyCyclePercent))
	p.dutySlider.SetValue(cfg.DutyCyclePercent)
	p.buttonSelect.SetSelected(buttonLabels[cfg.Button])
	p.modeRadio.SetSelected(modeLabels[cfg.ActivationMode])
	p.hotkeyBtn.SetText(displayHotkey(cfg.Hotkey))
	p.limitCheck.SetChecked(cfg.ClickLimit.Enabled)
	p.limitEntry.SetText(strconv.Itoa(cfg.ClickLimit.Count))
	if cfg.ClickLimit.Enabled {
		p.limitEntry.Enable()
	} else {
		p.limitEntry.Disable()
	}
	p.refreshCPS()
}

func (p *clickerPanel) refreshCPS() {
	p.cpsLabel.SetText(fmt.Sprintf("%.1f CPS", p.store.Snapshot().CPS()))
}

func (p *clickerPanel) showError(msg string) {
	p.errorText.Text = msg
	p.errorText.Refresh()
}

func (p *clickerPanel) reportEdit(field string, err error) {
	if err != nil {
		p.logger.Debug("Rejected settings edit", "field", field, "err", err)
		p.showError(fmt.Sprintf("%s: %v", field, err))
		return
	}
	p.showError("")
}

func (p *clickerPanel) onIntervalChanged(text string) {
	if p.syncing {
		return
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		p.reportEdit("Interval", fmt.Errorf("%w: %q is not a number", settings.ErrInvalidValue, text))
		return
	}
	p.reportEdit("Interval", p.store.SetIntervalMS(ms))
	p.refreshCPS()
}

func (p *clickerPanel) onDutyEntryChanged(text string) {
	if p.syncing {
		return
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		p.reportEdit("Duty cycle", fmt.Errorf("%w: %q is not a number", settings.ErrInvalidValue, text))
		return
	}
	if err := p.store.SetDutyCycle(percent); err != nil {
		p.reportEdit("Duty cycle", err)
		return
	}
	p.reportEdit("Duty cycle", nil)
	p.syncing = true
	p.dutySlider.SetValue(percent)
	p.syncing = false
}

func (p *clickerPanel) onDutySliderChanged(value float64) {
	if p.syncing {
		return
	}
	if err := p.store.SetDutyCycle(value); err != nil {
		p.reportEdit("Duty cycle", err)
		return
	}
	p.reportEdit("Duty cycle", nil)
	p.syncing = true
	p.dutyEntry.SetText(formatNumber(value))
	p.syncing = false
}

func (p *clickerPanel) onButtonSelected(label string) {
	if p.syncing {
		return
	}
	for button, name := range buttonLabels {
		if name == label {
			p.reportEdit("Button", p.store.SetButton(button))
			return
		}
	}
}

func (p *clickerPanel) onModeSelected(label string) {
	if p.syncing {
		return
	}
	for mode, name := range modeLabels {
		if name == label {
			p.reportEdit("Mode", p.store.SetActivationMode(mode))
			return
		}
	}
}

func (p *clickerPanel) onLimitToggled(enabled bool) {
	if p.syncing {
		return
	}
	p.reportEdit("Click limit", p.store.SetClickLimitEnabled(enabled))
	if enabled {
		p.limitEntry.Enable()
	} else {
		p.limitEntry.Disable()
	}
}

func (p *clickerPanel) onLimitCountChanged(text string) {
	if p.syncing {
		return
	}
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		p.reportEdit("Click limit", fmt.Errorf("%w: %q is not a whole number", settings.ErrInvalidValue, text))
		return
	}
	p.reportEdit("Click limit", p.store.SetClickLimitCount(count))
}

// onHotkeyTapped arms recording: the next key typed into the window becomes
// the hotkey. Tapping again cancels.
func (p *clickerPanel) onHotkeyTapped() {
	c := p.window.Canvas()
	if p.recording {
		p.recording = false
		c.SetOnTypedKey(nil)
		p.hotkeyBtn.SetText(displayHotkey(p.store.Snapshot().Hotkey))
		return
	}

	p.recording = true
	c.Unfocus()
	p.hotkeyBtn.SetText("Press a key...")
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		p.recording = false
		c.SetOnTypedKey(nil)
		p.reportEdit("Hotkey", p.applyHotkey(string(ev.Name)))
		p.hotkeyBtn.SetText(displayHotkey(p.store.Snapshot().Hotkey))
	})
}

func (p *clickerPanel) applyHotkey(name string) error {
	if sess := p.session(); sess != nil {
		return sess.setHotkey(name)
	}
	return p.store.SetHotkey(name)
}

func (p *clickerPanel) session() *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

func (p *clickerPanel) setSession(sess *session) {
	p.mu.Lock()
	p.sess = sess
	p.mu.Unlock()
}

func (p *clickerPanel) setControlsReady(ready bool) {
	if ready {
		p.startBtn.Enable()
		p.stopBtn.Enable()
		p.initProgress.Hide()
		return
	}
	p.startBtn.Disable()
	p.stopBtn.Disable()
}

func (p *clickerPanel) start() {
	sess := p.session()
	if sess == nil {
		return
	}
	if err := sess.engine.Start(); err != nil && !errors.Is(err, autoclicker.ErrAlreadyRunning) {
		p.showError(fmt.Sprintf("Start failed: %v", err))
		return
	}
	p.showError("")
}

func (p *clickerPanel) stop() {
	sess := p.session()
	if sess == nil {
		return
	}
	if err := sess.engine.Stop(); err != nil && !errors.Is(err, autoclicker.ErrNotRunning) {
		p.showError(fmt.Sprintf("Stop failed: %v", err))
	}
}

func (p *clickerPanel) toggle() {
	sess := p.session()
	if sess == nil {
		return
	}
	if err := sess.engine.Toggle(); err != nil {
		p.showError(fmt.Sprintf("Toggle failed: %v", err))
	}
}

// refreshStatus mirrors engine state into the window and tray. It runs on
// every status tick.
func (p *clickerPanel) refreshStatus() {
	sess := p.session()
	if sess == nil {
		return
	}
	status := sess.engine.Status()

	p.clicksLabel.SetText(fmt.Sprintf("Clicks: %d", status.Clicks))
	if status.Running != p.lastRunning {
		p.lastRunning = status.Running
		if status.Running {
			p.statusText.Text = "RUNNING"
			p.statusText.Color = theme.Color(theme.ColorNameSuccess)
		} else {
			p.statusText.Text = "STOPPED"
			p.statusText.Color = theme.Color(theme.ColorNamePlaceHolder)
		}
		p.statusText.Refresh()
		if p.tray != nil {
			p.tray.setRunning(status.Running)
		}
	}
	if status.Err != nil && status.Err.Error() != p.lastRunErr {
		p.lastRunErr = status.Err.Error()
		p.showError(fmt.Sprintf("Last run failed: %v", status.Err))
	}
}

func backendErrorText(err error) string {
	switch {
	case isPermissionError(err):
		return permissionDeniedHint()
	case errors.Is(err, syscall.EBUSY) || strings.Contains(strings.ToLower(err.Error()), "device or resource busy"):
		return "Input device is in use by another app. Close the other app and try again."
	default:
		return err.Error()
	}
}

func runUI(opts options) error {
	fApp := app.NewWithID("io.speedclicker")
	fApp.Settings().SetTheme(newClickerTheme())

	window := fApp.NewWindow("speedclicker")
	window.Resize(fyne.NewSize(760, 500))
	window.CenterOnScreen()

	logs := newLogPane()
	logger := newSlogLogger(os.Stderr, opts.logLevel, logs.append)
	store := settings.Open(opts.settingsPath, logger)
	panel := newClickerPanel(window, store, logger)

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			if sess := panel.session(); sess != nil {
				sess.Close()
			}
		})
	}
	requestQuit := func() {
		fyne.Do(func() {
			cleanup()
			fApp.Quit()
		})
	}

	if desktopApp, ok := fApp.(desktop.App); ok {
		panel.tray = newTrayMenu(desktopApp, trayCallbacks{
			OnToggle: panel.toggle,
			OnShow: func() {
				window.Show()
				window.RequestFocus()
			},
			OnQuit: requestQuit,
		})
		window.SetCloseIntercept(func() {
			window.Hide()
		})
	} else {
		logger.Warn("System tray unsupported; closing the window quits")
		window.SetCloseIntercept(func() {
			cleanup()
			fApp.Quit()
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		requestQuit()
	}()

	// Some GUI backends can leave Ctrl+C as raw ETX byte instead of SIGINT.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 1 && buf[0] == 3 {
				requestQuit()
				return
			}
		}
	}()

	logger.Info("Opening input backend", "backend", opts.backend)
	go func() {
		sess, err := openSession(opts, store, logger)
		fyne.Do(func() {
			if err != nil {
				panel.initProgress.Hide()
				panel.showError(backendErrorText(err))
				logger.Error("Failed to open input backend", "err", err)
				return
			}
			panel.setSession(sess)
			panel.setControlsReady(true)
		})
	}()

	stopTicker := make(chan struct{})
	defer close(stopTicker)
	go func() {
		ticker := time.NewTicker(statusRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopTicker:
				return
			case <-ticker.C:
				fyne.Do(panel.refreshStatus)
			}
		}
	}()

	window.SetContent(panel.content(logs))
	window.ShowAndRun()
	cleanup()
	return nil
}
