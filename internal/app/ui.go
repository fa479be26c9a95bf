package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/healthnavigator/navigator"
)

const (
	windowTitle       = "Health Navigator"
	instructionText   = "Select your symptoms from the list below:"
	emptySelectionMsg = "Please select at least one symptom."
	historyLimit      = 50
	suggestLimit      = 5
)

type uiState struct {
	service *navigator.Service
	cfg     navigator.Config
	logger  *zap.Logger

	w          fyne.Window
	search     *widget.Entry
	checks     []*widget.Check
	describe   *widget.Entry
	suggestBtn *widget.Button
	predictBtn *widget.Button
	result     *widget.Label
	status     *widget.Label
	newBtn     *widget.Button
	exitBtn    *widget.Button
	historyBtn *widget.Button
	logView    *widget.Entry

	// quit closes the application. runAsync starts background work and
	// onMain brings its result back to the UI goroutine. inform shows a
	// titled message dialog.
	quit     func()
	runAsync func(func())
	onMain   func(func())
	inform   func(title, message string)
}

func buildUI(a fyne.App, svc *navigator.Service, logs binding.String, logger *zap.Logger) *uiState {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &uiState{
		service:  svc,
		cfg:      svc.Config(),
		logger:   logger,
		quit:     a.Quit,
		runAsync: func(fn func()) { go fn() },
		onMain:   fyne.Do,
	}
	u.w = a.NewWindow(windowTitle)
	u.inform = func(title, message string) { dialog.ShowInformation(title, message, u.w) }

	title := widget.NewLabelWithStyle(windowTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	instruction := widget.NewLabel(instructionText)

	u.search = widget.NewEntry()
	u.search.SetPlaceHolder("Type to filter symptoms")
	u.search.OnChanged = u.applyFilter

	symptoms := svc.Symptoms()
	u.checks = make([]*widget.Check, len(symptoms))
	checkObjs := make([]fyne.CanvasObject, len(symptoms))
	for i, name := range symptoms {
		u.checks[i] = widget.NewCheck(name, nil)
		checkObjs[i] = u.checks[i]
	}
	checklist := container.NewVScroll(container.NewVBox(checkObjs...))
	checklist.SetMinSize(fyne.NewSize(0, 260))

	u.describe = widget.NewEntry()
	u.describe.SetPlaceHolder("Describe how you feel, e.g. runny nose and a headache")
	u.suggestBtn = widget.NewButtonWithIcon("Suggest", theme.SearchIcon(), u.onSuggest)
	u.describe.OnSubmitted = func(string) { u.onSuggest() }

	u.predictBtn = widget.NewButtonWithIcon("Predict Disease", theme.ConfirmIcon(), u.onPredict)
	u.result = widget.NewLabel("")
	u.result.Wrapping = fyne.TextWrapWord

	u.newBtn = widget.NewButtonWithIcon("New Prediction", theme.ContentClearIcon(), u.onNewPrediction)
	u.exitBtn = widget.NewButtonWithIcon("Exit", theme.CancelIcon(), func() { u.quit() })
	u.newBtn.Hide()
	u.exitBtn.Hide()

	u.historyBtn = widget.NewButtonWithIcon("History", theme.HistoryIcon(), u.onHistory)
	if !svc.HistoryEnabled() {
		u.historyBtn.Disable()
	}

	info := svc.ModelInfo()
	u.status = widget.NewLabel(fmt.Sprintf("Trained on %d rows: %d symptoms, %d diseases", info.Rows, info.Features, info.Classes))

	u.logView = widget.NewEntryWithData(logs)
	u.logView.MultiLine = true
	u.logView.Wrapping = fyne.TextWrapWord
	u.logView.SetMinRowsVisible(6)
	u.logView.Disable()
	logPanel := widget.NewAccordion(widget.NewAccordionItem("Log", u.logView))

	searchRow := container.NewBorder(nil, nil, widget.NewLabel("Search Symptoms:"), nil, u.search)
	describeRow := container.NewBorder(nil, nil, widget.NewLabel("Describe symptoms:"), u.suggestBtn, u.describe)
	actions := container.NewHBox(u.newBtn, u.exitBtn)

	content := container.NewVBox(
		title,
		instruction,
		searchRow,
		checklist,
		describeRow,
		container.NewGridWithColumns(2, u.predictBtn, u.historyBtn),
		u.result,
		actions,
		widget.NewSeparator(),
		u.status,
		logPanel,
	)
	u.w.SetContent(container.NewVScroll(content))
	u.w.Resize(fyne.NewSize(u.cfg.UI.Width, u.cfg.UI.Height))
	u.w.SetFixedSize(true)
	return u
}

// applyFilter shows only the checks whose symptom contains query.
func (u *uiState) applyFilter(query string) {
	visible := make(map[string]struct{})
	for _, name := range u.service.FilterSymptoms(query) {
		visible[name] = struct{}{}
	}
	for _, c := range u.checks {
		if _, ok := visible[c.Text]; ok {
			c.Show()
		} else {
			c.Hide()
		}
	}
}

func (u *uiState) selectedSymptoms() []string {
	out := make([]string, 0, len(u.checks))
	for _, c := range u.checks {
		if c.Checked {
			out = append(out, c.Text)
		}
	}
	return out
}

func (u *uiState) onPredict() {
	d, err := u.service.Diagnose(context.Background(), u.selectedSymptoms())
	if err != nil {
		if errors.Is(err, navigator.ErrNoSymptoms) {
			u.inform("Input Error", emptySelectionMsg)
			return
		}
		u.logger.Error("diagnosis failed", zap.Error(err))
		dialog.ShowError(err, u.w)
		return
	}
	u.result.SetText(d.Text())
	u.newBtn.Show()
	u.exitBtn.Show()
}

func (u *uiState) onNewPrediction() {
	for _, c := range u.checks {
		c.SetChecked(false)
	}
	u.result.SetText("")
	u.newBtn.Hide()
	u.exitBtn.Hide()
}

func (u *uiState) onSuggest() {
	text := strings.TrimSpace(u.describe.Text)
	if text == "" {
		return
	}
	u.suggestBtn.Disable()
	u.runAsync(func() {
		matches, err := u.service.SuggestSymptoms(context.Background(), text, suggestLimit)
		u.onMain(func() {
			u.suggestBtn.Enable()
			if err != nil {
				u.logger.Warn("symptom suggestion failed", zap.Error(err))
				dialog.ShowError(err, u.w)
				return
			}
			u.applySuggestions(matches)
		})
	})
}

// applySuggestions ticks the checks named by matches. Checks the user
// already ticked are left alone.
func (u *uiState) applySuggestions(matches []navigator.SymptomMatch) {
	if len(matches) == 0 {
		u.status.SetText("No matching symptoms found.")
		return
	}
	byName := make(map[string]*widget.Check, len(u.checks))
	for _, c := range u.checks {
		byName[c.Text] = c
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		c, ok := byName[m.Symptom]
		if !ok {
			continue
		}
		c.SetChecked(true)
		c.Show()
		names = append(names, m.Symptom)
	}
	u.status.SetText("Suggested: " + strings.Join(names, ", "))
	u.logger.Info("symptoms suggested", zap.Strings("symptoms", names))
}

func (u *uiState) onHistory() {
	rows, err := u.service.History(context.Background(), historyLimit)
	if err != nil {
		if errors.Is(err, navigator.ErrHistoryDisabled) {
			u.inform("History", "Diagnosis history is disabled.")
			return
		}
		dialog.ShowError(err, u.w)
		return
	}
	body := widget.NewLabel(formatHistory(rows))
	body.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(body)
	scroll.SetMinSize(fyne.NewSize(520, 320))

	clearBtn := widget.NewButtonWithIcon("Clear History", theme.DeleteIcon(), func() {
		if err := u.service.ClearHistory(context.Background()); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		body.SetText(formatHistory(nil))
	})
	if len(rows) == 0 {
		clearBtn.Disable()
	}
	dialog.ShowCustom("History", "Close", container.NewBorder(nil, clearBtn, nil, nil, scroll), u.w)
}

func formatHistory(rows []navigator.Diagnosis) string {
	if len(rows) == 0 {
		return "No diagnoses recorded yet."
	}
	var b strings.Builder
	for i, d := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s (%.0f%%)\n    Symptoms: %s\n    Medication: %s",
			d.CreatedAt.Format("2006-01-02 15:04"), d.Disease, d.Confidence*100,
			strings.Join(d.Symptoms, ", "), d.Medicine)
	}
	return b.String()
}
