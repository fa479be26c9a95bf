package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/healthnavigator/internal/logging"
	"yashubustudio/healthnavigator/navigator"
)

const fyneAppID = "com.yashubustudio.healthnavigator"

// Run loads the configuration, trains the model and starts the desktop UI.
// A dataset failure is shown in an error dialog and returned once the
// dialog's window closes.
func Run() error {
	a := fyneapp.NewWithID(fyneAppID)

	cfg, err := loadConfig(dataDir(executableDir(), "."))
	if err != nil {
		showFatalError(a, err)
		return err
	}

	logs := binding.NewString()
	capture := newLogCapture(logs, maxLogLines)
	capture.start()
	defer capture.stop()
	logger, err := logging.New(cfg.Log, logging.Options{Extra: []zapcore.WriteSyncer{capture}})
	if err != nil {
		showFatalError(a, err)
		return err
	}
	defer logger.Sync()

	svc, err := navigator.Open(context.Background(), cfg, logger)
	if err != nil {
		showFatalError(a, fmt.Errorf("Failed to load dataset: %w", err))
		return err
	}
	defer svc.Close()

	u := buildUI(a, svc, logs, logger)
	logger.Info("ready", zap.Int("symptoms", len(svc.Symptoms())))
	u.w.ShowAndRun()
	return nil
}

// executableDir returns the directory holding the running binary, or "."
// when it cannot be determined.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// dataDir picks the first candidate holding healthnav.yaml or the default
// dataset. The first candidate is used when none does.
func dataDir(candidates ...string) string {
	for _, dir := range candidates {
		for _, name := range []string{navigator.DefaultConfigFile, navigator.DefaultDatasetFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
	}
	return candidates[0]
}

// loadConfig reads healthnav.yaml from dir and resolves the relative file
// paths it names against dir.
func loadConfig(dir string) (navigator.Config, error) {
	cfg, err := navigator.LoadConfig(filepath.Join(dir, navigator.DefaultConfigFile))
	if err != nil {
		return navigator.Config{}, err
	}
	cfg.ResolvePaths(dir)
	return cfg, nil
}

// showFatalError shows err in its own window and blocks until the user
// dismisses it.
func showFatalError(a fyne.App, err error) {
	win := a.NewWindow(windowTitle)
	win.SetContent(widget.NewLabel(err.Error()))
	win.Resize(fyne.NewSize(420, 160))
	d := dialog.NewError(err, win)
	d.SetOnClosed(a.Quit)
	d.Show()
	win.ShowAndRun()
}
