package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/logger"
	"github.com/jask/mccheck/internal/prefs"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/tui"
)

func runTUI(ctx context.Context, f rootFlags) error {
	cfg, err := loadConfig(&f)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logFile, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logger.New(cfg.Log.Level, cfg.Log.Format, logFile)

	rt, err := openRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	loc, err := cfg.UI.Location()
	if err != nil {
		log.Warn().Err(err).Msg("using local timezone")
	}

	saved, err := prefs.LoadList()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring saved list preferences")
	}
	sort := saved.SortOrDefault()

	svc := rt.service()
	p := tea.NewProgram(tui.New(ctx, svc, tui.Options{
		Location:       loc,
		DateFormat:     cfg.UI.DateFormat,
		DateTimeFormat: cfg.UI.DateTimeFormat,
		Sort:           &sort,
		SaveSort: func(s listview.Sort) {
			if err := prefs.SaveList(prefs.FromSort(s)); err != nil {
				log.Error().Err(err).Msg("save list preferences")
			}
		},
	}), tea.WithAltScreen(), tea.WithContext(ctx))
	svc.OnChange(func(s service.Snapshot) { p.Send(tui.SnapshotMsg(s)) })

	log.Info().Str("backend", cfg.Store.Backend).Msg("starting")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
