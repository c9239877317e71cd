package main

import (
	"fmt"

	"vmemo/audio"
	"vmemo/beep"
	"vmemo/config"
	"vmemo/encoder"
	"vmemo/notify"
	"vmemo/recorder"
	"vmemo/settings"
	"vmemo/storage"
	"vmemo/vault"
	"vmemo/wakelock"
)

// presenter is whatever surface shows the overlay, notices and the result dialog.
type presenter interface {
	recorder.Overlay
	recorder.Noticer
	notify.Dialog
}

type app struct {
	cfg      *config.Config
	vault    *vault.Vault
	settings *settings.Store
	audio    audio.Context
	ctrl     *recorder.Controller
}

type appOptions struct {
	Audio   audio.Context
	Encoder encoder.Factory
	Locker  wakelock.Locker
	Cue     recorder.Cue
	Notify  notify.Options
}

func newApp(cfg *config.Config, pres presenter, o appOptions) (*app, error) {
	v, err := vault.Open(cfg.VaultDir, cfg.Wikilinks)
	if err != nil {
		return nil, fmt.Errorf("vault %s: %w", cfg.VaultDir, err)
	}
	store, err := settings.Load(cfg.ResolvedSettingsPath())
	if err != nil {
		return nil, err
	}
	if o.Audio == nil {
		o.Audio = audio.NewLazyContext(audio.NewContext)
	}
	if o.Locker == nil {
		o.Locker = wakelock.New()
	}
	if o.Cue == nil {
		if cfg.Sounds {
			o.Cue = beep.New()
		} else {
			o.Cue = beep.Silent{}
		}
	}

	no := o.Notify
	no.Settings = store
	no.Link = v.Link
	if no.Dialog == nil {
		no.Dialog = pres
	}
	if no.Noticer == nil {
		no.Noticer = pres
	}

	ctrl := recorder.New(recorder.Config{
		Audio:     o.Audio,
		Device:    cfg.Device,
		Encoder:   o.Encoder,
		Locker:    o.Locker,
		Overlay:   pres,
		Persister: storage.NewSaver(v, store),
		Notifier:  notify.New(no),
		Noticer:   pres,
		Cue:       o.Cue,
	})

	return &app{
		cfg:      cfg,
		vault:    v,
		settings: store,
		audio:    o.Audio,
		ctrl:     ctrl,
	}, nil
}

// shutdown stops a running memo and waits for it to be saved.
func (a *app) shutdown() {
	a.ctrl.Stop()
	a.ctrl.Wait()
	a.audio.Close()
}
