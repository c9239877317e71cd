// Package notify runs the optional follow-ups after a memo is saved: the result
// dialog, copying its link, and opening it.
package notify

import (
	"vmemo/clipboard"
	"vmemo/log"
	"vmemo/opener"
	"vmemo/settings"
	"vmemo/vault"
)

const NoticeLinkCopied = "Link copied"

// Result is what the dialog shows. Copy and View perform the dialog buttons;
// the dialog dismisses itself afterwards.
type Result struct {
	File *vault.File
	Link string
	Copy func()
	View func()
}

type Dialog interface {
	ShowResult(r Result)
}

type Noticer interface {
	Notice(msg string)
}

type SettingsSource interface {
	Get() settings.Settings
}

type Notifier struct {
	settings  SettingsSource
	link      func(*vault.File) string
	dialog    Dialog
	clipboard clipboard.Writer
	opener    opener.Opener
	noticer   Noticer
}

type Options struct {
	Settings  SettingsSource
	Link      func(*vault.File) string
	Dialog    Dialog
	Clipboard clipboard.Writer
	Opener    opener.Opener
	Noticer   Noticer
}

func New(o Options) *Notifier {
	n := &Notifier{
		settings:  o.Settings,
		link:      o.Link,
		dialog:    o.Dialog,
		clipboard: o.Clipboard,
		opener:    o.Opener,
		noticer:   o.Noticer,
	}
	if n.clipboard == nil {
		n.clipboard = clipboard.System{}
	}
	if n.opener == nil {
		n.opener = opener.System{}
	}
	if n.link == nil {
		n.link = func(f *vault.File) string { return "![[" + f.Path + "]]" }
	}
	return n
}

// Notify runs each enabled step. A failing step is logged and never stops the others.
func (n *Notifier) Notify(sessionID string, f *vault.File) {
	st := n.settings.Get()
	link := n.link(f)

	if st.ShowDialog && n.dialog != nil {
		n.dialog.ShowResult(Result{
			File: f,
			Link: link,
			Copy: func() { n.copyLink(sessionID, link) },
			View: func() { n.open(sessionID, f) },
		})
	}
	if st.AutoCopy {
		n.copyLink(sessionID, link)
	}
	if st.AutoOpen {
		n.open(sessionID, f)
	}
}

func (n *Notifier) copyLink(sessionID, link string) {
	if err := n.clipboard.Copy(link); err != nil {
		log.ActionFailed(sessionID, "copy_link", err)
		return
	}
	if n.noticer != nil {
		n.noticer.Notice(NoticeLinkCopied)
	}
}

func (n *Notifier) open(sessionID string, f *vault.File) {
	if err := n.opener.Open(f.Abs); err != nil {
		log.ActionFailed(sessionID, "open", err)
	}
}
