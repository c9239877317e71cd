package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"vmemo/log"
	"vmemo/notify"
	"vmemo/overlay"
)

// consoleHost presents on a plain writer: the overlay is a refreshed status
// line and notices and results are printed lines.
type consoleHost struct {
	*overlay.Console
	mu  sync.Mutex
	out io.Writer
}

func newConsoleHost(out io.Writer, width int) *consoleHost {
	return &consoleHost{Console: overlay.NewConsole(out, width), out: out}
}

func (h *consoleHost) println(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "\r\033[K"+format+"\n", args...)
}

func (h *consoleHost) Notice(text string) {
	h.println("! %s", text)
}

func (h *consoleHost) ShowResult(r notify.Result) {
	h.println("saved %s", r.File.Path)
	h.println("link  %s", r.Link)
}

// runHeadless drives the controller from line commands on in. It is what the
// integration tests and scripted runs use in place of the full-screen UI.
//
//	START      begin a session
//	STOP       end the session; saving continues in the background
//	WAIT       block until every stopped session is saved
//	SLEEP <ms> pause
//	QUIT       stop, wait and exit
func runHeadless(ctx context.Context, a *app, in io.Reader, out io.Writer) int {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warnf("headless input: %v", err)
		}
	}()

	defer a.shutdown()
	for {
		var text string
		select {
		case <-ctx.Done():
			return 0
		case l, ok := <-lines:
			if !ok {
				return 0
			}
			text = l
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "START":
			a.ctrl.Start(ctx)
		case "STOP":
			a.ctrl.Stop()
		case "WAIT":
			a.ctrl.Wait()
		case "SLEEP":
			if len(fields) < 2 {
				fmt.Fprintln(out, "SLEEP needs a duration in milliseconds")
				continue
			}
			ms, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintf(out, "bad duration %q\n", fields[1])
				continue
			}
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(ms) * time.Millisecond):
			}
		case "QUIT":
			return 0
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}

// runRecordConsole records one memo, stopping at the first line on in, at EOF
// or when ctx is cancelled.
func runRecordConsole(ctx context.Context, a *app, in io.Reader, out io.Writer) int {
	if err := a.ctrl.Start(ctx); err != nil {
		return 1
	}
	fmt.Fprintln(out, "Recording. Press Enter to stop.")

	line := make(chan struct{})
	go func() {
		bufio.NewReader(in).ReadString('\n')
		close(line)
	}()
	select {
	case <-line:
	case <-ctx.Done():
	}
	a.shutdown()
	if a.ctrl.Saved() == 0 {
		return 1
	}
	return 0
}
