/*
Package main
File: main.go
Description: Terminal client. Plays a local game in the terminal with the
same rules engine and real-time clock the server uses.

Controls: arrows fly, Space/Enter tap at the helicopter, a answers the
phone, p pauses, q or Esc quits.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/input"
	"github.com/everforgeworks/pizza-copter/internal/session"
	"github.com/everforgeworks/pizza-copter/internal/world"
)

type app struct {
	screen tcell.Screen
	view   *view
	snd    *sound

	world *world.Map
	clock *session.LoopClock
	game  *game.Session

	keys    input.Keys
	held    heldKeys
	notices []game.Notice
	lastTap game.TapResult
}

// Present implements game.Presenter; the screen is redrawn every frame anyway.
func (a *app) Present(game.Snapshot) {}

func (a *app) Notify(n game.Notice) {
	a.notices = append(a.notices, n)
	if len(a.notices) > 32 {
		a.notices = a.notices[len(a.notices)-maxLog:]
	}
	a.snd.play(n.Kind)
}

func main() {
	configPath := flag.String("config", "game.yaml", "game configuration file")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	cfg, err := game.LoadConfig(*configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = game.DefaultConfig()
	case err != nil:
		log.Fatalf("Config Fail: %v", err)
	}

	snd := &sound{}
	if !*mute {
		if s, err := newSound(); err != nil {
			// Non-fatal, the game runs without sound.
			log.Printf("Audio initialization failed: %v", err)
		} else {
			snd = s
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Screen Fail: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Screen Fail: %v", err)
	}
	// Log lines would scribble over the screen.
	log.SetOutput(io.Discard)

	a, err := newApp(screen, cfg, snd)
	if err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a.run()
	screen.Fini()

	snap := a.game.Snapshot()
	fmt.Printf("%s: delivered %d of %d, score %d\n", snap.State, snap.Delivered, snap.Total, snap.Score)
}

func newApp(screen tcell.Screen, cfg game.Config, snd *sound) (*app, error) {
	a := &app{
		screen: screen,
		view:   &view{screen: screen},
		snd:    snd,
		world:  world.New(cfg.Map.Start, cfg.Map.Zoom),
		clock:  session.NewLoopClock(64),
		held:   heldKeys{window: holdWindow},
	}
	g, err := game.NewSession(cfg, game.Deps{World: a.world, Clock: a.clock, Presenter: a})
	if err != nil {
		return nil, err
	}
	a.game = g
	return a, nil
}

func (a *app) run() {
	defer a.clock.Close()

	ticker := time.NewTicker(time.Second / time.Duration(a.game.Config().Tuning.FrameRate))
	defer ticker.Stop()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	a.game.Start()
	for {
		select {
		case ev := <-events:
			if !a.handle(ev) {
				a.game.Abandon()
				return
			}
		case call := <-a.clock.Calls():
			call()
		case now := <-ticker.C:
			a.held.apply(&a.keys, now)
			a.game.Frame(a.keys.Intent())
			a.view.draw(a.world, a.game.Snapshot(), a.notices, a.lastTap)
		}
	}
}

// handle applies one terminal event. It returns false to quit.
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		now := time.Now()
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			a.held.press(input.Up, now)
		case tcell.KeyDown:
			a.held.press(input.Down, now)
		case tcell.KeyLeft:
			a.held.press(input.Left, now)
		case tcell.KeyRight:
			a.held.press(input.Right, now)
		case tcell.KeyEnter:
			a.lastTap = a.game.TapCarrier()
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				a.lastTap = a.game.TapCarrier()
			case 'a':
				a.game.Accept()
			case 'p':
				if a.game.Pause(!a.game.Paused()) {
					a.held.release()
				}
			case 'q':
				return false
			}
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}
