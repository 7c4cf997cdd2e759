/*
Package main
File: view.go
Description:
    Draws the map around the helicopter, the HUD and the order list.
*/

package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/world"
)

// Terminal cells are roughly twice as tall as they are wide.
const (
	metresPerCol    = 6.0
	metresPerRow    = 12.0
	metresPerDegree = 111320.0
	gridMetres      = 60.0

	hudTop    = 2 // status + ringing lines
	maxOrders = 4
	maxLog    = 4
)

type glyph struct {
	r     rune
	style tcell.Style
}

var glyphs = map[game.MarkerKind]glyph{
	game.MarkerCarrier:  {'H', tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)},
	game.MarkerPickup:   {'P', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
	game.MarkerDelivery: {'#', tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)},
	game.MarkerBoost:    {'+', tcell.StyleDefault.Foreground(tcell.ColorYellow)},
	game.MarkerSlowdown: {'~', tcell.StyleDefault.Foreground(tcell.ColorPurple)},
	game.MarkerCargo:    {'o', tcell.StyleDefault.Foreground(tcell.ColorOrange)},
}

var (
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	alertStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	groundStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
)

// project maps metres east/north of the view centre to a cell inside a
// w x h box. ok is false when the point falls outside.
func project(east, north float64, w, h int) (x, y int, ok bool) {
	x = w/2 + int(math.Round(east/metresPerCol))
	y = h/2 - int(math.Round(north/metresPerRow))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

// clampToEdge pins an off-screen cell to the border of the box.
func clampToEdge(x, y, w, h int) (int, int) {
	return max(0, min(w-1, x)), max(0, min(h-1, y))
}

type view struct {
	screen tcell.Screen
}

func (v *view) draw(m *world.Map, snap game.Snapshot, notices []game.Notice, lastTap game.TapResult) {
	s := v.screen
	s.Clear()
	w, h := s.Size()

	mapTop := hudTop
	footer := min(len(snap.Orders), maxOrders) + maxLog + 1
	mapH := h - mapTop - footer
	if mapH < 3 || w < 20 {
		v.text(0, 0, hudStyle, "Terminal too small")
		s.Show()
		return
	}

	// Ground dots anchored to the world give a sense of motion.
	centre := m.Center()
	ce := centre.Lng * metresPerDegree * math.Cos(centre.Lat*math.Pi/180)
	cn := centre.Lat * metresPerDegree
	for row := 0; row < mapH; row++ {
		north := cn + float64(mapH/2-row)*metresPerRow
		if posMod(north, gridMetres) >= metresPerRow {
			continue
		}
		for col := 0; col < w; col++ {
			east := ce + float64(col-w/2)*metresPerCol
			if posMod(east, gridMetres) < metresPerCol {
				s.SetContent(col, mapTop+row, '.', nil, groundStyle)
			}
		}
	}

	var carrier *world.Marker
	for _, mk := range m.Markers() {
		if mk.Kind == game.MarkerCarrier {
			carrier = &mk
			continue
		}
		g, ok := glyphs[mk.Kind]
		if !ok {
			continue
		}
		east, north := m.Offset(mk.Position)
		x, y, in := project(east, north, w, mapH)
		if !in {
			if mk.Kind != game.MarkerDelivery && mk.Kind != game.MarkerPickup {
				continue
			}
			x, y = clampToEdge(x, y, w, mapH)
		}
		s.SetContent(x, mapTop+y, g.r, nil, g.style)
	}
	if carrier != nil {
		east, north := m.Offset(carrier.Position)
		if x, y, in := project(east, north, w, mapH); in {
			g := glyphs[game.MarkerCarrier]
			s.SetContent(x, mapTop+y, g.r, nil, g.style)
		}
	}

	v.hud(snap)
	v.footer(snap, notices, lastTap, mapTop+mapH)
	s.Show()
}

func posMod(a, m float64) float64 {
	return math.Mod(math.Mod(a, m)+m, m)
}

func (v *view) hud(snap game.Snapshot) {
	status := fmt.Sprintf("Delivered %d/%d  Cargo %d/%d  Score %d  Speed x%g",
		snap.Delivered, snap.Total, snap.Carried, snap.Capacity, snap.Score, snap.Multiplier)
	switch {
	case snap.State.Terminal():
		status += "  GAME OVER (" + string(snap.State) + ")"
	case snap.Paused:
		status += "  PAUSED"
	case snap.State == game.StateNotStarted:
		status += "  Fly to P and press Space to start"
	}
	v.text(0, 0, hudStyle, status)

	if snap.Ringing != nil {
		v.text(0, 1, alertStyle, fmt.Sprintf("RING RING  %s about %s  (press a)", snap.Ringing.Caller, snap.Ringing.Address))
	}
}

func (v *view) footer(snap game.Snapshot, notices []game.Notice, lastTap game.TapResult, top int) {
	row := top
	for i, o := range snap.Orders {
		if i == maxOrders {
			break
		}
		style := hudStyle
		if o.Remaining <= 10 {
			style = alertStyle
		}
		v.text(0, row, style, fmt.Sprintf("%-16s %d %-6s %3ds  %-3s %4.0fm",
			o.Address, o.Pizzas, pizzaLabel(o.Pizzas), o.Remaining, o.Compass, o.Distance))
		row++
	}
	if lastTap != "" {
		v.text(0, row, hudStyle, "Last tap: "+string(lastTap))
	}
	row++
	start := max(0, len(notices)-maxLog)
	for _, n := range notices[start:] {
		v.text(0, row, hudStyle, n.Message)
		row++
	}
}

func (v *view) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func pizzaLabel(n int) string {
	if n == 1 {
		return "pizza"
	}
	return "pizzas"
}
