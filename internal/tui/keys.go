// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

// SeekStep is how far the seek keys move the playhead, in seconds.
const SeekStep = 5.0

type keyMap struct {
	Pause     key.Binding
	Back      key.Binding
	Forward   key.Binding
	Restart   key.Binding
	Recompute key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Back:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		Forward:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		Restart:   key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("home", "restart")),
		Recompute: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "waveform")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() string {
	s := ""
	for i, b := range []key.Binding{k.Pause, k.Back, k.Forward, k.Restart, k.Recompute, k.Quit} {
		if i > 0 {
			s += "  "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
