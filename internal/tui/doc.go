// Package tui implements `bobil watch`, a live Bubble Tea dashboard for one
// heater.
//
// The dashboard subscribes to a coordinator and redraws on every refresh
// cycle. Keys toggle the three heating circuits and step the target
// temperature; each key press runs one command through the controller, which
// refreshes the coordinator afterwards. Only one command runs at a time.
//
//	a  toggle air heating        +/↑  target temperature up
//	w  toggle water heating      -/↓  target temperature down
//	c  toggle air+water heating  r    refresh now
//	?  help                      q    quit
package tui
