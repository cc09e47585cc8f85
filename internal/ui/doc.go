// Package ui formats posts, comments and profiles for the terminal using
// Lipgloss styles.
//
// A Renderer is built from a theme name ("Nightfox" or "Slate"; unknown
// names fall back to Nightfox) and returns plain strings, so callers decide
// where output goes. Lipgloss drops colors when stdout is not a terminal.
package ui
