package tui

// Key binding constants used in handleKey.
const (
	KeyEnter     = "enter"
	KeySimulate  = "ctrl+s"
	KeyEnd       = "esc"
	KeyCtrlC     = "ctrl+c"
	KeyBackspace = "backspace"
	KeySpace     = " "
)
