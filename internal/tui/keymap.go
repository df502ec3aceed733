package tui

// Key binding constants used in handleKey.
const (
	KeyQuit          = "q"
	KeyCtrlC         = "ctrl+c"
	KeyRecord        = "r"
	KeyPause         = " "
	KeyPauseAlt      = "space"
	KeyTranslate     = "t"
	KeyNextLanguage  = "l"
	KeyPrevLanguage  = "L"
	KeyClear         = "c"
	KeyExportText    = "e"
	KeyExportJSON    = "E"
	KeyConfirmYes    = "y"
	KeyConfirmNo     = "n"
	KeyEscape        = "esc"
	KeyScrollUp      = "up"
	KeyScrollDown    = "down"
	KeyScrollUpAlt   = "k"
	KeyScrollDownAlt = "j"
)
