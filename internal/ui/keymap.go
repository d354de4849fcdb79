package ui

// Key binding constants used in handleKey.
const (
	KeyQuit         = "q"
	KeyCtrlC        = "ctrl+c"
	KeyEnter        = "enter"
	KeyEsc          = "esc"
	KeyDown         = "j"
	KeyUp           = "k"
	KeyDownFast     = "J"
	KeyUpFast       = "K"
	KeyTabUnanswerd = "u"
	KeyTabAnswered  = "a"
	KeyOther        = "o"
	KeyCategoryNext = "ctrl+right"
	KeyCategoryPrev = "ctrl+left"
	KeySearch       = "/"
	KeyImport       = "i"
	KeyPurge        = "D"
	KeyPauseResume  = " "
	KeyFocusSwitch  = "tab"
	KeyDeleteAnswer = "d"
	KeyEditAnswer   = "e"
)
