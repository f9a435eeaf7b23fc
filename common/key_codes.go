package common

// Key codes accepted by the camera keyboard input. Values follow the DOM
// KeyboardEvent.keyCode numbering that browser clients forward unchanged.
const (
	KeyLeft  = 37 // ArrowLeft
	KeyUp    = 38 // ArrowUp
	KeyRight = 39 // ArrowRight
	KeyDown  = 40 // ArrowDown

	KeyPlus  = 187 // '=' / '+'
	KeyMinus = 189 // '-'

	KeyNumpadPlus  = 107
	KeyNumpadMinus = 109

	KeyHome = 36 // resets the camera to its initial pose
)
