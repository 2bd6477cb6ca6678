package common

// Physical key codes for cross-platform input handling.
// Values follow the KeyboardEvent.code naming so layouts do not change bindings.
// Reference: https://www.w3.org/TR/uievents-code/
const (
	KeyW = "KeyW"
	KeyA = "KeyA"
	KeyS = "KeyS"
	KeyD = "KeyD"
	KeyM = "KeyM"
	KeyP = "KeyP"
	KeyR = "KeyR"

	KeySpace      = "Space"
	KeyEscape     = "Escape"
	KeyShiftLeft  = "ShiftLeft"
	KeyShiftRight = "ShiftRight"

	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"

	KeyDigit1 = "Digit1"
	KeyDigit2 = "Digit2"
	KeyDigit3 = "Digit3"
	KeyDigit4 = "Digit4"
)

// Pointer buttons, numbered like MouseEvent.button.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)
