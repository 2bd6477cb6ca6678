package viewer

import (
	"context"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
)

// modeKeys binds the digit row to the built-in modes.
var modeKeys = map[string]controls.Mode{
	common.KeyDigit1: controls.ModePointerLock,
	common.KeyDigit2: controls.ModeMap,
	common.KeyDigit3: controls.ModeOrbit,
	common.KeyDigit4: controls.ModeTrackball,
}

func (v *viewerImpl) installHotkeys() {
	v.hotkeys.Listen(v.surface, event.TypeKeyDown, v.onHotkey)
}

func (v *viewerImpl) onHotkey(e event.Event) {
	if mode, ok := modeKeys[e.Code]; ok {
		if v.Mode() == mode {
			return
		}
		// Errors are already logged by SetMode.
		_ = v.SetMode(context.Background(), string(mode))
		return
	}
	switch e.Code {
	case common.KeyR:
		v.ResetCamera()
	case common.KeyP:
		v.NextPlace()
	}
}
