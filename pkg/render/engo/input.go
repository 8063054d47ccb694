// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/engo"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/input"
)

// Button names registered by SetupInputBindings.
const (
	ButtonForward  = "forward"
	ButtonBack     = "back"
	ButtonLeft     = "left"
	ButtonRight    = "right"
	ButtonJump     = "jump"
	ButtonThruster = "thruster"
	ButtonReset    = "reset"
)

// ButtonState reports whether a named button is held.
type ButtonState interface {
	Down(name string) bool
}

type engoButtons struct{}

func (engoButtons) Down(name string) bool {
	return engo.Input.Button(name).Down()
}

// KeyboardProvider samples the keyboard once per simulation tick.
type KeyboardProvider struct {
	buttons ButtonState
	sampler input.Sampler
}

// NewKeyboardProvider reads engo's input manager.
func NewKeyboardProvider() *KeyboardProvider {
	return NewButtonProvider(engoButtons{})
}

// NewButtonProvider reads an arbitrary button source.
func NewButtonProvider(buttons ButtonState) *KeyboardProvider {
	return &KeyboardProvider{buttons: buttons}
}

// Raw returns the current control levels.
func (kp *KeyboardProvider) Raw() input.Raw {
	axis := func(pos, neg string) float64 {
		v := 0.0
		if kp.buttons.Down(pos) {
			v++
		}
		if kp.buttons.Down(neg) {
			v--
		}
		return v
	}
	return input.Raw{
		Move:     mgl64.Vec2{axis(ButtonRight, ButtonLeft), axis(ButtonForward, ButtonBack)},
		Jump:     kp.buttons.Down(ButtonJump),
		Thruster: kp.buttons.Down(ButtonThruster),
	}
}

// Poll implements input.Provider.
func (kp *KeyboardProvider) Poll() input.Frame {
	return kp.sampler.Sample(kp.Raw())
}

// SetupInputBindings registers the sandbox key bindings.
func SetupInputBindings() {
	engo.Input.RegisterButton(ButtonForward, engo.KeyW, engo.KeyArrowUp)
	engo.Input.RegisterButton(ButtonBack, engo.KeyS, engo.KeyArrowDown)
	engo.Input.RegisterButton(ButtonLeft, engo.KeyA, engo.KeyArrowLeft)
	engo.Input.RegisterButton(ButtonRight, engo.KeyD, engo.KeyArrowRight)
	engo.Input.RegisterButton(ButtonJump, engo.KeySpace)
	engo.Input.RegisterButton(ButtonThruster, engo.KeyE, engo.KeyLeftShift)
	engo.Input.RegisterButton(ButtonReset, engo.KeyR)
}
