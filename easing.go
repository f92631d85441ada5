package m2c2

import (
	"reflect"

	"github.com/tanema/gween/ease"
)

// EasingFunction maps elapsed time t to a value between b and b+c over the
// duration d. It is gween's ease.TweenFunc.
type EasingFunction = ease.TweenFunc

// easings is the name registry used to serialize easing functions in
// ScenePresent events and to restore them on replay.
var easings = []struct {
	name string
	fn   EasingFunction
}{
	{"Linear", ease.Linear},
	{"InQuad", ease.InQuad},
	{"OutQuad", ease.OutQuad},
	{"InOutQuad", ease.InOutQuad},
	{"InCubic", ease.InCubic},
	{"OutCubic", ease.OutCubic},
	{"InOutCubic", ease.InOutCubic},
	{"InQuart", ease.InQuart},
	{"OutQuart", ease.OutQuart},
	{"InOutQuart", ease.InOutQuart},
	{"InQuint", ease.InQuint},
	{"OutQuint", ease.OutQuint},
	{"InOutQuint", ease.InOutQuint},
	{"InSine", ease.InSine},
	{"OutSine", ease.OutSine},
	{"InOutSine", ease.InOutSine},
	{"InExpo", ease.InExpo},
	{"OutExpo", ease.OutExpo},
	{"InOutExpo", ease.InOutExpo},
	{"InCirc", ease.InCirc},
	{"OutCirc", ease.OutCirc},
	{"InOutCirc", ease.InOutCirc},
	{"InBack", ease.InBack},
	{"OutBack", ease.OutBack},
	{"InOutBack", ease.InOutBack},
	{"InBounce", ease.InBounce},
	{"OutBounce", ease.OutBounce},
	{"InOutBounce", ease.InOutBounce},
}

// EasingName returns the registry name of fn, or "" if fn is not a
// registered easing. A nil fn is reported as "Linear".
func EasingName(fn EasingFunction) string {
	if fn == nil {
		return "Linear"
	}
	p := reflect.ValueOf(fn).Pointer()
	for _, e := range easings {
		if reflect.ValueOf(e.fn).Pointer() == p {
			return e.name
		}
	}
	return ""
}

// EasingByName returns the registered easing called name.
func EasingByName(name string) (EasingFunction, bool) {
	for _, e := range easings {
		if e.name == name {
			return e.fn, true
		}
	}
	return nil, false
}

// easeProgress evaluates fn (Linear when nil) for elapsed t of duration d, returning a
// progress value in [0, 1] for most easings (back and bounce may overshoot).
func easeProgress(fn EasingFunction, t, d float64) float64 {
	if d <= 0 {
		return 1
	}
	if fn == nil {
		fn = ease.Linear
	}
	return float64(fn(float32(t), 0, 1, float32(d)))
}
