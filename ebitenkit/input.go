package ebitenkit

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/m2c2kit/m2c2"
)

// pointerSink receives polled pointer samples. *m2c2.Game implements it.
type pointerSink interface {
	HandlePointer(pointerID int, x, y float64, pressed bool, button m2c2.PointerButton)
}

// pointerPoller turns Ebitengine mouse and touch state into per-slot
// pointer samples. Slot 0 is the mouse; touches take slots 1 and up.
type pointerPoller struct {
	touchMap  [m2c2.MaxPointers]ebiten.TouchID
	touchUsed [m2c2.MaxPointers]bool
	lastX     [m2c2.MaxPointers]float64
	lastY     [m2c2.MaxPointers]float64
	touchIDs  []ebiten.TouchID
}

// poll feeds this frame's mouse and touches to sink.
func (p *pointerPoller) poll(sink pointerSink) {
	mx, my := ebiten.CursorPosition()
	pressed, button := mouseButton(
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle),
	)
	sink.HandlePointer(0, float64(mx), float64(my), pressed, button)

	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	var active [m2c2.MaxPointers]bool
	for _, tid := range p.touchIDs {
		slot := p.touchSlot(tid)
		if slot < 0 {
			continue
		}
		active[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		p.lastX[slot], p.lastY[slot] = float64(tx), float64(ty)
		sink.HandlePointer(slot, p.lastX[slot], p.lastY[slot], true, m2c2.ButtonPrimary)
	}
	p.release(active, sink)
}

// release ends touches that were not reported this frame, at their last
// known position.
func (p *pointerPoller) release(active [m2c2.MaxPointers]bool, sink pointerSink) {
	for i := 1; i < m2c2.MaxPointers; i++ {
		if p.touchUsed[i] && !active[i] {
			sink.HandlePointer(i, p.lastX[i], p.lastY[i], false, m2c2.ButtonPrimary)
			p.touchUsed[i] = false
			p.touchMap[i] = 0
		}
	}
}

// touchSlot maps a touch to a pointer slot, allocating one for a new
// touch. Returns -1 when every slot is taken.
func (p *pointerPoller) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < m2c2.MaxPointers; i++ {
		if p.touchUsed[i] && p.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < m2c2.MaxPointers; i++ {
		if !p.touchUsed[i] {
			p.touchUsed[i] = true
			p.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// mouseButton picks the reported button, preferring left, then right,
// then middle.
func mouseButton(left, right, middle bool) (bool, m2c2.PointerButton) {
	switch {
	case left:
		return true, m2c2.ButtonPrimary
	case right:
		return true, m2c2.ButtonSecondary
	case middle:
		return true, m2c2.ButtonMiddle
	}
	return false, m2c2.ButtonPrimary
}
