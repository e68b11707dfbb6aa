package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Digi-Cazter/nes/internal/nes"
)

// Tab - show debug info
// P - pause
// R - one instruction and stop

var keymap = map[ebiten.Key]uint8{
	ebiten.KeyZ:          nes.ButtonA,
	ebiten.KeyX:          nes.ButtonB,
	ebiten.KeyShiftRight: nes.ButtonSelect,
	ebiten.KeyEnter:      nes.ButtonStart,
	ebiten.KeyArrowUp:    nes.ButtonUp,
	ebiten.KeyArrowDown:  nes.ButtonDown,
	ebiten.KeyArrowLeft:  nes.ButtonLeft,
	ebiten.KeyArrowRight: nes.ButtonRight,
}

type UI struct {
	bus    *nes.Bus
	disasm map[uint16]string
	frame  *ebiten.Image

	showDebugInfo bool
}

func New(bus *nes.Bus) *UI {
	return &UI{
		bus:    bus,
		disasm: bus.Disassemble(),
		frame:  ebiten.NewImage(gameScreenWidth, gameScreenHeight),
	}
}

func (ui *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		ui.showDebugInfo = !ui.showDebugInfo
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		ui.bus.TogglePause()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		ui.bus.OneStep()
	}

	var buttons uint8
	for key, bit := range keymap {
		if ebiten.IsKeyPressed(key) {
			buttons |= bit
		}
	}
	ui.bus.SetController(0, buttons)

	ui.bus.StepFrame()
	return nil
}

func (ui *UI) Draw(screen *ebiten.Image) {
	ui.frame.WritePixels(ui.bus.FrameBuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(gameScreenScale, gameScreenScale)
	screen.DrawImage(ui.frame, op)

	if !ui.showDebugInfo {
		return
	}

	info := ui.bus.DebugInfo()
	var infoStr strings.Builder
	fmt.Fprintf(&infoStr, " FPS: %0.0f\n", ebiten.ActualFPS())
	fmt.Fprintf(&infoStr, " STATUS: %s\n", info.StatusString())
	fmt.Fprintf(&infoStr, " PC: %04X\n", info.PC)
	fmt.Fprintf(&infoStr, " A: $%02X [%03d]", info.A, info.A)
	fmt.Fprintf(&infoStr, " X: $%02X [%03d]", info.X, info.X)
	fmt.Fprintf(&infoStr, " Y: $%02X [%03d]\n", info.Y, info.Y)
	fmt.Fprintf(&infoStr, " SP: $%02X\n", info.SP)
	fmt.Fprintf(&infoStr, " CYC: %d\n", info.TotalCycles)

	for i := max(0, info.PC-7); i < info.PC; i++ {
		if s, ok := ui.disasm[i]; ok {
			infoStr.WriteString(" " + s + "\n")
		}
	}
	infoStr.WriteString("*" + ui.disasm[info.PC] + "\n")
	for i := info.PC + 1; i < min(0xFFFF, info.PC+7); i++ {
		if s, ok := ui.disasm[i]; ok {
			infoStr.WriteString(" " + s + "\n")
		}
	}

	debugScreenOffsetX := float32(gameScreenWidth * gameScreenScale)
	vector.DrawFilledRect(screen, debugScreenOffsetX, 0, debugScreenWidth, debugScreenHeight, color.RGBA{50, 50, 50, 255}, false)
	ebitenutil.DebugPrintAt(screen, infoStr.String(), int(debugScreenOffsetX), 0)
}

const (
	gameScreenScale  = 2
	gameScreenWidth  = 256
	gameScreenHeight = 240

	debugScreenWidth  = 286
	debugScreenHeight = gameScreenHeight * gameScreenScale
)

func (ui *UI) Layout(_, _ int) (int, int) {
	return gameScreenWidth*gameScreenScale + debugScreenWidth, gameScreenHeight * gameScreenScale
}

func RunUI(ui *UI) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(gameScreenWidth*gameScreenScale+debugScreenWidth, gameScreenHeight*gameScreenScale)
	ebiten.SetWindowTitle("nes")
	ebiten.SetTPS(60)
	return ebiten.RunGame(ui)
}
