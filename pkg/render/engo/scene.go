// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/engine"
	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/logging"
	"github.com/opd-ai/go-skijet/pkg/render"
)

// Window size of the sandbox.
const (
	WindowWidth  = 960
	WindowHeight = 540
)

// SandboxScene is the windowed course: the simulation driven by the
// keyboard, drawn with engo.
type SandboxScene struct {
	cfg     *config.Config
	terrain entity.Terrain
	spawnX  float64
	bus     *event.Bus
	logger  *logging.Logger

	driver *SimulationSystem
	camera *CameraSystem
	course *CourseRenderer
	hud    *HUDSystem
}

// NewSandboxScene creates the scene. A nil bus creates a private one.
func NewSandboxScene(cfg *config.Config, terrain entity.Terrain, spawnX float64, bus *event.Bus, logger *logging.Logger) *SandboxScene {
	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SandboxScene{
		cfg:     cfg,
		terrain: terrain,
		spawnX:  spawnX,
		bus:     bus,
		logger:  logger,
	}
}

// Type returns the scene type (required by Engo)
func (scene *SandboxScene) Type() string {
	return "SandboxScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *SandboxScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *SandboxScene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	common.SetBackground(color.RGBA{R: 0x1c, G: 0x2a, B: 0x3a, A: 0xff})
	SetupInputBindings()

	scene.build(NewKeyboardProvider())

	rs := &common.RenderSystem{}
	world.AddSystem(rs)
	scene.course.Attach(rs, CharacterTexture())
	scene.hud.Attach(rs)
	scene.hud.Title = engo.SetTitle

	world.AddSystem(scene.driver)
	world.AddSystem(scene.camera)
	world.AddSystem(scene.hud)

	scene.logger.Info(context.Background(), "sandbox scene ready",
		"course_length", scene.terrain.Length(),
		"tick_rate", scene.cfg.Simulation.TickRate,
	)
}

// build wires the simulation and the views without touching a window.
func (scene *SandboxScene) build(provider input.Provider) {
	sim := engine.NewSimulation(scene.cfg, engine.Options{Bus: scene.bus, Logger: scene.logger})
	body := entity.NewTerrainBody(scene.terrain, scene.spawnX,
		scene.cfg.Character.JumpSpeed, scene.cfg.Character.GravityMultiplier)
	character := sim.SpawnCharacter(body, provider)

	scene.camera = NewCameraSystem(WindowWidth, WindowHeight)
	scene.course = NewCourseRenderer(scene.camera, scene.terrain)
	scene.hud = NewHUDSystem()
	scene.driver = &SimulationSystem{
		Sim:       sim,
		Character: character,
		Display:   scene.hud,
		camera:    scene.camera,
		course:    scene.course,
	}
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *SandboxScene) Exit() {
	scene.logger.Info(context.Background(), "sandbox closed", "ticks", scene.driver.Sim.CurrentTick)
}

// SimulationSystem advances the simulation with the frame time and
// pushes the result to the views.
type SimulationSystem struct {
	Sim       *engine.Simulation
	Character *entity.Character
	Display   render.Display

	camera *CameraSystem
	course *CourseRenderer
}

// Remove satisfies the ecs.System interface
func (ss *SimulationSystem) Remove(ecs.BasicEntity) {}

// Update runs the fixed steps covered by dt.
func (ss *SimulationSystem) Update(dt float32) {
	if ss.Sim.Advance(float64(dt)) == 0 {
		return
	}
	last := ss.Character.Last()
	pos := last.Position
	ss.camera.SetTarget(mgl64.Vec2{pos.X(), pos.Y()})
	ss.course.Sync(pos)
	if ss.Display != nil {
		ss.Display.Show(render.ReadoutFrom(last))
	}
}

// Priority runs the simulation before the camera and HUD.
func (ss *SimulationSystem) Priority() int {
	return 10
}
