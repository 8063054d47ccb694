// Package trace records simulation runs to a SQL database and replays them
// to check that the simulation is deterministic.
package trace

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-gl/mathgl/mgl64"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/validation"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = "file::memory:"

// batchSize bounds the rows per INSERT issued by Append.
const batchSize = 500

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("trace run not found")

// Run is one recorded simulation.
type Run struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Name       string    `json:"name" gorm:"size:64;index:idx_run_name"`
	EntityID   uint64    `json:"entityId"`
	TickRate   float64   `json:"tickRate"`
	ConfigJSON string    `json:"config" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (*Run) TableName() string {
	return "runs"
}

// Sample is the input and outcome of one tick: everything replay needs to
// rebuild the tick, plus the velocity it produced.
type Sample struct {
	ID    uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID uint   `json:"runId" gorm:"index:idx_sample_run_tick,priority:1"`
	Tick  uint64 `json:"tick" gorm:"index:idx_sample_run_tick,priority:2"`

	Now float64 `json:"now"`
	DT  float64 `json:"dt"`

	MoveX        float64 `json:"moveX"`
	MoveY        float64 `json:"moveY"`
	JumpPressed  bool    `json:"jumpPressed" gorm:"default:false"`
	JumpHeld     bool    `json:"jumpHeld" gorm:"default:false"`
	ThrusterHeld bool    `json:"thrusterHeld" gorm:"default:false"`

	Grounded bool    `json:"grounded" gorm:"default:false"`
	NormalX  float64 `json:"normalX"`
	NormalY  float64 `json:"normalY"`
	NormalZ  float64 `json:"normalZ"`

	VelX float64 `json:"velX"`
	VelY float64 `json:"velY"`
	VelZ float64 `json:"velZ"`
	Fuel float64 `json:"fuel"`
}

func (*Sample) TableName() string {
	return "samples"
}

// Models lists every table the store migrates.
var Models = []interface{}{
	&Run{},
	&Sample{},
}

// NewSample captures a tick result.
func NewSample(runID uint, r entity.TickResult) Sample {
	return Sample{
		RunID:        runID,
		Tick:         r.Tick,
		Now:          r.Now,
		DT:           r.DT,
		MoveX:        r.Frame.Move.X(),
		MoveY:        r.Frame.Move.Y(),
		JumpPressed:  r.Frame.JumpPressed,
		JumpHeld:     r.Frame.JumpHeld,
		ThrusterHeld: r.Frame.ThrusterHeld,
		Grounded:     r.Grounded,
		NormalX:      r.Normal.X(),
		NormalY:      r.Normal.Y(),
		NormalZ:      r.Normal.Z(),
		VelX:         r.Velocity.X(),
		VelY:         r.Velocity.Y(),
		VelZ:         r.Velocity.Z(),
		Fuel:         r.Fuel,
	}
}

// Frame rebuilds the input the tick consumed.
func (s Sample) Frame() input.Frame {
	return input.Frame{
		Move:         mgl64.Vec2{s.MoveX, s.MoveY},
		JumpPressed:  s.JumpPressed,
		JumpHeld:     s.JumpHeld,
		ThrusterHeld: s.ThrusterHeld,
	}
}

// Normal returns the ground normal the tick read.
func (s Sample) Normal() mgl64.Vec3 {
	return mgl64.Vec3{s.NormalX, s.NormalY, s.NormalZ}
}

// Velocity returns the velocity the tick produced.
func (s Sample) Velocity() mgl64.Vec3 {
	return mgl64.Vec3{s.VelX, s.VelY, s.VelZ}
}

// Store persists runs and samples.
type Store struct {
	DB     *gorm.DB
	driver string
}

// Open connects to the configured database and migrates the schema. An
// empty sqlite DSN opens an in-memory database.
func Open(cfg config.TraceConfig) (*Store, error) {
	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = MemoryDSN
		}
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, &validation.FieldError{Field: "trace.driver", Value: cfg.Driver, Reason: "unsupported driver"}
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s trace store: %w", cfg.Driver, err)
	}

	if cfg.Driver != config.DriverPostgres {
		// A single connection keeps an in-memory database alive and shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate trace schema: %w", err)
	}
	return &Store{DB: db, driver: cfg.Driver}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun creates a run row holding the configuration it was recorded with.
func (s *Store) BeginRun(name string, entityID entity.ID, cfg *config.Config) (*Run, error) {
	name, err := validation.RunName(name)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := cfg.JSON()
	if err != nil {
		return nil, err
	}

	run := &Run{
		Name:       name,
		EntityID:   uint64(entityID),
		TickRate:   cfg.Simulation.TickRate,
		ConfigJSON: cfgJSON,
	}
	if err := s.DB.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run %q: %w", name, err)
	}
	return run, nil
}

// Append inserts samples in batches.
func (s *Store) Append(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if err := s.DB.CreateInBatches(samples, batchSize).Error; err != nil {
		return fmt.Errorf("failed to append %d samples: %w", len(samples), err)
	}
	return nil
}

// Run loads a run by ID.
func (s *Store) Run(id uint) (*Run, error) {
	var run Run
	err := s.DB.First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	return &run, nil
}

// Runs lists every run, newest first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	if err := s.DB.Order("id desc").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Samples returns a run's samples in tick order.
func (s *Store) Samples(runID uint) ([]Sample, error) {
	var samples []Sample
	err := s.DB.Where("run_id = ?", runID).Order("tick asc").Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load samples for run %d: %w", runID, err)
	}
	return samples, nil
}
