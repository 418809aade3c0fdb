package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`
	DayTicks   int `yaml:"day_ticks"`
	GridRadius int `yaml:"grid_radius"`

	StartingBudget float64 `yaml:"starting_budget"`

	IncomeIntervalSec float64 `yaml:"income_interval_sec"`
	ChurnIntervalSec  float64 `yaml:"churn_interval_sec"`
	SpawnIntervalSec  float64 `yaml:"spawn_interval_sec"`

	VillagerSpeedMin float64 `yaml:"villager_speed_min"`
	VillagerSpeedMax float64 `yaml:"villager_speed_max"`
	IdleSecMin       float64 `yaml:"idle_sec_min"`
	IdleSecMax       float64 `yaml:"idle_sec_max"`
	MoveSecMin       float64 `yaml:"move_sec_min"`
	MoveSecMax       float64 `yaml:"move_sec_max"`
	WanderRadius     int     `yaml:"wander_radius"`

	InitialTrees int `yaml:"initial_trees"`

	SnapshotEverySec float64 `yaml:"snapshot_every_sec"`
}

func Load(path string) (Tuning, error) {
	// A file that omits starting_budget means "use the default", while an
	// explicit 0 is a valid broke start.
	t := Tuning{StartingBudget: -1}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
