// Package system is the composition root: it decodes the system model
// JSON document into a tree of ADC/AcI components wired to their
// schedules, resources, and RMS adapters. The workflows JSON document is
// decoded by internal/api, not here.
//
// Grounded on Tegu's main/tegu.go (parses flags, then wires managers
// together by hand), generalized here from Tegu's fixed manager set to a
// config-driven tree of arbitrary depth.
package system

import (
	"encoding/json"
	"fmt"
	"io"
)

// Config is the top-level system model document.
type Config struct {
	Simulator SimulatorConfig `json:"simulator"`
	Adcs      []AdcConfig     `json:"adc"`
	Acis      []AciConfig     `json:"aci"`
}

type SimulatorConfig struct {
	EndTime      int64 `json:"endTime"`
	IsSimulation bool  `json:"isSimulation"`
}

// AdcConfig configures one interior broker.
type AdcConfig struct {
	Id                      string  `json:"id"`
	ParentId                string  `json:"parentId,omitempty"`
	SchedulerTyp            string  `json:"schedulerTyp"`
	RequestOrder            string  `json:"requestOrder"`
	NumOfSlots              int64   `json:"numOfSlots"`
	SlotWidth               int64   `json:"slotWidth"`
	Timeout                 int64   `json:"timeout"`
	MaxOptimizationTime     int64   `json:"maxOptimizationTime"`
	RejectNewReservationsAt float64 `json:"rejectNewReservationsAt"`
}

// AciConfig configures one leaf broker; RmsSystem is an untagged
// union decoded by RmsSystemConfig.UnmarshalJSON.
type AciConfig struct {
	Id            string          `json:"id"`
	AdcId         string          `json:"adcId"`
	CommitTimeout int64           `json:"commitTimeout"`
	RmsSystem     RmsSystemConfig `json:"rmsSystem"`
}

// RmsSystemConfig is the untagged DummyRms/SlurmRms union. Kind is set
// by UnmarshalJSON by probing which fields are present: DummyRms documents
// carry gridNodes/networkLinks, SlurmRms documents carry slurmUrl.
type RmsSystemConfig struct {
	Kind string // "DummyRms" or "SlurmRms", set during decode

	Typ          string `json:"typ"`
	SchedulerTyp string `json:"schedulerTyp"`

	// DummyRms fields
	SlotWidth    int64             `json:"slotWidth"`
	NumOfSlots   int64             `json:"numOfSlots"`
	GridNodes    []GridNodeConfig  `json:"gridNodes"`
	NetworkLinks []NetworkLinkConfig `json:"networkLinks"`

	// SlurmRms fields
	SlurmId  string `json:"id"`
	SlurmUrl string `json:"slurmUrl"`
	UserName string `json:"userName"`
	JwtToken string `json:"jwtToken"`
}

type GridNodeConfig struct {
	Id                string   `json:"id"`
	Cpus              int64    `json:"cpus"`
	ConnectedToRouter []string `json:"connectedToRouter"`
}

type NetworkLinkConfig struct {
	Id         string `json:"id"`
	StartPoint string `json:"startPoint"`
	EndPoint   string `json:"endPoint"`
	Capacity   int64  `json:"capacity"`
}

func (c *RmsSystemConfig) UnmarshalJSON(data []byte) error {
	type alias RmsSystemConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("rmsSystem: %w", err)
	}
	*c = RmsSystemConfig(a)
	if c.SlurmUrl != "" {
		c.Kind = "SlurmRms"
	} else {
		c.Kind = "DummyRms"
	}
	return nil
}

// LoadConfig decodes a system model document.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode system config: %w", err)
	}
	return &cfg, nil
}
