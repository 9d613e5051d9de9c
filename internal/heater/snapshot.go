package heater

import (
	"time"
)

// Field keys used in JSON output and in Snapshot.Fields.
const (
	KeyAirTemperature        = "air_temperature"
	KeyAirTemperatureTarget  = "air_temperature_target"
	KeyWaterTankTemperature  = "water_tank_temperature"
	KeyWaterLevel            = "water_level"
	KeySystemNumber          = "system_number"
	KeyAirHeatingStatus      = "air_heating_status"
	KeyWaterHeatingStatus    = "water_heating_status"
	KeyCombinedHeatingStatus = "combined_heating_status"
)

// Snapshot is one reading of the heater status page.
//
// Every measurement is optional: a nil pointer means the corresponding marker
// was not found on the page. LastUpdate is always set. A Snapshot must not be
// modified after it has been handed to a Coordinator.
type Snapshot struct {
	AirTemperature        *float64  `json:"air_temperature,omitempty"`
	AirTemperatureTarget  *float64  `json:"air_temperature_target,omitempty"`
	WaterTankTemperature  *float64  `json:"water_tank_temperature,omitempty"`
	WaterLevel            *float64  `json:"water_level,omitempty"`
	SystemNumber          *string   `json:"system_number,omitempty"`
	AirHeatingStatus      *bool     `json:"air_heating_status,omitempty"`
	WaterHeatingStatus    *bool     `json:"water_heating_status,omitempty"`
	CombinedHeatingStatus *bool     `json:"combined_heating_status,omitempty"`
	LastUpdate            time.Time `json:"last_update"`
}

// Circuit identifies one of the three heating circuits that can be switched.
type Circuit string

const (
	CircuitAir      Circuit = "air"
	CircuitWater    Circuit = "water"
	CircuitCombined Circuit = "combined"
)

// Circuits lists the switchable circuits in display order.
var Circuits = []Circuit{CircuitAir, CircuitWater, CircuitCombined}

// Status returns the reported status of a circuit and whether it was present.
func (s *Snapshot) Status(c Circuit) (on bool, ok bool) {
	if s == nil {
		return false, false
	}

	var p *bool
	switch c {
	case CircuitAir:
		p = s.AirHeatingStatus
	case CircuitWater:
		p = s.WaterHeatingStatus
	case CircuitCombined:
		p = s.CombinedHeatingStatus
	}
	if p == nil {
		return false, false
	}
	return *p, true
}

// HeatingOn reports whether a circuit is on. Absent statuses read as off.
func (s *Snapshot) HeatingOn(c Circuit) bool {
	on, _ := s.Status(c)
	return on
}

// Fields returns the present measurements keyed by their JSON names.
// LastUpdate is not included.
func (s *Snapshot) Fields() map[string]any {
	fields := make(map[string]any)
	if s == nil {
		return fields
	}

	putFloat := func(key string, v *float64) {
		if v != nil {
			fields[key] = *v
		}
	}
	putBool := func(key string, v *bool) {
		if v != nil {
			fields[key] = *v
		}
	}

	putFloat(KeyAirTemperature, s.AirTemperature)
	putFloat(KeyAirTemperatureTarget, s.AirTemperatureTarget)
	putFloat(KeyWaterTankTemperature, s.WaterTankTemperature)
	putFloat(KeyWaterLevel, s.WaterLevel)
	if s.SystemNumber != nil {
		fields[KeySystemNumber] = *s.SystemNumber
	}
	putBool(KeyAirHeatingStatus, s.AirHeatingStatus)
	putBool(KeyWaterHeatingStatus, s.WaterHeatingStatus)
	putBool(KeyCombinedHeatingStatus, s.CombinedHeatingStatus)

	return fields
}

// SameMeasurements reports whether two snapshots carry the same measurements,
// ignoring LastUpdate.
func (s *Snapshot) SameMeasurements(other *Snapshot) bool {
	a, b := s.Fields(), other.Fields()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
