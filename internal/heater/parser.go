package heater

import (
	"regexp"
	"strconv"
	"time"
)

// number matches an optionally signed decimal such as "21", "-3.5", "21." or ".5".
const number = `(-?(?:\d+(?:\.\d*)?|\.\d+))`

var (
	airTempPattern        = regexp.MustCompile(`AIR TEMP:\s*` + number + `&deg;C`)
	airTempTargetPattern  = regexp.MustCompile(`AIR TEMP TARGET:\s*` + number + `&deg;C`)
	waterTankTempPattern  = regexp.MustCompile(`WATER TANK TEMP:\s*` + number + `&deg;C`)
	waterLevelPattern     = regexp.MustCompile(`WATER LEVEL:\s*` + number + `%`)
	systemNumberPattern   = regexp.MustCompile(`SYSTEM NO:\s*(\d+)`)
	airStatusPattern      = regexp.MustCompile(`AIR HEATING STATUS:\s*(ON|OFF)`)
	combinedStatusPattern = regexp.MustCompile(`AIR AND WATER HEATING STATUS:\s*(ON|OFF)`)

	// RE2 has no look-behind, so the combined label is matched as an optional
	// prefix and occurrences carrying it are skipped.
	waterStatusPattern = regexp.MustCompile(`(AIR AND )?WATER HEATING STATUS:\s*(ON|OFF)`)
)

// Parse extracts a Snapshot from the heater's HTML status page, stamped with
// the current UTC time. It never fails: markers that are missing or malformed
// simply leave the corresponding field unset.
func Parse(html string) *Snapshot {
	return ParseAt(html, time.Now().UTC())
}

// ParseAt is Parse with an explicit LastUpdate timestamp.
func ParseAt(html string, now time.Time) *Snapshot {
	return &Snapshot{
		AirTemperature:        findFloat(airTempPattern, html),
		AirTemperatureTarget:  findFloat(airTempTargetPattern, html),
		WaterTankTemperature:  findFloat(waterTankTempPattern, html),
		WaterLevel:            findFloat(waterLevelPattern, html),
		SystemNumber:          findString(systemNumberPattern, html),
		AirHeatingStatus:      findSwitch(airStatusPattern, html),
		WaterHeatingStatus:    findWaterStatus(html),
		CombinedHeatingStatus: findSwitch(combinedStatusPattern, html),
		LastUpdate:            now,
	}
}

func findString(re *regexp.Regexp, html string) *string {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	v := m[1]
	return &v
}

func findFloat(re *regexp.Regexp, html string) *float64 {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		// Only reachable for out-of-range values.
		return nil
	}
	return &v
}

func findSwitch(re *regexp.Regexp, html string) *bool {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	on := m[1] == "ON"
	return &on
}

func findWaterStatus(html string) *bool {
	for _, m := range waterStatusPattern.FindAllStringSubmatch(html, -1) {
		if m[1] != "" {
			continue
		}
		on := m[2] == "ON"
		return &on
	}
	return nil
}
