package heater

import (
	"fmt"
	"sort"
	"strings"
)

// Command is a named action understood by the heater's web server.
type Command string

const (
	CommandAirOn       Command = "air_on"
	CommandAirOff      Command = "air_off"
	CommandWaterOn     Command = "water_on"
	CommandWaterOff    Command = "water_off"
	CommandCombinedOn  Command = "combined_on"
	CommandCombinedOff Command = "combined_off"
	CommandTempUp      Command = "temp_up"
	CommandTempDown    Command = "temp_down"
)

// Device endpoints. The firmware exposes every action as a plain GET.
const (
	EndpointAirOn       = "/f1on"
	EndpointAirOff      = "/f1off"
	EndpointWaterOn     = "/f2on"
	EndpointWaterOff    = "/f2off"
	EndpointCombinedOn  = "/f3on"
	EndpointCombinedOff = "/f3off"
	EndpointTempUp      = "/f4on"
	EndpointTempDown    = "/f5on"
)

var commandEndpoints = map[Command]string{
	CommandAirOn:       EndpointAirOn,
	CommandAirOff:      EndpointAirOff,
	CommandWaterOn:     EndpointWaterOn,
	CommandWaterOff:    EndpointWaterOff,
	CommandCombinedOn:  EndpointCombinedOn,
	CommandCombinedOff: EndpointCombinedOff,
	CommandTempUp:      EndpointTempUp,
	CommandTempDown:    EndpointTempDown,
}

// Commands returns all known commands sorted by name.
func Commands() []Command {
	cmds := make([]Command, 0, len(commandEndpoints))
	for c := range commandEndpoints {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	return cmds
}

// ParseCommand looks up a command by name. Dashes are accepted in place of
// underscores so "temp-up" and "temp_up" are equivalent.
func ParseCommand(name string) (Command, error) {
	c := Command(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if _, ok := commandEndpoints[c]; !ok {
		return "", fmt.Errorf("unknown command %q", name)
	}
	return c, nil
}

// SwitchCommand returns the on or off command for a circuit.
func SwitchCommand(c Circuit, on bool) (Command, error) {
	suffix := "_off"
	if on {
		suffix = "_on"
	}
	return ParseCommand(string(c) + suffix)
}

// Endpoint returns the device path for the command, or "" if unknown.
func (c Command) Endpoint() string {
	return commandEndpoints[c]
}

// IsSwitch reports whether the command turns a circuit on or off. The device
// is slow to reflect these in its status page.
func (c Command) IsSwitch() bool {
	return c != CommandTempUp && c != CommandTempDown && c.Endpoint() != ""
}

func (c Command) String() string {
	return string(c)
}
