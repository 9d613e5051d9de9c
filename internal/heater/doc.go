// Package heater talks to a van heating controller's embedded web server.
//
// The controller publishes a single HTML status page and accepts commands as
// plain GET requests to fixed paths. This package provides the three pieces
// needed to use it:
//
//   - Parse turns the status page into a Snapshot. It never fails; each of the
//     eight recognised markers is extracted independently and missing markers
//     leave their field unset.
//   - Client fetches snapshots and sends commands, one bounded request per
//     call with no retries.
//   - DeviceError classifies every failure as either a communication error
//     (timeouts, refused connections, DNS, non-2xx responses) or an API error
//     (everything else).
//
// # Usage Example
//
//	client := heater.NewClient("192.168.4.1", nil)
//
//	snapshot, err := client.FetchSnapshot(ctx)
//	if heater.IsCommunicationError(err) {
//	    // transient, safe to fall back to a cached snapshot
//	}
//
//	if err := client.SendCommand(ctx, heater.CommandAirOn); err != nil {
//	    log.Fatal(heater.GetShortErrorMessage(err))
//	}
//
// # Device Endpoints
//
//	GET /        status page
//	GET /f1on    air heating on        GET /f1off   air heating off
//	GET /f2on    water heating on      GET /f2off   water heating off
//	GET /f3on    combined heating on   GET /f3off   combined heating off
//	GET /f4on    target temperature up
//	GET /f5on    target temperature down
package heater
