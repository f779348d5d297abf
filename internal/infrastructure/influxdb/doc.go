// Package influxdb records device state history in InfluxDB.
//
// Every device create and toggle writes a point to the device_state
// measurement, tagged with device_id, room and type, with fields state
// (0 or 1) and variable. Dashboards can then show how long a device was on
// or how its variable drifted.
//
// The integration is optional (influxdb.enabled in config.yaml). Connect
// returns ErrDisabled when it is switched off.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceState(influxdb.DeviceState{DeviceID: dev.ID, State: true})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are batched according to
// batch_size and flush_interval; failures are reported through SetOnError.
package influxdb
