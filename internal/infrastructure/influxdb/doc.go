// Package influxdb records booth check-in outcomes as InfluxDB points.
//
// Each resolved scan becomes one checkin_outcome point tagged with the
// booth (company_id) and the outcome (success, warning, error), so event
// staff can chart booth traffic and failure rates while doors are open.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB,
//	    influxdb.WithDefaultTag("install_id", cfg.App.InstallID))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteCheckinOutcome("42", "success", 180*time.Millisecond, time.Now())
//
// Writes are batched and never block or return errors; a failed batch is
// reported through SetOnError.
package influxdb
