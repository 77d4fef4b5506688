// Package gridbill provides an electricity-meter billing engine for Go
// applications.
//
// Gridbill is designed as a library, not a service. Import it directly into
// your Go application, or run the bundled gridbilld daemon to expose it over
// RabbitMQ. It provides:
//
//   - A meter registry and an append-only, auditable reading log
//   - Versioned day/night tariffs with a single activatable current version
//   - Delta pricing of periodic readings against the last accepted baseline
//   - Rollback/tamper detection with fixed-increment correction and flagging
//   - A command channel over AMQP with per-request ephemeral reply queues
//   - Pluggable lifecycle hooks (audit trail, Prometheus metrics)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/gridbill"
//	    "github.com/xraph/gridbill/store/mongo"
//	)
//
//	// Initialize store
//	db, err := grove.Open(mongodriver.Open(mongoURI, "gridbill"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := mongo.New(db)
//
//	// Create engine
//	e := gridbill.New(store)
//
//	// Start the engine (runs store migrations, initializes plugins)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Meters are registered once and never deleted:
//
//	created, err := e.RegisterMeter(ctx, 42)
//
// Tariffs are versioned; exactly one (or zero) is current at any time:
//
//	v, err := e.RecordTariff(ctx, 1.0, 0.5, true) // record and activate
//
// Readings are priced by delta against the last accepted reading and are
// immutable once written:
//
//	res, err := e.RecordReading(ctx, 42, 1510.0, 730.5)
//	if res.Corrected {
//	    // counter rolled back; a default consumption was billed instead
//	}
//
// # Tamper Correction
//
// A meter counter below its baseline would price a negative bill. Instead,
// the engine substitutes baseline plus a fixed increment (100 day / 80 night
// by default), bills that consumption, and flags the reading as corrected so
// it can be audited.
//
// # TypeID
//
// All records use TypeID for globally unique, type-safe identifiers:
//
//	mtr_01h2xcejqtf2nbrexx3vqjhp41  // Meter record ID
//	trf_01h2xcejqtf2nbrexx3vqjhp41  // Tariff version ID
//	rdg_01h455vb4pex5vsknk084sn02q  // Reading ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of records.
package gridbill
