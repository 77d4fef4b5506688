package gridbill_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use MongoDB in production)
		store := memory.New()

		// Initialize engine with options
		e := gridbill.New(store,
			gridbill.WithLogger(slog.Default()),
			gridbill.WithCorrectionIncrements(100, 80),
		)

		// Start the engine
		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		// Register a meter
		created, err := e.RegisterMeter(ctx, 42)
		if err != nil {
			t.Fatal(err)
		}
		if !created {
			t.Fatal("meter 42 already registered")
		}

		// Record and activate a tariff
		v, err := e.RecordTariff(ctx, 1.0, 0.5, true)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Active tariff: %s\n", v.ID)

		// Record a reading
		res, err := e.RecordReading(ctx, 42, 1510.0, 730.5)
		if err != nil {
			t.Fatal(err)
		}
		if res.Corrected {
			log.Printf("Reading corrected, billed default consumption\n")
		}
		log.Printf("Billed: %.2f\n", res.Cost)
	})
}
