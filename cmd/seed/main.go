package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hackgods/telemed-routing/internal/app"
	"github.com/hackgods/telemed-routing/internal/config"
	"github.com/hackgods/telemed-routing/internal/db"
	"github.com/hackgods/telemed-routing/internal/routing"
)

const (
	seedBlock    = "Nabha"
	seedDistrict = "Patiala"
)

type seedOptions struct {
	doctorsPerFacility int
	chws               int
	patients           int
	unmappedPercent    int
	migrate            bool
}

func main() {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate users, doctors and patients for the Nabha block",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.doctorsPerFacility, "doctors-per-facility", 3, "doctors created at each facility")
	cmd.Flags().IntVar(&opts.chws, "chws", 20, "community health workers")
	cmd.Flags().IntVar(&opts.patients, "patients", 2000, "patients")
	cmd.Flags().IntVar(&opts.unmappedPercent, "unmapped-percent", 5, "share of patients living in villages outside the routing table")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "apply migrations before seeding")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts seedOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg, "seed")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connectCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	if opts.migrate {
		n, err := db.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	if err := seedDoctors(ctx, pool, logger, routing.NabhaFacilities, opts.doctorsPerFacility); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	if err := seedCHWs(ctx, pool, logger, opts.chws); err != nil {
		return fmt.Errorf("seed chws: %w", err)
	}
	if err := seedPatients(ctx, pool, logger, routing.NabhaFacilities, opts); err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	logger.Info().Msg("seed complete")
	return nil
}

// seedDoctors staffs every facility. Each doctor covers a random share of
// the facility's villages; the first one per facility also gets a priority.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, facilities map[string][]string, perFacility int) error {
	names := lo.Keys(facilities)
	sort.Strings(names)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, facility := range names {
			villages := facilities[facility]
			for i := 0; i < perFacility; i++ {
				id := uuid.New()
				name := "Dr. " + gofakeit.Name()

				if _, err := tx.Exec(ctx,
					`INSERT INTO users (id, role, full_name) VALUES ($1, 'DOCTOR', $2)`,
					id, name,
				); err != nil {
					return err
				}

				var priority *int
				if i == 0 {
					p := 1
					priority = &p
				}
				capacity := gofakeit.Number(1, 3)

				if _, err := tx.Exec(ctx, `
					INSERT INTO doctors (id, name, hospital, block, district, priority, max_concurrent_patients)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				`, id, name, facility, seedBlock, seedDistrict, priority, capacity); err != nil {
					return err
				}

				covered := lo.Samples(villages, max(1, len(villages)/perFacility))
				for _, v := range covered {
					if _, err := tx.Exec(ctx,
						`INSERT INTO doctor_coverage_villages (doctor_id, village) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
						id, v,
					); err != nil {
						return err
					}
				}
			}
			logger.Info().Str("facility", facility).Int("doctors", perFacility).Msg("facility staffed")
		}
		return nil
	})
}

func seedCHWs(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, count int) error {
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			if _, err := tx.Exec(ctx,
				`INSERT INTO users (id, role, full_name) VALUES ($1, 'CHW', $2)`,
				uuid.New(), gofakeit.Name(),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		logger.Info().Int("count", count).Msg("chws seeded")
	}
	return err
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, facilities map[string][]string, opts seedOptions) error {
	villages := lo.Flatten(lo.Values(facilities))
	const batchSize = 500

	for offset := 0; offset < opts.patients; offset += batchSize {
		end := min(offset+batchSize, opts.patients)

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				village := lo.Sample(villages)
				if gofakeit.Number(1, 100) <= opts.unmappedPercent {
					village = gofakeit.City()
				}
				if _, err := tx.Exec(ctx, `
					INSERT INTO patients (id, name, village, block, district)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.New(), gofakeit.Name(), village, seedBlock, seedDistrict); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info().Int("seeded", end).Int("total", opts.patients).Msg("patients progress")
	}
	return nil
}
