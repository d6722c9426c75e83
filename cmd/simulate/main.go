package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/telemed-routing/internal/app"
	"github.com/hackgods/telemed-routing/internal/config"
	"github.com/hackgods/telemed-routing/internal/db"
)

type simOptions struct {
	baseURL      string
	duration     time.Duration
	workers      int
	windows      int
	windowLength time.Duration
	cancelRatio  float64
	patientLimit int
}

type dataPool struct {
	patients []uuid.UUID

	mu     sync.Mutex
	booked []uuid.UUID
}

func (p *dataPool) add(id uuid.UUID) {
	p.mu.Lock()
	p.booked = append(p.booked, id)
	p.mu.Unlock()
}

// take removes and returns a random booking so it is cancelled at most once.
func (p *dataPool) take(rng *rand.Rand) (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.booked) == 0 {
		return uuid.Nil, false
	}
	i := rng.Intn(len(p.booked))
	id := p.booked[i]
	p.booked[i] = p.booked[len(p.booked)-1]
	p.booked = p.booked[:len(p.booked)-1]
	return id, true
}

type operationMetrics struct {
	total    int64
	success  int64
	conflict int64
	errors   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *operationMetrics) record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case success:
		atomic.AddInt64(&m.success, 1)
	case conflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errors, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *operationMetrics) percentiles() (avg, p50, p95, worst time.Duration) {
	m.mu.Lock()
	latencies := append([]time.Duration(nil), m.latencies...)
	m.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	at := func(pct int) time.Duration {
		return latencies[min(len(latencies)*pct/100, len(latencies)-1)]
	}
	return sum / time.Duration(len(latencies)), at(50), at(95), latencies[len(latencies)-1]
}

type simulator struct {
	opts    simOptions
	pool    *dataPool
	client  *http.Client
	windows []time.Time
	log     zerolog.Logger

	assigned atomic.Int64
	queued   atomic.Int64

	booking operationMetrics
	cancel  operationMetrics
}

func main() {
	var opts simOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Book the same windows concurrently through the API and audit for over-booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "api", "http://localhost:8080", "API base URL")
	cmd.Flags().DurationVar(&opts.duration, "duration", 30*time.Second, "how long to generate load")
	cmd.Flags().IntVar(&opts.workers, "workers", 16, "concurrent clients")
	cmd.Flags().IntVar(&opts.windows, "windows", 4, "distinct appointment windows contended for")
	cmd.Flags().DurationVar(&opts.windowLength, "window-length", 30*time.Minute, "appointment length")
	cmd.Flags().Float64Var(&opts.cancelRatio, "cancel-ratio", 0.1, "share of operations that cancel an earlier booking")
	cmd.Flags().IntVar(&opts.patientLimit, "patients", 2000, "patients loaded from postgres")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts simOptions) error {
	if opts.workers <= 0 || opts.duration <= 0 || opts.windows <= 0 {
		return fmt.Errorf("workers, duration and windows must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg, "simulate")

	pgPool, err := db.ConnectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	patients, err := loadPatients(ctx, pgPool, opts.patientLimit)
	if err != nil {
		return err
	}
	logger.Info().Int("patients", len(patients)).Msg("data pool loaded")

	// Windows start tomorrow at 09:00 in the configured zone so every
	// booking is in the future.
	now := time.Now().In(cfg.Location)
	day := time.Date(now.Year(), now.Month(), now.Day()+1, 9, 0, 0, 0, cfg.Location)
	windows := make([]time.Time, opts.windows)
	for i := range windows {
		windows[i] = day.Add(time.Duration(i) * opts.windowLength)
	}

	sim := &simulator{
		opts:    opts,
		pool:    &dataPool{patients: patients},
		client:  &http.Client{Timeout: 10 * time.Second},
		windows: windows,
		log:     logger,
	}
	sim.run(ctx)

	violations, err := auditCapacity(ctx, pgPool, day)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	sim.report(violations)
	if len(violations) > 0 {
		return fmt.Errorf("%d capacity violations found", len(violations))
	}
	return nil
}

func loadPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no patients found, run seed first")
	}
	return ids, nil
}

func (s *simulator) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.opts.duration)
	defer cancel()

	s.log.Info().
		Dur("duration", s.opts.duration).
		Int("workers", s.opts.workers).
		Int("windows", len(s.windows)).
		Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.opts.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for ctx.Err() == nil {
				if rng.Float64() < s.opts.cancelRatio {
					s.doCancel(ctx, rng)
				} else {
					s.doBooking(ctx, rng)
				}
			}
		}(i)
	}
	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	start := s.windows[rng.Intn(len(s.windows))]
	body, _ := json.Marshal(map[string]string{
		"patient_id":       s.pool.patients[rng.Intn(len(s.pool.patients))].String(),
		"start_time":       start.Format(time.RFC3339),
		"end_time":         start.Add(s.opts.windowLength).Format(time.RFC3339),
		"appointment_type": "VIDEO",
	})

	began := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.baseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	latency := time.Since(began)
	if err != nil {
		if ctx.Err() == nil {
			s.booking.record(latency, false, false)
		}
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var appt struct {
			ID            uuid.UUID `json:"id"`
			RoutingStatus string    `json:"routing_status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&appt); err == nil {
			if appt.RoutingStatus == "ASSIGNED" {
				s.assigned.Add(1)
			} else {
				s.queued.Add(1)
			}
			s.pool.add(appt.ID)
		}
		s.booking.record(latency, true, false)
	case http.StatusConflict:
		s.booking.record(latency, false, true)
	default:
		s.booking.record(latency, false, false)
	}
}

func (s *simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.take(rng)
	if !ok {
		return
	}

	began := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/appointments/%s/cancel", s.opts.baseURL, id), nil)
	resp, err := s.client.Do(req)
	latency := time.Since(began)
	if err != nil {
		if ctx.Err() == nil {
			s.cancel.record(latency, false, false)
		}
		return
	}
	resp.Body.Close()
	s.cancel.record(latency, resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusConflict)
}

type violation struct {
	DoctorID    uuid.UUID
	StartTime   time.Time
	Overlapping int
	Capacity    int
}

// auditCapacity finds scheduled appointments whose doctor holds more
// overlapping scheduled appointments than their capacity allows.
func auditCapacity(ctx context.Context, pool *pgxpool.Pool, from time.Time) ([]violation, error) {
	rows, err := pool.Query(ctx, `
		SELECT a.doctor_id, a.start_time, count(*)::int, COALESCE(d.max_concurrent_patients, 1)
		FROM appointments a
		JOIN appointments b
		  ON b.doctor_id = a.doctor_id
		 AND b.status = 'SCHEDULED'
		 AND b.start_time < a.end_time
		 AND b.end_time > a.start_time
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.status = 'SCHEDULED' AND a.start_time >= $1
		GROUP BY a.id, a.doctor_id, a.start_time, d.max_concurrent_patients
		HAVING count(*) > COALESCE(d.max_concurrent_patients, 1)
		ORDER BY a.start_time, a.doctor_id
	`, from)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (violation, error) {
		var v violation
		err := row.Scan(&v.DoctorID, &v.StartTime, &v.Overlapping, &v.Capacity)
		return v, err
	})
}

func (s *simulator) report(violations []violation) {
	line := strings.Repeat("=", 72)
	fmt.Println("\n" + line)
	fmt.Println("SIMULATION REPORT")
	fmt.Println(line)
	fmt.Printf("Duration: %s  Workers: %d  Windows: %d\n\n", s.opts.duration, s.opts.workers, len(s.windows))

	printOperation("Booking", &s.booking)
	fmt.Printf("  Assigned: %d  Queued (no doctor): %d\n\n", s.assigned.Load(), s.queued.Load())
	printOperation("Cancel", &s.cancel)

	if len(violations) == 0 {
		fmt.Println("Capacity audit: OK, no doctor exceeds capacity")
		return
	}
	fmt.Printf("Capacity audit: %d VIOLATIONS\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  doctor=%s start=%s overlapping=%d capacity=%d\n",
			v.DoctorID, v.StartTime.Format(time.RFC3339), v.Overlapping, v.Capacity)
	}
}

func printOperation(name string, m *operationMetrics) {
	total := atomic.LoadInt64(&m.total)
	if total == 0 {
		return
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	success := atomic.LoadInt64(&m.success)
	conflict := atomic.LoadInt64(&m.conflict)
	errs := atomic.LoadInt64(&m.errors)
	avg, p50, p95, worst := m.percentiles()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d  Success: %d (%.1f%%)  Conflict: %d (%.1f%%)  Error: %d (%.1f%%)\n",
		total, success, pct(success), conflict, pct(conflict), errs, pct(errs))
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), worst.Round(time.Millisecond))
}
