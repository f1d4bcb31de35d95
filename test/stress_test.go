package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"mcmarket/draft"
	"mcmarket/listing"
	"mcmarket/payment"
	"mcmarket/test/actors"
	"mcmarket/test/chaos"
	"mcmarket/test/infra"
	"mcmarket/test/oracles"
	"mcmarket/wizard"
)

var (
	flDuration    = flag.Duration("duration", 60*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors per authority")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

// capturingProvider stands in for the hosted checkout: it hands back a fake
// redirect and keeps the callback URLs so the test can replay them.
type capturingProvider struct {
	successURL string
	cancelURL  string
}

func (p *capturingProvider) CreateSession(_ context.Context, params payment.CreateSessionParams) (payment.CheckoutSession, error) {
	p.successURL = params.SuccessURL
	p.cancelURL = params.CancelURL
	return payment.CheckoutSession{URL: "https://checkout.test/session"}, nil
}

func TestListingCommitConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	coord := listing.NewCoordinator(pool, nil)

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// Sellers battling over the same handful of authorities. Each authority
	// gets several goroutines replaying the same finalized snapshot.
	authorities := []string{"800101", "800102", "800103"}
	for _, mc := range authorities {
		snap := stressSnapshot(mc)
		for i := 0; i < *flConcurrency; i++ {
			g.Go(func() error { return actors.Seller(ctx2, coord, snap, stop) })
		}
		g.Go(func() error { return actors.Browser(ctx2, pool, mc, stop) })
	}

	// A full wizard session whose success return is replayed concurrently,
	// exercising the latch, the draft slot, and the durable marker together.
	mgr, session, sig := startExcursion(t, ctx, coord)
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Returner(ctx2, mgr, session, sig, stop) })
	}

	g.Go(func() error { return actors.OutboxWorker(ctx2, pool, stop) })
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func stressSnapshot(mc string) wizard.FormSnapshot {
	return wizard.FormSnapshot{
		MCNumber:     mc,
		LegalName:    "Stress Carrier " + mc,
		Title:        fmt.Sprintf("Stress Carrier %s - MC #%s", mc, mc),
		Price:        "12500",
		ListState:    "TX",
		SafetyRating: "Satisfactory",
		PowerUnits:   4,
		YearsActive:  3,
	}
}

// startExcursion walks a session to the payment step, begins the excursion
// against the capturing provider, and returns the parsed success signal.
func startExcursion(t *testing.T, ctx context.Context, coord *listing.Coordinator) (*payment.Manager, *wizard.Session, payment.Signal) {
	t.Helper()

	provider := &capturingProvider{}
	signer := payment.NewTokenSigner("stress-secret", time.Hour)
	logger := log.New(io.Discard, "", 0)
	mgr := payment.NewManager(draft.NewMemoryStore(), provider, coord, signer, "http://localhost/api/wizard", logger, nil)

	sessions := wizard.NewSessions()
	s := sessions.Start()
	mc := "800999"
	title := fmt.Sprintf("Return Carrier - MC #%s", mc)
	price := "9000"
	state := "OK"
	s.Form.Apply(wizard.FormUpdate{MCNumber: &mc, Title: &title, Price: &price, ListState: &state})

	if _, err := mgr.Begin(ctx, s); err != nil {
		t.Fatalf("begin excursion: %v", err)
	}
	u, err := url.Parse(provider.successURL)
	if err != nil {
		t.Fatalf("parse success url: %v", err)
	}
	return mgr, s, payment.ParseSignal(u.Query())
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"listings", `SELECT id, mc_number, title, price, status, created_at FROM listings ORDER BY created_at DESC LIMIT 50`},
		{"commit_markers", `SELECT key, created_at FROM commit_markers ORDER BY created_at DESC LIMIT 50`},
		{"listing_events", `SELECT id, listing_id, type, created_at FROM listing_events ORDER BY id DESC LIMIT 50`},
		{"outbox", `SELECT id, topic, status, attempts, created_at FROM outbox ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
