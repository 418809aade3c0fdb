package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hamletcraft.dev/internal/persistence/indexdb"
	"hamletcraft.dev/internal/persistence/oplog"
	"hamletcraft.dev/internal/persistence/snapshot"
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/tuning"
	"hamletcraft.dev/internal/sim/village"
	"hamletcraft.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "village_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		schemaDir  = flag.String("schemas", "./schemas", "protocol schema directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite metadata index")
		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalog.Load(filepath.Join(*configDir, "items.json"))
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	cfg := village.Config{
		ID:                *worldID,
		Seed:              *seed,
		TickRateHz:        tune.TickRateHz,
		DayTicks:          tune.DayTicks,
		GridRadius:        tune.GridRadius,
		StartingBudget:    tune.StartingBudget,
		IncomeIntervalSec: tune.IncomeIntervalSec,
		ChurnIntervalSec:  tune.ChurnIntervalSec,
		SpawnIntervalSec:  tune.SpawnIntervalSec,
		VillagerSpeedMin:  tune.VillagerSpeedMin,
		VillagerSpeedMax:  tune.VillagerSpeedMax,
		IdleSecMin:        tune.IdleSecMin,
		IdleSecMax:        tune.IdleSecMax,
		MoveSecMin:        tune.MoveSecMin,
		MoveSecMax:        tune.MoveSecMax,
		WanderRadius:      tune.WanderRadius,
		InitialTrees:      tune.InitialTrees,
		SnapshotEverySec:  tune.SnapshotEverySec,
	}

	v, err := village.New(cfg, cat)
	if err != nil {
		logger.Fatalf("create village: %v", err)
	}

	// Resume from snapshot when one exists; a fresh world keeps its
	// generated environment.
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.Read(snapshotToLoad)
		if err != nil {
			// Corrupt or unreadable snapshots are non-fatal: start fresh.
			logger.Printf("load snapshot %s: %v (starting fresh)", snapshotToLoad, err)
		} else {
			v.Restore(snap)
			logger.Printf("resumed from %s at tick %d", snapshotToLoad, snap.Header.Tick)
		}
	}

	var idx *indexdb.Index
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	logsDir := filepath.Join(worldDir, "logs")
	auditLog := oplog.NewAuditLog(logsDir)
	defer auditLog.Close()
	econLog := oplog.NewEconLog(logsDir)
	defer econLog.Close()
	if idx != nil {
		v.SetLoggers(multiEcon{idx, econLog}, multiAudit{idx, auditLog})
	} else {
		v.SetLoggers(econLog, auditLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writing happens off the sim goroutine.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	v.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.Write(path, snap); err != nil {
					logger.Printf("write snapshot: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go func() {
		if err := v.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("village stopped: %v", err)
		}
	}()

	cmdSchema, err := jsonschema.Compile(filepath.Join(*schemaDir, "cmd.schema.json"))
	if err != nil {
		logger.Printf("compile cmd schema: %v (structural validation disabled)", err)
		cmdSchema = nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/statez", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(v.RequestStatez())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(v, logger, cmdSchema).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// multiAudit fans audit entries out to the index db and the JSONL log.
type multiAudit struct {
	a village.AuditLogger
	b village.AuditLogger
}

func (m multiAudit) WriteAudit(entry village.AuditEntry) error {
	err1 := m.a.WriteAudit(entry)
	err2 := m.b.WriteAudit(entry)
	if err1 != nil {
		return err1
	}
	return err2
}

// multiEcon fans economy entries out to the index db and the JSONL log.
type multiEcon struct {
	a village.EconLogger
	b village.EconLogger
}

func (m multiEcon) WriteEcon(entry village.EconEntry) error {
	err1 := m.a.WriteEcon(entry)
	err2 := m.b.WriteEcon(entry)
	if err1 != nil {
		return err1
	}
	return err2
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
