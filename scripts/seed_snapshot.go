// seed_snapshot.go loads a roster snapshot YAML into the matcher database.
//
// Usage:
//
//	go run scripts/seed_snapshot.go -snapshot testdata/roster.yaml -database postgres://localhost/matcher
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

func main() {
	snapshotPath := flag.String("snapshot", "snapshot.yaml", "path to roster snapshot YAML")
	databaseURL := flag.String("database", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	dryRun := flag.Bool("dry-run", false, "print the snapshot without writing it")
	flag.Parse()

	snap, err := store.LoadSnapshot(*snapshotPath)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}
	log.Printf("parsed %d activities and %d employees from %s", len(snap.Activities), len(snap.Employees), *snapshotPath)

	if *dryRun {
		for i, a := range snap.Activities {
			fmt.Printf("[a%d] %s (type=%s, target=%s, seats=%d/%d, skills=%d)\n",
				i+1, a.ID, a.Type, a.TargetLevel, a.FilledSeats, a.AvailableSeats, len(a.RequiredSkills))
		}
		for i, e := range snap.Employees {
			fmt.Printf("[e%d] %s (department=%s, skills=%d, history=%d)\n",
				i+1, e.ID, e.Department, len(e.Skills), len(e.History))
		}
		return
	}

	if *databaseURL == "" {
		log.Fatalf("-database or DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.NewPostgresStore(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := db.ImportSnapshot(ctx, snap); err != nil {
		log.Fatalf("import snapshot: %v", err)
	}
	log.Printf("done: %d activities, %d employees", len(snap.Activities), len(snap.Employees))
}
