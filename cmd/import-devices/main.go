package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cityinfra/asset-registry/internal/importexport"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to the import file (csv/xlsx/json/yaml)")
		dbURL    = flag.String("db", "", "DATABASE_URL")
		kind     = flag.String("kind", "", "device kind (traffic_sign, additional_sign, ...)")
		variant  = flag.String("variant", "real", "plan or real")
		userID   = flag.String("user", "", "acting user id (required unless dry-run)")
		format   = flag.String("format", "", "format override; defaults to the file extension")
		dryRun   = flag.Bool("dry-run", false, "validate without committing")
	)
	flag.Parse()

	if *filePath == "" || *dbURL == "" || *kind == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := importexport.CLIConfig{
		FilePath:    *filePath,
		DatabaseURL: *dbURL,
		Format:      *format,
		Kind:        *kind,
		Variant:     *variant,
		UserID:      *userID,
		DryRun:      *dryRun,
	}

	result, err := importexport.Run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	for _, row := range result.Dispositions {
		if row.Status == importexport.StatusError {
			fmt.Printf("row %d: %s (%s): %s\n", row.Index, row.Status, row.Column, row.Reason)
		}
	}
	fmt.Printf("created=%d updated=%d skipped=%d errors=%d committed=%v\n",
		result.Created, result.Updated, result.Skipped, result.Errors, result.Committed)
	if result.Errors > 0 {
		os.Exit(1)
	}
}
