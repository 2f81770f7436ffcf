// Package seed performs the one-time CSV user bootstrap at process
// start. The import is an idempotent bootstrap, not a merge: it
// runs only while the user store is empty.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/iliyamo/staff-auth/internal/repository"
	"github.com/iliyamo/staff-auth/internal/utils"
)

// Expected header names. "Matrecul" is the spelling the HR export
// actually uses, kept as-is so real files load.
var requiredColumns = []string{"Matrecul", "Password", "First Name", "Last Name"}

type record struct {
	matricule string
	password  string
	firstName string
	lastName  string
}

// ImportUsers populates the users table from the CSV file at path.
// An absent file is logged and skipped (startup continues); a file
// that exists but is malformed propagates an error. Passwords are
// hashed before insertion and all rows go in as one transaction.
func ImportUsers(ctx context.Context, db *sql.DB, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("seed: CSV file not found at %s, skipping import", path)
		return nil
	}

	users := repository.NewUserRepo(db)
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Printf("seed: users already exist, skipping CSV import")
		return nil
	}

	records, err := readRecords(path)
	if err != nil {
		return err
	}
	log.Printf("seed: found %d records in CSV file", len(records))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txUsers := users.WithTx(tx)
	for _, rec := range records {
		hash, err := utils.HashPassword(rec.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", rec.matricule, err)
		}
		if _, err := txUsers.Create(ctx, rec.matricule, rec.firstName, rec.lastName, hash); err != nil {
			return fmt.Errorf("insert user %s: %w", rec.matricule, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	log.Printf("seed: successfully imported %d users from CSV", len(records))
	return nil
}

// readRecords parses the CSV file, mapping named header columns to
// fields so column order in the export does not matter.
func readRecords(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file has no header row")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("CSV header missing column %q", col)
		}
	}

	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, record{
			matricule: row[idx["Matrecul"]],
			password:  row[idx["Password"]],
			firstName: row[idx["First Name"]],
			lastName:  row[idx["Last Name"]],
		})
	}
	return out, nil
}
