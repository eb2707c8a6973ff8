package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/database"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/pressly/goose/v3"
	"gopkg.in/yaml.v3"
)

type SeedData struct {
	Users         []User         `yaml:"users"`
	Relationships []Relationship `yaml:"relationships"`
	Grants        []Grant        `yaml:"grants"`
}

type User struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
	IsVerified  bool   `yaml:"is_verified"`
}

type Relationship struct {
	ClientEmail       string `yaml:"client_email"`
	ProfessionalEmail string `yaml:"professional_email"`
}

type Grant struct {
	ClientEmail       string   `yaml:"client_email"`
	ProfessionalEmail string   `yaml:"professional_email"`
	Slugs             []string `yaml:"slugs"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("command required")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		return seedCommand(args)
	case "nuke":
		return nukeCommand(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func seedCommand(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "YAML file to seed from")
	dir := fs.String("dir", "", "Directory of YAML files to seed from")
	dryRun := fs.Bool("dry-run", false, "Validate files without making database changes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		return err
	}

	seedData, err := loadSeedData(files)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	if *dryRun {
		fmt.Println("dry run: validating data structure")
		return validateSeedData(seedData)
	}

	cfg := config.Load()
	seedDB, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("seedDB connection failed: %w", err)
	}
	defer seedDB.Close()

	fmt.Printf("seeding seedDB from %d file(s)\n", len(files))
	return applySeedData(context.Background(), seedDB, seedData)
}

func nukeCommand(args []string) error {
	fs := flag.NewFlagSet("nuke", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if !*force && !confirmNuke() {
		fmt.Println("operation cancelled")
		return nil
	}

	return nukeDatabase()
}

func resolveFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("must specify either --file or --dir")
	}

	if file != "" && dir != "" {
		return nil, errors.New("cannot specify both --file and --dir")
	}

	if file != "" {
		return []string{file}, nil
	}

	return findYAMLFiles(dir)
}

func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in directory: %s", dir)
	}

	return files, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		combined.Users = append(combined.Users, fileData.Users...)
		combined.Relationships = append(combined.Relationships, fileData.Relationships...)
		combined.Grants = append(combined.Grants, fileData.Grants...)
	}

	return combined, nil
}

func validateSeedData(data *SeedData) error {
	fmt.Printf("  Users: %d\n", len(data.Users))
	fmt.Printf("  Relationships: %d\n", len(data.Relationships))
	fmt.Printf("  Grants: %d\n", len(data.Grants))
	fmt.Println("data structure is valid")
	return nil
}

func applySeedData(ctx context.Context, seedDB *database.Database, data *SeedData) error {
	queries := seedDB.Queries()

	userIDs := make(map[string]uuid.UUID)
	for _, user := range data.Users {
		params := db.CreateUserParams{
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        user.Role,
			IsVerified:  user.IsVerified,
		}
		userResult, err := queries.CreateUser(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		userIDs[user.Email] = userResult.ID
		fmt.Printf("created user: %s\n", user.Email)
	}

	relIDs := make(map[string]uuid.UUID)
	for _, rel := range data.Relationships {
		clientID, professionalID, err := resolvePair(userIDs, rel.ClientEmail, rel.ProfessionalEmail)
		if err != nil {
			return err
		}
		relResult, err := queries.CreateRelationship(ctx, db.CreateRelationshipParams{
			ClientID:       clientID,
			ProfessionalID: professionalID,
		})
		if err != nil {
			return fmt.Errorf("failed to create relationship %s -> %s: %w", rel.ClientEmail, rel.ProfessionalEmail, err)
		}
		relIDs[rel.ClientEmail+"/"+rel.ProfessionalEmail] = relResult.ID
		fmt.Printf("created relationship: %s -> %s\n", rel.ClientEmail, rel.ProfessionalEmail)
	}

	// Grants go through the service so exclusivity holds in seed data too.
	audit := permissions.NewAuditLogger(queries)
	grants := permissions.NewGrantService(seedDB.Pool(), queries, audit, permissions.Hooks{})

	for _, grant := range data.Grants {
		relID, exists := relIDs[grant.ClientEmail+"/"+grant.ProfessionalEmail]
		if !exists {
			return fmt.Errorf("relationship %s -> %s not found for grant", grant.ClientEmail, grant.ProfessionalEmail)
		}
		for _, slug := range grant.Slugs {
			if _, err := grants.Grant(ctx, relID, slug, permissions.GrantedBySystem, permissions.SystemActor()); err != nil {
				return fmt.Errorf("failed to grant %s on %s -> %s: %w", slug, grant.ClientEmail, grant.ProfessionalEmail, err)
			}
			fmt.Printf("granted %s: %s -> %s\n", slug, grant.ClientEmail, grant.ProfessionalEmail)
		}
	}

	fmt.Println("seeding completed")
	return nil
}

func resolvePair(userIDs map[string]uuid.UUID, clientEmail, professionalEmail string) (uuid.UUID, uuid.UUID, error) {
	clientID, exists := userIDs[clientEmail]
	if !exists {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user %s not found", clientEmail)
	}
	professionalID, exists := userIDs[professionalEmail]
	if !exists {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user %s not found", professionalEmail)
	}
	return clientID, professionalID, nil
}

func nukeDatabase() error {
	cfg := config.Load()

	// Open database connection for goose
	sqlDB, err := goose.OpenDBWithDriver("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			fmt.Printf("warning: failed to close database: %v\n", err)
		}
	}()

	fmt.Println("resetting database with goose...")

	fmt.Println("rolling back all migrations...")
	if err := goose.Reset(sqlDB, "db/migrations"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	fmt.Println("applying all migrations...")
	if err := goose.Up(sqlDB, "db/migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	fmt.Println("database reset complete - ready for seeding")
	return nil
}

func confirmNuke() bool {
	fmt.Print("warning: this will delete all data from the database. are you sure? (yes/no): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func printUsage() {
	fmt.Println("Seeder Tool - Database seeding utility for PeakForm")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  seeder <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  seed        Seed database from YAML files")
	fmt.Println("  nuke        Delete all data from database")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("SEED FLAGS:")
	fmt.Println("  --file      Path to a single YAML file")
	fmt.Println("  --dir       Path to directory containing YAML files")
	fmt.Println("  --dry-run   Validate files without making database changes")
	fmt.Println()
	fmt.Println("NUKE FLAGS:")
	fmt.Println("  --force     Skip confirmation prompt")
}
