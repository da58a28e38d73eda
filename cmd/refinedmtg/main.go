package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Ahzmund/RefinedMTG/internal/config"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/cards"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/deck"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/deckimport"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/scryfall"
	"github.com/Ahzmund/RefinedMTG/internal/storage"
	"github.com/Ahzmund/RefinedMTG/internal/storage/repository"
)

// app bundles the wired services the subcommands operate on.
type app struct {
	db       *storage.DB
	decks    repository.DeckRepository
	catalog  *cards.Service
	scryfall *scryfall.Client
	engine   *deck.Engine
	importer *deckimport.Importer
}

func main() {
	configPath := flag.String("config", "refinedmtg.toml", "path to config file")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dbConfig := storage.DefaultConfig(cfg.Database.Path)
	dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	dbConfig.JournalMode = cfg.Database.JournalMode
	dbConfig.Synchronous = cfg.Database.Synchronous
	dbConfig.AutoMigrate = true

	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	client := scryfall.NewClient(
		scryfall.WithBaseURL(cfg.Scryfall.BaseURL),
		scryfall.WithUserAgent(cfg.Scryfall.UserAgent),
	)

	cardRepo := repository.NewCardRepository(db.Conn())
	deckRepo := repository.NewDeckRepository(db.Conn())
	changelogRepo := repository.NewChangelogRepository(db)
	catalog := cards.NewService(cardRepo, client, logger)

	a := &app{
		db:       db,
		decks:    deckRepo,
		catalog:  catalog,
		scryfall: client,
		engine:   deck.NewEngine(deckRepo, changelogRepo, catalog, logger),
		importer: deckimport.NewImporter(deckRepo, changelogRepo, catalog, logger),
	}

	ctx := context.Background()

	var cmdErr error
	switch flag.Arg(0) {
	case "import":
		cmdErr = a.runImport(ctx, flag.Args()[1:])
	case "decks":
		cmdErr = a.runDecks(ctx)
	case "show":
		cmdErr = a.runShow(ctx, flag.Args()[1:])
	case "search":
		cmdErr = a.runSearch(ctx, flag.Args()[1:])
	case "reclassify":
		cmdErr = a.runReclassify(ctx)
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		log.Fatalf("Command failed: %v", cmdErr)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: refinedmtg [-config path] <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  import -name <deck name> -file <decklist file> [-commander <name>] [-folder <id>]")
	fmt.Fprintln(os.Stderr, "  decks")
	fmt.Fprintln(os.Stderr, "  show <deck id>")
	fmt.Fprintln(os.Stderr, "  search <partial card name>")
	fmt.Fprintln(os.Stderr, "  reclassify")
}

func (a *app) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	name := fs.String("name", "", "deck name")
	file := fs.String("file", "", "decklist file path")
	commander := fs.String("commander", "", "commander name(s), comma separated")
	folder := fs.String("folder", "", "folder id to file the deck under")
	fs.Parse(args)

	if *name == "" || *file == "" {
		return fmt.Errorf("import requires -name and -file")
	}

	text, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read decklist file: %w", err)
	}

	var commanders []string
	for _, c := range strings.Split(*commander, ",") {
		if c = strings.TrimSpace(c); c != "" {
			commanders = append(commanders, c)
		}
	}

	var folderID *string
	if *folder != "" {
		folderID = folder
	}

	result, err := a.importer.ImportDecklist(ctx, *name, string(text), folderID, commanders)
	if err != nil {
		return err
	}

	fmt.Printf("Created deck %s with %d cards\n", result.DeckID, result.SuccessCount)
	if len(result.FailedCards) > 0 {
		fmt.Printf("%d cards could not be resolved:\n", len(result.FailedCards))
		for _, f := range result.FailedCards {
			fmt.Printf("  %d %s\n", f.Quantity, f.Name)
		}
	}
	return nil
}

func (a *app) runDecks(ctx context.Context) error {
	decks, err := a.decks.List(ctx)
	if err != nil {
		return err
	}

	for _, d := range decks {
		folder := ""
		if d.FolderName != nil {
			folder = " [" + *d.FolderName + "]"
		}
		fmt.Printf("%s  %-30s %3d cards%s  updated %s\n",
			d.ID, d.Name, d.CardCount, folder, d.UpdatedAt.Format(time.DateOnly))
	}
	return nil
}

func (a *app) runShow(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("show requires a deck id")
	}

	full, err := a.decks.GetWithCards(ctx, args[0])
	if err != nil {
		return err
	}
	if full == nil {
		return fmt.Errorf("deck %s not found", args[0])
	}

	fmt.Printf("%s (%s)\n\n", full.Name, full.Source)
	for _, dc := range full.Cards {
		zone := ""
		if dc.IsCommander {
			zone = "  *commander*"
		} else if dc.IsSideboard {
			zone = "  (sideboard)"
		}
		fmt.Printf("%2dx %s%s\n", dc.Quantity, dc.Card.Name, zone)
	}

	if len(full.Changelogs) > 0 {
		fmt.Printf("\nChangelog:\n")
		for _, entry := range full.Changelogs {
			desc := ""
			if entry.Description != nil {
				desc = *entry.Description
			}
			fmt.Printf("  %s  +%d/-%d  %s\n",
				entry.ChangeDate.Format(time.DateOnly),
				len(entry.CardsAdded), len(entry.CardsRemoved), desc)
		}
	}
	return nil
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("search requires a partial card name")
	}

	names, err := a.scryfall.Autocomplete(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func (a *app) runReclassify(ctx context.Context) error {
	updated, err := a.catalog.ReclassifyAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Reclassified %d cards\n", updated)
	return nil
}
