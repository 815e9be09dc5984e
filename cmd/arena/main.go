// Package main runs the arena: a terminal host that plays one character
// through the fight module.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cory-johannsen/resfight/internal/config"
	"github.com/cory-johannsen/resfight/internal/frontend/text"
	"github.com/cory-johannsen/resfight/internal/game/arena"
	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/dice"
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/npc"
	"github.com/cory-johannsen/resfight/internal/game/progression"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
	"github.com/cory-johannsen/resfight/internal/observability"
	"github.com/cory-johannsen/resfight/internal/scripting"
	"github.com/cory-johannsen/resfight/internal/storage"
	"github.com/cory-johannsen/resfight/internal/storage/postgres"
	"github.com/cory-johannsen/resfight/internal/storage/sqlite"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	name := flag.String("name", "Violet", "name of the character to create")
	characterID := flag.Int64("character", 0, "id of an existing character to play; 0 creates a new one")
	flag.Parse()

	// A missing .env is fine; the environment and config file still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "arena")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	characters, scenes, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer closeStore()

	src := dice.NewCryptoSource()
	a, closeScripts, err := buildArena(ctx, cfg, src, characters, scenes, logger)
	if err != nil {
		logger.Fatal("building arena", zap.Error(err))
	}
	defer closeScripts()

	id := *characterID
	if id == 0 {
		c, err := a.CreateCharacter(ctx, *name)
		if err != nil {
			logger.Fatal("creating character", zap.Error(err))
		}
		id = c.ID
	}

	logger.Info("arena ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int64("character_id", id),
		zap.Duration("elapsed", time.Since(start)),
	)

	styler := text.Styler{Enabled: term.IsTerminal(int(os.Stdout.Fd()))}
	if err := repl(ctx, a, id, os.Stdin, os.Stdout, styler); err != nil {
		logger.Fatal("arena stopped", zap.Error(err))
	}
}

// buildArena loads the content named by cfg and wires the fight module, the
// arena, and the Lua subscribers. The returned close func is never nil.
func buildArena(ctx context.Context, cfg config.Config, src dice.Source, characters storage.CharacterStore, scenes scene.Repository, logger *zap.Logger) (*arena.Arena, func(), error) {
	noop := func() {}
	hostScenes, err := scene.LoadScenes(cfg.Content.ScenesFile)
	if err != nil {
		return nil, noop, err
	}
	templates, err := npc.LoadTemplates(cfg.Content.EnemiesDir)
	if err != nil {
		return nil, noop, err
	}
	enemies, err := npc.NewRegistry(templates)
	if err != nil {
		return nil, noop, err
	}
	if enemies.Len() == 0 {
		return nil, noop, fmt.Errorf("%s: %w", cfg.Content.EnemiesDir, npc.ErrNoTemplates)
	}

	roller := dice.NewLoggedRoller(src, logger)
	pipeline := hook.NewPipeline(logger)
	ctrl := fight.NewController(pipeline, scenes, fight.EngineFactory(battle.NewEngine(src, logger)), logger)

	a := arena.New(arena.Deps{
		Module:      fight.NewModule(ctrl, cfg.Fight, logger),
		Progression: progression.NewEngine(pipeline, logger),
		Characters:  characters,
		Scenes:      scenes,
		Enemies:     enemies,
		Roller:      roller,
		Config:      cfg.Fight,
		Logger:      logger,
	})
	if err := a.Setup(ctx, hostScenes); err != nil {
		return nil, noop, err
	}
	logger.Info("content loaded", zap.Int("scenes", len(hostScenes)), zap.Int("enemies", enemies.Len()))

	if cfg.Scripting.Dir == "" {
		return a, noop, nil
	}
	mgr := scripting.NewManager(roller, logger)
	mgr.Names = arena.ScriptNames()
	if err := mgr.LoadDir(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
		mgr.Close()
		return nil, noop, err
	}
	attached := mgr.Attach(pipeline, arena.ScriptBindings())
	logger.Info("lua subscribers attached", zap.Int("hooks", len(attached)))
	return a, mgr.Close, nil
}

// openStorage selects the configured backend. The returned close func is never nil.
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.CharacterStore, scene.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database, logger.Named("postgres"))
		if err != nil {
			return nil, nil, func() {}, err
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		return postgres.NewCharacterRepository(pool), postgres.NewSceneRepository(pool), pool.Close, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, func() {}, err
		}
		logger.Info("sqlite opened", zap.String("path", cfg.Storage.SQLitePath))
		return sqlite.NewCharacterRepository(db), sqlite.NewSceneRepository(db), func() { _ = db.Close() }, nil
	default:
		return storage.NewMemoryCharacterStore(), scene.NewMemoryRepository(), func() {}, nil
	}
}

// repl reads commands from in until EOF, "quit", or ctx is done. A number
// picks the matching action; "newday" starts a new day; "look" re-renders.
func repl(ctx context.Context, a *arena.Arena, characterID int64, in io.Reader, out io.Writer, s text.Styler) error {
	sceneID := a.Village().ID
	var params map[string]string
	var actions []viewpoint.Action

	render := func(v *viewpoint.Viewpoint, err error) {
		if err != nil {
			fmt.Fprintln(out, text.RenderError(err, s))
		}
		if v == nil {
			return
		}
		var page string
		page, actions = text.RenderViewpoint(v, s)
		fmt.Fprint(out, page)
	}

	render(a.Request(ctx, characterID, sceneID, nil))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, s.Colorize(text.Dim, "> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "newday":
			sceneID, params = a.Village().ID, nil
			render(a.NewDay(ctx, characterID))
			continue
		case "look":
			render(a.Request(ctx, characterID, sceneID, nil))
			continue
		}
		n, err := strconv.Atoi(cmd)
		if err != nil || n < 1 || n > len(actions) {
			fmt.Fprintln(out, s.Colorf(text.Yellow, "Choose an action between 1 and %d, or type newday, look, or quit.", len(actions)))
			continue
		}
		act := actions[n-1]
		sceneID, params = act.SceneID, act.Parameters
		render(a.Request(ctx, characterID, sceneID, params))
	}
}
